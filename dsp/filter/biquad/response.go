package biquad

import (
	"math"
	"math/cmplx"
)

// unitDelay returns z^-1 on the unit circle at freqHz.
func unitDelay(freqHz, sampleRate float64) complex128 {
	return cmplx.Rect(1, -2*math.Pi*freqHz/sampleRate)
}

// Response returns H(z) = (B0 + B1 z^-1 + B2 z^-2) / (1 + A1 z^-1 + A2 z^-2)
// on the unit circle at freqHz.
func (c *Coefficients) Response(freqHz, sampleRate float64) complex128 {
	z := unitDelay(freqHz, sampleRate)
	num := complex(c.B0, 0) + z*(complex(c.B1, 0)+z*complex(c.B2, 0))
	den := 1 + z*(complex(c.A1, 0)+z*complex(c.A2, 0))
	return num / den
}

// MagnitudeSquared returns |H(f)|^2 in closed form.
func (c *Coefficients) MagnitudeSquared(freqHz, sampleRate float64) float64 {
	cw := 2 * math.Cos(2*math.Pi*freqHz/sampleRate)
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	num := (b0-b2)*(b0-b2) + b1*b1 + (b1*(b0+b2)+b0*b2*cw)*cw
	den := (1-a2)*(1-a2) + a1*a1 + (a1*(a2+1)+cw*a2)*cw
	return num / den
}

// CascadeMagnitude returns |H(f)|^sections for a cascade of identical
// sections, as run by ApplyCascade.
func CascadeMagnitude(c Coefficients, sections int, freqHz, sampleRate float64) float64 {
	return math.Pow(c.MagnitudeSquared(freqHz, sampleRate), float64(sections)/2)
}

// OnePoleResponse returns a / (1 - (1-a) z^-1), the response of the
// y += a*(x-y) recurrence.
func OnePoleResponse(a, freqHz, sampleRate float64) complex128 {
	return complex(a, 0) / (1 - complex(1-a, 0)*unitDelay(freqHz, sampleRate))
}

// Response returns the cascade response including the input gain.
func (c *Chain) Response(freqHz, sampleRate float64) complex128 {
	h := complex(c.gain, 0)
	for k := range c.n {
		h *= c.coeffs[k].Response(freqHz, sampleRate)
	}
	return h
}

// Magnitude returns |H(f)| of the cascade.
func (c *Chain) Magnitude(freqHz, sampleRate float64) float64 {
	return cmplx.Abs(c.Response(freqHz, sampleRate))
}

// MagnitudeDB returns the cascade magnitude in dB.
func (c *Chain) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(c.Magnitude(freqHz, sampleRate))
}
