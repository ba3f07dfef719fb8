// Package window generates the analysis windows used by the tone
// measurements.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeFlatTop
)

// Cosine-sum terms a_k of w(x) = Σ a_k cos(2πkx).
var (
	hannCoeffs     = []float64{0.5, -0.5}
	hammingCoeffs  = []float64{0.54, -0.46}
	blackmanCoeffs = []float64{0.42, -0.5, 0.08}
	flatTopCoeffs  = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
)

// String returns the window name.
func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "Rectangular"
	case TypeHann:
		return "Hann"
	case TypeHamming:
		return "Hamming"
	case TypeBlackman:
		return "Blackman"
	case TypeFlatTop:
		return "FlatTop"
	default:
		return "Unknown"
	}
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic form, with denominator N instead of
// N-1.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length. Unknown types
// yield a rectangular window.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	terms := coeffs(t)
	out := make([]float64, length)
	for i := range out {
		out[i] = cosineSum(samplePosition(i, length, cfg.periodic), terms)
	}
	return out
}

// Apply multiplies buf in place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}
	vecmath.MulBlockInPlace(buf, Generate(t, len(buf), opts...))
}

// CoherentGain returns sum(w)/N, the DC gain of the window.
func CoherentGain(w []float64) float64 {
	if len(w) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum / float64(len(w))
}

func coeffs(t Type) []float64 {
	switch t {
	case TypeHann:
		return hannCoeffs
	case TypeHamming:
		return hammingCoeffs
	case TypeBlackman:
		return blackmanCoeffs
	case TypeFlatTop:
		return flatTopCoeffs
	default:
		return nil
	}
}

func cosineSum(x float64, terms []float64) float64 {
	if len(terms) == 0 {
		return 1
	}
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range terms {
		sum += c * math.Cos(float64(k)*phase)
	}
	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}
	return float64(n) / den
}
