package tone

import (
	"errors"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/cwbudde/algo-fm/dsp/window"
	"github.com/cwbudde/algo-vecmath"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTooShort is returned when a signal has too few samples to analyze.
	ErrTooShort = errors.New("tone: signal too short")
	// ErrLength is returned when reference and signal lengths differ.
	ErrLength = errors.New("tone: length mismatch")
)

// toneBins is the half-width in bins of the region attributed to the tone.
const toneBins = 4

// Spectrum returns the Hann-windowed power spectrum of x over the bins
// [0, n/2] of an FFT of size n, the next power of two >= len(x).
func Spectrum(x []float64) ([]float64, int, error) {
	if len(x) < 8 {
		return nil, 0, ErrTooShort
	}

	n := nextPowerOf2(len(x))
	win := window.Generate(window.TypeHann, len(x))
	vecmath.MulBlockInPlace(win, x)

	in := make([]complex128, n)
	for i, v := range win {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, 0, err
	}
	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, 0, err
	}

	half := n/2 + 1
	re := make([]float64, half)
	im := make([]float64, half)
	for i := range re {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}
	power := make([]float64, half)
	vecmath.Power(power, re, im)
	return power, n, nil
}

// DominantFrequency returns the frequency in Hz of the strongest spectral
// peak of x, excluding DC, refined by parabolic interpolation on the log
// power.
func DominantFrequency(x []float64, sampleRate float64) (float64, error) {
	if !core.ValidRate(sampleRate) {
		return 0, core.ErrInvalidRate
	}
	power, n, err := Spectrum(x)
	if err != nil {
		return 0, err
	}

	k := 1 + floats.MaxIdx(power[1:])
	offset := 0.0
	if k > 1 && k < len(power)-1 {
		a := math.Log(power[k-1] + 1e-300)
		b := math.Log(power[k] + 1e-300)
		c := math.Log(power[k+1] + 1e-300)
		if den := a - 2*b + c; den != 0 {
			offset = 0.5 * (a - c) / den
		}
	}
	return (float64(k) + offset) * sampleRate / float64(n), nil
}

// ToneToResidualDB returns the ratio in dB between the spectral power
// within a few bins of freq and the power of every other non-DC bin.
func ToneToResidualDB(x []float64, sampleRate, freq float64) (float64, error) {
	if !core.ValidRate(sampleRate) || !core.ValidRate(freq) {
		return 0, core.ErrInvalidRate
	}
	power, n, err := Spectrum(x)
	if err != nil {
		return 0, err
	}

	center := int(math.Round(freq * float64(n) / sampleRate))
	lo := max(1+toneBins, center-toneBins)
	hi := min(len(power)-1, center+toneBins)
	if lo > hi {
		return 0, ErrTooShort
	}

	total := f64.Sum(power[1+toneBins:])
	signal := f64.Sum(power[lo : hi+1])
	residual := total - signal
	if residual <= 0 {
		return math.Inf(1), nil
	}
	return core.LinearPowerToDB(signal / residual), nil
}

// RMS returns the root-mean-square level of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(f64.DotProduct(x, x) / float64(len(x)))
}

// RemoveDC writes src minus its mean into dst and returns the mean.
func RemoveDC(dst, src []float64) (float64, error) {
	if len(dst) < len(src) {
		return 0, core.ErrShortBuffer
	}
	if len(src) == 0 {
		return 0, nil
	}
	mean := f64.Sum(src) / float64(len(src))
	for i, v := range src {
		dst[i] = v - mean
	}
	return mean, nil
}

// AlignedCorrelation searches lags 0..maxLag for the delay of got
// relative to ref that maximizes the Pearson correlation, and returns that
// lag and coefficient.
func AlignedCorrelation(ref, got []float64, maxLag int) (int, float64, error) {
	if len(ref) != len(got) {
		return 0, 0, ErrLength
	}
	if maxLag < 0 || len(ref)-maxLag < 8 {
		return 0, 0, ErrTooShort
	}

	n := len(ref)
	bestLag, bestR := 0, math.Inf(-1)
	for lag := 0; lag <= maxLag; lag++ {
		r := stat.Correlation(ref[:n-lag], got[lag:], nil)
		if r > bestR {
			bestLag, bestR = lag, r
		}
	}
	return bestLag, bestR, nil
}

// LeastSquaresGain returns g minimizing |got - g*ref|².
func LeastSquaresGain(ref, got []float64) (float64, error) {
	if len(ref) != len(got) {
		return 0, ErrLength
	}
	energy := f64.DotProduct(ref, ref)
	if energy == 0 {
		return 0, ErrTooShort
	}
	return f64.DotProduct(ref, got) / energy, nil
}

// Normalize scales x in place to peak amplitude target and returns the
// applied factor. A silent signal is left unchanged.
func Normalize(x []float64, target float64) float64 {
	if len(x) == 0 {
		return 1
	}
	peak := math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
	if peak == 0 {
		return 1
	}
	g := target / peak
	f64.Scale(x, x, g)
	return g
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
