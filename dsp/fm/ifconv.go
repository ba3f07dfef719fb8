package fm

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/cwbudde/algo-fm/dsp/filter/biquad"
	"github.com/cwbudde/algo-fm/dsp/filter/design"
	"github.com/cwbudde/algo-fm/dsp/osc"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrDecimation is returned for a decimation factor below 1.
	ErrDecimation = errors.New("fm: decimation must be at least 1")
	// ErrDecimationPhase is returned when IFState.Skip is outside
	// [0, decimation).
	ErrDecimationPhase = errors.New("fm: decimation phase out of range")
)

// IFState is the IF converter stream state.
type IFState struct {
	// LO is the local oscillator.
	LO osc.State
	// Prev is the last input sample.
	Prev float64
	// Image holds the biquad image filter histories.
	Image biquad.CascadeState
	// Fast holds the one-pole image filter histories.
	Fast biquad.OnePoleCascadeState
	// Skip is the number of input samples before the next emitted one.
	Skip int
}

// DecimatedLen returns the number of samples emitted for the next n input
// samples at the given decimation.
func (s IFState) DecimatedLen(n, decimation int) int {
	if n <= s.Skip || decimation < 1 {
		return 0
	}
	return (n - s.Skip + decimation - 1) / decimation
}

// ImageFilter describes the lowpass that removes the mixer image. It runs
// at twice the input rate.
type ImageFilter struct {
	Coefficients biquad.Coefficients
	// Sections is the cascade depth, 1..4.
	Sections int
	// OnePole, when positive, selects a cascade of single-pole stages with
	// this coefficient instead of the biquads.
	OnePole float64
}

func (f ImageFilter) validate() error {
	if f.Sections < 1 || f.Sections > biquad.MaxSections {
		return biquad.ErrSections
	}
	return nil
}

// Magnitude returns |H(freq)| of the whole image cascade at mixRate.
func (f ImageFilter) Magnitude(freq, mixRate float64) float64 {
	if f.OnePole > 0 {
		return math.Pow(cmplx.Abs(biquad.OnePoleResponse(f.OnePole, freq, mixRate)), float64(f.Sections))
	}
	return biquad.CascadeMagnitude(f.Coefficients, f.Sections, freq, mixRate)
}

func (f ImageFilter) sample(st *IFState, x float64) float64 {
	if f.OnePole > 0 {
		return st.Fast.ProcessSample(f.OnePole, f.Sections, x)
	}
	return st.Image.ProcessSample(f.Coefficients, f.Sections, x)
}

func (f ImageFilter) block(st *IFState, buf []float64) error {
	if f.OnePole > 0 {
		for k := 0; k < f.Sections; k++ {
			if err := biquad.ApplyOnePole(buf, buf, &st.Fast[k], f.OnePole); err != nil {
				return err
			}
		}
		return nil
	}
	return biquad.ApplyCascade(buf, buf, &st.Image, f.Coefficients, f.Sections)
}

type ifParams struct {
	delta, halfStep float64
}

func checkIF(dst, src []float64, st *IFState, carrierFreq, ifFreq, samplePeriod float64, decimation int, image ImageFilter) (ifParams, error) {
	if !validPeriod(samplePeriod) || !validFreq(carrierFreq) || !validFreq(ifFreq) {
		return ifParams{}, core.ErrInvalidRate
	}
	if decimation < 1 {
		return ifParams{}, ErrDecimation
	}
	if err := image.validate(); err != nil {
		return ifParams{}, err
	}
	if st.Skip < 0 || st.Skip >= decimation {
		return ifParams{}, ErrDecimationPhase
	}
	if len(dst) < st.DecimatedLen(len(src), decimation) {
		return ifParams{}, core.ErrShortBuffer
	}

	f := carrierFreq - ifFreq
	return ifParams{
		delta:    osc.Increment(f, samplePeriod),
		halfStep: math.Mod(osc.TwoPi*f*samplePeriod/2, osc.TwoPi),
	}, nil
}

// ConversionGain returns the IF amplitude for a unit carrier at
// carrierFreq. The b tap averages two input samples, which scales the
// carrier by cos(π*fc*T); interleaved with the full-size a tap the IF
// component is the mean of both, shaped by image at twice the input rate.
func ConversionGain(carrierFreq, ifFreq, samplePeriod float64, image ImageFilter) float64 {
	half := math.Cos(math.Pi * carrierFreq * samplePeriod)
	return (1 + half) / 2 * image.Magnitude(ifFreq, 2/samplePeriod)
}

// ConvertIntermediateFrequency shifts src from carrierFreq down to ifFreq
// and decimates by decimation. The local oscillator runs at
// carrierFreq-ifFreq. For every input sample x two mixer taps half a
// sample apart are formed:
//
//	a = 2 * prev * cos(angle)
//	b = 2 * (prev+x)/2 * cos(angle + δ/2)
//
// Both run in time order through image at twice the input rate; the
// filtered a of every decimation-th input sample is emitted, starting with
// the first of the stream. The stride continues across calls through
// IFState.Skip, so blocks may have any length. dst may alias src.
func ConvertIntermediateFrequency(dst, src []float64, st *IFState, carrierFreq, ifFreq, samplePeriod float64, decimation int, image ImageFilter) error {
	p, err := checkIF(dst, src, st, carrierFreq, ifFreq, samplePeriod, decimation, image)
	if err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}

	lo := st.LO
	lo.Reduce()
	prev, skip, k := st.Prev, st.Skip, 0
	for _, x := range src {
		angle := lo.Next(p.delta)
		half := (prev + x) * 0.5
		a := 2 * float64(prev*math.Cos(angle))
		b := 2 * float64(half*math.Cos(angle+p.halfStep))

		a = image.sample(st, a)
		image.sample(st, b)
		if skip == 0 {
			dst[k] = a
			k++
			skip = decimation
		}
		skip--
		prev = x
	}

	st.LO = lo
	st.Prev, st.Skip = prev, skip
	return nil
}

// ConvertIntermediateFrequencyBatched is ConvertIntermediateFrequency
// evaluated width samples at a time. width must be 4 or 8 and len(src) a
// multiple of width.
func ConvertIntermediateFrequencyBatched(dst, src []float64, st *IFState, carrierFreq, ifFreq, samplePeriod float64, decimation int, image ImageFilter, width int) error {
	p, err := checkIF(dst, src, st, carrierFreq, ifFreq, samplePeriod, decimation, image)
	if err != nil {
		return err
	}
	if err := checkWidth(len(src), width); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}

	var (
		angBuf, cosABuf, cosBBuf, prevBuf [maxBatch]float64
		halfBuf, tapABuf, tapBBuf         [maxBatch]float64
		mixBuf                            [2 * maxBatch]float64
	)
	ang, cosA, cosB, prevs := angBuf[:width], cosABuf[:width], cosBBuf[:width], prevBuf[:width]
	half, tapA, tapB := halfBuf[:width], tapABuf[:width], tapBBuf[:width]
	mix := mixBuf[:2*width]

	k := 0
	for off := 0; off < len(src); off += width {
		xs := src[off : off+width]

		osc.Advance(ang, &st.LO, p.delta)
		for j, a := range ang {
			cosA[j] = math.Cos(a)
			cosB[j] = math.Cos(a + p.halfStep)
		}

		shifted(prevs, st.Prev, xs)
		copy(half, prevs)
		vecmath.AddBlockInPlace(half, xs)
		vecmath.ScaleBlock(half, half, 0.5)

		vecmath.MulBlock(tapA, prevs, cosA)
		vecmath.ScaleBlock(tapA, tapA, 2)
		vecmath.MulBlock(tapB, half, cosB)
		vecmath.ScaleBlock(tapB, tapB, 2)

		for j := range tapA {
			mix[2*j] = tapA[j]
			mix[2*j+1] = tapB[j]
		}
		if err := image.block(st, mix); err != nil {
			return err
		}

		st.Prev = xs[width-1]
		for j := 0; j < width; j++ {
			if st.Skip == 0 {
				dst[k] = mix[2*j]
				k++
				st.Skip = decimation
			}
			st.Skip--
		}
	}
	return nil
}

// IFConverter is a streaming IF down-converter and decimator.
type IFConverter struct {
	carrierFreq  float64
	ifFreq       float64
	samplePeriod float64
	decimation   int
	image        ImageFilter
	batchWidth   int

	state     IFState
	nonFinite bool
}

// NewIFConverter returns a converter from carrierFreq to ifFreq for input at
// sampleRate. The image filter defaults to DefaultSections RBJ lowpass
// sections at twice the IF, designed for the doubled mixer rate.
func NewIFConverter(carrierFreq, ifFreq, sampleRate float64, opts ...Option) (*IFConverter, error) {
	cfg := applyOptions(opts)
	if !core.ValidRate(sampleRate) || !validFreq(carrierFreq) || !validFreq(ifFreq) {
		return nil, core.ErrInvalidRate
	}
	if cfg.decimation < 1 {
		return nil, ErrDecimation
	}

	mixRate := 2 * sampleRate
	cutoff := cfg.cutoff
	if cutoff == 0 {
		cutoff = 2 * math.Abs(ifFreq)
	}

	image := ImageFilter{Sections: cfg.sections}
	switch {
	case cfg.onePoleImage:
		image.OnePole = design.OnePole(cutoff, mixRate)
	case cfg.hasCoeffs:
		image.Coefficients = cfg.coeffs
	default:
		image.Coefficients = design.Lowpass(cutoff, design.DefaultQ, mixRate)
	}
	if err := image.validate(); err != nil {
		return nil, err
	}

	return &IFConverter{
		carrierFreq:  carrierFreq,
		ifFreq:       ifFreq,
		samplePeriod: 1 / sampleRate,
		decimation:   cfg.decimation,
		image:        image,
		batchWidth:   cfg.batchWidth,
	}, nil
}

// ProcessBlockTo converts src into dst and returns the number of output
// samples, OutputLen(len(src)).
func (c *IFConverter) ProcessBlockTo(dst, src []float64) (int, error) {
	n := c.OutputLen(len(src))
	var err error
	if c.batchWidth > 0 {
		err = ConvertIntermediateFrequencyBatched(dst, src, &c.state, c.carrierFreq, c.ifFreq, c.samplePeriod, c.decimation, c.image, c.batchWidth)
	} else {
		err = ConvertIntermediateFrequency(dst, src, &c.state, c.carrierFreq, c.ifFreq, c.samplePeriod, c.decimation, c.image)
	}
	if err != nil {
		return 0, err
	}
	c.nonFinite = !core.Finite(dst[:n])
	return n, nil
}

// OutputLen returns the output length for the next n input samples. It is
// n/Decimation whenever every block so far was a multiple of Decimation.
func (c *IFConverter) OutputLen(n int) int { return c.state.DecimatedLen(n, c.decimation) }

// Gain returns ConversionGain for this stage.
func (c *IFConverter) Gain() float64 {
	return ConversionGain(c.carrierFreq, c.ifFreq, c.samplePeriod, c.image)
}

// Decimation returns the output stride.
func (c *IFConverter) Decimation() int { return c.decimation }

// Image returns the image filter configuration.
func (c *IFConverter) Image() ImageFilter { return c.image }

// NonFinite reports whether the latest block produced NaN or Inf.
func (c *IFConverter) NonFinite() bool { return c.nonFinite }

// State returns the stream state.
func (c *IFConverter) State() IFState { return c.state }

// SetState restores a saved stream state.
func (c *IFConverter) SetState(st IFState) { c.state = st }

// Reset clears the stream state.
func (c *IFConverter) Reset() {
	c.state = IFState{}
	c.nonFinite = false
}
