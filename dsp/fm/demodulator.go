package fm

import (
	"math"

	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/cwbudde/algo-fm/dsp/filter/biquad"
	"github.com/cwbudde/algo-fm/dsp/filter/design"
	"github.com/cwbudde/algo-fm/dsp/osc"
	"github.com/cwbudde/algo-vecmath"
)

// OutputScale is the fixed demodulator output gain.
const OutputScale = 2

// DemodulatorState is the demodulator stream state.
type DemodulatorState struct {
	// Reference is the quadrature reference oscillator.
	Reference osc.State
	// PrevSin is the reference sine of the previous sample.
	PrevSin float64
	// I and Q are the branch filter histories.
	I, Q biquad.CascadeState
	// PrevI and PrevQ are the previous filtered branch outputs.
	PrevI, PrevQ float64
}

// DemodulationGain returns the factor between the demodulator output and
// modulationIndex*x for a modulator at the same carrier and sample period:
// OutputScale*sin(w)/w with w = 2π*fc*T. The sin(w)/w term comes from the
// finite-difference quadrature reference.
func DemodulationGain(carrierFreq, samplePeriod float64) float64 {
	w := osc.TwoPi * carrierFreq * samplePeriod
	if w == 0 {
		return OutputScale
	}
	return OutputScale * math.Sin(w) / w
}

type demodParams struct {
	delta    float64
	invOmega float64
	invT     float64
}

func newDemodParams(carrierFreq, samplePeriod float64) (demodParams, error) {
	if !validPeriod(samplePeriod) || !validFreq(carrierFreq) {
		return demodParams{}, core.ErrInvalidRate
	}
	omega := osc.TwoPi * carrierFreq * samplePeriod
	if omega == 0 || math.IsInf(omega, 0) {
		return demodParams{}, core.ErrInvalidRate
	}
	return demodParams{
		delta:    osc.Increment(carrierFreq, samplePeriod),
		invOmega: 1 / omega,
		invT:     1 / samplePeriod,
	}, nil
}

// Demodulate recovers the baseband from an FM signal at carrierFreq. Per
// sample:
//
//	s     = sin(angle)
//	cosA  = (s - prevSin) / (2π*fc*T)
//	re    = lowpass(-2*x*s)
//	im    = lowpass(2*x*cosA)
//	y     = OutputScale * (re'*im - im'*re)
//
// where lowpass is sections cascaded biquads with coefficients c and the
// derivatives are backward differences over T. dst may alias src.
func Demodulate(dst, src []float64, st *DemodulatorState, carrierFreq, samplePeriod float64, c biquad.Coefficients, sections int) error {
	p, err := checkDemodulate(dst, src, carrierFreq, samplePeriod, sections)
	if err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}

	lo := st.Reference
	lo.Reduce()
	prevSin := st.PrevSin
	prevI, prevQ := st.PrevI, st.PrevQ
	for n, x := range src {
		s := math.Sin(lo.Next(p.delta))
		cosA := (s - prevSin) * p.invOmega

		re := st.I.ProcessSample(c, sections, -2*float64(x*s))
		im := st.Q.ProcessSample(c, sections, 2*float64(x*cosA))

		dRe := (re - prevI) * p.invT
		dIm := (im - prevQ) * p.invT
		dst[n] = OutputScale * (float64(dRe*im) - float64(dIm*re))

		prevSin = s
		prevI, prevQ = re, im
	}

	st.Reference = lo
	st.PrevSin = prevSin
	st.PrevI, st.PrevQ = prevI, prevQ
	return nil
}

// DemodulateBatched is Demodulate evaluated width samples at a time. width
// must be 4 or 8 and len(src) a multiple of width.
func DemodulateBatched(dst, src []float64, st *DemodulatorState, carrierFreq, samplePeriod float64, c biquad.Coefficients, sections, width int) error {
	p, err := checkDemodulate(dst, src, carrierFreq, samplePeriod, sections)
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
		angBuf, sinBuf, prevBuf, cosBuf [maxBatch]float64
		reBuf, imBuf, tmpBuf, dReBuf    [maxBatch]float64
		dImBuf                          [maxBatch]float64
	)
	ang, sins, prevs, cosA := angBuf[:width], sinBuf[:width], prevBuf[:width], cosBuf[:width]
	re, im, tmp, dRe, dIm := reBuf[:width], imBuf[:width], tmpBuf[:width], dReBuf[:width], dImBuf[:width]

	for off := 0; off < len(src); off += width {
		xs := src[off : off+width]

		osc.Advance(ang, &st.Reference, p.delta)
		for j, a := range ang {
			sins[j] = math.Sin(a)
		}

		// Finite-difference reference: (s - prevSin) * invOmega.
		shifted(prevs, st.PrevSin, sins)
		negate(prevs)
		copy(cosA, sins)
		vecmath.AddBlockInPlace(cosA, prevs)
		vecmath.ScaleBlock(cosA, cosA, p.invOmega)

		vecmath.MulBlock(tmp, xs, sins)
		vecmath.ScaleBlock(re, tmp, -2)
		vecmath.MulBlock(tmp, xs, cosA)
		vecmath.ScaleBlock(im, tmp, 2)

		if err := biquad.ApplyCascade(re, re, &st.I, c, sections); err != nil {
			return err
		}
		if err := biquad.ApplyCascade(im, im, &st.Q, c, sections); err != nil {
			return err
		}

		backwardDiff(dRe, re, st.PrevI, p.invT)
		backwardDiff(dIm, im, st.PrevQ, p.invT)

		// y = OutputScale * (dRe*im - dIm*re)
		out := dst[off : off+width]
		vecmath.MulBlock(out, dRe, im)
		vecmath.MulBlock(tmp, dIm, re)
		negate(tmp)
		vecmath.AddBlockInPlace(out, tmp)
		vecmath.ScaleBlock(out, out, OutputScale)

		st.PrevSin = sins[width-1]
		st.PrevI, st.PrevQ = re[width-1], im[width-1]
	}
	return nil
}

// backwardDiff writes (x[j] - x[j-1]) * invT into dst with x[-1] = prev.
func backwardDiff(dst, x []float64, prev, invT float64) {
	shifted(dst, prev, x)
	negate(dst)
	vecmath.AddBlockInPlace(dst, x)
	vecmath.ScaleBlock(dst, dst, invT)
}

func negate(buf []float64) {
	vecmath.ScaleBlock(buf, buf, -1)
}

func checkDemodulate(dst, src []float64, carrierFreq, samplePeriod float64, sections int) (demodParams, error) {
	p, err := newDemodParams(carrierFreq, samplePeriod)
	if err != nil {
		return p, err
	}
	if sections < 1 || sections > biquad.MaxSections {
		return p, biquad.ErrSections
	}
	if len(dst) < len(src) {
		return p, core.ErrShortBuffer
	}
	return p, nil
}

// Demodulator is a streaming FM demodulator stage.
type Demodulator struct {
	carrierFreq  float64
	samplePeriod float64
	coeffs       biquad.Coefficients
	sections     int
	batchWidth   int

	state     DemodulatorState
	nonFinite bool
}

// NewDemodulator returns a demodulator for carrierFreq Hz at sampleRate.
// The branch lowpass defaults to a Butterworth-Q RBJ design at half the
// carrier frequency; see WithCutoff and WithCoefficients.
func NewDemodulator(carrierFreq, sampleRate float64, opts ...Option) (*Demodulator, error) {
	cfg := applyOptions(opts)
	if !core.ValidRate(sampleRate) {
		return nil, core.ErrInvalidRate
	}
	if _, err := newDemodParams(carrierFreq, 1/sampleRate); err != nil {
		return nil, err
	}
	if cfg.sections < 1 || cfg.sections > biquad.MaxSections {
		return nil, biquad.ErrSections
	}

	c := cfg.coeffs
	if !cfg.hasCoeffs {
		cutoff := cfg.cutoff
		if cutoff == 0 {
			cutoff = math.Abs(carrierFreq) / 2
		}
		c = design.Lowpass(cutoff, design.DefaultQ, sampleRate)
	}

	return &Demodulator{
		carrierFreq:  carrierFreq,
		samplePeriod: 1 / sampleRate,
		coeffs:       c,
		sections:     cfg.sections,
		batchWidth:   cfg.batchWidth,
	}, nil
}

// ProcessBlockTo demodulates src into dst.
func (d *Demodulator) ProcessBlockTo(dst, src []float64) error {
	var err error
	if d.batchWidth > 0 {
		err = DemodulateBatched(dst, src, &d.state, d.carrierFreq, d.samplePeriod, d.coeffs, d.sections, d.batchWidth)
	} else {
		err = Demodulate(dst, src, &d.state, d.carrierFreq, d.samplePeriod, d.coeffs, d.sections)
	}
	if err != nil {
		return err
	}
	d.nonFinite = !core.Finite(dst[:len(src)])
	return nil
}

// Gain returns DemodulationGain for this stage.
func (d *Demodulator) Gain() float64 {
	return DemodulationGain(d.carrierFreq, d.samplePeriod)
}

// Coefficients returns the branch lowpass coefficients.
func (d *Demodulator) Coefficients() biquad.Coefficients { return d.coeffs }

// NonFinite reports whether the latest block produced NaN or Inf.
func (d *Demodulator) NonFinite() bool { return d.nonFinite }

// State returns the stream state.
func (d *Demodulator) State() DemodulatorState { return d.state }

// SetState restores a saved stream state.
func (d *Demodulator) SetState(st DemodulatorState) { d.state = st }

// Reset clears the stream state.
func (d *Demodulator) Reset() {
	d.state = DemodulatorState{}
	d.nonFinite = false
}
