package fm

import (
	"math"

	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/cwbudde/algo-fm/dsp/osc"
	"github.com/cwbudde/algo-vecmath"
)

// ModulatorState is the modulator stream state.
type ModulatorState struct {
	// Carrier is the carrier oscillator.
	Carrier osc.State
	// Sum is the running trapezoid integral of the baseband. It is never
	// reset, so a DC input grows the phase deviation without bound.
	Sum float64
	// Prev is the last baseband sample.
	Prev float64
}

// Modulate phase-modulates a carrier with src:
//
//	sum  += prev + x
//	y     = cos(angle + index*T/2*sum)
//
// where angle is the carrier oscillator phase, advanced by 2π*fc*T per
// sample.
//
// dst may alias src.
func Modulate(dst, src []float64, st *ModulatorState, carrierFreq, samplePeriod, modulationIndex float64) error {
	if err := checkModulate(dst, src, carrierFreq, samplePeriod, modulationIndex); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}

	delta := osc.Increment(carrierFreq, samplePeriod)
	c := modulationIndex * samplePeriod / 2

	lo := st.Carrier
	lo.Reduce()
	sum, prev := st.Sum, st.Prev
	for i, x := range src {
		sum += prev + x
		angle := lo.Next(delta)
		dst[i] = math.Cos(angle + float64(c*sum))
		prev = x
	}

	st.Carrier = lo
	st.Sum, st.Prev = sum, prev
	return nil
}

// ModulateBatched is Modulate evaluated width samples at a time. width must
// be 4 or 8 and len(src) a multiple of width.
func ModulateBatched(dst, src []float64, st *ModulatorState, carrierFreq, samplePeriod, modulationIndex float64, width int) error {
	if err := checkModulate(dst, src, carrierFreq, samplePeriod, modulationIndex); err != nil {
		return err
	}
	if err := checkWidth(len(src), width); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}

	delta := osc.Increment(carrierFreq, samplePeriod)
	c := modulationIndex * samplePeriod / 2

	var prevBuf, pairBuf, sumBuf, argBuf [maxBatch]float64
	prevs, pairs, sums, args := prevBuf[:width], pairBuf[:width], sumBuf[:width], argBuf[:width]

	sum := st.Sum
	prev := st.Prev
	for off := 0; off < len(src); off += width {
		xs := src[off : off+width]

		shifted(prevs, prev, xs)
		copy(pairs, prevs)
		vecmath.AddBlockInPlace(pairs, xs)

		for j, p := range pairs {
			sum += p
			sums[j] = sum
		}

		// Deviation c*sum lane-wise, then the carrier phase added on top.
		vecmath.ScaleBlock(args, sums, c)
		osc.Advance(sums, &st.Carrier, delta)
		vecmath.AddBlockInPlace(args, sums)

		prev = xs[width-1]
		out := dst[off : off+width]
		for j, a := range args {
			out[j] = math.Cos(a)
		}
	}

	st.Sum, st.Prev = sum, prev
	return nil
}

func checkModulate(dst, src []float64, carrierFreq, samplePeriod, modulationIndex float64) error {
	if !validPeriod(samplePeriod) || !validFreq(carrierFreq) || !validFreq(modulationIndex) {
		return core.ErrInvalidRate
	}
	if len(dst) < len(src) {
		return core.ErrShortBuffer
	}
	return nil
}

// Modulator is a streaming FM modulator stage.
type Modulator struct {
	carrierFreq  float64
	samplePeriod float64
	index        float64
	batchWidth   int

	state     ModulatorState
	nonFinite bool
}

// NewModulator returns a modulator for carrierFreq Hz at sampleRate with
// the given modulation index in rad/s per unit amplitude.
func NewModulator(carrierFreq, sampleRate, modulationIndex float64, opts ...Option) (*Modulator, error) {
	cfg := applyOptions(opts)
	if !core.ValidRate(sampleRate) || !validFreq(carrierFreq) || !validFreq(modulationIndex) {
		return nil, core.ErrInvalidRate
	}

	return &Modulator{
		carrierFreq:  carrierFreq,
		samplePeriod: 1 / sampleRate,
		index:        modulationIndex,
		batchWidth:   cfg.batchWidth,
	}, nil
}

// ProcessBlockTo modulates src into dst.
func (m *Modulator) ProcessBlockTo(dst, src []float64) error {
	var err error
	if m.batchWidth > 0 {
		err = ModulateBatched(dst, src, &m.state, m.carrierFreq, m.samplePeriod, m.index, m.batchWidth)
	} else {
		err = Modulate(dst, src, &m.state, m.carrierFreq, m.samplePeriod, m.index)
	}
	if err != nil {
		return err
	}
	m.nonFinite = !core.Finite(dst[:len(src)])
	return nil
}

// NonFinite reports whether the latest block produced NaN or Inf.
func (m *Modulator) NonFinite() bool { return m.nonFinite }

// ModulationIndex returns the configured modulation index.
func (m *Modulator) ModulationIndex() float64 { return m.index }

// State returns the stream state.
func (m *Modulator) State() ModulatorState { return m.state }

// SetState restores a saved stream state.
func (m *Modulator) SetState(st ModulatorState) { m.state = st }

// Reset clears the stream state.
func (m *Modulator) Reset() {
	m.state = ModulatorState{}
	m.nonFinite = false
}
