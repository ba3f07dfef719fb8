// Package osc provides the wrapped phase accumulator shared by the FM
// modulator, demodulator and IF converter.
//
// Phase is kept in [0, 2π) by a single conditional correction per sample.
// At block boundaries the phase is reduced with math.Mod, which is the
// identity on a wrapped phase, so the phase sequence depends only on the
// initial state, the increment and the number of elapsed samples.
package osc

import (
	"math"

	"github.com/cwbudde/algo-fm/dsp/core"
)

// TwoPi is one full turn in radians.
const TwoPi = 2 * math.Pi

// State is the oscillator stream state.
type State struct {
	Phase float64
}

// Increment returns the per-sample phase step 2π·freq·samplePeriod reduced
// into (-2π, 2π).
func Increment(freq, samplePeriod float64) float64 {
	return math.Mod(TwoPi*freq*samplePeriod, TwoPi)
}

// Wrap maps p from [-2π, 4π) into [0, 2π). NaN and Inf are returned
// unchanged in kind.
func Wrap(p float64) float64 {
	if p >= TwoPi {
		p -= TwoPi
		if p >= TwoPi {
			p = 0
		}
	} else if p < 0 {
		p += TwoPi
		if p >= TwoPi {
			p = 0
		}
	}
	return p
}

// Normalize reduces an arbitrary phase into [0, 2π).
func Normalize(p float64) float64 {
	return Wrap(math.Mod(p, TwoPi))
}

// Next returns the current phase and advances it by delta.
func (s *State) Next(delta float64) float64 {
	p := s.Phase
	s.Phase = Wrap(p + delta)
	return p
}

// Reduce maps the phase into [0, 2π). It is the identity on a phase that
// came out of Next or Advance.
func (s *State) Reduce() {
	s.Phase = Normalize(s.Phase)
}

// Advance fills dst with len(dst) consecutive phases starting at the
// current phase.
func Advance(dst []float64, st *State, delta float64) {
	if len(dst) == 0 {
		return
	}

	st.Reduce()
	p := st.Phase
	for i := range dst {
		dst[i] = p
		p = Wrap(p + delta)
	}
	st.Phase = p
}

// Sin writes sin(phase[i]) into dst.
func Sin(dst, phase []float64) error {
	if len(dst) < len(phase) {
		return core.ErrShortBuffer
	}
	for i, p := range phase {
		dst[i] = math.Sin(p)
	}
	return nil
}

// Cos writes cos(phase[i]) into dst.
func Cos(dst, phase []float64) error {
	if len(dst) < len(phase) {
		return core.ErrShortBuffer
	}
	for i, p := range phase {
		dst[i] = math.Cos(p)
	}
	return nil
}

// Oscillator is a fixed-frequency phase source.
type Oscillator struct {
	delta float64
	state State
}

// New returns an oscillator at freq Hz for sampleRate.
func New(freq, sampleRate float64) (*Oscillator, error) {
	if !core.ValidRate(sampleRate) || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return nil, core.ErrInvalidRate
	}
	return &Oscillator{delta: Increment(freq, 1/sampleRate)}, nil
}

// Delta returns the per-sample phase increment.
func (o *Oscillator) Delta() float64 { return o.delta }

// Phases fills dst with the next len(dst) phases.
func (o *Oscillator) Phases(dst []float64) {
	Advance(dst, &o.state, o.delta)
}

// Cos fills dst with the next len(dst) cosine samples.
func (o *Oscillator) Cos(dst []float64) {
	o.Phases(dst)
	for i, p := range dst {
		dst[i] = math.Cos(p)
	}
}

// Sin fills dst with the next len(dst) sine samples.
func (o *Oscillator) Sin(dst []float64) {
	o.Phases(dst)
	for i, p := range dst {
		dst[i] = math.Sin(p)
	}
}

// State returns the stream state.
func (o *Oscillator) State() State { return o.state }

// SetState restores a saved stream state.
func (o *Oscillator) SetState(st State) { o.state = st }

// Reset sets the phase to zero.
func (o *Oscillator) Reset() { o.state = State{} }
