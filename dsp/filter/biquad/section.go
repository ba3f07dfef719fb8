//nolint:funcorder
package biquad

import (
	"sync"

	"github.com/cwbudde/algo-fm/dsp/core"
	archregistry "github.com/cwbudde/algo-fm/dsp/filter/biquad/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The difference equation is Direct Form I:
//
//	y[n] = B0*x[n] + B1*x[n-1] + B2*x[n-2] - A1*y[n-1] - A2*y[n-2]
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// State is the Direct Form I history of one section.
type State struct {
	X1, X2 float64 // x[n-1], x[n-2]
	Y1, Y2 float64 // y[n-1], y[n-2]
}

// ProcessSample filters one sample with c and advances the history.
func (st *State) ProcessSample(c Coefficients, x float64) float64 {
	return archregistry.Step(archregistry.Coefficients(c), (*archregistry.State)(st), x)
}

// Section is a single biquad filter with coefficients and internal state.
type Section struct {
	Coefficients

	state State
}

var (
	processBlockImpl     archregistry.ProcessBlockFn
	processBlockInitOnce sync.Once
)

// NewSection returns a Section initialized with the given coefficients
// and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// Apply filters src into dst with one section and updates st. dst may alias
// src. It fails with [core.ErrShortBuffer] before writing when dst is
// shorter than src.
func Apply(dst, src []float64, st *State, c Coefficients) error {
	if len(dst) < len(src) {
		return core.ErrShortBuffer
	}
	if len(src) == 0 {
		return nil
	}

	out := dst[:len(src)]
	copy(out, src)
	*st = processBlock(c, *st, out)
	return nil
}

func processBlock(c Coefficients, st State, buf []float64) State {
	processBlockInitOnce.Do(initProcessBlockKernel)

	return State(processBlockImpl(archregistry.Coefficients(c), archregistry.State(st), buf))
}

func initProcessBlockKernel() {
	entry := archregistry.Global.Lookup(cpu.DetectFeatures())
	if entry == nil {
		panic("biquad: no ProcessBlock kernel registered (missing generic fallback?)")
	}

	if entry.ProcessBlock == nil {
		panic("biquad: selected kernel missing ProcessBlock")
	}

	processBlockImpl = entry.ProcessBlock
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	return s.state.ProcessSample(s.Coefficients, x)
}

// ProcessBlock filters a block of samples in-place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	if len(buf) == 0 {
		return
	}
	s.state = processBlock(s.Coefficients, s.state, buf)
}

// ProcessBlockTo filters src into dst. dst must be at least as long as src.
func (s *Section) ProcessBlockTo(dst, src []float64) error {
	return Apply(dst, src, &s.state, s.Coefficients)
}

// Reset clears the history to zero.
func (s *Section) Reset() {
	s.state = State{}
}

// State returns the current history.
func (s *Section) State() State {
	return s.state
}

// SetState restores a previously saved history.
func (s *Section) SetState(state State) {
	s.state = state
}
