package biquad

import "github.com/cwbudde/algo-fm/dsp/core"

// OnePoleState is the history of a single-pole lowpass.
type OnePoleState struct {
	Y float64
}

// ProcessSample applies y += a*(x-y) and returns y.
func (st *OnePoleState) ProcessSample(a, x float64) float64 {
	st.Y += float64(a * (x - st.Y))
	return st.Y
}

// ApplyOnePole filters src into dst with coefficient a. dst may alias src.
func ApplyOnePole(dst, src []float64, st *OnePoleState, a float64) error {
	if len(dst) < len(src) {
		return core.ErrShortBuffer
	}

	y := st.Y
	for i, x := range src {
		y += float64(a * (x - y))
		dst[i] = y
	}
	st.Y = y
	return nil
}

// OnePoleCascadeState holds up to MaxSections one-pole histories.
type OnePoleCascadeState [MaxSections]OnePoleState

// ProcessSample runs x through the first sections one-pole stages.
func (st *OnePoleCascadeState) ProcessSample(a float64, sections int, x float64) float64 {
	for k := 0; k < sections; k++ {
		x = st[k].ProcessSample(a, x)
	}
	return x
}

// OnePole is a single-pole lowpass with coefficient A in (0, 1].
type OnePole struct {
	A float64

	state OnePoleState
}

// NewOnePole returns a one-pole filter with zero state.
func NewOnePole(a float64) *OnePole {
	return &OnePole{A: a}
}

// ProcessSample filters one sample.
func (p *OnePole) ProcessSample(x float64) float64 {
	return p.state.ProcessSample(p.A, x)
}

// ProcessBlockTo filters src into dst.
func (p *OnePole) ProcessBlockTo(dst, src []float64) error {
	return ApplyOnePole(dst, src, &p.state, p.A)
}

// State returns the current history.
func (p *OnePole) State() OnePoleState { return p.state }

// SetState restores a saved history.
func (p *OnePole) SetState(st OnePoleState) { p.state = st }

// Reset clears the history.
func (p *OnePole) Reset() { p.state = OnePoleState{} }
