package biquad

import (
	"errors"

	"github.com/cwbudde/algo-fm/dsp/core"
)

// MaxSections is the largest number of sections a cascade can hold.
const MaxSections = 4

// ErrSections is returned for a cascade depth outside 1..MaxSections.
var ErrSections = errors.New("biquad: section count must be between 1 and 4")

// CascadeState holds the history of up to MaxSections identical sections.
// Only the first n entries are used by a cascade of depth n.
type CascadeState [MaxSections]State

// ProcessSample runs x through the first sections entries in order.
func (st *CascadeState) ProcessSample(c Coefficients, sections int, x float64) float64 {
	for k := 0; k < sections; k++ {
		x = st[k].ProcessSample(c, x)
	}
	return x
}

// ApplyCascade filters src through sections identical sections. Each
// section sees the previous section's output. dst may alias src.
func ApplyCascade(dst, src []float64, st *CascadeState, c Coefficients, sections int) error {
	if sections < 1 || sections > MaxSections {
		return ErrSections
	}
	if len(dst) < len(src) {
		return core.ErrShortBuffer
	}
	if len(src) == 0 {
		return nil
	}

	out := dst[:len(src)]
	copy(out, src)
	for k := 0; k < sections; k++ {
		st[k] = processBlock(c, st[k], out)
	}
	return nil
}

// ChainOption configures a Chain.
type ChainOption func(*chainConfig)

type chainConfig struct {
	gain float64
}

// WithGain sets a scalar applied to the input before the first section.
func WithGain(g float64) ChainOption {
	return func(cfg *chainConfig) {
		cfg.gain = g
	}
}

// Chain is a cascade of up to MaxSections sections with distinct
// coefficients and an optional input gain.
type Chain struct {
	coeffs [MaxSections]Coefficients
	state  CascadeState
	n      int
	gain   float64
}

// NewChain creates a cascade from coeffs.
func NewChain(coeffs []Coefficients, opts ...ChainOption) (*Chain, error) {
	if len(coeffs) < 1 || len(coeffs) > MaxSections {
		return nil, ErrSections
	}

	cfg := chainConfig{gain: 1}
	for _, o := range opts {
		o(&cfg)
	}

	c := &Chain{n: len(coeffs), gain: cfg.gain}
	copy(c.coeffs[:], coeffs)
	return c, nil
}

// ProcessSample filters one sample through every section.
func (c *Chain) ProcessSample(x float64) float64 {
	x *= c.gain
	for k := 0; k < c.n; k++ {
		x = c.state[k].ProcessSample(c.coeffs[k], x)
	}
	return x
}

// ProcessBlock filters buf in-place.
func (c *Chain) ProcessBlock(buf []float64) {
	if len(buf) == 0 {
		return
	}
	if c.gain != 1 {
		for i := range buf {
			buf[i] *= c.gain
		}
	}
	for k := 0; k < c.n; k++ {
		c.state[k] = processBlock(c.coeffs[k], c.state[k], buf)
	}
}

// ProcessBlockTo filters src into dst. dst may alias src.
func (c *Chain) ProcessBlockTo(dst, src []float64) error {
	if len(dst) < len(src) {
		return core.ErrShortBuffer
	}
	out := dst[:len(src)]
	copy(out, src)
	c.ProcessBlock(out)
	return nil
}

// NumSections returns the number of sections.
func (c *Chain) NumSections() int { return c.n }

// Order returns the filter order (two per section).
func (c *Chain) Order() int { return 2 * c.n }

// Gain returns the input gain.
func (c *Chain) Gain() float64 { return c.gain }

// Coefficients returns the coefficients of section i.
func (c *Chain) Coefficients(i int) Coefficients { return c.coeffs[i] }

// State returns a copy of every section history.
func (c *Chain) State() CascadeState { return c.state }

// SetState restores a saved history.
func (c *Chain) SetState(st CascadeState) { c.state = st }

// Reset clears every section history.
func (c *Chain) Reset() { c.state = CascadeState{} }
