package resample

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-fm/dsp/core"
)

// ErrInvalidRatio indicates a multiplier below 1 or a rate pair that is not
// an integer ratio.
var ErrInvalidRatio = errors.New("resample: invalid ratio")

// State is the stream state shared by Upsample and Downsample.
type State struct {
	// Prev is the last input sample seen by Upsample.
	Prev float64
	// Multiplier is the integer conversion ratio.
	Multiplier int
	// Skip is the number of input samples Downsample drops before its next
	// kept sample.
	Skip int
}

// NewState returns a zero state for ratio m.
func NewState(m int) (State, error) {
	if m < 1 {
		return State{}, ErrInvalidRatio
	}
	return State{Multiplier: m}, nil
}

// UpsampledLen returns the Upsample output length for n input samples.
func (s State) UpsampledLen(n int) int {
	return n * s.Multiplier
}

// DownsampledLen returns the Downsample output length for the next n input
// samples.
func (s State) DownsampledLen(n int) int {
	if n <= s.Skip || s.Multiplier < 1 {
		return 0
	}
	return (n - s.Skip + s.Multiplier - 1) / s.Multiplier
}

// Upsample writes Multiplier samples per input sample, interpolating
// linearly from the previous input:
//
//	dst[i*M+j] = prev + (j/M)*(src[i]-prev)
//
// The lattice point j=0 of block i reproduces src[i-1], so the output lags
// the input by one input sample. It returns the number of samples written.
func Upsample(dst, src []float64, st *State) (int, error) {
	m := st.Multiplier
	if m < 1 {
		return 0, ErrInvalidRatio
	}
	n := len(src) * m
	if len(dst) < n {
		return 0, core.ErrShortBuffer
	}

	fm := float64(m)
	prev := st.Prev
	for i, x := range src {
		d := x - prev
		out := dst[i*m : i*m+m]
		out[0] = prev
		for j := 1; j < m; j++ {
			out[j] = prev + float64(float64(j)/fm*d)
		}
		prev = x
	}
	st.Prev = prev
	return n, nil
}

// Downsample keeps every Multiplier-th input sample unchanged. The stride
// phase continues across calls through State.Skip. It returns the number of
// samples written.
func Downsample(dst, src []float64, st *State) (int, error) {
	m := st.Multiplier
	if m < 1 {
		return 0, ErrInvalidRatio
	}
	n := st.DownsampledLen(len(src))
	if len(dst) < n {
		return 0, core.ErrShortBuffer
	}

	i := st.Skip
	k := 0
	for ; i < len(src); i += m {
		dst[k] = src[i]
		k++
	}
	st.Skip = i - len(src)
	return k, nil
}

// Linear is a streaming integer-ratio resampler in one direction.
type Linear struct {
	state State
	up    bool
}

// NewUpsampler returns a resampler that multiplies the rate by m.
func NewUpsampler(m int) (*Linear, error) {
	st, err := NewState(m)
	if err != nil {
		return nil, err
	}
	return &Linear{state: st, up: true}, nil
}

// NewDownsampler returns a resampler that divides the rate by m.
func NewDownsampler(m int) (*Linear, error) {
	st, err := NewState(m)
	if err != nil {
		return nil, err
	}
	return &Linear{state: st}, nil
}

// ForRates returns the resampler converting inRate to outRate. One rate
// must be an integer multiple of the other.
func ForRates(inRate, outRate float64) (*Linear, error) {
	if !core.ValidRate(inRate) || !core.ValidRate(outRate) {
		return nil, core.ErrInvalidRate
	}

	if outRate >= inRate {
		m, ok := integerRatio(outRate, inRate)
		if !ok {
			return nil, ErrInvalidRatio
		}
		return NewUpsampler(m)
	}

	m, ok := integerRatio(inRate, outRate)
	if !ok {
		return nil, ErrInvalidRatio
	}
	return NewDownsampler(m)
}

func integerRatio(hi, lo float64) (int, bool) {
	r := hi / lo
	m := math.Round(r)
	if m < 1 || m > math.MaxInt32 || !core.NearlyEqual(r, m, 1e-9) {
		return 0, false
	}
	return int(m), true
}

// Process converts src into dst and returns the number of samples written.
func (l *Linear) Process(dst, src []float64) (int, error) {
	if l.up {
		return Upsample(dst, src, &l.state)
	}
	return Downsample(dst, src, &l.state)
}

// OutputLen returns the number of samples the next Process call produces
// for n input samples.
func (l *Linear) OutputLen(n int) int {
	if l.up {
		return l.state.UpsampledLen(n)
	}
	return l.state.DownsampledLen(n)
}

// Ratio returns the conversion factors as up/down.
func (l *Linear) Ratio() (up, down int) {
	if l.up {
		return l.state.Multiplier, 1
	}
	return 1, l.state.Multiplier
}

// State returns the stream state.
func (l *Linear) State() State { return l.state }

// SetState restores a saved stream state. The multiplier is kept.
func (l *Linear) SetState(st State) {
	st.Multiplier = l.state.Multiplier
	l.state = st
}

// Reset clears the stream history.
func (l *Linear) Reset() {
	l.state = State{Multiplier: l.state.Multiplier}
}
