package registry

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// Coefficients are biquad transfer coefficients (a0 normalized to 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// State is the direct form I history: x[n-1], x[n-2], y[n-1], y[n-2].
type State struct {
	X1, X2, Y1, Y2 float64
}

// ProcessBlockFn filters buf in-place with one direct form I section and
// returns the updated history.
type ProcessBlockFn func(c Coefficients, st State, buf []float64) State

// OpEntry is one registered biquad kernel implementation.
type OpEntry struct {
	Name         string
	SIMDLevel    cpu.SIMDLevel
	Priority     int
	ProcessBlock ProcessBlockFn
}

// OpRegistry stores available implementations.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the default biquad kernel registry.
var Global = &OpRegistry{}

// Register adds an implementation entry.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority implementation supported by features.
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

func supports(features cpu.Features, level cpu.SIMDLevel) bool {
	if features.ForceGeneric {
		return level == cpu.SIMDNone
	}

	switch level {
	case cpu.SIMDNone:
		return true
	case cpu.SIMDSSE2:
		return features.HasSSE2
	case cpu.SIMDAVX2:
		return features.HasAVX2
	case cpu.SIMDNEON:
		return features.HasNEON
	default:
		return false
	}
}

func (r *OpRegistry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
}

// ListEntries returns a copy of entries for tests/debugging.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]OpEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Reset clears all entries. Intended for tests.
func (r *OpRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.sorted = false
}

// Step evaluates one direct form I output sample and shifts the history.
//
// Every kernel builds on Step or repeats its exact expression. The explicit
// conversions block FMA contraction, so all kernels round identically.
func Step(c Coefficients, st *State, x float64) float64 {
	y := float64(c.B0*x) + float64(c.B1*st.X1) + float64(c.B2*st.X2) -
		float64(c.A1*st.Y1) - float64(c.A2*st.Y2)
	st.X2, st.X1 = st.X1, x
	st.Y2, st.Y1 = st.Y1, y
	return y
}
