//go:build arm64 && !purego

package neon

import (
	"strconv"
	"testing"

	"github.com/cwbudde/algo-fm/dsp/filter/biquad/internal/arch/registry"
)

func TestProcessBlock_MatchesReference(t *testing.T) {
	c := registry.Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	in := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8, -0.1}

	// Odd and even lengths exercise the paired loop and the scalar tail.
	for _, n := range []int{0, 1, 2, len(in) - 1, len(in)} {
		start := registry.State{X1: 0.3, X2: -0.2, Y1: 0.1, Y2: 0.05}
		got := append([]float64(nil), in[:n]...)
		want := append([]float64(nil), in[:n]...)

		stGot := processBlock(c, start, got)
		stWant := refProcess(c, start, want)

		if stGot != stWant {
			t.Fatalf("n=%d: state mismatch: got %+v, want %+v", n, stGot, stWant)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("n=%d: sample %d mismatch: got %.17g, want %.17g", n, i, got[i], want[i])
			}
		}
	}
}

func BenchmarkProcessBlock_NEONKernel(b *testing.B) {
	c := registry.Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	for _, n := range []int{256, 4096} {
		b.Run("n="+strconv.Itoa(n), func(b *testing.B) {
			buf := make([]float64, n)
			for i := range buf {
				buf[i] = float64(i) * 0.001
			}
			b.SetBytes(int64(n * 8))
			b.ReportAllocs()
			var st registry.State
			for range b.N {
				st = processBlock(c, st, buf)
			}
		})
	}
}

func refProcess(c registry.Coefficients, st registry.State, buf []float64) registry.State {
	for i, x := range buf {
		buf[i] = registry.Step(c, &st, x)
	}
	return st
}
