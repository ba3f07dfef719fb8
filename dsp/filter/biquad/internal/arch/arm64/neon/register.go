//go:build arm64 && !purego

package neon

import (
	"github.com/cwbudde/algo-fm/dsp/filter/biquad/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "neon",
		SIMDLevel:    cpu.SIMDNEON,
		Priority:     15,
		ProcessBlock: processBlock,
	})
}

// processBlock splits each pair into feed-forward and feedback halves so the
// feed-forward products can issue ahead of the recursion.
func processBlock(c registry.Coefficients, st registry.State, buf []float64) registry.State {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2
	x1, x2, y1, y2 := st.X1, st.X2, st.Y1, st.Y2

	i := 0
	n := len(buf)
	for ; i+1 < n; i += 2 {
		s0, s1 := buf[i], buf[i+1]

		f0 := float64(b0*s0) + float64(b1*x1) + float64(b2*x2)
		f1 := float64(b0*s1) + float64(b1*s0) + float64(b2*x1)

		o0 := f0 - float64(a1*y1) - float64(a2*y2)
		o1 := f1 - float64(a1*o0) - float64(a2*y1)

		buf[i] = o0
		buf[i+1] = o1
		x2, x1 = s0, s1
		y2, y1 = o0, o1
	}

	out := registry.State{X1: x1, X2: x2, Y1: y1, Y2: y2}
	if i < n {
		buf[i] = registry.Step(c, &out, buf[i])
	}
	return out
}
