//go:build amd64 && !purego

package avx2

import (
	"github.com/cwbudde/algo-fm/dsp/filter/biquad/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "avx2",
		SIMDLevel:    cpu.SIMDAVX2,
		Priority:     20,
		ProcessBlock: processBlock,
	})
}

// processBlock is a 4x-unrolled scalar kernel selected for AVX2-capable CPUs.
// The feed-forward half of each output is independent of the recursion, so it
// is evaluated for all four samples before the feedback terms.
func processBlock(c registry.Coefficients, st registry.State, buf []float64) registry.State {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2
	x1, x2, y1, y2 := st.X1, st.X2, st.Y1, st.Y2

	i := 0
	n := len(buf)
	for ; i+3 < n; i += 4 {
		s0, s1, s2, s3 := buf[i], buf[i+1], buf[i+2], buf[i+3]

		f0 := float64(b0*s0) + float64(b1*x1) + float64(b2*x2)
		f1 := float64(b0*s1) + float64(b1*s0) + float64(b2*x1)
		f2 := float64(b0*s2) + float64(b1*s1) + float64(b2*s0)
		f3 := float64(b0*s3) + float64(b1*s2) + float64(b2*s1)

		o0 := f0 - float64(a1*y1) - float64(a2*y2)
		o1 := f1 - float64(a1*o0) - float64(a2*y1)
		o2 := f2 - float64(a1*o1) - float64(a2*o0)
		o3 := f3 - float64(a1*o2) - float64(a2*o1)

		buf[i] = o0
		buf[i+1] = o1
		buf[i+2] = o2
		buf[i+3] = o3

		x2, x1 = s2, s3
		y2, y1 = o2, o3
	}

	out := registry.State{X1: x1, X2: x2, Y1: y1, Y2: y2}
	for ; i < n; i++ {
		buf[i] = registry.Step(c, &out, buf[i])
	}
	return out
}
