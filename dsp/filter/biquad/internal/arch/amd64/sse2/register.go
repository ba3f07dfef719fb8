//go:build amd64 && !purego

package sse2

import (
	"github.com/cwbudde/algo-fm/dsp/filter/biquad/internal/arch/registry"
	"github.com/cwbudde/algo-vecmath/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:         "sse2",
		SIMDLevel:    cpu.SIMDSSE2,
		Priority:     10,
		ProcessBlock: processBlock,
	})
}

// processBlock is a 2x-unrolled direct form I kernel. History lives in
// registers across the pair.
func processBlock(c registry.Coefficients, st registry.State, buf []float64) registry.State {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2
	x1, x2, y1, y2 := st.X1, st.X2, st.Y1, st.Y2

	i := 0
	n := len(buf)
	for ; i+1 < n; i += 2 {
		x0 := buf[i]
		y0 := float64(b0*x0) + float64(b1*x1) + float64(b2*x2) -
			float64(a1*y1) - float64(a2*y2)

		xn := buf[i+1]
		yn := float64(b0*xn) + float64(b1*x0) + float64(b2*x1) -
			float64(a1*y0) - float64(a2*y1)

		buf[i] = y0
		buf[i+1] = yn
		x2, x1 = x0, xn
		y2, y1 = y0, yn
	}

	out := registry.State{X1: x1, X2: x2, Y1: y1, Y2: y2}
	if i < n {
		buf[i] = registry.Step(c, &out, buf[i])
	}
	return out
}
