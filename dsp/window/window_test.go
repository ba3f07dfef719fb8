package window

import (
	"math"
	"testing"
)

func TestGenerate(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman, TypeFlatTop} {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 65)
			if len(w) != 65 {
				t.Fatalf("len=%d, want 65", len(w))
			}
			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
				if d := math.Abs(v - w[len(w)-1-i]); d > 1e-12 {
					t.Fatalf("not symmetric at %d: %v vs %v", i, v, w[len(w)-1-i])
				}
			}
			if peak := w[32]; math.Abs(peak-1) > 1e-6 {
				t.Fatalf("centre = %v, want 1", peak)
			}
		})
	}
}

func TestGenerateHann(t *testing.T) {
	const n = 16
	w := Generate(TypeHann, n)
	for i, v := range w {
		want := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/(n-1))
		if math.Abs(v-want) > 1e-15 {
			t.Fatalf("w[%d] = %v, want %v", i, v, want)
		}
	}
	if w[0] != 0 {
		t.Fatalf("edge = %v", w[0])
	}
}

func TestPeriodic(t *testing.T) {
	sym := Generate(TypeHann, 16)
	per := Generate(TypeHann, 16, WithPeriodic())
	if math.Abs(per[8]-1) > 1e-15 {
		t.Fatalf("periodic centre = %v, want 1", per[8])
	}
	if sym[8] == per[8] {
		t.Fatal("periodic and symmetric forms match")
	}
	if g := CoherentGain(per); math.Abs(g-0.5) > 1e-15 {
		t.Fatalf("periodic Hann coherent gain = %v, want 0.5", g)
	}
}

func TestGenerateEdgeCases(t *testing.T) {
	if w := Generate(TypeHann, 0); w != nil {
		t.Fatalf("length 0 = %v, want nil", w)
	}
	if w := Generate(TypeHann, 1); len(w) != 1 || w[0] != 0 {
		t.Fatalf("length 1 = %v", w)
	}
	if w := Generate(Type(99), 3); w[0] != 1 || w[1] != 1 || w[2] != 1 {
		t.Fatalf("unknown type = %v, want rectangular", w)
	}
	if CoherentGain(nil) != 0 {
		t.Fatal("CoherentGain(nil) != 0")
	}
}

func TestApply(t *testing.T) {
	buf := []float64{2, 2, 2, 2, 2}
	Apply(TypeHann, buf)
	want := Generate(TypeHann, 5)
	for i := range buf {
		if math.Abs(buf[i]-2*want[i]) > 1e-15 {
			t.Fatalf("buf[%d] = %v, want %v", i, buf[i], 2*want[i])
		}
	}
	Apply(TypeHann, nil)
}
