package biquad

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-fm/dsp/core"
)

func TestOnePole_StepResponse(t *testing.T) {
	p := NewOnePole(0.5)
	want := []float64{0.5, 0.75, 0.875, 0.9375}
	for i, w := range want {
		if y := p.ProcessSample(1); y != w {
			t.Fatalf("y[%d] = %v, want %v", i, y, w)
		}
	}
}

func TestApplyOnePole_MatchesSample(t *testing.T) {
	input := testSignal(20)
	var st OnePoleState
	got := make([]float64, len(input))
	if err := ApplyOnePole(got, input, &st, 0.3); err != nil {
		t.Fatal(err)
	}

	ref := NewOnePole(0.3)
	for i, x := range input {
		if want := ref.ProcessSample(x); got[i] != want {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want)
		}
	}
	if st != ref.State() {
		t.Fatalf("state %+v, want %+v", st, ref.State())
	}
}

func TestApplyOnePole_ShortBuffer(t *testing.T) {
	var st OnePoleState
	if err := ApplyOnePole(nil, []float64{1}, &st, 0.5); !errors.Is(err, core.ErrShortBuffer) {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
}

func TestOnePoleCascade_DCGain(t *testing.T) {
	var st OnePoleCascadeState
	var y float64
	for range 500 {
		y = st.ProcessSample(0.2, 3, 1)
	}
	if math.Abs(y-1) > 1e-9 {
		t.Fatalf("DC gain = %v, want 1", y)
	}
	if st[3] != (OnePoleState{}) {
		t.Fatal("unused cascade slot touched")
	}
}
