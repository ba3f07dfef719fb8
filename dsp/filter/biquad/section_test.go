package biquad

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-fm/dsp/core"
)

// tolerance for floating-point comparisons.
const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// passthrough returns coefficients for a unity gain passthrough (B0=1, all else 0).
func passthrough() Coefficients {
	return Coefficients{B0: 1}
}

// simpleLowpass returns a two-tap average: H(z) = 0.5*(1 + z^-1).
func simpleLowpass() Coefficients {
	return Coefficients{B0: 0.5, B1: 0.5}
}

func testCoeffs() Coefficients {
	return Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
}

func testSignal(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(0.13*float64(i)) + 0.3*math.Cos(0.71*float64(i))
	}
	return x
}

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}
	s := NewSection(c)
	if s.Coefficients != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients, c)
	}
	if st := s.State(); st != (State{}) {
		t.Fatalf("initial state not zero: %+v", st)
	}
}

func TestProcessSample_Passthrough(t *testing.T) {
	s := NewSection(passthrough())
	input := []float64{1, 0, -1, 0.5, 0.25}
	for i, x := range input {
		y := s.ProcessSample(x)
		if !almostEqual(y, x, eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, x)
		}
	}
}

func TestProcessSample_DirectFormI(t *testing.T) {
	// Hand-traced with B0=0.25, B1=0.5, B2=0.25, A1=-0.2, A2=0.04
	// and x = [1, 0, 0, 0]:
	//
	// n=0: y = 0.25
	// n=1: y = 0.5 + 0.2*0.25 = 0.55
	// n=2: y = 0.25 + 0.2*0.55 - 0.04*0.25 = 0.35
	// n=3: y = 0.2*0.35 - 0.04*0.55 = 0.048
	s := NewSection(testCoeffs())
	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		if y := s.ProcessSample(x); !almostEqual(y, w, eps) {
			t.Errorf("y[%d] = %.15f, want %.15f", i, y, w)
		}
	}

	st := s.State()
	if st.X1 != 0 || st.X2 != 0 {
		t.Fatalf("input history = (%v, %v), want zeros", st.X1, st.X2)
	}
	if !almostEqual(st.Y1, 0.048, eps) || !almostEqual(st.Y2, 0.35, eps) {
		t.Fatalf("output history = (%v, %v), want (0.048, 0.35)", st.Y1, st.Y2)
	}
}

func TestProcessBlock_MatchesSample(t *testing.T) {
	input := testSignal(37)
	ref := NewSection(testCoeffs())
	want := make([]float64, len(input))
	for i, x := range input {
		want[i] = ref.ProcessSample(x)
	}

	s := NewSection(testCoeffs())
	got := append([]float64(nil), input...)
	s.ProcessBlock(got)

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %.17g, want %.17g", i, got[i], want[i])
		}
	}
	if s.State() != ref.State() {
		t.Fatalf("state mismatch: %+v vs %+v", s.State(), ref.State())
	}
}

func TestApply_SplitInvariance(t *testing.T) {
	c := testCoeffs()
	input := testSignal(64)

	var whole State
	want := make([]float64, len(input))
	if err := Apply(want, input, &whole, c); err != nil {
		t.Fatal(err)
	}

	for _, split := range []int{1, 3, 17, 63} {
		var st State
		got := make([]float64, len(input))
		if err := Apply(got[:split], input[:split], &st, c); err != nil {
			t.Fatal(err)
		}
		if err := Apply(got[split:], input[split:], &st, c); err != nil {
			t.Fatal(err)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("split=%d sample %d: got %.17g, want %.17g", split, i, got[i], want[i])
			}
		}
		if st != whole {
			t.Fatalf("split=%d: state %+v, want %+v", split, st, whole)
		}
	}
}

func TestApply_InPlace(t *testing.T) {
	c := testCoeffs()
	input := testSignal(16)

	var st1, st2 State
	want := make([]float64, len(input))
	if err := Apply(want, input, &st1, c); err != nil {
		t.Fatal(err)
	}

	buf := append([]float64(nil), input...)
	if err := Apply(buf, buf, &st2, c); err != nil {
		t.Fatal(err)
	}
	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestApply_Empty(t *testing.T) {
	st := State{X1: 1, Y1: 2}
	if err := Apply(nil, nil, &st, testCoeffs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != (State{X1: 1, Y1: 2}) {
		t.Fatalf("state changed on empty block: %+v", st)
	}
}

func TestApply_ShortBuffer(t *testing.T) {
	dst := []float64{7, 7}
	var st State
	err := Apply(dst, []float64{1, 2, 3}, &st, testCoeffs())
	if !errors.Is(err, core.ErrShortBuffer) {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
	if dst[0] != 7 || dst[1] != 7 || st != (State{}) {
		t.Fatal("short buffer call modified dst or state")
	}
}

func TestApply_NaNPropagates(t *testing.T) {
	var st State
	dst := make([]float64, 4)
	if err := Apply(dst, []float64{1, math.NaN(), 0, 0}, &st, testCoeffs()); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(dst); i++ {
		if !math.IsNaN(dst[i]) {
			t.Fatalf("dst[%d] = %v, want NaN", i, dst[i])
		}
	}
}

func TestProcessBlockTo_MatchesSample(t *testing.T) {
	input := testSignal(9)
	ref := NewSection(testCoeffs())
	s := NewSection(testCoeffs())

	dst := make([]float64, len(input))
	if err := s.ProcessBlockTo(dst, input); err != nil {
		t.Fatal(err)
	}
	for i, x := range input {
		if want := ref.ProcessSample(x); dst[i] != want {
			t.Fatalf("sample %d: got %v, want %v", i, dst[i], want)
		}
	}
}

func TestProcessSample_PureDelay(t *testing.T) {
	// H(z) = z^-2
	s := NewSection(Coefficients{B2: 1})
	input := []float64{1, 2, 3, 4, 5}
	want := []float64{0, 0, 1, 2, 3}
	for i, x := range input {
		if y := s.ProcessSample(x); !almostEqual(y, want[i], eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, want[i])
		}
	}
}

func TestReset(t *testing.T) {
	s := NewSection(testCoeffs())

	s.ProcessSample(1)
	s.ProcessSample(0.5)

	if s.State() == (State{}) {
		t.Fatal("state should be non-zero after processing")
	}

	s.Reset()
	if st := s.State(); st != (State{}) {
		t.Fatalf("state not zero after reset: %+v", st)
	}
}

func TestState_SaveRestore(t *testing.T) {
	s := NewSection(testCoeffs())

	s.ProcessSample(1)
	s.ProcessSample(0.5)
	saved := s.State()

	y3 := s.ProcessSample(-0.3)
	y4 := s.ProcessSample(0.7)

	s.SetState(saved)
	y3b := s.ProcessSample(-0.3)
	y4b := s.ProcessSample(0.7)

	if y3 != y3b || y4 != y4b {
		t.Errorf("restore mismatch: (%v, %v) vs (%v, %v)", y3, y4, y3b, y4b)
	}
}

func TestProcessSample_StabilityLongRun(t *testing.T) {
	s := NewSection(testCoeffs())
	s.ProcessSample(1)

	for range 10000 {
		s.ProcessSample(0)
	}
	st := s.State()
	if math.Abs(st.Y1) > 1e-100 || math.Abs(st.Y2) > 1e-100 {
		t.Errorf("state did not decay: %+v", st)
	}
}

func TestProcessSample_UnstableDiverges(t *testing.T) {
	c := Coefficients{B0: 1, A1: -2.1}
	if Stable(c) {
		t.Fatal("expected coefficients to be reported unstable")
	}

	s := NewSection(c)
	s.ProcessSample(1)
	var y float64
	for range 4000 {
		y = s.ProcessSample(0)
	}
	if !math.IsInf(y, 0) && !math.IsNaN(y) && math.Abs(y) < 1e300 {
		t.Fatalf("unstable section did not diverge: y=%v", y)
	}
}

func TestProcessSample_SimpleLowpass(t *testing.T) {
	s := NewSection(simpleLowpass())
	input := []float64{1, 1, 1, 1}
	want := []float64{0.5, 1, 1, 1}
	for i, x := range input {
		if y := s.ProcessSample(x); !almostEqual(y, want[i], eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, want[i])
		}
	}
}

func BenchmarkSectionProcessBlock(b *testing.B) {
	s := NewSection(testCoeffs())
	buf := testSignal(1024)

	b.SetBytes(int64(len(buf) * 8))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		s.ProcessBlock(buf)
	}
}
