package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > eps {
			require.FailNowf(t, "sample mismatch", "index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireBitIdentical fails t unless got and want hold the same float64
// bit patterns. NaNs compare equal to NaNs.
func RequireBitIdentical(t testing.TB, got, want []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range got {
		if math.Float64bits(got[i]) != math.Float64bits(want[i]) {
			require.FailNowf(t, "bit mismatch", "index %d: got %v (%#x), want %v (%#x)",
				i, got[i], math.Float64bits(got[i]), want[i], math.Float64bits(want[i]))
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			require.FailNowf(t, "non-finite sample", "index %d: %v", i, v)
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		maxDiff = math.Max(maxDiff, math.Abs(a[i]-b[i]))
	}
	return maxDiff, nil
}
