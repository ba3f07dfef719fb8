package main

import (
	"fmt"
	"strings"

	resampling "github.com/tphakala/go-audio-resampler"
)

// parseQuality maps a -quality flag value to a resampler preset.
func parseQuality(q string) (resampling.QualityPreset, error) {
	switch strings.ToLower(q) {
	case "quick":
		return resampling.QualityQuick, nil
	case "low":
		return resampling.QualityLow, nil
	case "medium":
		return resampling.QualityMedium, nil
	case "high", "":
		return resampling.QualityHigh, nil
	case "veryhigh":
		return resampling.QualityVeryHigh, nil
	default:
		return 0, fmt.Errorf("fmsim: unknown resampler quality %q", q)
	}
}

// convertRate resamples x from one audio rate to another and fits the
// result to want samples. Equal rates return x unchanged.
func convertRate(x []float64, from, to int, want int, quality resampling.QualityPreset) ([]float64, error) {
	if from == to {
		return x, nil
	}
	y, err := resampling.ResampleMono(x, float64(from), float64(to), quality)
	if err != nil {
		return nil, fmt.Errorf("resample %d Hz to %d Hz: %w", from, to, err)
	}
	out := make([]float64, want)
	copy(out, y)
	return out, nil
}

// simLength returns the length of n samples at from once resampled to to.
func simLength(n, from, to int) int {
	return int((int64(n)*int64(to) + int64(from)/2) / int64(from))
}
