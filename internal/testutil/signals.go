// Package testutil holds deterministic signal generators and comparison
// helpers shared by the stage tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates amplitude*sin(2π*freq*n/sampleRate).
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude,
// amplitude) with a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Carrier generates cos(2π*freq*n/sampleRate), the unmodulated FM signal.
func Carrier(freqHz, sampleRate float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = math.Cos(step * float64(i))
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Partition splits n into seeded pseudo-random block lengths that are
// multiples of step and sum to n. n must itself be a multiple of step.
// Zero-length blocks are included now and then.
func Partition(seed int64, n, step int) []int {
	if step < 1 {
		step = 1
	}
	rng := rand.New(rand.NewSource(seed))
	var sizes []int
	for left := n / step; left > 0; {
		k := rng.Intn(min(left, 37) + 1)
		sizes = append(sizes, k*step)
		left -= k
	}
	return sizes
}
