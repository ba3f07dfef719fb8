// Package signal generates deterministic baseband test material for the
// transceiver: tones, tone sums and seeded noise.
package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-fm/dsp/core"
)

// ErrLength is returned for a non-positive sample count.
var ErrLength = errors.New("signal: sample count must be > 0")

// Tone is one sinusoidal component.
type Tone struct {
	Freq      float64
	Amplitude float64
	// Phase is the start phase in radians.
	Phase float64
}

// Generator creates deterministic signals at a configured sample rate.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the noise seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a generator from processor options and generator
// options.
func NewGenerator(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// SampleRate returns the generator rate in Hz.
func (g *Generator) SampleRate() float64 { return g.cfg.SampleRate }

// Sine generates amplitude*sin(2π*freq*n/fs).
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	return g.Tones(samples, Tone{Freq: freqHz, Amplitude: amplitude})
}

// Tones generates the sum of tones. Components at or above Nyquist are
// rejected.
func (g *Generator) Tones(samples int, tones ...Tone) ([]float64, error) {
	if samples <= 0 {
		return nil, ErrLength
	}
	fs := g.cfg.SampleRate
	for _, tn := range tones {
		if tn.Freq < 0 || tn.Freq >= fs/2 || math.IsNaN(tn.Amplitude) {
			return nil, fmt.Errorf("signal: tone %.1f Hz at %.0f Hz: %w", tn.Freq, fs, core.ErrInvalidRate)
		}
	}

	out := make([]float64, samples)
	for _, tn := range tones {
		step := 2 * math.Pi * tn.Freq / fs
		for i := range out {
			out[i] += tn.Amplitude * math.Sin(step*float64(i)+tn.Phase)
		}
	}
	return out, nil
}

// WhiteNoise generates seeded uniform noise in [-amplitude, amplitude).
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, ErrLength
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("signal: noise amplitude must be >= 0: %f", amplitude)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (2*rng.Float64() - 1) * amplitude
	}
	return out, nil
}
