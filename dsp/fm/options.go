package fm

import "github.com/cwbudde/algo-fm/dsp/filter/biquad"

type config struct {
	batchWidth int

	sections     int
	coeffs       biquad.Coefficients
	hasCoeffs    bool
	cutoff       float64
	decimation   int
	onePoleImage bool
}

// Option configures a Modulator, Demodulator or IFConverter. Options that
// do not apply to a stage are ignored by it.
type Option func(*config)

const (
	// DefaultSections is the cascade depth of the demodulator branch filters
	// and of the IF image filter.
	DefaultSections = 2
	// DefaultDecimation is the IF converter output stride.
	DefaultDecimation = 2
)

func applyOptions(opts []Option) config {
	cfg := config{
		sections:   DefaultSections,
		decimation: DefaultDecimation,
	}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}

// WithBatchWidth selects the batched kernel. Only 4 and 8 enable batching;
// any other value selects scalar processing.
func WithBatchWidth(width int) Option {
	return func(cfg *config) {
		switch width {
		case 4, maxBatch:
			cfg.batchWidth = width
		default:
			cfg.batchWidth = 0
		}
	}
}

// WithSections sets the demodulator branch cascade depth (1..4).
func WithSections(n int) Option {
	return func(cfg *config) {
		cfg.sections = n
	}
}

// WithImageSections sets the IF image filter cascade depth (1..4).
func WithImageSections(n int) Option {
	return WithSections(n)
}

// WithCoefficients sets explicit lowpass coefficients for the demodulator
// branches or the IF image filter, overriding the cutoff.
func WithCoefficients(c biquad.Coefficients) Option {
	return func(cfg *config) {
		cfg.coeffs = c
		cfg.hasCoeffs = true
	}
}

// WithCutoff sets the lowpass cutoff in Hz used to design the branch or
// image filter.
func WithCutoff(hz float64) Option {
	return func(cfg *config) {
		if hz > 0 {
			cfg.cutoff = hz
		}
	}
}

// WithDecimation sets the IF converter output stride.
func WithDecimation(d int) Option {
	return func(cfg *config) {
		cfg.decimation = d
	}
}

// WithOnePoleImage replaces the IF biquad image filter with a cascade of
// single-pole lowpass stages at the same cutoff.
func WithOnePoleImage() Option {
	return func(cfg *config) {
		cfg.onePoleImage = true
	}
}
