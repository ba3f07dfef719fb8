package chain

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-fm/dsp/core"
)

// ErrConfig is returned by New for an inconsistent rate or frequency plan.
var ErrConfig = errors.New("chain: invalid configuration")

// ErrBlockSize is returned when a block exceeds the configured block size.
var ErrBlockSize = errors.New("chain: block exceeds configured size")

// Config is the transceiver frequency plan.
type Config struct {
	core.ProcessorConfig

	// Oversampling is the baseband to modulation rate factor.
	Oversampling int
	// CarrierFreq is the RF carrier in Hz.
	CarrierFreq float64
	// IFFreq is the intermediate frequency in Hz.
	IFFreq float64
	// Deviation is the peak frequency deviation in Hz for unit amplitude.
	Deviation float64
	// Decimation is the IF converter output stride. It must divide
	// Oversampling.
	Decimation int
	// BandLow and BandHigh bound the IF bandpass in Hz.
	BandLow, BandHigh float64
	// ImageCutoff is the IF image lowpass cutoff in Hz.
	ImageCutoff float64
	// DemodCutoff is the demodulator branch lowpass cutoff in Hz.
	DemodCutoff float64
	// AudioCutoff and AudioOrder define the Butterworth output lowpass.
	AudioCutoff float64
	AudioOrder  int
	// Sections is the cascade depth of the IF image and demodulator
	// branch filters.
	Sections int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a 50 kHz baseband plan: 1 MHz modulation rate,
// 200 kHz carrier, 50 kHz IF at 500 kHz and 5 kHz deviation.
func DefaultConfig() Config {
	proc := core.DefaultProcessorConfig()
	proc.SampleRate = 50000
	proc.BlockSize = 1000
	return Config{
		ProcessorConfig: proc,
		Oversampling:    20,
		CarrierFreq:     200e3,
		IFFreq:          50e3,
		Deviation:       5e3,
		Decimation:      2,
		BandLow:         20e3,
		BandHigh:        90e3,
		ImageCutoff:     150e3,
		DemodCutoff:     25e3,
		AudioCutoff:     10e3,
		AudioOrder:      4,
		Sections:        2,
	}
}

// WithProcessor applies shared processor options: sample rate, block size
// and batch width.
func WithProcessor(opts ...core.ProcessorOption) Option {
	return func(cfg *Config) {
		for _, o := range opts {
			if o != nil {
				o(&cfg.ProcessorConfig)
			}
		}
	}
}

// WithSampleRate sets the baseband rate in Hz.
func WithSampleRate(fs float64) Option { return WithProcessor(core.WithSampleRate(fs)) }

// WithBlockSize sets the maximum baseband block length.
func WithBlockSize(n int) Option { return WithProcessor(core.WithBlockSize(n)) }

// WithBatchWidth selects the batched stage kernels (4 or 8).
func WithBatchWidth(width int) Option { return WithProcessor(core.WithBatchWidth(width)) }

// WithOversampling sets the baseband to modulation rate factor.
func WithOversampling(m int) Option {
	return func(cfg *Config) { cfg.Oversampling = m }
}

// WithCarrier sets the carrier and intermediate frequencies in Hz.
func WithCarrier(carrier, intermediate float64) Option {
	return func(cfg *Config) {
		cfg.CarrierFreq = carrier
		cfg.IFFreq = intermediate
	}
}

// WithDeviation sets the peak frequency deviation in Hz.
func WithDeviation(hz float64) Option {
	return func(cfg *Config) { cfg.Deviation = hz }
}

// WithDecimation sets the IF converter output stride.
func WithDecimation(d int) Option {
	return func(cfg *Config) { cfg.Decimation = d }
}

// WithBandpass sets the IF bandpass edges in Hz.
func WithBandpass(low, high float64) Option {
	return func(cfg *Config) {
		cfg.BandLow = low
		cfg.BandHigh = high
	}
}

// WithImageCutoff sets the IF image lowpass cutoff in Hz.
func WithImageCutoff(hz float64) Option {
	return func(cfg *Config) { cfg.ImageCutoff = hz }
}

// WithDemodCutoff sets the demodulator branch lowpass cutoff in Hz.
func WithDemodCutoff(hz float64) Option {
	return func(cfg *Config) { cfg.DemodCutoff = hz }
}

// WithAudioLowpass sets the output lowpass cutoff in Hz and its order.
func WithAudioLowpass(hz float64, order int) Option {
	return func(cfg *Config) {
		cfg.AudioCutoff = hz
		cfg.AudioOrder = order
	}
}

// WithSections sets the IF image and demodulator cascade depth.
func WithSections(n int) Option {
	return func(cfg *Config) { cfg.Sections = n }
}

// ModulationRate returns the modulator sample rate.
func (c Config) ModulationRate() float64 {
	return c.SampleRate * float64(c.Oversampling)
}

// IFRate returns the IF converter output rate.
func (c Config) IFRate() float64 {
	return c.ModulationRate() / float64(c.Decimation)
}

// Validate checks the frequency plan.
func (c Config) Validate() error {
	switch {
	case !core.ValidRate(c.SampleRate):
		return core.ErrInvalidRate
	case c.BlockSize < 1:
		return fmt.Errorf("%w: block size %d", ErrConfig, c.BlockSize)
	case c.Oversampling < 1 || c.Decimation < 1 || c.Oversampling%c.Decimation != 0:
		return fmt.Errorf("%w: decimation %d must divide oversampling %d", ErrConfig, c.Decimation, c.Oversampling)
	case c.Sections < 1 || c.Sections > 4:
		return fmt.Errorf("%w: %d sections", ErrConfig, c.Sections)
	case c.AudioOrder < 1 || c.AudioOrder > 8:
		return fmt.Errorf("%w: audio order %d", ErrConfig, c.AudioOrder)
	}

	pos := func(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
	for _, f := range []float64{c.CarrierFreq, c.IFFreq, c.Deviation, c.BandLow, c.BandHigh, c.ImageCutoff, c.DemodCutoff, c.AudioCutoff} {
		if !pos(f) {
			return core.ErrInvalidRate
		}
	}

	if c.IFFreq >= c.CarrierFreq {
		return fmt.Errorf("%w: IF %.0f Hz not below carrier %.0f Hz", ErrConfig, c.IFFreq, c.CarrierFreq)
	}
	if c.CarrierFreq+c.Deviation >= c.ModulationRate()/2 {
		return fmt.Errorf("%w: carrier %.0f Hz beyond modulation Nyquist", ErrConfig, c.CarrierFreq)
	}
	if c.BandLow >= c.IFFreq || c.BandHigh <= c.IFFreq || c.BandHigh >= c.IFRate()/2 {
		return fmt.Errorf("%w: bandpass %.0f..%.0f Hz around IF %.0f Hz", ErrConfig, c.BandLow, c.BandHigh, c.IFFreq)
	}
	if c.ImageCutoff >= c.ModulationRate() || c.DemodCutoff >= c.IFRate()/2 {
		return fmt.Errorf("%w: image cutoff %.0f Hz or demodulator cutoff %.0f Hz beyond Nyquist", ErrConfig, c.ImageCutoff, c.DemodCutoff)
	}
	if c.AudioCutoff >= c.SampleRate/2 {
		return fmt.Errorf("%w: audio cutoff %.0f Hz beyond baseband Nyquist", ErrConfig, c.AudioCutoff)
	}

	if w := c.BatchWidth; w > 0 && (c.BlockSize*c.Oversampling/c.Decimation)%w != 0 {
		return core.ErrBatchWidth
	}
	return nil
}
