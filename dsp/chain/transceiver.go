package chain

import (
	"fmt"

	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/cwbudde/algo-fm/dsp/filter/biquad"
	"github.com/cwbudde/algo-fm/dsp/filter/design"
	"github.com/cwbudde/algo-fm/dsp/fm"
	"github.com/cwbudde/algo-fm/dsp/osc"
	"github.com/cwbudde/algo-fm/dsp/resample"
)

// Snapshot holds the stream state of every stage. It is a plain value;
// copying it is a checkpoint.
type Snapshot struct {
	Up       resample.State
	Mod      fm.ModulatorState
	IF       fm.IFState
	Bandpass biquad.CascadeState
	Demod    fm.DemodulatorState
	Audio    biquad.CascadeState
	Down     resample.State
}

// Transceiver is a mono FM transmit and receive simulation.
type Transceiver struct {
	cfg Config

	up       *resample.Linear
	mod      *fm.Modulator
	conv     *fm.IFConverter
	bandpass *biquad.Chain
	demod    *fm.Demodulator
	audio    *biquad.Chain
	down     *resample.Linear

	index  float64
	norm   float64
	rf     []float64
	ifBand []float64
}

// New builds a transceiver from DefaultConfig and opts.
func New(opts ...Option) (*Transceiver, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds a transceiver from an explicit config.
func NewWithConfig(cfg Config) (*Transceiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	modRate := cfg.ModulationRate()
	ifRate := cfg.IFRate()
	index := osc.TwoPi * cfg.Deviation
	batch := fm.WithBatchWidth(cfg.BatchWidth)

	up, err := resample.NewUpsampler(cfg.Oversampling)
	if err != nil {
		return nil, err
	}
	down, err := resample.NewDownsampler(cfg.Oversampling / cfg.Decimation)
	if err != nil {
		return nil, err
	}

	mod, err := fm.NewModulator(cfg.CarrierFreq, modRate, index, batch)
	if err != nil {
		return nil, fmt.Errorf("chain: modulator: %w", err)
	}
	conv, err := fm.NewIFConverter(cfg.CarrierFreq, cfg.IFFreq, modRate, batch,
		fm.WithDecimation(cfg.Decimation),
		fm.WithImageSections(cfg.Sections),
		fm.WithCutoff(cfg.ImageCutoff))
	if err != nil {
		return nil, fmt.Errorf("chain: IF converter: %w", err)
	}
	demod, err := fm.NewDemodulator(cfg.IFFreq, ifRate, batch,
		fm.WithSections(cfg.Sections),
		fm.WithCutoff(cfg.DemodCutoff))
	if err != nil {
		return nil, fmt.Errorf("chain: demodulator: %w", err)
	}

	hp, lp := design.BandpassPair(cfg.BandLow, cfg.BandHigh, design.DefaultQ, ifRate)
	bandpass, err := biquad.NewChain([]biquad.Coefficients{hp, lp})
	if err != nil {
		return nil, err
	}

	// The demodulator output scales with the squared IF amplitude.
	amp := conv.Gain() * bandpass.Magnitude(cfg.IFFreq, ifRate)
	norm := 1 / (demod.Gain() * index * amp * amp)

	audio, err := biquad.NewChain(design.ButterworthLP(cfg.AudioCutoff, cfg.AudioOrder, ifRate), biquad.WithGain(norm))
	if err != nil {
		return nil, err
	}

	if !biquad.Stable(conv.Image().Coefficients) || !bandpass.Stable() || !audio.Stable() {
		return nil, fmt.Errorf("%w: unstable filter design", ErrConfig)
	}

	n := cfg.BlockSize * cfg.Oversampling
	return &Transceiver{
		cfg:      cfg,
		up:       up,
		mod:      mod,
		conv:     conv,
		bandpass: bandpass,
		demod:    demod,
		audio:    audio,
		down:     down,
		index:    index,
		norm:     norm,
		rf:       core.EnsureLen(nil, n),
		ifBand:   core.EnsureLen(nil, n/cfg.Decimation),
	}, nil
}

// Process runs src through the whole chain into dst and returns the number
// of samples written, len(src). len(src) must not exceed the block size
// and, with batching, len(src)*Oversampling/Decimation must be a multiple
// of the batch width. dst may alias src.
func (t *Transceiver) Process(dst, src []float64) (int, error) {
	if len(src) > t.cfg.BlockSize {
		return 0, ErrBlockSize
	}
	if len(dst) < len(src) {
		return 0, core.ErrShortBuffer
	}
	if len(src) == 0 {
		return 0, nil
	}
	n := len(src) * t.cfg.Oversampling
	m := n / t.cfg.Decimation
	if err := core.CheckBatch(m, t.cfg.BatchWidth); err != nil {
		return 0, err
	}

	rf := t.rf[:n]
	if _, err := t.up.Process(rf, src); err != nil {
		return 0, err
	}
	if err := t.mod.ProcessBlockTo(rf, rf); err != nil {
		return 0, err
	}

	band := t.ifBand[:m]
	if _, err := t.conv.ProcessBlockTo(band, rf); err != nil {
		return 0, err
	}
	t.bandpass.ProcessBlock(band)

	if err := t.demod.ProcessBlockTo(band, band); err != nil {
		return 0, err
	}
	t.audio.ProcessBlock(band)

	return t.down.Process(dst, band)
}

// Checkpoint captures the state of every stage.
func (t *Transceiver) Checkpoint() Snapshot {
	return Snapshot{
		Up:       t.up.State(),
		Mod:      t.mod.State(),
		IF:       t.conv.State(),
		Bandpass: t.bandpass.State(),
		Demod:    t.demod.State(),
		Audio:    t.audio.State(),
		Down:     t.down.State(),
	}
}

// Restore rewinds every stage to s.
func (t *Transceiver) Restore(s Snapshot) {
	t.up.SetState(s.Up)
	t.mod.SetState(s.Mod)
	t.conv.SetState(s.IF)
	t.bandpass.SetState(s.Bandpass)
	t.demod.SetState(s.Demod)
	t.audio.SetState(s.Audio)
	t.down.SetState(s.Down)
}

// Reset clears every stage.
func (t *Transceiver) Reset() {
	t.up.Reset()
	t.mod.Reset()
	t.conv.Reset()
	t.bandpass.Reset()
	t.demod.Reset()
	t.audio.Reset()
	t.down.Reset()
}

// NonFinite reports whether any stage produced NaN or Inf in the latest
// block.
func (t *Transceiver) NonFinite() bool {
	return t.mod.NonFinite() || t.conv.NonFinite() || t.demod.NonFinite()
}

// Config returns the frequency plan.
func (t *Transceiver) Config() Config { return t.cfg }

// ModulationIndex returns the modulator index in rad/s per unit amplitude.
func (t *Transceiver) ModulationIndex() float64 { return t.index }

// OutputGain returns the normalization applied before the audio lowpass.
func (t *Transceiver) OutputGain() float64 { return t.norm }
