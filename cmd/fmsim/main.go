// Command fmsim runs baseband audio through the simulated FM transceiver
// and writes the recovered baseband.
//
// Usage:
//
//	fmsim -out recovered.wav                    # 1 kHz test tone
//	fmsim -in speech.wav -out recovered.wav
//	fmsim -tone 3000 -deviation 7500 -batch 8 -out tone.wav
//	fmsim -in cd.wav -sim-rate 50000 -quality high -out recovered.wav
//
// With -sim-rate the audio is resampled to that rate before the
// transceiver and back to the input rate after it, so the RF plan does not
// depend on the WAV rate.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cwbudde/algo-fm/dsp/chain"
	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/cwbudde/algo-fm/dsp/signal"
	"github.com/cwbudde/algo-fm/measure/tone"
)

const (
	defaultRate     = 50000
	defaultTone     = 1000.0
	defaultAmp      = 0.5
	defaultDuration = 1.0
	// correlationLag bounds the chain delay searched when comparing input
	// and output.
	correlationLag = 200
	settleSeconds  = 0.05
)

var errUsage = errors.New("fmsim: -out is required")

func main() {
	logger := log.New(os.Stderr, "fmsim: ", log.LstdFlags)
	if err := run(os.Args[1:], logger); err != nil {
		logger.Fatal(err)
	}
}

type options struct {
	in, out    string
	rate       int
	toneHz     float64
	amp        float64
	noise      float64
	duration   float64
	carrier    float64
	ifFreq     float64
	deviation  float64
	oversample int
	simRate    int
	quality    string
	decimation int
	block      int
	batch      int
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	def := chain.DefaultConfig()
	var o options

	fs := flag.NewFlagSet("fmsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "Input WAV (mono or mixed down); a test tone is synthesized when empty")
	fs.StringVar(&o.out, "out", "", "Output WAV for the recovered baseband")
	fs.IntVar(&o.rate, "rate", defaultRate, "Baseband sample rate in Hz for the synthesized tone")
	fs.Float64Var(&o.toneHz, "tone", defaultTone, "Test tone frequency in Hz")
	fs.Float64Var(&o.amp, "amp", defaultAmp, "Test tone amplitude")
	fs.Float64Var(&o.noise, "noise", 0, "White noise amplitude added to the test tone")
	fs.Float64Var(&o.duration, "duration", defaultDuration, "Test tone duration in seconds")
	fs.Float64Var(&o.carrier, "carrier", def.CarrierFreq, "Carrier frequency in Hz")
	fs.Float64Var(&o.ifFreq, "if", def.IFFreq, "Intermediate frequency in Hz")
	fs.Float64Var(&o.deviation, "deviation", def.Deviation, "Peak deviation in Hz")
	fs.IntVar(&o.oversample, "oversample", def.Oversampling, "Baseband to modulation rate factor")
	fs.IntVar(&o.simRate, "sim-rate", 0, "Transceiver baseband rate in Hz; 0 runs at the audio rate")
	fs.StringVar(&o.quality, "quality", "high", "Audio rate conversion quality: quick, low, medium, high, veryhigh")
	fs.IntVar(&o.decimation, "decimation", def.Decimation, "IF converter decimation")
	fs.IntVar(&o.block, "block", def.BlockSize, "Baseband block size")
	fs.IntVar(&o.batch, "batch", 0, "Batch width for the stage kernels: 0, 4 or 8")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.out == "" {
		fs.Usage()
		return o, errUsage
	}
	if o.simRate < 0 {
		return o, fmt.Errorf("fmsim: sim-rate must be >= 0: %d", o.simRate)
	}
	return o, nil
}

func run(args []string, logger *log.Logger) error {
	o, err := parseFlags(args, logger.Writer())
	if err != nil {
		return err
	}

	src, rate, err := loadInput(o)
	if err != nil {
		return err
	}
	quality, err := parseQuality(o.quality)
	if err != nil {
		return err
	}
	simRate := rate
	if o.simRate > 0 {
		simRate = o.simRate
	}

	tr, err := chain.New(
		chain.WithSampleRate(float64(simRate)),
		chain.WithBlockSize(o.block),
		chain.WithBatchWidth(o.batch),
		chain.WithOversampling(o.oversample),
		chain.WithDecimation(o.decimation),
		chain.WithCarrier(o.carrier, o.ifFreq),
		chain.WithDeviation(o.deviation),
	)
	if err != nil {
		return fmt.Errorf("build transceiver: %w", err)
	}

	if o.verbose {
		cfg := tr.Config()
		logger.Printf("audio %d Hz, baseband %d Hz, modulation %.0f Hz, IF stage %.0f Hz", rate, simRate, cfg.ModulationRate(), cfg.IFRate())
		logger.Printf("carrier %.0f Hz, IF %.0f Hz, deviation %.0f Hz, batch %d", cfg.CarrierFreq, cfg.IFFreq, cfg.Deviation, cfg.BatchWidth)
	}

	start := time.Now()
	sim, err := convertRate(src, rate, simRate, simLength(len(src), rate, simRate), quality)
	if err != nil {
		return err
	}
	recovered, err := process(tr, sim, o.block)
	if err != nil {
		return err
	}
	out, err := convertRate(recovered, simRate, rate, len(src), quality)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := writeMonoWAV(o.out, out, rate); err != nil {
		return err
	}

	logger.Printf("processed %d samples in %s (%.1fx realtime)", len(src), elapsed.Round(time.Millisecond),
		float64(len(src))/float64(rate)/elapsed.Seconds())
	report(logger, src, out, float64(rate))
	return nil
}

func loadInput(o options) ([]float64, int, error) {
	if o.in != "" {
		return readMonoWAV(o.in)
	}
	if o.duration <= 0 {
		return nil, 0, fmt.Errorf("fmsim: duration must be > 0: %v", o.duration)
	}

	g := signal.NewGenerator([]core.ProcessorOption{core.WithSampleRate(float64(o.rate))})
	n := int(o.duration * float64(o.rate))
	x, err := g.Sine(o.toneHz, o.amp, n)
	if err != nil {
		return nil, 0, err
	}
	if o.noise > 0 {
		w, err := g.WhiteNoise(o.noise, n)
		if err != nil {
			return nil, 0, err
		}
		for i := range x {
			x[i] += w[i]
		}
	}
	return x, o.rate, nil
}

// process runs src through tr block by block. The tail shorter than a block
// is zero padded to keep batched kernels aligned.
func process(tr *chain.Transceiver, src []float64, block int) ([]float64, error) {
	out := make([]float64, len(src))
	in := make([]float64, block)
	res := make([]float64, block)
	for off := 0; off < len(src); off += block {
		n := copy(in, src[off:])
		core.Zero(in[n:])
		if _, err := tr.Process(res, in); err != nil {
			return nil, fmt.Errorf("block at %d: %w", off, err)
		}
		copy(out[off:], res[:n])
	}
	if tr.NonFinite() {
		return nil, errors.New("fmsim: transceiver produced non-finite samples")
	}
	return out, nil
}

func report(logger *log.Logger, src, out []float64, rate float64) {
	skip := min(int(settleSeconds*rate), len(src)/2)
	ref, got := src[skip:], out[skip:]

	if f, err := tone.DominantFrequency(got, rate); err == nil {
		logger.Printf("output dominant frequency %.1f Hz", f)
	}
	lag, r, err := tone.AlignedCorrelation(ref, got, min(correlationLag, len(ref)/2))
	if err != nil {
		logger.Printf("correlation unavailable: %v", err)
		return
	}
	logger.Printf("correlation %.4f at lag %d samples", r, lag)
	if g, err := tone.LeastSquaresGain(ref[:len(ref)-lag], got[lag:]); err == nil {
		logger.Printf("recovered gain %.3f", g)
	}
}
