package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth16 = 16
	maxInt16   = 32767.0
	pcmFormat  = 1
)

var errInvalidWAV = errors.New("fmsim: invalid WAV file")

// readMonoWAV decodes path and returns the channel average as float64
// samples in [-1, 1] together with the sample rate.
func readMonoWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", errInvalidWAV, path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("%w: %d channels", errInvalidWAV, channels)
	}
	scale := 1 / (math.Exp2(float64(decoder.BitDepth)-1) - 1)

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := range out {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		out[i] = float64(sum) * scale / float64(channels)
	}
	return out, buf.Format.SampleRate, nil
}

// writeMonoWAV encodes samples as 16-bit mono PCM, clipping to [-1, 1].
func writeMonoWAV(path string, samples []float64, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, bitDepth16, 1, pcmFormat)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(math.Round(core.Clamp(v, -1, 1) * maxInt16))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}
