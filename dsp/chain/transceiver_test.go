package chain

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fm/dsp/core"
	"github.com/cwbudde/algo-fm/internal/testutil"
	"github.com/cwbudde/algo-fm/measure/tone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, tr *Transceiver, src []float64, block int) []float64 {
	t.Helper()
	out := make([]float64, len(src))
	for off := 0; off < len(src); off += block {
		end := min(off+block, len(src))
		n, err := tr.Process(out[off:end], src[off:end])
		require.NoError(t, err)
		require.Equal(t, end-off, n)
	}
	return out
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1e6, cfg.ModulationRate())
	assert.Equal(t, 500e3, cfg.IFRate())
}

func TestTransceiverRecoversTone(t *testing.T) {
	for _, width := range []int{0, 8} {
		tr, err := New(WithBatchWidth(width))
		require.NoError(t, err)

		fs := tr.Config().SampleRate
		src := testutil.DeterministicSine(1000, fs, 0.8, 20000)
		out := run(t, tr, src, 1000)
		testutil.RequireFinite(t, out)
		assert.False(t, tr.NonFinite())

		ref, got := src[2000:], out[2000:]
		lag, r, err := tone.AlignedCorrelation(ref, got, 50)
		require.NoError(t, err)
		assert.Greater(t, r, 0.95, "width %d lag %d", width, lag)

		gain, err := tone.LeastSquaresGain(ref[:len(ref)-lag], got[lag:])
		require.NoError(t, err)
		assert.InDelta(t, 1.0, gain, 0.1, "width %d", width)

		f, err := tone.DominantFrequency(got, fs)
		require.NoError(t, err)
		assert.InDelta(t, 1000, f, 10)
	}
}

func TestTransceiverUnitGain(t *testing.T) {
	for _, amp := range []float64{0.1, 0.8} {
		for _, freq := range []float64{300, 1000, 3000} {
			tr, err := New()
			require.NoError(t, err)

			src := testutil.DeterministicSine(freq, tr.Config().SampleRate, amp, 20000)
			out := run(t, tr, src, 1000)

			ref, got := src[2000:], out[2000:]
			lag, r, err := tone.AlignedCorrelation(ref, got, 50)
			require.NoError(t, err)
			assert.Greater(t, r, 0.99, "amp %v freq %v", amp, freq)

			gain, err := tone.LeastSquaresGain(ref[:len(ref)-lag], got[lag:])
			require.NoError(t, err)
			assert.InDelta(t, 1.0, gain, 0.05, "amp %v freq %v", amp, freq)
		}
	}
}

func TestTransceiverBatchedMatchesScalar(t *testing.T) {
	src := testutil.DeterministicNoise(29, 0.5, 4000)

	scalar, err := New()
	require.NoError(t, err)
	batched, err := New(WithBatchWidth(4))
	require.NoError(t, err)

	testutil.RequireBitIdentical(t, run(t, batched, src, 1000), run(t, scalar, src, 1000))
	assert.Equal(t, scalar.Checkpoint(), batched.Checkpoint())
}

func TestTransceiverSplitInvariance(t *testing.T) {
	src := testutil.DeterministicSine(700, 50000, 0.5, 3000)

	whole, err := New()
	require.NoError(t, err)
	split, err := New()
	require.NoError(t, err)

	want := run(t, whole, src, 1000)
	testutil.RequireBitIdentical(t, run(t, split, src, 137), want)
}

func TestTransceiverCheckpointRestore(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)
	src := testutil.DeterministicNoise(31, 0.5, 2000)
	scratch := make([]float64, 1000)

	_, err = tr.Process(scratch, src[:1000])
	require.NoError(t, err)
	snap := tr.Checkpoint()

	first := make([]float64, 1000)
	_, err = tr.Process(first, src[1000:])
	require.NoError(t, err)

	tr.Restore(snap)
	again := make([]float64, 1000)
	_, err = tr.Process(again, src[1000:])
	require.NoError(t, err)
	testutil.RequireBitIdentical(t, again, first)

	tr.Reset()
	fresh, err := New()
	require.NoError(t, err)
	assert.Equal(t, fresh.Checkpoint(), tr.Checkpoint())
}

func TestTransceiverErrors(t *testing.T) {
	tr, err := New(WithBlockSize(100))
	require.NoError(t, err)

	_, err = tr.Process(make([]float64, 200), make([]float64, 200))
	assert.ErrorIs(t, err, ErrBlockSize)

	_, err = tr.Process(make([]float64, 10), make([]float64, 20))
	assert.ErrorIs(t, err, core.ErrShortBuffer)

	n, err := tr.Process(nil, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)

	batched, err := New(WithBatchWidth(8), WithBlockSize(100))
	require.NoError(t, err)
	// 3*20/2 = 30 IF samples, not a multiple of 8.
	_, err = batched.Process(make([]float64, 3), make([]float64, 3))
	assert.ErrorIs(t, err, core.ErrBatchWidth)
}

func TestTransceiverNaN(t *testing.T) {
	tr, err := New()
	require.NoError(t, err)
	src := make([]float64, 100)
	src[50] = math.NaN()
	out := make([]float64, 100)
	_, err = tr.Process(out, src)
	require.NoError(t, err)
	assert.True(t, tr.NonFinite())
	assert.True(t, math.IsNaN(out[len(out)-1]))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		err  error
	}{
		{"decimation does not divide", WithDecimation(3), ErrConfig},
		{"IF above carrier", WithCarrier(50e3, 60e3), ErrConfig},
		{"carrier beyond Nyquist", WithCarrier(600e3, 50e3), ErrConfig},
		{"bandpass misses IF", WithBandpass(60e3, 90e3), ErrConfig},
		{"audio beyond Nyquist", WithAudioLowpass(30e3, 4), ErrConfig},
		{"image cutoff beyond Nyquist", WithImageCutoff(3e6), ErrConfig},
		{"demodulator cutoff beyond Nyquist", WithDemodCutoff(300e3), ErrConfig},
		{"sections", WithSections(5), ErrConfig},
		{"negative deviation", WithDeviation(-1), core.ErrInvalidRate},
		{"batch misaligned", func(c *Config) { c.BlockSize = 3; c.BatchWidth = 8 }, core.ErrBatchWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func BenchmarkTransceiver(b *testing.B) {
	for _, width := range []int{0, 8} {
		tr, err := New(WithBatchWidth(width))
		require.NoError(b, err)
		src := testutil.DeterministicSine(1000, 50000, 0.5, 1000)
		dst := make([]float64, len(src))
		b.Run(map[int]string{0: "scalar", 8: "batch8"}[width], func(b *testing.B) {
			b.ReportAllocs()
			for range b.N {
				_, _ = tr.Process(dst, src)
			}
		})
	}
}
