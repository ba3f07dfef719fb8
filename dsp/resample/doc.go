// Package resample provides integer-ratio linear-interpolation upsampling
// and stride decimation for streaming blocks.
//
// Both directions carry their position in a flat [State], so any partition
// of a stream into blocks yields the same output as one long block.
// Neither direction filters: callers band-limit around decimation and
// interpolation themselves.
//
// Common workflows:
//   - Upsample / Downsample on a caller-held State
//   - NewUpsampler(m) / NewDownsampler(m) / ForRates(inRate, outRate)
package resample
