// Package chain wires the FM stages into a mono transceiver simulation:
//
//	baseband -> upsample -> modulate -> IF convert -> bandpass ->
//	demodulate -> audio lowpass -> downsample -> baseband
//
// A Transceiver allocates every intermediate buffer in New; Process then
// runs one block through all stages without allocating. The output is
// normalized by the demodulator gain, the modulation index and the carrier
// amplitude loss of the IF filters, so a clean channel returns the input
// at unit gain, delayed by the filter group delays.
package chain
