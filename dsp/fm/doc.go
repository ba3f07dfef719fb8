// Package fm implements the streaming FM modulator, quadrature-derivative
// demodulator and intermediate-frequency converter.
//
// Each stage is available as a free function over a caller-held flat state
// value ([Modulate], [Demodulate], [ConvertIntermediateFrequency]) and as a
// stage object with options and a numeric-health flag ([Modulator],
// [Demodulator], [IFConverter]). Block boundaries never change the output:
// processing N samples in one call equals processing them in any partition.
//
// The batched variants evaluate 4 or 8 samples per step with lane-wise
// vector arithmetic. They carry history across batch boundaries and produce
// the same bits as the scalar recurrence.
package fm
