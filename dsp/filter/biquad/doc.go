// Package biquad provides the second-order IIR filter stage used by every
// FM processing block.
//
// A [Section] implements Direct Form I processing for one second-order
// section defined by [Coefficients]. The streaming form is [Apply], which
// carries a flat [State] between blocks; copying the state value is a
// complete checkpoint. Stages that embed several identical sections use
// [CascadeState] and [ApplyCascade]. [OnePole] is the single-pole variant
// used as a cheaper image-rejection filter.
//
// Coefficient design (RBJ lowpass, highpass, bandpass, notch) lives in
// dsp/filter/design. Stability is a caller obligation; see [Stable].
package biquad
