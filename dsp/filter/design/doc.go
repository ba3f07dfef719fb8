// Package design provides RBJ cookbook biquad coefficient designers.
//
// The functions in this package produce coefficients consumable by
// dsp/filter/biquad. Designers take frequencies in Hz and return the zero
// value for invalid input (non-positive frequency, frequency at or above
// Nyquist, non-finite rate), which filters to silence. Design is never on
// the real-time path.
package design
