// Package tone measures single-tone test signals: dominant frequency,
// tone-to-residual ratio, RMS level, lag-aligned correlation and
// least-squares gain against a reference.
//
// The helpers allocate and are meant for tests, tooling and offline
// analysis, not the real-time path.
package tone
