package core

import "errors"

var (
	// ErrShortBuffer is returned when a destination block cannot hold the
	// stage output. No sample is written in that case.
	ErrShortBuffer = errors.New("core: destination buffer too short")

	// ErrBatchWidth is returned when a block length is not a multiple of the
	// configured batch width or decimation factor.
	ErrBatchWidth = errors.New("core: block length not a multiple of batch width")

	// ErrInvalidRate is returned for non-positive or non-finite rates and
	// frequencies.
	ErrInvalidRate = errors.New("core: invalid sample rate or frequency")
)

// CheckBatch validates n against a batch width. Width 0 or 1 means scalar
// processing and accepts any length.
func CheckBatch(n, width int) error {
	if width > 1 && n%width != 0 {
		return ErrBatchWidth
	}
	return nil
}
