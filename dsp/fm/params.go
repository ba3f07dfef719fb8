package fm

import (
	"math"

	"github.com/cwbudde/algo-fm/dsp/core"
)

// maxBatch is the widest supported batch.
const maxBatch = 8

func validPeriod(samplePeriod float64) bool {
	return samplePeriod > 0 && !math.IsInf(samplePeriod, 0)
}

func validFreq(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func checkWidth(n, width int) error {
	if width != 4 && width != maxBatch {
		return core.ErrBatchWidth
	}
	return core.CheckBatch(n, width)
}

// shifted fills dst with prev followed by src[:len(dst)-1].
func shifted(dst []float64, prev float64, src []float64) {
	dst[0] = prev
	copy(dst[1:], src[:len(dst)-1])
}
