//go:build !amd64 && !arm64 && !purego

package biquad

import (
	_ "github.com/cwbudde/algo-fm/dsp/filter/biquad/internal/arch/generic"
	_ "github.com/cwbudde/algo-fm/dsp/filter/biquad/internal/arch/registry"
)
