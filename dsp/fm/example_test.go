package fm_test

import (
	"fmt"

	"github.com/cwbudde/algo-fm/dsp/fm"
)

func ExampleModulate() {
	// An all-zero baseband produces the bare carrier, here at fs/6.
	src := make([]float64, 4)
	dst := make([]float64, 4)
	var st fm.ModulatorState
	if err := fm.Modulate(dst, src, &st, 1000.0/6, 1e-3, 1); err != nil {
		panic(err)
	}
	for _, v := range dst {
		fmt.Printf("%.3f\n", v)
	}
	// Output:
	// 1.000
	// 0.500
	// -0.500
	// -1.000
}

func ExampleDemodulationGain() {
	fmt.Printf("%.4f\n", fm.DemodulationGain(100e3, 1e-6))
	// Output: 1.8710
}

func ExampleIFConverter_OutputLen() {
	c, err := fm.NewIFConverter(200e3, 50e3, 1e6, fm.WithDecimation(4))
	if err != nil {
		panic(err)
	}
	fmt.Println(c.OutputLen(4096))
	// Output: 1024
}
