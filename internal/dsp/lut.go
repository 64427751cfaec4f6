package dsp

import "fmt"

// IQLUT converts raw signed 8-bit IQ components to normalized floats via a
// 256-entry lookup table, indexed by the byte's unsigned representation.
type IQLUT [256]float32

// NewIQLUT builds the conversion table for two's-complement 8-bit samples.
func NewIQLUT() (lut IQLUT) {
	for idx := range lut {
		lut[idx] = float32(int8(idx)) / 128.0
	}
	return lut
}

// Execute converts interleaved I/Q bytes into complex samples. The input must
// hold exactly two bytes per output sample; anything else is a caller bug.
func (l *IQLUT) Execute(in []byte, out []complex64) {
	if len(in) != len(out)*2 {
		panic(fmt.Errorf("dsp: incompatible IQ slice lengths: %d, %d", len(in), len(out)))
	}

	for idx := range out {
		inIdx := idx * 2
		out[idx] = complex(l[in[inIdx]], l[in[inIdx+1]])
	}
}
