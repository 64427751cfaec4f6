package dsp

import (
	"fmt"
	"math/bits"
)

// halfBandStage is one decimate-by-2 stage with a short symmetric kernel
// ([1 2 1]/4). The last input sample is carried across calls so that block
// boundaries do not disturb the impulse response.
type halfBandStage struct {
	z complex64
}

func (s *halfBandStage) decimate(in, out []complex64) []complex64 {
	for i := 0; i < len(in); i += 2 {
		out[i/2] = 0.25*s.z + 0.5*in[i] + 0.25*in[i+1]
		s.z = in[i+1]
	}
	return out[:len(in)/2]
}

// ChannelDecimator reduces a wideband IQ buffer to a narrower-rate buffer by a
// power-of-two factor, realized as a cascade of half-band decimate-by-2
// stages. It can optionally translate the spectrum by -fs/4 first, for front
// ends that tune the channel of interest a quarter of the sample rate away
// from the carrier.
type ChannelDecimator struct {
	factor    int
	translate bool
	stages    []halfBandStage
	phase     int
}

// NewChannelDecimator creates a decimator for the given factor. The factor
// must be a power of two between 2 and 16.
func NewChannelDecimator(factor int, translate bool) (*ChannelDecimator, error) {
	if factor < 2 || factor > 16 || bits.OnesCount(uint(factor)) != 1 {
		return nil, fmt.Errorf("dsp: decimation factor must be a power of two in 2..16, got %d", factor)
	}
	return &ChannelDecimator{
		factor:    factor,
		translate: translate,
		stages:    make([]halfBandStage, bits.TrailingZeros(uint(factor))),
	}, nil
}

// Factor returns the configured decimation factor.
func (d *ChannelDecimator) Factor() int {
	return d.factor
}

// Process decimates one buffer in place and returns the shortened view over
// the same backing array. An input length not divisible by the factor is a
// caller contract violation.
func (d *ChannelDecimator) Process(in []complex64) []complex64 {
	if len(in)%d.factor != 0 {
		panic(fmt.Errorf("dsp: buffer length %d not divisible by decimation factor %d", len(in), d.factor))
	}

	if d.translate {
		d.rotateFs4(in)
	}

	out := in
	for i := range d.stages {
		out = d.stages[i].decimate(out, out)
	}
	return out
}

// rotateFs4 multiplies the stream by e^(-j·π/2·n), shifting a +fs/4 channel
// down to DC. The rotation phase persists across buffers.
func (d *ChannelDecimator) rotateFs4(buf []complex64) {
	for i := range buf {
		switch d.phase {
		case 1:
			buf[i] = complex(imag(buf[i]), -real(buf[i]))
		case 2:
			buf[i] = -buf[i]
		case 3:
			buf[i] = complex(-imag(buf[i]), real(buf[i]))
		}
		d.phase = (d.phase + 1) & 3
	}
}
