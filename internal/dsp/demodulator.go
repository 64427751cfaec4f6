package dsp

import (
	"math"
	"math/cmplx"
)

// FMDemodulator implements a polar discriminator for FM demodulation. The
// output is the per-sample phase advance scaled so that a tone at the
// configured deviation produces ±1.0. The algorithm is mode-independent;
// narrowband, wideband and FSK modes differ only in the deviation (and in
// the decimation and filtering applied before this stage).
type FMDemodulator struct {
	prev complex64
	gain float32
}

// NewFMDemodulator creates an FM demodulator for the given input sample rate
// and peak deviation in Hz.
func NewFMDemodulator(sampleRate, deviation int) *FMDemodulator {
	return &FMDemodulator{
		gain: float32(float64(sampleRate) / (2 * math.Pi * float64(deviation))),
	}
}

// Process demodulates a block of complex IQ samples into a baseband signal.
func (d *FMDemodulator) Process(samples []complex64) []float32 {
	if len(samples) == 0 {
		return nil
	}
	// The output will have the same number of samples as the input. The first
	// output sample is the phase difference between the first input sample and
	// the state from the previous block.
	output := make([]float32, len(samples))
	prev := d.prev

	for i, current := range samples {
		// Multiply the current sample by the conjugate of the previous one.
		// The angle of the resulting complex number is the phase difference.
		prevConjugate := complex(real(prev), -imag(prev))
		p := current * prevConjugate
		output[i] = float32(cmplx.Phase(complex128(p))) * d.gain
		prev = current
	}

	// Save the last sample of the current block for the next call.
	d.prev = prev
	return output
}

// AMDemodulator recovers the envelope of an AM signal. A slow running mean
// tracks and removes the carrier level so that only the modulation remains.
type AMDemodulator struct {
	carrier float32
	alpha   float32
}

// NewAMDemodulator creates an AM envelope demodulator. The carrier tracker's
// time constant is fixed at roughly 10 ms of the input rate.
func NewAMDemodulator(sampleRate int) *AMDemodulator {
	return &AMDemodulator{
		alpha: float32(1.0 / (0.010 * float64(sampleRate))),
	}
}

// Process demodulates a block of complex IQ samples into a baseband signal.
func (d *AMDemodulator) Process(samples []complex64) []float32 {
	if len(samples) == 0 {
		return nil
	}
	output := make([]float32, len(samples))
	for i, s := range samples {
		mag := float32(cmplx.Abs(complex128(s)))
		d.carrier += d.alpha * (mag - d.carrier)
		output[i] = mag - d.carrier
	}
	return output
}
