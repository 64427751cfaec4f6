package dsp

// FIRFilter implements a stateful, block-based Finite Impulse Response filter.
type FIRFilter struct {
	taps  []float64
	state []float32
}

// NewFIRFilter creates a new FIR filter with the given taps.
func NewFIRFilter(taps []float64) *FIRFilter {
	return &FIRFilter{
		taps:  taps,
		state: make([]float32, len(taps)-1),
	}
}

// Process filters a block of input samples and updates the filter's internal state.
func (f *FIRFilter) Process(input []float32, ratio float64) []float32 {
	invRatio := 1.0 / ratio

	buffer := make([]float32, len(f.state)+len(input))
	copy(buffer, f.state)
	copy(buffer[len(f.state):], input)

	// This is the correct, conservative calculation for the number of output samples
	// that can be safely produced from the given buffer.
	outputLen := int(float64(len(buffer)-len(f.taps)+1) * ratio)
	if outputLen <= 0 {
		f.state = buffer // Not enough data, save for next time
		return nil
	}
	output := make([]float32, outputLen)

	for i := 0; i < outputLen; i++ {
		inPos := float64(i) * invRatio
		start := int(inPos)

		var acc float32
		for j, tap := range f.taps {
			acc += buffer[start+j] * float32(tap)
		}
		output[i] = acc
	}

	// The state for the next run is the last (filter_length - 1) samples of the buffer.
	f.state = buffer[len(buffer)-(len(f.taps)-1):]
	return output
}

// Taps is a set of FIR coefficients together with the normalized pass-band
// and stop-band edges of the filter they realize. The edges are fractions of
// the input sample rate, kept so a spectrum display can annotate the channel.
type Taps struct {
	Pass   float64
	Stop   float64
	Coeffs []float64
}

// NewLowPassTaps designs a low-pass tap set with the given normalized
// pass-band and stop-band edges, placing the cutoff halfway between them.
func NewLowPassTaps(numTaps int, pass, stop float64) Taps {
	return Taps{
		Pass:   pass,
		Stop:   stop,
		Coeffs: DesignFIRLowPass(numTaps, (pass+stop)/2),
	}
}

// PassFrequency returns the absolute pass-band edge for an input rate.
func (t Taps) PassFrequency(rate int) float64 {
	return t.Pass * float64(rate)
}

// StopFrequency returns the absolute stop-band edge for an input rate.
func (t Taps) StopFrequency(rate int) float64 {
	return t.Stop * float64(rate)
}

// ChannelFilter applies a complex FIR filter jointly with a decimate-by-2
// stage, isolating the channel of interest. The state is primed with zeros so
// every call produces exactly len(input)/2 output samples.
type ChannelFilter struct {
	taps  Taps
	state []complex64
}

// NewChannelFilter creates a channel filter from a tap set.
func NewChannelFilter(taps Taps) *ChannelFilter {
	return &ChannelFilter{
		taps:  taps,
		state: make([]complex64, len(taps.Coeffs)-1),
	}
}

// Taps returns the tap set the filter was built from.
func (f *ChannelFilter) Taps() Taps {
	return f.taps
}

// Process filters and decimates one block. The input length must be even; the
// output is len(input)/2 samples.
func (f *ChannelFilter) Process(input []complex64) []complex64 {
	buffer := make([]complex64, len(f.state)+len(input))
	copy(buffer, f.state)
	copy(buffer[len(f.state):], input)

	output := make([]complex64, len(input)/2)
	for i := range output {
		start := 2 * i
		var acc complex64
		for j, tap := range f.taps.Coeffs {
			acc += buffer[start+j] * complex(float32(tap), 0)
		}
		output[i] = acc
	}

	f.state = buffer[len(buffer)-(len(f.taps.Coeffs)-1):]
	return output
}
