// Package packet recovers symbol timing, frame synchronization and packet
// payloads from a demodulated baseband stream.
package packet

import "fmt"

// searchingInertia controls how hard an input transition pulls the DPLL
// phase toward zero. Closer to 1.0 tracks slower but rides out noise better.
const searchingInertia = 0.74

// ClockRecovery converts a continuous demodulated stream into discrete symbol
// decisions with a 32-bit digital PLL. The phase counter advances by a fixed
// step per input sample; a symbol is sampled each time the counter crosses
// the half-way point, and sign transitions in the input nudge the counter
// toward zero so that sampling instants stay centered within symbols.
type ClockRecovery struct {
	step         uint32
	phase        uint32
	prevPositive bool
}

// Configure sets the symbol rate relative to the input sample rate. The
// sample rate must be at least twice the symbol rate.
func (c *ClockRecovery) Configure(symbolRate, sampleRate int) error {
	if symbolRate <= 0 {
		return fmt.Errorf("packet: symbol rate must be positive, got %d", symbolRate)
	}
	if sampleRate < 2*symbolRate {
		return fmt.Errorf("packet: sample rate %d must be at least twice the symbol rate %d", sampleRate, symbolRate)
	}

	c.step = uint32((uint64(symbolRate) << 32) / uint64(sampleRate))
	c.phase = 0
	return nil
}

// Process advances the timing loop by one input sample, invoking onSymbol
// with a sign-quantized decision (0 or 1) each time a symbol boundary is
// crossed. Over S steady samples it emits floor(S·symbolRate/sampleRate)
// symbols, within one symbol of jitter from the phase residue.
func (c *ClockRecovery) Process(sample float32, onSymbol func(symbol byte)) {
	positive := sample >= 0
	if positive != c.prevPositive {
		c.phase = uint32(int32(float64(int32(c.phase)) * searchingInertia))
		c.prevPositive = positive
	}

	prev := c.phase
	c.phase += c.step
	if prev < 1<<31 && c.phase >= 1<<31 {
		var symbol byte
		if positive {
			symbol = 1
		}
		onSymbol(symbol)
	}
}
