package packet

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestClockRecoveryConfigureValidation(t *testing.T) {
	var c ClockRecovery

	assert.Error(t, c.Configure(0, 76800))
	assert.Error(t, c.Configure(-9600, 76800))
	assert.Error(t, c.Configure(9600, 9600))
	assert.Error(t, c.Configure(9600, 19199))
	assert.NoError(t, c.Configure(9600, 19200))
	assert.NoError(t, c.Configure(9600, 76800))
}

func TestClockRecoverySteadySymbolCount(t *testing.T) {
	var c ClockRecovery
	require.NoError(t, c.Configure(9600, 76800))

	const samples = 1000
	const samplesPerSymbol = 8

	var count int
	for i := 0; i < samples; i++ {
		c.Process(0.5, func(byte) { count++ })
	}

	expected := samples / samplesPerSymbol
	assert.InDelta(t, expected, count, 1, "symbol count for steady input")
}

func TestClockRecoverySymbolCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var symbolRate = rapid.IntRange(100, 19200).Draw(t, "symbolRate")
		var multiplier = rapid.IntRange(2, 64).Draw(t, "multiplier")
		var samples = rapid.IntRange(1, 20000).Draw(t, "samples")
		var sampleRate = symbolRate * multiplier

		var c ClockRecovery
		require.NoError(t, c.Configure(symbolRate, sampleRate))

		var count int
		for i := 0; i < samples; i++ {
			c.Process(1.0, func(byte) { count++ })
		}

		var expected = math.Floor(float64(samples) * float64(symbolRate) / float64(sampleRate))
		assert.InDelta(t, expected, float64(count), 1)
	})
}

func TestClockRecoveryDecodesAlternatingThenPattern(t *testing.T) {
	var c ClockRecovery
	require.NoError(t, c.Configure(9600, 76800))

	const samplesPerSymbol = 8
	pattern := "110100101100111010"

	// 64 alternating training symbols let the transition feedback settle,
	// then the pattern follows.
	var symbols []byte
	for i := 0; i < 64; i++ {
		symbols = append(symbols, byte(i&1))
	}
	for _, ch := range pattern {
		symbols = append(symbols, byte(ch-'0'))
	}

	var decoded strings.Builder
	for _, sym := range symbols {
		level := float32(-1.0)
		if sym == 1 {
			level = 1.0
		}
		for i := 0; i < samplesPerSymbol; i++ {
			c.Process(level, func(bit byte) {
				decoded.WriteByte('0' + bit)
			})
		}
	}

	assert.Contains(t, decoded.String(), pattern)
}
