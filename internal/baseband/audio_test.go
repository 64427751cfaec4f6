package baseband

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sdr-baseband/internal/bus"
)

// toneBuffers synthesizes buffers of a complex tone at the given offset from
// the channel center.
func toneBuffers(buffers, blockSamples, sourceRate int, freq, amplitude float64) [][]complex64 {
	out := make([][]complex64, buffers)
	phase := 0.0
	step := 2 * math.Pi * freq / float64(sourceRate)
	for b := range out {
		block := make([]complex64, blockSamples)
		for i := range block {
			phase += step
			block[i] = complex(float32(amplitude*math.Cos(phase)), float32(amplitude*math.Sin(phase)))
		}
		out[b] = block
	}
	return out
}

func TestNFMProcessorDemodulatesTone(t *testing.T) {
	env, _, _ := testEnv()
	sink := env.Audio.(*captureSink)
	params := testParams()

	proc, err := New(bus.ModeNFMAudio, params, env)
	require.NoError(t, err)
	defer proc.Close()

	// A carrier offset of +2000 Hz reads as a constant 2000/2500 = 0.8 after
	// deviation normalization.
	const buffers = 8
	for _, block := range toneBuffers(buffers, 2048, params.SourceRate, 2000, 0.7) {
		proc.Execute(Buffer{Samples: block, Rate: params.SourceRate})
	}

	// 2048 source samples shrink to 64 channel samples and then resample to
	// the 48 kHz audio rate, 40 samples per buffer.
	require.Greater(t, len(sink.samples), buffers*30)
	require.Less(t, len(sink.samples), buffers*50)

	tail := sink.samples[len(sink.samples)-20:]
	var mean float64
	for _, s := range tail {
		mean += float64(s)
	}
	mean /= float64(len(tail))
	assert.InDelta(t, 0.8, mean, 0.05)
}

func TestAMProcessorRecoversEnvelopeChange(t *testing.T) {
	env, _, _ := testEnv()
	sink := env.Audio.(*captureSink)
	params := testParams()

	proc, err := New(bus.ModeAMAudio, params, env)
	require.NoError(t, err)
	defer proc.Close()

	// A carrier step from 0.3 to 0.7 must show up as a positive audio
	// excursion while the carrier tracker catches up.
	for _, block := range toneBuffers(4, 2048, params.SourceRate, 0, 0.3) {
		proc.Execute(Buffer{Samples: block, Rate: params.SourceRate})
	}
	before := len(sink.samples)
	for _, block := range toneBuffers(4, 2048, params.SourceRate, 0, 0.7) {
		proc.Execute(Buffer{Samples: block, Rate: params.SourceRate})
	}

	require.Greater(t, len(sink.samples), before)
	var peak float32
	for _, s := range sink.samples[before:] {
		if s > peak {
			peak = s
		}
	}
	assert.Greater(t, peak, float32(0.1))
}

func TestAudioProcessorSpectrum(t *testing.T) {
	env, _, out := testEnv()
	params := testParams()

	proc, err := New(bus.ModeNFMAudio, params, env)
	require.NoError(t, err)
	defer proc.Close()

	// The analyzer window has not filled yet: no message.
	proc.UpdateSpectrum()
	_, ok := out.Pop()
	assert.False(t, ok)

	// 256 channel samples need 8192 source samples.
	for _, block := range toneBuffers(4, 2048, params.SourceRate, 2000, 0.7) {
		proc.Execute(Buffer{Samples: block, Rate: params.SourceRate})
	}
	proc.UpdateSpectrum()

	msg, ok := out.Pop()
	require.True(t, ok)
	spectrum := msg.(bus.ChannelSpectrum)
	assert.Equal(t, 76_800, spectrum.SampleRate)
	assert.InDelta(t, 0.031*153_600, spectrum.PassFrequency, 1e-6)
	assert.InDelta(t, 0.070*153_600, spectrum.StopFrequency, 1e-6)

	// The +2000 Hz tone lands 2000/76800*256 ≈ 6.7 bins above center.
	var peakBin int
	for i, db := range spectrum.DB {
		if db > spectrum.DB[peakBin] {
			peakBin = i
		}
	}
	assert.InDelta(t, 128+6.7, float64(peakBin), 2.5)
}

func TestNewModeFactory(t *testing.T) {
	env, _, _ := testEnv()

	proc, err := New(bus.ModeNone, testParams(), env)
	require.NoError(t, err)
	assert.Nil(t, proc)

	_, err = New(bus.Mode(99), testParams(), env)
	assert.Error(t, err)
}
