// Package baseband wires the DSP stages into complete receive pipelines and
// runs them against the hardware buffer stream. One processor variant is
// active at a time, selected by configuration messages from the application
// side.
package baseband

import (
	"fmt"

	"github.com/charmbracelet/log"

	"go-sdr-baseband/internal/bus"
)

// Buffer is a non-owning view over one hardware-filled sample buffer. It is
// valid for the duration of a single pipeline pass.
type Buffer struct {
	Samples []complex64
	Rate    int
}

// AudioSink receives demodulated audio from the audio processor variants.
// The transport behind it (I2S, sound card, file) is outside this core.
type AudioSink interface {
	Write(samples []float32)
}

// Processor runs one full pipeline pass per buffer. Implementations form a
// closed set: AM, narrowband FM and wideband FM audio, and FSK packet decode.
type Processor interface {
	// Execute consumes one fixed-size RF sample buffer.
	Execute(buf Buffer)
	// UpdateSpectrum emits a periodic spectrum estimate when invoked by the
	// dispatcher.
	UpdateSpectrum()
	// Close releases the processor's resources, including any message
	// handler registrations it owns.
	Close() error
}

// Params carries the rates a processor derives its pipeline from.
type Params struct {
	SourceRate int
	AudioRate  int
}

// Env is the environment a processor runs in: the outbound message queue,
// the dispatcher-owned handler map and the audio output.
type Env struct {
	Audio    AudioSink
	Out      *bus.Queue
	Handlers *bus.HandlerMap
	Log      *log.Logger
}

// New constructs the processor variant for a mode. ModeNone yields no
// processor and no error.
func New(mode bus.Mode, params Params, env Env) (Processor, error) {
	switch mode {
	case bus.ModeNone:
		return nil, nil
	case bus.ModeAMAudio:
		return newAudioProcessor(amVariant, params, env)
	case bus.ModeNFMAudio:
		return newAudioProcessor(nfmVariant, params, env)
	case bus.ModeWFMAudio:
		return newAudioProcessor(wfmVariant, params, env)
	case bus.ModeFSKPacket:
		return newFSKProcessor(params, env)
	}
	return nil, fmt.Errorf("baseband: unknown mode %v", mode)
}
