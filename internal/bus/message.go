// Package bus implements the cross-context message protocol between the
// baseband side and the application side: typed fixed-size records, bounded
// single-consumer queues, per-kind handler dispatch and the
// cooperative event loop.
package bus

import (
	"fmt"
	"time"
)

// Kind discriminates message records on the wire between contexts.
type Kind uint8

const (
	KindBasebandConfiguration Kind = iota + 1
	KindFSKConfiguration
	KindBasebandStatistics
	KindRSSIStatistics
	KindChannelSpectrum
	KindFSKPacket
	KindShutdownRequest
	KindShutdownAcknowledge
)

// String returns the kind's protocol name.
func (k Kind) String() string {
	switch k {
	case KindBasebandConfiguration:
		return "baseband-configuration"
	case KindFSKConfiguration:
		return "fsk-configuration"
	case KindBasebandStatistics:
		return "baseband-statistics"
	case KindRSSIStatistics:
		return "rssi-statistics"
	case KindChannelSpectrum:
		return "channel-spectrum"
	case KindFSKPacket:
		return "fsk-packet"
	case KindShutdownRequest:
		return "shutdown-request"
	case KindShutdownAcknowledge:
		return "shutdown-acknowledge"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Message is a tagged record copied by value across the bus. Implementations
// are plain value types; no shared memory crosses the context boundary.
type Message interface {
	Kind() Kind
}

// Mode selects one of the baseband processor variants.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeAMAudio
	ModeNFMAudio
	ModeWFMAudio
	ModeFSKPacket
)

// ParseMode converts a mode name as used on the command line and in
// configuration files.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none", "off":
		return ModeNone, nil
	case "am":
		return ModeAMAudio, nil
	case "nfm":
		return ModeNFMAudio, nil
	case "wfm":
		return ModeWFMAudio, nil
	case "fsk":
		return ModeFSKPacket, nil
	}
	return ModeNone, fmt.Errorf("bus: unknown mode %q", s)
}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeAMAudio:
		return "am"
	case ModeNFMAudio:
		return "nfm"
	case ModeWFMAudio:
		return "wfm"
	case ModeFSKPacket:
		return "fsk"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// BasebandConfiguration selects the active processor variant.
type BasebandConfiguration struct {
	Mode Mode
}

func (BasebandConfiguration) Kind() Kind { return KindBasebandConfiguration }

// FSKConfiguration carries the packet pipeline parameters. AccessCode holds
// the sync pattern in its least significant AccessCodeLength bits.
type FSKConfiguration struct {
	SymbolRate          int    `yaml:"symbol_rate"`
	AccessCode          uint64 `yaml:"access_code"`
	AccessCodeLength    int    `yaml:"access_code_length"`
	AccessCodeTolerance int    `yaml:"access_code_tolerance"`
	PacketLength        int    `yaml:"packet_length"`
}

func (FSKConfiguration) Kind() Kind { return KindFSKConfiguration }

// BasebandStatistics is the per-epoch processing snapshot.
type BasebandStatistics struct {
	Buffers       uint64
	Samples       uint64
	Elapsed       time.Duration
	OverrunPasses uint64
	DroppedOut    uint64
}

func (BasebandStatistics) Kind() Kind { return KindBasebandStatistics }

// RSSIStatistics is the auxiliary signal-strength snapshot.
type RSSIStatistics struct {
	Min   float32
	Max   float32
	Mean  float32
	Count uint64
}

func (RSSIStatistics) Kind() Kind { return KindRSSIStatistics }

// SpectrumBins fixes the channel spectrum message layout.
const SpectrumBins = 256

// ChannelSpectrum is a periodic spectrum estimate of the channel, annotated
// with the channel filter's absolute pass-band and stop-band edges.
type ChannelSpectrum struct {
	SampleRate    int
	PassFrequency float64
	StopFrequency float64
	DB            [SpectrumBins]float32
}

func (ChannelSpectrum) Kind() Kind { return KindChannelSpectrum }

// FSKPacketPayloadBytes bounds the completed-packet record.
const FSKPacketPayloadBytes = 32

// FSKPacket is a completed packet capture.
type FSKPacket struct {
	Payload      [FSKPacketPayloadBytes]byte
	BitsReceived int
}

func (FSKPacket) Kind() Kind { return KindFSKPacket }

// ShutdownRequest asks the baseband side to stop its event loop.
type ShutdownRequest struct{}

func (ShutdownRequest) Kind() Kind { return KindShutdownRequest }

// ShutdownAcknowledge confirms the event loop has exited.
type ShutdownAcknowledge struct{}

func (ShutdownAcknowledge) Kind() Kind { return KindShutdownAcknowledge }
