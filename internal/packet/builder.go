package packet

import "fmt"

// PayloadCapacity is the fixed payload buffer size in bits.
const PayloadCapacity = 256

// Payload is a bit-packed packet payload, most significant bit first.
type Payload [PayloadCapacity / 8]byte

// Bit returns payload bit n (0 = first captured bit).
func (p *Payload) Bit(n int) byte {
	return (p[n>>3] >> (7 - uint(n&7))) & 1
}

// PacketBuilder captures a fixed-length payload following frame
// synchronization. It is a two-state machine: idle until a match arrives,
// then capturing until the configured number of bits has been stored. A new
// match mid-capture discards the partial payload and restarts; a later match
// always wins.
type PacketBuilder struct {
	payload      Payload
	bitsReceived int
	packetLength int
	capturing    bool
}

// Configure sets the payload length in bits. Lengths outside 1..PayloadCapacity
// are rejected here so they can never corrupt the buffer at runtime.
func (b *PacketBuilder) Configure(packetLength int) error {
	if packetLength < 1 || packetLength > PayloadCapacity {
		return fmt.Errorf("packet: packet length must be 1..%d bits, got %d", PayloadCapacity, packetLength)
	}
	b.packetLength = packetLength
	b.reset()
	return nil
}

// Execute consumes one symbol together with its access-code match flag. The
// symbol that triggered a match is not itself stored; capture begins with the
// following symbol. When the configured bit count has been captured, onPayload
// receives a copy of the payload and the bit count, and the builder returns
// to idle.
func (b *PacketBuilder) Execute(symbol byte, accessCodeFound bool, onPayload func(payload Payload, bitsReceived int)) {
	if accessCodeFound {
		if b.packetLength > 0 {
			b.reset()
			b.capturing = true
		}
		return
	}

	if !b.capturing {
		return
	}

	if symbol&1 == 1 {
		b.payload[b.bitsReceived>>3] |= 1 << (7 - uint(b.bitsReceived&7))
	}
	b.bitsReceived++

	if b.bitsReceived == b.packetLength {
		onPayload(b.payload, b.bitsReceived)
		b.reset()
	}
}

func (b *PacketBuilder) reset() {
	b.payload = Payload{}
	b.bitsReceived = 0
	b.capturing = false
}
