package baseband

import (
	"math"

	"go-sdr-baseband/internal/bus"
	"go-sdr-baseband/internal/ringbuffer"
)

// RSSICollector reduces blocks of raw signal-strength ADC samples to
// min/max/mean statistics, published once per configured number of blocks.
type RSSICollector struct {
	intervalBlocks int
	out            *bus.Queue

	min    float32
	max    float32
	sum    float64
	count  uint64
	blocks int
}

// NewRSSICollector publishes one snapshot every intervalBlocks blocks.
func NewRSSICollector(intervalBlocks int, out *bus.Queue) *RSSICollector {
	c := &RSSICollector{
		intervalBlocks: intervalBlocks,
		out:            out,
	}
	c.resetEpoch()
	return c
}

// Process consumes one block of raw 8-bit ADC readings, scaled to 0..1.
func (c *RSSICollector) Process(block []byte) {
	for _, raw := range block {
		v := float32(raw) / 255
		if v < c.min {
			c.min = v
		}
		if v > c.max {
			c.max = v
		}
		c.sum += float64(v)
		c.count++
	}

	c.blocks++
	if c.blocks < c.intervalBlocks || c.count == 0 {
		return
	}

	c.out.Push(bus.RSSIStatistics{
		Min:   c.min,
		Max:   c.max,
		Mean:  float32(c.sum / float64(c.count)),
		Count: c.count,
	})
	c.resetEpoch()
}

func (c *RSSICollector) resetEpoch() {
	c.min = float32(math.Inf(1))
	c.max = float32(math.Inf(-1))
	c.sum = 0
	c.count = 0
	c.blocks = 0
}

// RunRSSI drains the signal-strength ring into the collector until the ring
// is closed. It is the body of the auxiliary measurement context.
func RunRSSI(ring *ringbuffer.FrameRing, collector *RSSICollector) {
	for {
		block := ring.Next()
		if block == nil {
			return
		}
		collector.Process(block)
	}
}
