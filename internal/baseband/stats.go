package baseband

import (
	"time"

	"go-sdr-baseband/internal/bus"
)

// StatsCollector accumulates per-pass processing counters and publishes a
// snapshot once per epoch. Counters reset to zero with every snapshot, so
// consecutive messages never overlap and a partial epoch is never published.
type StatsCollector struct {
	intervalBuffers int
	out             *bus.Queue

	buffers  uint64
	samples  uint64
	elapsed  time.Duration
	overruns uint64
}

// NewStatsCollector publishes one snapshot every intervalBuffers passes.
func NewStatsCollector(intervalBuffers int, out *bus.Queue) *StatsCollector {
	return &StatsCollector{
		intervalBuffers: intervalBuffers,
		out:             out,
	}
}

// Process records one completed pipeline pass.
func (s *StatsCollector) Process(samples int, elapsed time.Duration, overrun bool) {
	s.buffers++
	s.samples += uint64(samples)
	s.elapsed += elapsed
	if overrun {
		s.overruns++
	}

	if s.buffers < uint64(s.intervalBuffers) {
		return
	}

	s.out.Push(bus.BasebandStatistics{
		Buffers:       s.buffers,
		Samples:       s.samples,
		Elapsed:       s.elapsed,
		OverrunPasses: s.overruns,
		DroppedOut:    s.out.Dropped(),
	})
	s.buffers = 0
	s.samples = 0
	s.elapsed = 0
	s.overruns = 0
}
