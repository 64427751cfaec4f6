package baseband

import (
	"time"

	"github.com/charmbracelet/log"

	"go-sdr-baseband/internal/dsp"
	"go-sdr-baseband/internal/ringbuffer"
)

// RunProcessing is the body of the processing context: it drains the IQ ring
// one frame at a time, converts the raw bytes and runs the active pipeline
// over them. It returns when the ring is closed and drained.
//
// A pass that takes longer than one buffer period is an overrun: it is logged
// and counted but never aborted, since the ring absorbs the slack and a
// mid-buffer cancel would corrupt the stateful filter chain.
func RunProcessing(ring *ringbuffer.FrameRing, ctrl *Controller, stats *StatsCollector, sourceRate int, logger *log.Logger) {
	lut := dsp.NewIQLUT()
	samplesPerFrame := ring.FrameSize() / 2
	work := make([]complex64, samplesPerFrame)
	period := time.Duration(samplesPerFrame) * time.Second / time.Duration(sourceRate)

	for {
		frame := ring.Next()
		if frame == nil {
			return
		}

		start := time.Now()
		lut.Execute(frame, work)
		if p := ctrl.Active(); p != nil {
			p.Execute(Buffer{Samples: work, Rate: sourceRate})
		}
		elapsed := time.Since(start)

		overrun := elapsed > period
		if overrun {
			logger.Warn("processing pass overran the buffer period",
				"elapsed", elapsed, "period", period)
		}
		stats.Process(samplesPerFrame, elapsed, overrun)
	}
}
