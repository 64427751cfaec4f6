package bus

import (
	"time"

	"github.com/charmbracelet/log"
)

// Dispatcher is the single-threaded cooperative event loop of the baseband
// side. It sleeps until the inbound queue signals readiness or the spectrum
// period elapses; on wake-up it fully drains the inbound queue before
// handling the periodic spectrum trigger.
type Dispatcher struct {
	inbound  *Queue
	handlers *HandlerMap

	spectrumPeriod time.Duration
	onSpectrum     func()

	running bool
	log     *log.Logger
}

// NewDispatcher creates a dispatcher draining the given inbound queue and
// firing the spectrum trigger at the given period.
func NewDispatcher(inbound *Queue, spectrumPeriod time.Duration, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		inbound:        inbound,
		handlers:       NewHandlerMap(),
		spectrumPeriod: spectrumPeriod,
		log:            logger,
	}
}

// Handlers exposes the dispatcher-owned handler map. Registrations must
// happen from the dispatcher context: before Run, or inside a handler.
func (d *Dispatcher) Handlers() *HandlerMap {
	return d.handlers
}

// OnSpectrum installs the periodic spectrum-update hook. Must be set before
// Run or from a handler.
func (d *Dispatcher) OnSpectrum(fn func()) {
	d.onSpectrum = fn
}

// RequestStop makes Run return once the current drain completes. It is meant
// to be called from a handler, typically on a shutdown message.
func (d *Dispatcher) RequestStop() {
	d.running = false
}

// Run executes the event loop until RequestStop is observed. All waiting is
// indefinite; there are no timeouts besides the spectrum period.
func (d *Dispatcher) Run() {
	ticker := time.NewTicker(d.spectrumPeriod)
	defer ticker.Stop()

	d.running = true
	for d.running {
		select {
		case <-d.inbound.Wake():
			d.drain()
		case <-ticker.C:
			// A pending wake-up beats the spectrum tick: the queue is
			// drained first, matching the event priority of the loop.
			select {
			case <-d.inbound.Wake():
				d.drain()
			default:
			}
			if d.running && d.onSpectrum != nil {
				d.onSpectrum()
			}
		}
	}

	if n := d.inbound.Dropped(); n > 0 {
		d.log.Warn("inbound messages were dropped by the overflow policy", "count", n)
	}
}

func (d *Dispatcher) drain() {
	for {
		msg, ok := d.inbound.Pop()
		if !ok {
			return
		}
		d.handlers.Dispatch(msg)
	}
}
