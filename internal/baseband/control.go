package baseband

import (
	"sync/atomic"

	"github.com/charmbracelet/log"

	"go-sdr-baseband/internal/bus"
)

// Controller owns the active processor. Mode changes run on the dispatcher
// context; the processing loop reads the current processor through an atomic
// pointer, so a swap never blocks a pass and a pass never sees a
// half-constructed processor.
//
// The swap order matters: the old processor is detached and closed before the
// new one is constructed, so handler registrations released by Close are free
// for the successor to claim.
type Controller struct {
	active atomic.Pointer[processorHandle]

	params Params
	env    Env
	mode   bus.Mode
	log    *log.Logger
}

// processorHandle wraps the interface value so the atomic pointer has a
// concrete type to point at.
type processorHandle struct {
	proc Processor
}

// NewController creates a controller with no active processor.
func NewController(params Params, env Env) *Controller {
	return &Controller{
		params: params,
		env:    env,
		log:    env.Log,
	}
}

// Attach registers the controller's configuration handler on the dispatcher's
// handler map.
func (c *Controller) Attach(handlers *bus.HandlerMap) error {
	return handlers.Register(bus.KindBasebandConfiguration, func(msg bus.Message) {
		if cfg, ok := msg.(bus.BasebandConfiguration); ok {
			c.SetMode(cfg.Mode)
		}
	})
}

// SetMode replaces the active processor with the variant for the given mode.
// Must be called from the dispatcher context. If construction of the new
// processor fails the baseband stays disabled rather than running a stale
// pipeline against the wrong mode.
func (c *Controller) SetMode(mode bus.Mode) {
	if mode == c.mode {
		return
	}

	if old := c.active.Swap(nil); old != nil {
		if err := old.proc.Close(); err != nil {
			c.log.Error("closing processor", "mode", c.mode, "err", err)
		}
	}

	proc, err := New(mode, c.params, c.env)
	if err != nil {
		c.log.Error("constructing processor", "mode", mode, "err", err)
		c.mode = bus.ModeNone
		return
	}
	if proc != nil {
		c.active.Store(&processorHandle{proc: proc})
	}
	c.mode = mode
	c.log.Info("processor mode changed", "mode", mode)
}

// Mode returns the currently selected mode.
func (c *Controller) Mode() bus.Mode {
	return c.mode
}

// Active returns the current processor, or nil while the baseband is
// disabled. Safe to call from the processing context.
func (c *Controller) Active() Processor {
	if h := c.active.Load(); h != nil {
		return h.proc
	}
	return nil
}

// UpdateSpectrum forwards the periodic spectrum request to the active
// processor, if any.
func (c *Controller) UpdateSpectrum() {
	if p := c.Active(); p != nil {
		p.UpdateSpectrum()
	}
}

// Close tears down the active processor.
func (c *Controller) Close() error {
	c.mode = bus.ModeNone
	if old := c.active.Swap(nil); old != nil {
		return old.proc.Close()
	}
	return nil
}
