package baseband

import (
	"sync/atomic"

	"github.com/charmbracelet/log"

	"go-sdr-baseband/internal/bus"
	"go-sdr-baseband/internal/dsp"
	"go-sdr-baseband/internal/packet"
)

// fskChannelDecimation takes the source rate down to the packet channel rate
// together with the channel filter's decimate-by-2.
const fskChannelDecimation = 16

// fskPipeline is the symbol-rate-dependent tail of the packet chain. One
// instance is built per configuration message and published whole; after
// publication only the processing context touches it, so its stage state
// never crosses goroutines.
type fskPipeline struct {
	demodulator *dsp.FMDemodulator
	clock       packet.ClockRecovery
	correlator  packet.AccessCodeCorrelator
	builder     packet.PacketBuilder
}

// fskProcessor decodes FSK packets: decimate, channel-filter, FM-demodulate,
// then recover symbol timing, correlate the access code and assemble
// payloads. The symbol pipeline stays inert until an FSKConfiguration message
// arrives; the processor owns that handler registration for its lifetime.
//
// Reconfiguration runs on the dispatcher context while Execute runs on the
// processing context, so the pipeline is swapped through an atomic pointer
// just like the controller swaps whole processors: a pass sees either the old
// pipeline or the new one in full, never a partial update.
type fskProcessor struct {
	channelRate int

	decimator *dsp.ChannelDecimator
	filter    *dsp.ChannelFilter
	analyzer  *dsp.SpectrumAnalyzer

	pipeline atomic.Pointer[fskPipeline]

	out      *bus.Queue
	handlers *bus.HandlerMap
	log      *log.Logger
}

func newFSKProcessor(params Params, env Env) (*fskProcessor, error) {
	decimator, err := dsp.NewChannelDecimator(fskChannelDecimation, false)
	if err != nil {
		return nil, err
	}
	analyzer, err := dsp.NewSpectrumAnalyzer(bus.SpectrumBins)
	if err != nil {
		return nil, err
	}

	p := &fskProcessor{
		channelRate: params.SourceRate / fskChannelDecimation / 2,
		decimator:   decimator,
		// Wider than the voice channel: the packet tones sit further out.
		filter:   dsp.NewChannelFilter(dsp.NewLowPassTaps(64, 0.060, 0.120)),
		analyzer: analyzer,
		out:      env.Out,
		handlers: env.Handlers,
		log:      env.Log,
	}
	if err := env.Handlers.Register(bus.KindFSKConfiguration, p.handleConfiguration); err != nil {
		return nil, err
	}
	return p, nil
}

// handleConfiguration builds a fresh symbol pipeline. Every stage is
// validated before the pipeline is published, so a bad message leaves the
// previous configuration running.
func (p *fskProcessor) handleConfiguration(msg bus.Message) {
	cfg, ok := msg.(bus.FSKConfiguration)
	if !ok {
		return
	}

	pl := &fskPipeline{}
	if err := pl.clock.Configure(cfg.SymbolRate, p.channelRate); err != nil {
		p.log.Error("rejecting packet configuration", "err", err)
		return
	}
	if err := pl.correlator.Configure(cfg.AccessCode, cfg.AccessCodeLength, cfg.AccessCodeTolerance); err != nil {
		p.log.Error("rejecting packet configuration", "err", err)
		return
	}
	if err := pl.builder.Configure(cfg.PacketLength); err != nil {
		p.log.Error("rejecting packet configuration", "err", err)
		return
	}
	// Deviation convention for 2FSK: twice the symbol rate.
	pl.demodulator = dsp.NewFMDemodulator(p.channelRate, 2*cfg.SymbolRate)

	p.pipeline.Store(pl)

	p.log.Info("packet pipeline configured",
		"symbol_rate", cfg.SymbolRate,
		"access_code_length", cfg.AccessCodeLength,
		"packet_length", cfg.PacketLength)
}

func (p *fskProcessor) Execute(buf Buffer) {
	channel := p.filter.Process(p.decimator.Process(buf.Samples))
	p.analyzer.Feed(channel)

	pl := p.pipeline.Load()
	if pl == nil {
		return
	}

	onSymbol := func(symbol byte) {
		found := pl.correlator.Execute(symbol)
		pl.builder.Execute(symbol, found, p.handlePayload)
	}
	for _, sample := range pl.demodulator.Process(channel) {
		pl.clock.Process(sample, onSymbol)
	}
}

func (p *fskProcessor) handlePayload(payload packet.Payload, bitsReceived int) {
	p.out.Push(bus.FSKPacket{
		Payload:      [bus.FSKPacketPayloadBytes]byte(payload),
		BitsReceived: bitsReceived,
	})
}

func (p *fskProcessor) UpdateSpectrum() {
	msg := bus.ChannelSpectrum{
		SampleRate:    p.channelRate,
		PassFrequency: p.filter.Taps().PassFrequency(p.channelRate * 2),
		StopFrequency: p.filter.Taps().StopFrequency(p.channelRate * 2),
	}
	if p.analyzer.Estimate(msg.DB[:]) {
		p.out.Push(msg)
	}
}

// Close releases the configuration handler so the next processor can claim it.
func (p *fskProcessor) Close() error {
	p.handlers.Unregister(bus.KindFSKConfiguration)
	return nil
}
