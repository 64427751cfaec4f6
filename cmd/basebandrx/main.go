// Command basebandrx runs the baseband core against a recorded IQ stream:
// raw signed 8-bit interleaved IQ or a WAV capture. Demodulated audio plays
// through the default sound device; decoded packets and statistics go to the
// log.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	flag "github.com/spf13/pflag"

	"go-sdr-baseband/internal/baseband"
	"go-sdr-baseband/internal/bus"
	"go-sdr-baseband/internal/config"
	"go-sdr-baseband/internal/ringbuffer"
)

const audioVolume = 0.8

func main() {
	var (
		configPath string
		modeName   string
		inputPath  string
		noAudio    bool
		verbose    bool
	)
	flag.StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")
	flag.StringVarP(&modeName, "mode", "m", "nfm", "receive mode: am, nfm, wfm, fsk or none")
	flag.StringVarP(&inputPath, "input", "i", "", "IQ input file (raw int8 or WAV)")
	flag.BoolVar(&noAudio, "no-audio", false, "disable sound output")
	flag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "basebandrx",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(configPath, modeName, inputPath, noAudio, logger); err != nil {
		logger.Fatal("startup failed", "err", err)
	}
}

func run(configPath, modeName, inputPath string, noAudio bool, logger *log.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	mode, err := bus.ParseMode(modeName)
	if err != nil {
		return err
	}
	if inputPath == "" {
		return fmt.Errorf("an input file is required (-i)")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	iqRing, err := ringbuffer.NewFrameRing(cfg.RingSlots, cfg.BlockSamples*2)
	if err != nil {
		return err
	}
	rssiRing, err := ringbuffer.NewFrameRing(cfg.RSSI.RingSlots, cfg.RSSI.BlockSamples)
	if err != nil {
		return err
	}

	toBaseband := bus.NewQueue(cfg.QueueDepth)
	toApplication := bus.NewQueue(cfg.QueueDepth)

	var sink baseband.AudioSink
	if !noAudio && mode != bus.ModeFSKPacket && mode != bus.ModeNone {
		player, s, err := newAudioOutput(cfg.AudioSampleRate)
		if err != nil {
			return fmt.Errorf("audio output: %w", err)
		}
		defer player.Close()
		sink = s
	}

	dispatcher := bus.NewDispatcher(toBaseband, cfg.SpectrumPeriod(), logger)
	ctrl := baseband.NewController(
		baseband.Params{SourceRate: cfg.SourceSampleRate, AudioRate: cfg.AudioSampleRate},
		baseband.Env{Audio: sink, Out: toApplication, Handlers: dispatcher.Handlers(), Log: logger},
	)
	if err := ctrl.Attach(dispatcher.Handlers()); err != nil {
		return err
	}
	if err := dispatcher.Handlers().Register(bus.KindShutdownRequest, func(bus.Message) {
		if err := ctrl.Close(); err != nil {
			logger.Error("closing processor", "err", err)
		}
		dispatcher.RequestStop()
	}); err != nil {
		return err
	}
	dispatcher.OnSpectrum(ctrl.UpdateSpectrum)

	// Seed the baseband side before its loop starts.
	toBaseband.Push(bus.BasebandConfiguration{Mode: mode})
	if mode == bus.ModeFSKPacket {
		toBaseband.Push(cfg.FSK)
	}

	stats := baseband.NewStatsCollector(cfg.StatsIntervalBuffers, toApplication)
	rssi := baseband.NewRSSICollector(cfg.RSSI.IntervalBlocks, toApplication)

	logger.Info("starting receiver",
		"mode", mode,
		"source_rate", cfg.SourceSampleRate,
		"input", inputPath)

	go streamInput(file, iqRing, rssiRing, cfg, logger)
	go baseband.RunRSSI(rssiRing, rssi)
	go func() {
		dispatcher.Run()
		// The acknowledge asserts the event loop has actually exited.
		toApplication.Push(bus.ShutdownAcknowledge{})
	}()

	processingDone := make(chan struct{})
	go func() {
		baseband.RunProcessing(iqRing, ctrl, stats, cfg.SourceSampleRate, logger)
		close(processingDone)
	}()
	go func() {
		<-processingDone
		toBaseband.Push(bus.ShutdownRequest{})
	}()

	drainApplication(toApplication, logger)
	logger.Info("receiver stopped", "dropped_outbound", toApplication.Dropped())
	return nil
}

// drainApplication is the application-side consumer of the baseband's
// outbound queue. It returns once the shutdown handshake completes.
func drainApplication(q *bus.Queue, logger *log.Logger) {
	for range q.Wake() {
		for {
			msg, ok := q.Pop()
			if !ok {
				break
			}
			switch m := msg.(type) {
			case bus.FSKPacket:
				n := (m.BitsReceived + 7) / 8
				logger.Info("packet", "bits", m.BitsReceived, "payload", fmt.Sprintf("%x", m.Payload[:n]))
			case bus.BasebandStatistics:
				logger.Info("processing statistics",
					"buffers", m.Buffers,
					"samples", m.Samples,
					"elapsed", m.Elapsed,
					"overruns", m.OverrunPasses,
					"dropped", m.DroppedOut)
			case bus.RSSIStatistics:
				logger.Debug("signal strength",
					"min", m.Min, "max", m.Max, "mean", m.Mean, "count", m.Count)
			case bus.ChannelSpectrum:
				logger.Debug("channel spectrum",
					"rate", m.SampleRate,
					"pass", m.PassFrequency,
					"stop", m.StopFrequency)
			case bus.ShutdownAcknowledge:
				return
			}
		}
	}
}

// streamInput feeds the IQ ring from the input file, block by block, and
// derives the signal-strength stream from the same samples. It closes both
// rings at end of input.
func streamInput(file *os.File, iqRing, rssiRing *ringbuffer.FrameRing, cfg *config.Config, logger *log.Logger) {
	defer iqRing.Close()
	defer rssiRing.Close()

	feeder := &frameFeeder{
		iqRing:    iqRing,
		rssiRing:  rssiRing,
		frame:     make([]byte, iqRing.FrameSize()),
		rssiBlock: make([]byte, 0, cfg.RSSI.BlockSamples),
	}

	decoder := wav.NewDecoder(file)
	if decoder.IsValidFile() {
		if err := streamWAV(decoder, feeder, logger); err != nil {
			logger.Error("reading WAV input", "err", err)
		}
		return
	}

	// Raw interleaved signed 8-bit IQ.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		logger.Error("rewinding input", "err", err)
		return
	}
	logger.Debug("reading raw int8 IQ")
	buf := make([]byte, iqRing.FrameSize())
	for {
		n, err := io.ReadFull(file, buf)
		feeder.feed(buf[:n])
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				logger.Error("reading input", "err", err)
			}
			return
		}
	}
}

// streamWAV converts a WAV capture to the internal int8 IQ format. 8-bit WAV
// is offset binary; 16-bit is truncated to the top byte.
func streamWAV(decoder *wav.Decoder, feeder *frameFeeder, logger *log.Logger) error {
	if err := decoder.FwdToPCM(); err != nil {
		return err
	}
	logger.Debug("reading WAV IQ",
		"bit_depth", decoder.BitDepth,
		"rate", decoder.SampleRate,
		"channels", decoder.NumChans)
	if decoder.NumChans != 2 {
		return fmt.Errorf("need a 2-channel (I/Q) WAV, got %d channels", decoder.NumChans)
	}
	if decoder.BitDepth != 8 && decoder.BitDepth != 16 {
		return fmt.Errorf("unsupported WAV bit depth %d", decoder.BitDepth)
	}

	buf := &goaudio.IntBuffer{
		Format: decoder.Format(),
		Data:   make([]int, 8192),
	}
	raw := make([]byte, 8192)
	for {
		n, err := decoder.PCMBuffer(buf)
		if n > 0 {
			for i := 0; i < n; i++ {
				if decoder.BitDepth == 8 {
					raw[i] = byte(int8(buf.Data[i] - 128))
				} else {
					raw[i] = byte(int8(buf.Data[i] >> 8))
				}
			}
			feeder.feed(raw[:n])
		}
		if err == io.EOF || n == 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// frameFeeder reassembles an arbitrary byte stream into fixed-size IQ frames
// and derives the per-sample signal level for the measurement context.
type frameFeeder struct {
	iqRing   *ringbuffer.FrameRing
	rssiRing *ringbuffer.FrameRing

	frame     []byte
	used      int
	rssiBlock []byte
}

func (f *frameFeeder) feed(data []byte) {
	for len(data) > 0 {
		n := copy(f.frame[f.used:], data)
		f.used += n
		data = data[n:]
		if f.used == len(f.frame) {
			f.iqRing.Write(f.frame)
			f.deriveLevels(f.frame)
			f.used = 0
		}
	}
}

// deriveLevels approximates the front end's level detector from the IQ
// samples themselves, since a file has no separate measurement ADC.
func (f *frameFeeder) deriveLevels(frame []byte) {
	for i := 0; i+1 < len(frame); i += 2 {
		iAbs := absInt8(int8(frame[i]))
		qAbs := absInt8(int8(frame[i+1]))
		level := iAbs
		if qAbs > level {
			level = qAbs
		}
		f.rssiBlock = append(f.rssiBlock, byte(level)*2)
		if len(f.rssiBlock) == cap(f.rssiBlock) {
			f.rssiRing.Write(f.rssiBlock)
			f.rssiBlock = f.rssiBlock[:0]
		}
	}
}

func absInt8(v int8) uint8 {
	if v == -128 {
		return 127
	}
	if v < 0 {
		return uint8(-v)
	}
	return uint8(v)
}

// otoSink bridges float32 audio into the oto player's byte stream.
type otoSink struct {
	w *io.PipeWriter
}

func (s *otoSink) Write(samples []float32) {
	buf := make([]byte, len(samples)*2)
	for i, sample := range samples {
		v := sample * audioVolume
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(v*32767)))
	}
	_, _ = s.w.Write(buf)
}

func newAudioOutput(sampleRate int) (*oto.Player, *otoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, nil, err
	}
	<-ready

	reader, writer := io.Pipe()
	player := ctx.NewPlayer(reader)
	player.Play()
	return player, &otoSink{w: writer}, nil
}
