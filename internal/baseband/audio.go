package baseband

import (
	"fmt"

	"go-sdr-baseband/internal/bus"
	"go-sdr-baseband/internal/dsp"
)

// audioVariant pins down what distinguishes the three audio modes: how far
// the source rate is decimated before the channel filter, the channel filter
// shape, and the demodulator parameters. Everything downstream of the
// demodulator is shared.
type audioVariant struct {
	name       string
	decimation int
	// channelTaps designs the complex channel filter; the edges are
	// normalized to the filter's input rate (source rate / decimation).
	channelTaps func() dsp.Taps
	// deviation is the FM peak deviation in Hz; zero selects envelope
	// detection instead.
	deviation int
	// deemphasisTau enables FM de-emphasis when non-zero.
	deemphasisTau float64
}

var (
	amVariant = audioVariant{
		name:       "am",
		decimation: 16,
		channelTaps: func() dsp.Taps {
			return dsp.NewLowPassTaps(64, 0.031, 0.070)
		},
	}
	nfmVariant = audioVariant{
		name:       "nfm",
		decimation: 16,
		channelTaps: func() dsp.Taps {
			return dsp.NewLowPassTaps(64, 0.031, 0.070)
		},
		deviation: 2500,
	}
	wfmVariant = audioVariant{
		name:       "wfm",
		decimation: 4,
		channelTaps: func() dsp.Taps {
			return dsp.NewLowPassTaps(64, 0.100, 0.160)
		},
		deviation:     75_000,
		deemphasisTau: 50e-6,
	}
)

// audioProcessor is the shared pipeline behind the AM, NFM and WFM modes:
// decimate, channel-filter, demodulate, resample to the audio rate.
type audioProcessor struct {
	channelRate int

	decimator *dsp.ChannelDecimator
	filter    *dsp.ChannelFilter
	fm        *dsp.FMDemodulator
	am        *dsp.AMDemodulator
	resampler *dsp.FIRFilter
	ratio     float64
	deemph    *dsp.Deemphasis
	analyzer  *dsp.SpectrumAnalyzer

	sink AudioSink
	out  *bus.Queue
}

func newAudioProcessor(v audioVariant, params Params, env Env) (*audioProcessor, error) {
	decimator, err := dsp.NewChannelDecimator(v.decimation, false)
	if err != nil {
		return nil, err
	}
	analyzer, err := dsp.NewSpectrumAnalyzer(bus.SpectrumBins)
	if err != nil {
		return nil, err
	}

	// The channel filter halves the rate once more on top of the decimator.
	channelRate := params.SourceRate / v.decimation / 2
	if params.AudioRate > channelRate {
		return nil, fmt.Errorf("baseband: audio rate %d above %s channel rate %d",
			params.AudioRate, v.name, channelRate)
	}

	p := &audioProcessor{
		channelRate: channelRate,
		decimator:   decimator,
		filter:      dsp.NewChannelFilter(v.channelTaps()),
		resampler:   dsp.NewFIRFilter(dsp.DesignFIRLowPass(129, audioCutoff(params.AudioRate)/float64(channelRate))),
		ratio:       float64(params.AudioRate) / float64(channelRate),
		analyzer:    analyzer,
		sink:        env.Audio,
		out:         env.Out,
	}
	if v.deviation > 0 {
		p.fm = dsp.NewFMDemodulator(channelRate, v.deviation)
	} else {
		p.am = dsp.NewAMDemodulator(channelRate)
	}
	if v.deemphasisTau > 0 {
		p.deemph = dsp.NewDeemphasis(params.AudioRate, v.deemphasisTau)
	}
	return p, nil
}

// audioCutoff keeps the resampler's transition band inside the output
// Nyquist while leaving speech and music bandwidth untouched.
func audioCutoff(audioRate int) float64 {
	cutoff := 15_000.0
	if limit := 0.4 * float64(audioRate); cutoff > limit {
		cutoff = limit
	}
	return cutoff
}

func (p *audioProcessor) Execute(buf Buffer) {
	channel := p.filter.Process(p.decimator.Process(buf.Samples))
	p.analyzer.Feed(channel)

	var demodulated []float32
	if p.fm != nil {
		demodulated = p.fm.Process(channel)
	} else {
		demodulated = p.am.Process(channel)
	}

	audio := p.resampler.Process(demodulated, p.ratio)
	if len(audio) == 0 {
		return
	}
	if p.deemph != nil {
		p.deemph.ProcessBlock(audio)
	}
	if p.sink != nil {
		p.sink.Write(audio)
	}
}

func (p *audioProcessor) UpdateSpectrum() {
	msg := bus.ChannelSpectrum{
		SampleRate:    p.channelRate,
		PassFrequency: p.filter.Taps().PassFrequency(p.channelRate * 2),
		StopFrequency: p.filter.Taps().StopFrequency(p.channelRate * 2),
	}
	if p.analyzer.Estimate(msg.DB[:]) {
		p.out.Push(msg)
	}
}

func (p *audioProcessor) Close() error {
	return nil
}
