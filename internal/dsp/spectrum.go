package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// SpectrumAnalyzer keeps a rolling window of the most recent channel samples
// and turns it into a centered magnitude spectrum on demand. Feeding is cheap
// so it can sit in the per-buffer path; the FFT only runs when a spectrum
// update is requested.
type SpectrumAnalyzer struct {
	fft    *fourier.CmplxFFT
	window []float64
	ring   []complex64
	pos    int
	filled bool
	work   []complex128
}

// NewSpectrumAnalyzer creates an analyzer with the given bin count, which
// must be a power of two.
func NewSpectrumAnalyzer(bins int) (*SpectrumAnalyzer, error) {
	if bins <= 0 || bins&(bins-1) != 0 {
		return nil, fmt.Errorf("dsp: spectrum bin count must be a power of two, got %d", bins)
	}

	// Hann window.
	window := make([]float64, bins)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(bins-1)))
	}

	return &SpectrumAnalyzer{
		fft:    fourier.NewCmplxFFT(bins),
		window: window,
		ring:   make([]complex64, bins),
		work:   make([]complex128, bins),
	}, nil
}

// Bins returns the number of spectrum bins.
func (a *SpectrumAnalyzer) Bins() int {
	return len(a.ring)
}

// Feed appends channel samples to the rolling window, keeping the most
// recent Bins() of them.
func (a *SpectrumAnalyzer) Feed(samples []complex64) {
	for _, s := range samples {
		a.ring[a.pos] = s
		a.pos++
		if a.pos == len(a.ring) {
			a.pos = 0
			a.filled = true
		}
	}
}

// Ready reports whether a full window of samples has been collected.
func (a *SpectrumAnalyzer) Ready() bool {
	return a.filled
}

// Estimate computes the centered magnitude spectrum in dB over the current
// window, writing one value per bin into out. It returns false when the
// window has not filled yet, in which case out is untouched.
func (a *SpectrumAnalyzer) Estimate(out []float32) bool {
	if !a.filled {
		return false
	}
	if len(out) != len(a.ring) {
		panic(fmt.Errorf("dsp: spectrum output length %d, want %d", len(out), len(a.ring)))
	}

	n := len(a.ring)
	for i := 0; i < n; i++ {
		s := a.ring[(a.pos+i)%n]
		a.work[i] = complex(float64(real(s))*a.window[i], float64(imag(s))*a.window[i])
	}

	coeffs := a.fft.Coefficients(nil, a.work)

	// Swap halves so DC lands in the middle of the plot.
	for i := 0; i < n; i++ {
		c := coeffs[(i+n/2)%n]
		mag := cmplx.Abs(c) / float64(n)
		if mag < 1e-12 {
			mag = 1e-12
		}
		out[i] = float32(20 * math.Log10(mag))
	}
	return true
}
