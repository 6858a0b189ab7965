// Package eeg filters electrophysiology recordings and estimates their
// spectral content.
package eeg

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"

	"neuroviz/internal/models"
)

// Band is a named frequency interval in Hz.
type Band struct {
	Name string
	Low  float64
	High float64
}

// CanonicalBands lists the conventional EEG rhythm bands.
var CanonicalBands = []Band{
	{Name: "delta", Low: 0.5, High: 4},
	{Name: "theta", Low: 4, High: 8},
	{Name: "alpha", Low: 8, High: 13},
	{Name: "beta", Low: 13, High: 30},
	{Name: "gamma", Low: 30, High: 50},
}

// Bandpass applies a Butterworth band-pass, built as a high-pass low-pass
// cascade, to every channel of the recording. Each channel gets a fresh
// filter chain so state never leaks between channels.
func Bandpass(rec *models.Recording, lowCut, highCut float64, order int) (*models.Recording, error) {
	nyquist := rec.SampleRate / 2
	if lowCut <= 0 || highCut <= lowCut || highCut >= nyquist {
		return nil, fmt.Errorf("eeg: band [%g, %g] Hz invalid for sample rate %g",
			lowCut, highCut, rec.SampleRate)
	}
	if order <= 0 {
		order = 4
	}

	out := rec.Clone()
	for i := range out.Channels {
		coeffs := pass.ButterworthHP(lowCut, order, rec.SampleRate)
		coeffs = append(coeffs, pass.ButterworthLP(highCut, order, rec.SampleRate)...)
		chain := biquad.NewChain(coeffs)
		chain.ProcessBlock(out.Channels[i].Samples)
	}
	return out, nil
}

// PSD is a one-sided power spectral density estimate.
type PSD struct {
	Freqs []float64 // Hz
	Power []float64 // units^2 / Hz
}

// WelchPSD estimates the power spectral density of one channel with Welch's
// method: Hann-windowed segments with 50% overlap, averaged periodograms.
// Frequencies above maxFreq are dropped; maxFreq <= 0 keeps everything up to
// Nyquist.
func WelchPSD(samples []float64, sampleRate, segmentSeconds, maxFreq float64) (*PSD, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("eeg: sample rate %g invalid", sampleRate)
	}
	if segmentSeconds <= 0 {
		segmentSeconds = 4
	}

	segLen := int(segmentSeconds * sampleRate)
	if segLen > len(samples) {
		segLen = len(samples)
	}
	if segLen < 8 {
		return nil, fmt.Errorf("eeg: %d samples too short for spectral estimation", len(samples))
	}

	fftSize := nextPow2(segLen)
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("eeg: fft plan: %w", err)
	}

	win := window.Generate(window.TypeHann, segLen)
	var winPower float64
	for _, w := range win {
		winPower += w * w
	}

	nBins := fftSize/2 + 1
	acc := make([]float64, nBins)
	in := make([]complex128, fftSize)
	out := make([]complex128, fftSize)

	step := segLen / 2
	segments := 0
	for start := 0; start+segLen <= len(samples); start += step {
		seg := samples[start : start+segLen]

		var mean float64
		for _, s := range seg {
			mean += s
		}
		mean /= float64(segLen)

		for i := 0; i < fftSize; i++ {
			if i < segLen {
				in[i] = complex((seg[i]-mean)*win[i], 0)
			} else {
				in[i] = 0
			}
		}
		if err := plan.Forward(out, in); err != nil {
			return nil, fmt.Errorf("eeg: fft: %w", err)
		}

		mag := spectrum.Magnitude(out[:nBins])
		for i, m := range mag {
			p := m * m
			// One-sided density: double everything except DC and Nyquist.
			if i > 0 && i < nBins-1 {
				p *= 2
			}
			acc[i] += p / (sampleRate * winPower)
		}
		segments++
	}
	if segments == 0 {
		return nil, fmt.Errorf("eeg: no full segment of %d samples available", segLen)
	}

	binWidth := sampleRate / float64(fftSize)
	psd := &PSD{}
	for i := 0; i < nBins; i++ {
		f := float64(i) * binWidth
		if maxFreq > 0 && f > maxFreq {
			break
		}
		psd.Freqs = append(psd.Freqs, f)
		psd.Power = append(psd.Power, acc[i]/float64(segments))
	}
	return psd, nil
}

// BandPower integrates the density over [low, high] Hz with the trapezoid
// rule.
func (p *PSD) BandPower(low, high float64) float64 {
	var power float64
	for i := 1; i < len(p.Freqs); i++ {
		f0, f1 := p.Freqs[i-1], p.Freqs[i]
		if f1 < low || f0 > high {
			continue
		}
		power += 0.5 * (p.Power[i-1] + p.Power[i]) * (f1 - f0)
	}
	return power
}

// MeanPSD averages spectra estimated with identical parameters, giving the
// grand-average spectrum across channels.
func MeanPSD(psds ...*PSD) (*PSD, error) {
	if len(psds) == 0 {
		return nil, fmt.Errorf("eeg: no spectra to average")
	}
	n := len(psds[0].Freqs)
	for _, p := range psds[1:] {
		if len(p.Freqs) != n {
			return nil, fmt.Errorf("eeg: spectra have mismatched frequency axes (%d vs %d bins)", len(p.Freqs), n)
		}
	}

	mean := &PSD{
		Freqs: append([]float64(nil), psds[0].Freqs...),
		Power: make([]float64, n),
	}
	for _, p := range psds {
		for i, pw := range p.Power {
			mean.Power[i] += pw
		}
	}
	for i := range mean.Power {
		mean.Power[i] /= float64(len(psds))
	}
	return mean, nil
}

// PeakFrequency reports the frequency bin with the highest density.
func (p *PSD) PeakFrequency() float64 {
	best, bestP := 0.0, math.Inf(-1)
	for i, pw := range p.Power {
		if pw > bestP {
			best, bestP = p.Freqs[i], pw
		}
	}
	return best
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
