package eeg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuroviz/internal/models"
)

// sineRecording builds a single-channel recording holding a sum of sines at
// the given frequencies (Hz), unit amplitude each.
func sineRecording(rate float64, seconds float64, freqs ...float64) *models.Recording {
	n := int(rate * seconds)
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / rate
		for _, f := range freqs {
			samples[i] += math.Sin(2 * math.Pi * f * t)
		}
	}
	return &models.Recording{
		Channels:   []models.Channel{{Label: "C3", Samples: samples}},
		SampleRate: rate,
	}
}

// rms of the second half of a signal, past the filter transient.
func settledRMS(samples []float64) float64 {
	var sum float64
	half := samples[len(samples)/2:]
	for _, s := range half {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(half)))
}

func TestBandpassKeepsInBandRejectsOutOfBand(t *testing.T) {
	rate := 256.0

	inBand := sineRecording(rate, 8, 10) // alpha range
	low := sineRecording(rate, 8, 0.05)  // slow drift
	high := sineRecording(rate, 8, 90)   // muscle artifact range

	filtIn, err := Bandpass(inBand, 0.5, 40, 4)
	require.NoError(t, err)
	filtLow, err := Bandpass(low, 0.5, 40, 4)
	require.NoError(t, err)
	filtHigh, err := Bandpass(high, 0.5, 40, 4)
	require.NoError(t, err)

	ref := settledRMS(inBand.Channels[0].Samples)

	assert.InDelta(t, ref, settledRMS(filtIn.Channels[0].Samples), 0.1*ref,
		"10 Hz should pass nearly unattenuated")
	assert.Less(t, settledRMS(filtLow.Channels[0].Samples), 0.2*ref,
		"0.05 Hz drift should be strongly attenuated")
	assert.Less(t, settledRMS(filtHigh.Channels[0].Samples), 0.1*ref,
		"90 Hz should be strongly attenuated")
}

func TestBandpassDoesNotMutateInput(t *testing.T) {
	rec := sineRecording(256, 2, 10)
	orig := append([]float64(nil), rec.Channels[0].Samples...)

	_, err := Bandpass(rec, 0.5, 40, 4)
	require.NoError(t, err)
	assert.Equal(t, orig, rec.Channels[0].Samples)
}

func TestBandpassRejectsBadBand(t *testing.T) {
	rec := sineRecording(100, 1, 10)

	_, err := Bandpass(rec, 0, 40, 4)
	assert.Error(t, err, "low cut must be positive")
	_, err = Bandpass(rec, 40, 0.5, 4)
	assert.Error(t, err, "band must be ordered")
	_, err = Bandpass(rec, 0.5, 60, 4)
	assert.Error(t, err, "high cut must stay below Nyquist")
}

func TestWelchPSDFindsPeak(t *testing.T) {
	rate := 256.0
	rec := sineRecording(rate, 16, 10)

	psd, err := WelchPSD(rec.Channels[0].Samples, rate, 4, 50)
	require.NoError(t, err)

	assert.InDelta(t, 10, psd.PeakFrequency(), 0.5)
	assert.LessOrEqual(t, psd.Freqs[len(psd.Freqs)-1], 50.0)
}

func TestWelchPSDBandPower(t *testing.T) {
	rate := 256.0
	rec := sineRecording(rate, 16, 10, 25)

	psd, err := WelchPSD(rec.Channels[0].Samples, rate, 4, 50)
	require.NoError(t, err)

	alpha := psd.BandPower(8, 13)
	beta := psd.BandPower(13, 30)
	delta := psd.BandPower(0.5, 4)

	// Both tones carry equal energy; the empty band carries almost none.
	assert.InDelta(t, 1, alpha/beta, 0.3)
	assert.Less(t, delta, 0.05*alpha)
}

func TestWelchPSDTooShort(t *testing.T) {
	_, err := WelchPSD([]float64{1, 2, 3}, 100, 4, 50)
	assert.Error(t, err)
}

func TestMeanPSDAveragesChannels(t *testing.T) {
	a := &PSD{Freqs: []float64{0, 1, 2}, Power: []float64{2, 4, 6}}
	b := &PSD{Freqs: []float64{0, 1, 2}, Power: []float64{0, 2, 2}}

	mean, err := MeanPSD(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, mean.Freqs)
	assert.Equal(t, []float64{1, 3, 4}, mean.Power)

	// Inputs untouched.
	assert.Equal(t, []float64{2, 4, 6}, a.Power)
}

func TestMeanPSDRejectsMismatchedAxes(t *testing.T) {
	a := &PSD{Freqs: []float64{0, 1}, Power: []float64{1, 1}}
	b := &PSD{Freqs: []float64{0, 1, 2}, Power: []float64{1, 1, 1}}

	_, err := MeanPSD(a, b)
	assert.Error(t, err)
	_, err = MeanPSD()
	assert.Error(t, err)
}

func TestCanonicalBandsCoverClinicalRange(t *testing.T) {
	require.NotEmpty(t, CanonicalBands)
	assert.Equal(t, "delta", CanonicalBands[0].Name)
	for i := 1; i < len(CanonicalBands); i++ {
		assert.Equal(t, CanonicalBands[i-1].High, CanonicalBands[i].Low,
			"bands should tile without gaps")
	}
}
