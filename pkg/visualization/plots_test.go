package visualization

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"neuroviz/internal/models"
	"neuroviz/pkg/eeg"
)

func TestPlotTimeSeries(t *testing.T) {
	vol := models.NewVolume(4, 4, 4)
	vol.NumVolumes = 10
	vol.TR = 2
	data := make([]float64, 10*vol.VoxelCount())
	for i := range data {
		data[i] = math.Sin(float64(i))
	}
	vol.Data = data

	path := filepath.Join(t.TempDir(), "bold.png")
	if err := PlotTimeSeries(vol, 2, 2, 2, path); err != nil {
		t.Fatalf("failed to plot time series: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("plot file missing: %v", err)
	}

	if err := PlotTimeSeries(vol, 10, 0, 0, path); err == nil {
		t.Error("expected error for out-of-range voxel")
	}
}

func TestPlotPSD(t *testing.T) {
	rate := 128.0
	n := 1024
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 10 * float64(i) / rate)
	}
	psd, err := eeg.WelchPSD(samples, rate, 4, 50)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "psd.png")
	if err := PlotPSD(psd, "C3", path); err != nil {
		t.Fatalf("failed to plot PSD: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
}

func TestPlotEEGTraces(t *testing.T) {
	samples := make([]float64, 256)
	for i := range samples {
		samples[i] = 50 * math.Sin(float64(i)/10)
	}
	rec := &models.Recording{
		Channels: []models.Channel{
			{Label: "Fp1", Samples: samples},
			{Label: "Fp2", Samples: samples},
		},
		SampleRate: 128,
		Annotations: []models.Annotation{
			{Onset: 0.5, Duration: 0.1, Label: "blink"},
		},
	}

	path := filepath.Join(t.TempDir(), "traces.png")
	if err := PlotEEGTraces(rec, path); err != nil {
		t.Fatalf("failed to plot traces: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("plot file missing: %v", err)
	}

	empty := &models.Recording{SampleRate: 128}
	if err := PlotEEGTraces(empty, path); err == nil {
		t.Error("expected error for empty recording")
	}
}
