package visualization

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"neuroviz/internal/models"
	"neuroviz/pkg/eeg"
)

// PlotTimeSeries saves the BOLD signal of one voxel across all frames of a
// 4D series as a line plot.
func PlotTimeSeries(vol *models.Volume, x, y, z int, filename string) error {
	if x < 0 || x >= vol.Width || y < 0 || y >= vol.Height || z < 0 || z >= vol.Depth {
		return fmt.Errorf("visualization: voxel (%d, %d, %d) outside volume", x, y, z)
	}
	series := vol.VoxelTimeSeries(x, y, z)

	tr := vol.TR
	if tr <= 0 {
		tr = 1
	}

	pts := make(plotter.XYs, len(series))
	for i, v := range series {
		pts[i].X = float64(i) * tr
		pts[i].Y = v
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("BOLD signal at voxel (%d, %d, %d)", x, y, z)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Intensity"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)

	return p.Save(8*vg.Inch, 4*vg.Inch, filename)
}

// PlotPSD saves a power spectral density estimate on a decibel scale.
func PlotPSD(psd *eeg.PSD, label, filename string) error {
	if len(psd.Freqs) == 0 {
		return fmt.Errorf("visualization: empty spectrum")
	}

	pts := make(plotter.XYs, 0, len(psd.Freqs))
	for i, f := range psd.Freqs {
		if psd.Power[i] <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: f, Y: 10 * math.Log10(psd.Power[i])})
	}
	if len(pts) == 0 {
		return fmt.Errorf("visualization: spectrum carries no power")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Power spectral density: %s", label)
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Power (dB/Hz)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 4*vg.Inch, filename)
}

// PlotEEGTraces saves stacked channel traces with annotation onsets marked
// as vertical lines. Channels are offset vertically so they do not overlap.
func PlotEEGTraces(rec *models.Recording, filename string) error {
	if rec.NumChannels() == 0 {
		return fmt.Errorf("visualization: recording has no channels")
	}

	// Offset step from the largest channel amplitude so traces stay apart.
	var maxAmp float64
	for _, ch := range rec.Channels {
		for _, s := range ch.Samples {
			if a := math.Abs(s); a > maxAmp {
				maxAmp = a
			}
		}
	}
	if maxAmp == 0 {
		maxAmp = 1
	}
	step := 2.5 * maxAmp

	p := plot.New()
	p.Title.Text = "EEG traces"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Channel"

	for i, ch := range rec.Channels {
		offset := float64(rec.NumChannels()-1-i) * step

		pts := make(plotter.XYs, len(ch.Samples))
		for j, s := range ch.Samples {
			pts[j].X = float64(j) / rec.SampleRate
			pts[j].Y = s + offset
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Width = vg.Points(0.5)
		p.Add(line)
		p.Legend.Add(ch.Label, line)
	}

	// Annotation onsets as dashed vertical markers.
	for _, ann := range rec.Annotations {
		top := float64(rec.NumChannels()) * step
		marker := plotter.XYs{
			{X: ann.Onset, Y: -step},
			{X: ann.Onset, Y: top},
		}
		line, err := plotter.NewLine(marker)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 200, A: 255}
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(10*vg.Inch, 6*vg.Inch, filename)
}
