package visualization

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"neuroviz/internal/models"
)

// activationRamp matches the blue-green-red surface color transfer.
var activationRamp = []string{"#0000ff", "#00ff00", "#ff0000"}

// SaveActivationScatter writes an interactive HTML page with the surface
// vertices as a rotatable 3D point cloud colored by activation. Vertices are
// strided down to at most maxPoints so the page stays responsive.
func SaveActivationScatter(m *models.Mesh, maxPoints int, filename string) error {
	if m.NumVertices() == 0 {
		return fmt.Errorf("visualization: mesh has no vertices")
	}
	if !m.HasScalars() {
		return fmt.Errorf("visualization: mesh carries no activation scalars")
	}
	if maxPoints <= 0 {
		maxPoints = 20000
	}

	stride := 1
	if m.NumVertices() > maxPoints {
		stride = (m.NumVertices() + maxPoints - 1) / maxPoints
	}

	data := make([]opts.Chart3DData, 0, m.NumVertices()/stride+1)
	for i := 0; i < m.NumVertices(); i += stride {
		v := m.Vertices[i]
		data = append(data, opts.Chart3DData{
			Value: []interface{}{v[0], v[1], v[2], m.Scalars[i]},
		})
	}

	min, max := m.ScalarRange()

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Surface activation",
			Width:     "1200px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Surface activation",
			Subtitle: fmt.Sprintf("%d of %d vertices", len(data), m.NumVertices()),
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(min),
			Max:        float32(max),
			Dimension:  "3",
			InRange:    &opts.VisualMapInRange{Color: activationRamp},
		}),
	)
	scatter.AddSeries("activation", data)

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}

// SaveSurfaceScatter writes an interactive HTML page with the surface
// vertices as a rotatable 3D point cloud, shaded by height so the shape
// reads without activation scalars.
func SaveSurfaceScatter(m *models.Mesh, maxPoints int, filename string) error {
	if m.NumVertices() == 0 {
		return fmt.Errorf("visualization: mesh has no vertices")
	}
	if maxPoints <= 0 {
		maxPoints = 20000
	}

	stride := 1
	if m.NumVertices() > maxPoints {
		stride = (m.NumVertices() + maxPoints - 1) / maxPoints
	}

	minZ, maxZ := m.Vertices[0][2], m.Vertices[0][2]
	data := make([]opts.Chart3DData, 0, m.NumVertices()/stride+1)
	for i := 0; i < m.NumVertices(); i += stride {
		v := m.Vertices[i]
		if v[2] < minZ {
			minZ = v[2]
		}
		if v[2] > maxZ {
			maxZ = v[2]
		}
		data = append(data, opts.Chart3DData{
			Value: []interface{}{v[0], v[1], v[2]},
		})
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Surface",
			Width:     "1200px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Surface",
			Subtitle: fmt.Sprintf("%d of %d vertices", len(data), m.NumVertices()),
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minZ),
			Max:        float32(maxZ),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#2f4f6f", "#d8d2c0"}},
		}),
	)
	scatter.AddSeries("surface", data)

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}

// SaveEEGBrowser writes an interactive HTML page with one zoomable line
// chart per channel plus a summary of annotations.
func SaveEEGBrowser(rec *models.Recording, filename string) error {
	if rec.NumChannels() == 0 {
		return fmt.Errorf("visualization: recording has no channels")
	}

	page := components.NewPage()
	page.PageTitle = "EEG browser"

	for _, ch := range rec.Channels {
		xs := make([]string, len(ch.Samples))
		ys := make([]opts.LineData, len(ch.Samples))
		for i, s := range ch.Samples {
			xs[i] = fmt.Sprintf("%.3f", float64(i)/rec.SampleRate)
			ys[i] = opts.LineData{Value: s}
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: ch.Label}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
			charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		)
		line.SetXAxis(xs).AddSeries(ch.Label, ys,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		page.AddCharts(line)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}
