package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neuroviz/pkg/fmrimap"
	"neuroviz/pkg/mesh"
	"neuroviz/pkg/nifti"
	"neuroviz/pkg/visualization"
	"neuroviz/pkg/vtk"
)

var mapSeries int

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map fMRI activation onto the reconstructed surface",
	Long: `Loads the reconstructed cortical surface, relaxes it with an extra
smoothing pass, samples the configured frame of the functional series at
every vertex and writes the activation surface as VTK plus a colored PNG
render and an interactive HTML point cloud.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Paths.FMRI) == 0 {
			return fmt.Errorf("no functional series configured, set paths.fmri in %s", configPath)
		}
		if mapSeries < 0 || mapSeries >= len(cfg.Paths.FMRI) {
			return fmt.Errorf("series %d out of range, %d configured", mapSeries, len(cfg.Paths.FMRI))
		}

		surfacePath := resultPath(cfg, "brain.vtk")
		m, err := vtk.ReadFile(surfacePath)
		if err != nil {
			return fmt.Errorf("loading surface (run reconstruct first): %w", err)
		}
		fmt.Printf("[INFO] Loaded surface with %d vertices from %s\n", m.NumVertices(), surfacePath)

		fmriPath := cfg.Paths.FMRI[mapSeries]
		fmt.Printf("[INFO] Loading functional series from %s\n", fmriPath)
		vol, err := nifti.ReadFile(fmriPath)
		if err != nil {
			return err
		}

		name := stem(fmriPath)

		if vol.NumVolumes > 1 {
			seriesPath := resultPath(cfg, name+"_timeseries.png")
			err := visualization.PlotTimeSeries(vol,
				vol.Width/2, vol.Height/2, vol.Depth/2, seriesPath)
			if err != nil {
				return err
			}
			fmt.Printf("[INFO] Center-voxel time series written to %s\n", seriesPath)
		}

		mesh.SmoothTaubin(m, cfg.Mapping.SmoothIterations, cfg.Mapping.PassBand)

		if err := fmrimap.MapToSurface(vol, m, cfg.Mapping.Volume); err != nil {
			return err
		}
		min, max := m.ScalarRange()
		fmt.Printf("[INFO] Activation range [%g, %g]\n", min, max)

		vtkPath := resultPath(cfg, name+"_activation.vtk")
		if err := vtk.WriteFile(vtkPath, m); err != nil {
			return err
		}
		fmt.Printf("[INFO] Activation surface written to %s\n", vtkPath)

		renderer := visualization.NewMeshRenderer()
		renderer.Colors = fmrimap.NewActivationColorMap(min, max, cfg.Mapping.SaturationScale)
		img, err := renderer.Render(m)
		if err != nil {
			return err
		}
		renderPath := resultPath(cfg, name+"_activation.png")
		if err := visualization.SaveImage(img, renderPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Render written to %s\n", renderPath)

		htmlPath := resultPath(cfg, name+"_activation.html")
		if err := visualization.SaveActivationScatter(m, 0, htmlPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Interactive view written to %s\n", htmlPath)
		return nil
	},
}

func init() {
	mapCmd.Flags().IntVar(&mapSeries, "series", 0,
		"index of the functional series in paths.fmri")
}
