package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"neuroviz/pkg/nifti"
	"neuroviz/pkg/visualization"
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct",
	Short: "Reconstruct the cortical surface from the preprocessed T1",
	Long: `Segments gray matter from the preprocessed T1 volume and extracts a
smoothed cortical surface, saved as STL and VTK together with a PNG render.
Falls back to the raw T1 when no preprocessed volume exists yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		inPath := resultPath(cfg, "t1_preprocessed.nii.gz")
		if _, err := os.Stat(inPath); os.IsNotExist(err) {
			fmt.Printf("[INFO] No preprocessed volume found, using raw T1\n")
			inPath = cfg.Paths.T1
		}
		vol, err := nifti.ReadFile(inPath)
		if err != nil {
			return err
		}

		m, err := buildSurface(vol, cfg.Surface.LowerThreshold, cfg.Surface.UpperThreshold, cfg)
		if err != nil {
			return err
		}

		if err := saveSurface(m, resultPath(cfg, "brain.stl"), resultPath(cfg, "brain.vtk")); err != nil {
			return err
		}

		img, err := visualization.NewMeshRenderer().Render(m)
		if err != nil {
			return err
		}
		renderPath := resultPath(cfg, "brain.png")
		if err := visualization.SaveImage(img, renderPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Render written to %s\n", renderPath)

		htmlPath := resultPath(cfg, "brain.html")
		if err := visualization.SaveSurfaceScatter(m, 0, htmlPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Interactive viewer written to %s\n", htmlPath)
		return nil
	},
}
