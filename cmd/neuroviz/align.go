package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neuroviz/pkg/visualization"
)

var (
	alignLower float64
	alignUpper float64
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Extract the head surface used for sensor alignment",
	Long: `Extracts a head surface from the raw T1 using a wide intensity
window, covering scalp as well as brain tissue. The surface serves as the
registration target when co-locating EEG electrode positions with the
anatomy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		vol, err := loadT1(cfg)
		if err != nil {
			return err
		}

		m, err := buildSurface(vol, alignLower, alignUpper, cfg)
		if err != nil {
			return err
		}

		if err := saveSurface(m, resultPath(cfg, "head.stl"), resultPath(cfg, "head.vtk")); err != nil {
			return err
		}

		img, err := visualization.NewMeshRenderer().Render(m)
		if err != nil {
			return err
		}
		renderPath := resultPath(cfg, "head.png")
		if err := visualization.SaveImage(img, renderPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Render written to %s\n", renderPath)

		overlay, err := visualization.OverlayContour(vol, m)
		if err != nil {
			return err
		}
		overlayPath := resultPath(cfg, "head_overlay.png")
		if err := visualization.SaveImage(overlay, overlayPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Contour overlay written to %s\n", overlayPath)
		return nil
	},
}

func init() {
	alignCmd.Flags().Float64Var(&alignLower, "lower", 20,
		"lower intensity bound of the head segmentation window")
	alignCmd.Flags().Float64Var(&alignUpper, "upper", 80,
		"upper intensity bound of the head segmentation window")
}
