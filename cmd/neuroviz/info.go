package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"neuroviz/pkg/edf"
	"neuroviz/pkg/nifti"
	"neuroviz/pkg/visualization"
)

var infoPreview bool

var infoCmd = &cobra.Command{
	Use:   "info <file>...",
	Short: "Print header information for NIfTI volumes and EDF recordings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if err := printInfo(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoPreview, "preview", false,
		"save a three-view preview montage next to each NIfTI volume")
}

func printInfo(path string) error {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".edf"):
		rec, err := edf.ReadFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: EDF recording\n", path)
		fmt.Printf("  channels:    %d\n", rec.NumChannels())
		fmt.Printf("  sample rate: %g Hz\n", rec.SampleRate)
		fmt.Printf("  duration:    %.1f s\n", rec.Duration())
		fmt.Printf("  annotations: %d\n", len(rec.Annotations))
		for _, ch := range rec.Channels {
			fmt.Printf("    %-16s %d samples\n", ch.Label, len(ch.Samples))
		}
	case strings.HasSuffix(lower, ".nii"), strings.HasSuffix(lower, ".nii.gz"):
		vol, err := nifti.ReadFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: NIfTI volume\n", path)
		fmt.Printf("  dimensions: %d x %d x %d", vol.Width, vol.Height, vol.Depth)
		if vol.NumVolumes > 1 {
			fmt.Printf(" x %d frames", vol.NumVolumes)
		}
		fmt.Println()
		fmt.Printf("  spacing:    %.3f x %.3f x %.3f mm\n",
			vol.Spacing[0], vol.Spacing[1], vol.Spacing[2])
		fmt.Printf("  origin:     (%.1f, %.1f, %.1f) mm\n",
			vol.Origin[0], vol.Origin[1], vol.Origin[2])
		affine := vol.Affine()
		fmt.Printf("  affine:\n")
		for _, row := range affine {
			fmt.Printf("    %8.3f %8.3f %8.3f %8.3f\n", row[0], row[1], row[2], row[3])
		}
		if vol.TR > 0 {
			fmt.Printf("  TR:         %.3f s\n", vol.TR)
		}
		min, max := vol.MinMax()
		fmt.Printf("  intensity:  [%g, %g]\n", min, max)

		if infoPreview {
			img, err := visualization.NewSliceViewer(vol).Montage()
			if err != nil {
				return err
			}
			previewPath := filepath.Join(filepath.Dir(path), stem(path)+"_preview.png")
			if err := visualization.SaveImage(img, previewPath); err != nil {
				return err
			}
			fmt.Printf("  preview:    %s\n", previewPath)
		}
	default:
		return fmt.Errorf("unrecognized file type (expected .nii, .nii.gz or .edf)")
	}
	return nil
}
