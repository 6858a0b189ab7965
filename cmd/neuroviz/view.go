package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"neuroviz/internal/models"
	"neuroviz/pkg/fmrimap"
	"neuroviz/pkg/mesh"
	"neuroviz/pkg/nifti"
	"neuroviz/pkg/stl"
	"neuroviz/pkg/visualization"
	"neuroviz/pkg/vtk"
)

var (
	viewOutput    string
	viewAzimuth   float64
	viewElevation float64
	viewSlices    string
	viewHTML      bool
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Render a volume or surface to PNG",
	Long: `Renders the given file to a PNG image. NIfTI volumes produce a
three-view montage (or a full slice sequence with --slices), STL and VTK
surfaces produce a shaded 3D render. VTK surfaces carrying activation
scalars are colored with the activation ramp.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		out := viewOutput
		if out == "" {
			out = stem(path) + ".png"
		}

		lower := strings.ToLower(path)
		switch {
		case strings.HasSuffix(lower, ".nii"), strings.HasSuffix(lower, ".nii.gz"):
			return viewVolume(path, out)
		case strings.HasSuffix(lower, ".stl"):
			triangles, err := stl.LoadFromSTL(path)
			if err != nil {
				return err
			}
			return viewMesh(mesh.Weld(triangles, 1e-5), out)
		case strings.HasSuffix(lower, ".vtk"):
			m, err := vtk.ReadFile(path)
			if err != nil {
				return err
			}
			return viewMesh(m, out)
		default:
			return fmt.Errorf("unrecognized file type (expected .nii, .nii.gz, .stl or .vtk)")
		}
	},
}

func init() {
	viewCmd.Flags().StringVarP(&viewOutput, "output", "o", "",
		"output PNG path (default: input name with .png)")
	viewCmd.Flags().Float64Var(&viewAzimuth, "azimuth", 30, "camera azimuth in degrees")
	viewCmd.Flags().Float64Var(&viewElevation, "elevation", 20, "camera elevation in degrees")
	viewCmd.Flags().StringVar(&viewSlices, "slices", "",
		"write the full slice sequence along this axis (x, y or z) instead of a montage")
	viewCmd.Flags().BoolVar(&viewHTML, "html", false,
		"also write an interactive HTML viewer next to the PNG (surfaces only)")
}

func viewVolume(path, out string) error {
	vol, err := nifti.ReadFile(path)
	if err != nil {
		return err
	}
	viewer := visualization.NewSliceViewer(vol)

	if viewSlices != "" {
		dir := strings.TrimSuffix(out, ".png") + "_slices"
		if err := viewer.SaveSliceSequence(viewSlices, dir); err != nil {
			return err
		}
		fmt.Printf("[INFO] Slice sequence written to %s\n", dir)
		return nil
	}

	img, err := viewer.Montage()
	if err != nil {
		return err
	}
	if err := visualization.SaveImage(img, out); err != nil {
		return err
	}
	fmt.Printf("[INFO] Montage written to %s\n", out)
	return nil
}

func viewMesh(m *models.Mesh, out string) error {
	renderer := visualization.NewMeshRenderer()
	renderer.Azimuth = viewAzimuth
	renderer.Elevation = viewElevation
	if m.HasScalars() {
		min, max := m.ScalarRange()
		renderer.Colors = fmrimap.NewActivationColorMap(min, max, 0.9)
	}

	img, err := renderer.Render(m)
	if err != nil {
		return err
	}
	if err := visualization.SaveImage(img, out); err != nil {
		return err
	}
	fmt.Printf("[INFO] Render written to %s\n", out)

	if viewHTML {
		htmlOut := strings.TrimSuffix(out, ".png") + ".html"
		if m.HasScalars() {
			err = visualization.SaveActivationScatter(m, 0, htmlOut)
		} else {
			err = visualization.SaveSurfaceScatter(m, 0, htmlOut)
		}
		if err != nil {
			return err
		}
		fmt.Printf("[INFO] Interactive viewer written to %s\n", htmlOut)
	}
	return nil
}
