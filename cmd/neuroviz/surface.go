package main

import (
	"fmt"

	"neuroviz/internal/models"
	"neuroviz/pkg/config"
	"neuroviz/pkg/mesh"
	"neuroviz/pkg/segment"
	"neuroviz/pkg/stl"
	"neuroviz/pkg/vtk"
)

// weldTolerance collapses marching cubes vertices that coincide up to
// floating point noise.
const weldTolerance = 1e-5

// buildSurface runs the surface extraction pipeline on a volume:
// segmentation, marching cubes at the dynamic isovalue, welding, component
// filtering, smoothing and hole filling.
func buildSurface(vol *models.Volume, lower, upper float64, cfg *config.Config) (*models.Mesh, error) {
	fmt.Printf("[INFO] Segmenting intensity window [%g, %g]\n", lower, upper)
	mask := segment.Threshold(vol, lower, upper)

	iso, err := segment.DynamicIsovalue(mask)
	if err != nil {
		return nil, fmt.Errorf("no tissue found in window [%g, %g]: %w", lower, upper, err)
	}
	fmt.Printf("[INFO] Extracting isosurface at %.3f\n", iso)

	mc := mesh.NewMarchingCubes(mask.Data, mask.Width, mask.Height, mask.Depth, iso)
	mc.SetScale(float32(vol.Spacing[0]), float32(vol.Spacing[1]), float32(vol.Spacing[2]))
	triangles := mc.GenerateTriangles()
	if len(triangles) == 0 {
		return nil, fmt.Errorf("isosurface is empty")
	}
	fmt.Printf("[INFO] Marching cubes produced %d triangles\n", len(triangles))

	m := mesh.Weld(triangles, weldTolerance)
	mesh.SmoothLaplacian(m, cfg.Surface.LaplacianIterations, cfg.Surface.Relaxation)
	mesh.FillHoles(m, cfg.Surface.HoleSize)

	// Discard disconnected debris only after filling: capping a hole can
	// reconnect pieces that would otherwise be thrown away.
	m = mesh.LargestComponent(m)
	fmt.Printf("[INFO] Largest component: %d vertices, %d faces\n", m.NumVertices(), m.NumFaces())

	mesh.SmoothTaubin(m, cfg.Surface.SincIterations, cfg.Surface.PassBand)

	return m, nil
}

// saveSurface writes a mesh as both binary STL and legacy VTK polydata.
func saveSurface(m *models.Mesh, stlPath, vtkPath string) error {
	if err := stl.SaveToSTL(stlPath, mesh.ToTriangles(m)); err != nil {
		return err
	}
	fmt.Printf("[INFO] Surface written to %s\n", stlPath)

	if err := vtk.WriteFile(vtkPath, m); err != nil {
		return err
	}
	fmt.Printf("[INFO] Surface written to %s\n", vtkPath)
	return nil
}
