package visualization

import (
	"image"
	"image/color"
	"math"

	"neuroviz/internal/models"
)

// OverlayContour renders the mid axial slice of a volume with the surface
// cross-section drawn on top in red. Vertices within half a voxel of the
// slice plane are projected onto it, which is enough to judge whether an
// extracted surface actually follows the anatomy.
func OverlayContour(vol *models.Volume, m *models.Mesh) (image.Image, error) {
	viewer := NewSliceViewer(vol)
	z := vol.Depth / 2
	slice, err := viewer.ExtractSlice("z", z)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(slice.Bounds())
	b := slice.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, slice.At(x, y))
		}
	}

	planeZ := float64(z) * vol.Spacing[2]
	halfVoxel := vol.Spacing[2] / 2
	for _, v := range m.Vertices {
		if math.Abs(v[2]-planeZ) > halfVoxel {
			continue
		}
		px := int(math.Round(v[0] / vol.Spacing[0]))
		py := int(math.Round(v[1] / vol.Spacing[1]))
		if px < 0 || px >= vol.Width || py < 0 || py >= vol.Height {
			continue
		}
		out.SetRGBA(px, py, color.RGBA{R: 255, A: 255})
	}
	return out, nil
}
