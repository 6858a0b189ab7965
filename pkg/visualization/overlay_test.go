package visualization

import (
	"image/color"
	"testing"

	"neuroviz/internal/models"
)

func TestOverlayContourMarksMidPlaneVertices(t *testing.T) {
	vol := gradientVolume(10, 10, 8)
	m := &models.Mesh{
		Vertices: [][3]float64{
			{2, 3, 4}, // on the z=4 mid plane
			{7, 7, 4},
			{5, 5, 0}, // far from the plane, must not be drawn
		},
		Faces: [][3]int{{0, 1, 2}},
	}

	img, err := OverlayContour(vol, m)
	if err != nil {
		t.Fatal(err)
	}

	red := color.RGBA{R: 255, A: 255}
	if img.At(2, 3) != red {
		t.Errorf("vertex on the mid plane not marked: got %v", img.At(2, 3))
	}
	if img.At(7, 7) != red {
		t.Errorf("vertex on the mid plane not marked: got %v", img.At(7, 7))
	}
	if img.At(5, 5) == red {
		t.Error("vertex off the mid plane must not be marked")
	}
}

func TestOverlayContourIgnoresOutOfBoundsVertices(t *testing.T) {
	vol := gradientVolume(6, 6, 4)
	m := &models.Mesh{
		Vertices: [][3]float64{{-3, 2, 2}, {2, 40, 2}},
	}

	if _, err := OverlayContour(vol, m); err != nil {
		t.Fatalf("out-of-bounds vertices should be skipped, got %v", err)
	}
}
