// Package visualization renders volumes, surfaces and recordings to PNG
// images and interactive HTML pages.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"neuroviz/internal/models"
)

// SliceViewer extracts display-ready 2D slices from a volume using a
// window/level intensity mapping.
type SliceViewer struct {
	vol *models.Volume

	// window and level define the displayed intensity range
	// [level-window/2, level+window/2].
	window float64
	level  float64
}

// NewSliceViewer builds a viewer with the window spanning the full intensity
// range of the volume.
func NewSliceViewer(vol *models.Volume) *SliceViewer {
	min, max := vol.MinMax()
	return &SliceViewer{
		vol:    vol,
		window: max - min,
		level:  (max + min) / 2,
	}
}

// SetWindowLevel overrides the displayed intensity range.
func (v *SliceViewer) SetWindowLevel(window, level float64) {
	v.window = window
	v.level = level
}

// ExtractSlice renders a 2D slice along the given axis as an 8-bit grayscale
// image. Axis x yields the sagittal plane, y the coronal, z the axial.
func (v *SliceViewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray

	switch axis {
	case "x", "X":
		if position >= v.vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.vol.Width)
		}
		img = image.NewGray(image.Rect(0, 0, v.vol.Depth, v.vol.Height))
		for y := 0; y < v.vol.Height; y++ {
			for z := 0; z < v.vol.Depth; z++ {
				img.SetGray(z, y, color.Gray{Y: v.display(v.vol.At(position, y, z))})
			}
		}

	case "y", "Y":
		if position >= v.vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.vol.Height)
		}
		img = image.NewGray(image.Rect(0, 0, v.vol.Width, v.vol.Depth))
		for z := 0; z < v.vol.Depth; z++ {
			for x := 0; x < v.vol.Width; x++ {
				img.SetGray(x, z, color.Gray{Y: v.display(v.vol.At(x, position, z))})
			}
		}

	case "z", "Z":
		if position >= v.vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.vol.Depth)
		}
		img = image.NewGray(image.Rect(0, 0, v.vol.Width, v.vol.Height))
		for y := 0; y < v.vol.Height; y++ {
			for x := 0; x < v.vol.Width; x++ {
				img.SetGray(x, y, color.Gray{Y: v.display(v.vol.At(x, y, position))})
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// display maps an intensity through the window/level to an 8-bit value.
func (v *SliceViewer) display(value float64) uint8 {
	if v.window <= 0 {
		return 0
	}
	lo := v.level - v.window/2
	t := (value - lo) / v.window
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 255
	}
	return uint8(t*255 + 0.5)
}

// Montage renders the three mid-volume orthogonal slices side by side,
// separated by a one pixel gutter.
func (v *SliceViewer) Montage() (image.Image, error) {
	sag, err := v.ExtractSlice("x", v.vol.Width/2)
	if err != nil {
		return nil, err
	}
	cor, err := v.ExtractSlice("y", v.vol.Height/2)
	if err != nil {
		return nil, err
	}
	axi, err := v.ExtractSlice("z", v.vol.Depth/2)
	if err != nil {
		return nil, err
	}

	panels := []image.Image{sag, cor, axi}
	width, height := 0, 0
	for _, p := range panels {
		b := p.Bounds()
		width += b.Dx() + 1
		if b.Dy() > height {
			height = b.Dy()
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	xOff := 0
	for _, p := range panels {
		b := p.Bounds()
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.Set(xOff+x, y, p.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		xOff += b.Dx() + 1
	}
	return out, nil
}

// SaveImage writes any image as a PNG file.
func SaveImage(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveSliceSequence renders every slice along the given axis into outputDir,
// one PNG per position.
func (v *SliceViewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Width
	case "y", "Y":
		maxPos = v.vol.Height
	case "z", "Z":
		maxPos = v.vol.Depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := SaveImage(img, filename); err != nil {
			return err
		}
	}
	return nil
}
