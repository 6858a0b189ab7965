// Package fmrimap projects functional activation volumes onto a
// reconstructed anatomical surface.
package fmrimap

import (
	"fmt"
	"math"

	"neuroviz/internal/models"
)

// Locator resolves surface coordinates to voxels of one functional frame.
// Coordinates live in the spacing-scaled voxel frame the reconstructed
// surface is built in; the functional volume is assumed co-gridded with the
// anatomy, so the scanner origin plays no part. Coordinates that land outside
// the grid sample as zero, so a surface larger than the functional field of
// view maps cleanly.
type Locator struct {
	vol   *models.Volume
	frame int
}

// NewLocator validates the frame index and builds a locator over it.
func NewLocator(vol *models.Volume, frame int) (*Locator, error) {
	n := vol.NumVolumes
	if n == 0 {
		n = 1
	}
	if frame < 0 || frame >= n {
		return nil, fmt.Errorf("fmrimap: frame %d out of range, volume has %d", frame, n)
	}
	return &Locator{vol: vol, frame: frame}, nil
}

// Sample returns the activation at the voxel nearest to the grid point p.
func (l *Locator) Sample(p [3]float64) float64 {
	x := int(math.Round(p[0] / l.vol.Spacing[0]))
	y := int(math.Round(p[1] / l.vol.Spacing[1]))
	z := int(math.Round(p[2] / l.vol.Spacing[2]))
	if x < 0 || x >= l.vol.Width || y < 0 || y >= l.vol.Height || z < 0 || z >= l.vol.Depth {
		return 0
	}
	return l.vol.AtT(x, y, z, l.frame)
}

// MapToSurface samples frame of the functional volume at every vertex of the
// surface and stores the result as the mesh scalar array.
func MapToSurface(vol *models.Volume, m *models.Mesh, frame int) error {
	loc, err := NewLocator(vol, frame)
	if err != nil {
		return err
	}
	scalars := make([]float64, m.NumVertices())
	for i, v := range m.Vertices {
		scalars[i] = loc.Sample(v)
	}
	m.Scalars = scalars
	return nil
}

// ColorMap converts activation scalars to display colors.
type ColorMap struct {
	min, max float64
	stops    []stop
}

type stop struct {
	at      float64
	r, g, b float64
}

// NewActivationColorMap builds the blue-to-green-to-red ramp used for
// functional overlays. The upper end saturates at saturation*max so the
// hottest spots stay fully red instead of only the single peak voxel.
func NewActivationColorMap(min, max, saturation float64) *ColorMap {
	top := saturation * max
	if top <= min {
		top = min + 1
	}
	mid := min + (top-min)/2
	return &ColorMap{
		min: min,
		max: top,
		stops: []stop{
			{at: min, r: 0, g: 0, b: 1},
			{at: mid, r: 0, g: 1, b: 0},
			{at: top, r: 1, g: 0, b: 0},
		},
	}
}

// NewGrayColorMap builds a plain intensity ramp for anatomical surfaces.
func NewGrayColorMap(min, max float64) *ColorMap {
	if max <= min {
		max = min + 1
	}
	return &ColorMap{
		min: min,
		max: max,
		stops: []stop{
			{at: min, r: 0, g: 0, b: 0},
			{at: max, r: 1, g: 1, b: 1},
		},
	}
}

// Lookup maps a scalar value to an RGB triple, clamping outside the range.
func (c *ColorMap) Lookup(v float64) (r, g, b uint8) {
	if v <= c.stops[0].at {
		s := c.stops[0]
		return to255(s.r), to255(s.g), to255(s.b)
	}
	last := c.stops[len(c.stops)-1]
	if v >= last.at {
		return to255(last.r), to255(last.g), to255(last.b)
	}
	for i := 1; i < len(c.stops); i++ {
		if v > c.stops[i].at {
			continue
		}
		lo, hi := c.stops[i-1], c.stops[i]
		t := (v - lo.at) / (hi.at - lo.at)
		return to255(lo.r + t*(hi.r-lo.r)),
			to255(lo.g + t*(hi.g-lo.g)),
			to255(lo.b + t*(hi.b-lo.b))
	}
	return to255(last.r), to255(last.g), to255(last.b)
}

// Range reports the scalar interval the map covers.
func (c *ColorMap) Range() (min, max float64) {
	return c.min, c.max
}

func to255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
