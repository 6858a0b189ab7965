package fmrimap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuroviz/internal/models"
)

func functionalVolume() *models.Volume {
	vol := models.NewVolume(4, 4, 4)
	vol.NumVolumes = 2
	data := make([]float64, 2*vol.VoxelCount())
	copy(data, vol.Data)
	vol.Data = data
	// Frame 0: value encodes position. Frame 1: constant 7.
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				vol.Data[vol.Index(x, y, z)] = float64(x + 10*y + 100*z)
				vol.Data[vol.VoxelCount()+vol.Index(x, y, z)] = 7
			}
		}
	}
	return vol
}

func TestLocatorSamplesNearestVoxel(t *testing.T) {
	vol := functionalVolume()
	loc, err := NewLocator(vol, 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, loc.Sample([3]float64{0, 0, 0}))
	assert.Equal(t, 321.0, loc.Sample([3]float64{1, 2, 3}))
	// Rounds to the nearest voxel center.
	assert.Equal(t, 321.0, loc.Sample([3]float64{1.4, 2.4, 2.6}))
}

func TestLocatorRespectsSpacing(t *testing.T) {
	vol := functionalVolume()
	vol.Spacing = [3]float64{2, 2, 2}

	loc, err := NewLocator(vol, 0)
	require.NoError(t, err)

	// Grid point (2, 4, 6) is voxel (1, 2, 3).
	assert.Equal(t, 321.0, loc.Sample([3]float64{2, 4, 6}))
}

func TestLocatorIgnoresScannerOrigin(t *testing.T) {
	// A co-registered acquisition carries the same sform offset as the
	// anatomy the surface was extracted from; since the surface frame never
	// includes that offset, sampling must not subtract it.
	vol := functionalVolume()
	vol.Origin = [3]float64{100, 50, -75}

	loc, err := NewLocator(vol, 0)
	require.NoError(t, err)

	assert.Equal(t, 321.0, loc.Sample([3]float64{1, 2, 3}))
	assert.Equal(t, 0.0, loc.Sample([3]float64{0, 0, 0}))
}

func TestMapToSurfaceWithSharedOrigin(t *testing.T) {
	vol := functionalVolume()
	vol.Origin = [3]float64{100, 50, -75}
	for i := range vol.Data {
		vol.Data[i] = 5
	}

	m := &models.Mesh{
		Vertices: [][3]float64{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}},
		Faces:    [][3]int{{0, 1, 2}},
	}
	require.NoError(t, MapToSurface(vol, m, 0))

	nonzero := 0
	for _, s := range m.Scalars {
		if s != 0 {
			nonzero++
		}
	}
	assert.Equal(t, len(m.Scalars), nonzero,
		"every in-grid vertex should pick up activation")
}

func TestLocatorOutOfBoundsIsZero(t *testing.T) {
	vol := functionalVolume()
	loc, err := NewLocator(vol, 0)
	require.NoError(t, err)

	assert.Equal(t, 0.0, loc.Sample([3]float64{-5, 0, 0}))
	assert.Equal(t, 0.0, loc.Sample([3]float64{0, 0, 100}))
}

func TestLocatorFrameSelection(t *testing.T) {
	vol := functionalVolume()

	loc, err := NewLocator(vol, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, loc.Sample([3]float64{2, 2, 2}))

	_, err = NewLocator(vol, 2)
	assert.Error(t, err)
	_, err = NewLocator(vol, -1)
	assert.Error(t, err)
}

func TestMapToSurface(t *testing.T) {
	vol := functionalVolume()
	m := &models.Mesh{
		Vertices: [][3]float64{
			{1, 2, 3},
			{0, 0, 0},
			{-50, 0, 0}, // outside the functional field of view
		},
		Faces: [][3]int{{0, 1, 2}},
	}

	require.NoError(t, MapToSurface(vol, m, 0))
	require.Len(t, m.Scalars, 3)
	assert.Equal(t, 321.0, m.Scalars[0])
	assert.Equal(t, 0.0, m.Scalars[1])
	assert.Equal(t, 0.0, m.Scalars[2])
}

func TestActivationColorMapEndpoints(t *testing.T) {
	cm := NewActivationColorMap(0, 100, 0.9)

	r, g, b := cm.Lookup(0)
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{r, g, b}, "low end is blue")

	r, g, b = cm.Lookup(45)
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b}, "midpoint is green")

	r, g, b = cm.Lookup(90)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b}, "saturation point is red")

	// Values past the saturation point stay fully red.
	r, g, b = cm.Lookup(100)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
}

func TestActivationColorMapInterpolates(t *testing.T) {
	cm := NewActivationColorMap(0, 100, 1.0)

	r, g, b := cm.Lookup(25)
	assert.Zero(t, r)
	assert.InDelta(t, 128, int(g), 2)
	assert.InDelta(t, 128, int(b), 2)
}

func TestGrayColorMap(t *testing.T) {
	cm := NewGrayColorMap(0, 10)

	r, g, b := cm.Lookup(5)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
	assert.InDelta(t, 128, int(r), 2)
}
