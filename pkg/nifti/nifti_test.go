package nifti

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuroviz/internal/models"
)

func gradientVolume(w, h, d int) *models.Volume {
	vol := models.NewVolume(w, h, d)
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				vol.Set(x, y, z, float64(x+y*10+z*100))
			}
		}
	}
	vol.Spacing = [3]float64{0.8, 0.8, 1.2}
	vol.Origin = [3]float64{-40, -50, -30}
	return vol
}

func TestRoundTrip(t *testing.T) {
	vol := gradientVolume(7, 6, 5)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, vol))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, vol.Width, got.Width)
	assert.Equal(t, vol.Height, got.Height)
	assert.Equal(t, vol.Depth, got.Depth)
	assert.Equal(t, 1, got.NumVolumes)
	assert.InDelta(t, vol.Spacing[2], got.Spacing[2], 1e-6)
	assert.InDelta(t, vol.Origin[0], got.Origin[0], 1e-4)

	for i := range vol.Data {
		if math.Abs(vol.Data[i]-got.Data[i]) > 1e-3 {
			t.Fatalf("voxel %d mismatch: want %f got %f", i, vol.Data[i], got.Data[i])
		}
	}
}

func TestReadWriteGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vol.nii.gz")

	vol := gradientVolume(4, 4, 3)
	require.NoError(t, WriteFile(path, vol))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, vol.Width, got.Width)
	assert.InDelta(t, vol.At(2, 1, 1), got.At(2, 1, 1), 1e-3)
}

func TestReadPlainFileWithGzName(t *testing.T) {
	// Compression is detected from content, not the extension.
	dir := t.TempDir()
	path := filepath.Join(dir, "vol.nii")

	vol := gradientVolume(3, 3, 3)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, vol))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Depth)
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.nii.gz"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRejectsGarbage(t *testing.T) {
	junk := bytes.Repeat([]byte{0xab}, 1024)
	_, err := Read(bytes.NewReader(junk))
	assert.ErrorIs(t, err, ErrNotNIfTI)
}

func TestWriteRejects4D(t *testing.T) {
	vol := gradientVolume(3, 3, 3)
	vol.NumVolumes = 2
	vol.Data = append(vol.Data, vol.Data...)

	var buf bytes.Buffer
	assert.Error(t, Write(&buf, vol))
}

func TestScalingApplied(t *testing.T) {
	vol := gradientVolume(3, 3, 3)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, vol))

	// Patch scl_slope (offset 112) and scl_inter (offset 116) in the header.
	raw := buf.Bytes()
	putFloat32 := func(off int, v float32) {
		bits := math.Float32bits(v)
		raw[off] = byte(bits)
		raw[off+1] = byte(bits >> 8)
		raw[off+2] = byte(bits >> 16)
		raw[off+3] = byte(bits >> 24)
	}
	putFloat32(112, 2.0)
	putFloat32(116, 5.0)

	got, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.InDelta(t, vol.At(1, 1, 1)*2+5, got.At(1, 1, 1), 1e-3)
}
