package vtk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuroviz/internal/models"
)

func testMesh() *models.Mesh {
	return &models.Mesh{
		Vertices: [][3]float64{
			{0, 0, 0},
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
		Faces: [][3]int{
			{0, 1, 2},
			{0, 1, 3},
			{1, 2, 3},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	m := testMesh()
	path := filepath.Join(t.TempDir(), "surface.vtk")

	require.NoError(t, WriteFile(path, m))

	got, err := ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, m.Vertices, got.Vertices)
	assert.Equal(t, m.Faces, got.Faces)
	assert.Nil(t, got.Scalars)
}

func TestRoundTripWithScalars(t *testing.T) {
	m := testMesh()
	m.Scalars = []float64{0, 0.25, -3.5, 12}
	path := filepath.Join(t.TempDir(), "activation.vtk")

	require.NoError(t, WriteFile(path, m))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Scalars, got.Scalars)
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.vtk")
	require.NoError(t, os.WriteFile(path, []byte("not a vtk file\nat all\n"), 0o644))

	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestReadRejectsQuads(t *testing.T) {
	content := `# vtk DataFile Version 3.0
quad surface
ASCII
DATASET POLYDATA
POINTS 4 float
0 0 0
1 0 0
1 1 0
0 1 0
POLYGONS 1 5
4 0 1 2 3
`
	path := filepath.Join(t.TempDir(), "quad.vtk")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only triangles")
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.vtk"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
