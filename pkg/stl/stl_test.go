package stl

import (
	"os"
	"path/filepath"
	"testing"

	"neuroviz/pkg/mesh"
)

func TestSaveToSTL(t *testing.T) {
	triangles := []mesh.Triangle{
		{
			Normal:  [3]float32{0, 0, 1},
			Vertex1: [3]float32{0, 0, 0},
			Vertex2: [3]float32{1, 0, 0},
			Vertex3: [3]float32{0, 1, 0},
		},
	}

	path := filepath.Join(t.TempDir(), "triangle.stl")
	if err := SaveToSTL(path, triangles); err != nil {
		t.Fatalf("failed to save STL: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat output file: %v", err)
	}

	// 80 byte header + 4 byte count + 50 bytes per triangle.
	want := int64(80 + 4 + 50*len(triangles))
	if info.Size() != want {
		t.Errorf("STL file size: want %d bytes, got %d", want, info.Size())
	}
}

func TestRoundTrip(t *testing.T) {
	triangles := []mesh.Triangle{
		{
			Normal:  [3]float32{0, 0, 1},
			Vertex1: [3]float32{0, 0, 0},
			Vertex2: [3]float32{1, 0, 0},
			Vertex3: [3]float32{0, 1, 0},
		},
		{
			Normal:  [3]float32{1, 0, 0},
			Vertex1: [3]float32{0.5, 2.25, -1},
			Vertex2: [3]float32{0.5, 3, -1},
			Vertex3: [3]float32{0.5, 2.25, 4},
		},
	}

	path := filepath.Join(t.TempDir(), "mesh.stl")
	if err := SaveToSTL(path, triangles); err != nil {
		t.Fatalf("failed to save STL: %v", err)
	}

	loaded, err := LoadFromSTL(path)
	if err != nil {
		t.Fatalf("failed to load STL: %v", err)
	}
	if len(loaded) != len(triangles) {
		t.Fatalf("want %d triangles, got %d", len(triangles), len(loaded))
	}
	for i := range triangles {
		if loaded[i] != triangles[i] {
			t.Errorf("triangle %d differs after round trip: %+v vs %+v",
				i, triangles[i], loaded[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFromSTL(filepath.Join(t.TempDir(), "nope.stl")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
