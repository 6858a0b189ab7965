package main

import (
	"math"
	"testing"

	"neuroviz/internal/models"
	"neuroviz/pkg/config"
)

// phantomWithSpeck holds a bright sphere plus an isolated bright voxel that
// the component filter must discard.
func phantomWithSpeck(size int) *models.Volume {
	vol := models.NewVolume(size, size, size)
	c := float64(size-1) / 2
	r := float64(size) / 3
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				d := math.Sqrt((float64(x)-c)*(float64(x)-c) +
					(float64(y)-c)*(float64(y)-c) +
					(float64(z)-c)*(float64(z)-c))
				if d < r {
					vol.Set(x, y, z, 45)
				}
			}
		}
	}
	vol.Set(1, 1, 1, 45)
	return vol
}

func TestBuildSurfaceKeepsOnlyMainComponent(t *testing.T) {
	vol := phantomWithSpeck(20)
	cfg := config.DefaultConfig()

	m, err := buildSurface(vol, 30, 60, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if m.NumFaces() < 50 {
		t.Fatalf("surface too small: %d faces", m.NumFaces())
	}

	// No face may be duplicated or folded onto itself.
	edges := make(map[[2]int]int)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			edges[[2]int{f[i], f[(i+1)%3]}]++
		}
	}
	for e, n := range edges {
		if n > 1 {
			t.Fatalf("directed edge %v used %d times", e, n)
		}
	}

	// The speck's tiny shell is debris that component filtering, which runs
	// after hole filling has finished adding faces, must have discarded.
	for _, v := range m.Vertices {
		if v[0] < 3 && v[1] < 3 && v[2] < 3 {
			t.Fatalf("vertex %v near the speck survived component filtering", v)
		}
	}
}

func TestBuildSurfaceEmptyWindow(t *testing.T) {
	vol := models.NewVolume(8, 8, 8)
	cfg := config.DefaultConfig()

	if _, err := buildSurface(vol, 30, 60, cfg); err == nil {
		t.Fatal("expected error for a window with no tissue")
	}
}
