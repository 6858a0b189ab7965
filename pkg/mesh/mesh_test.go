package mesh

import (
	"math"
	"testing"

	"neuroviz/internal/models"
)

// sphereField builds a binary sphere volume for surface extraction tests.
func sphereField(size int) []float64 {
	data := make([]float64, size*size*size)
	center := float64(size) / 2
	radius := float64(size) / 4
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx := float64(x) - center
				dy := float64(y) - center
				dz := float64(z) - center
				if math.Sqrt(dx*dx+dy*dy+dz*dz) < radius {
					data[z*size*size+y*size+x] = 1.0
				}
			}
		}
	}
	return data
}

func TestMarchingCubesSphere(t *testing.T) {
	size := 20
	center := float64(size) / 2
	mc := NewMarchingCubes(sphereField(size), size, size, size, 0.5)
	triangles := mc.GenerateTriangles()

	// A sphere at this resolution produces a few hundred facets.
	if len(triangles) < 100 {
		t.Fatalf("expected at least 100 triangles for sphere, got %d", len(triangles))
	}

	// Normals must point away from the sphere center.
	for i, tri := range triangles {
		cx := float64(tri.Vertex1[0]+tri.Vertex2[0]+tri.Vertex3[0])/3 - center
		cy := float64(tri.Vertex1[1]+tri.Vertex2[1]+tri.Vertex3[1])/3 - center
		cz := float64(tri.Vertex1[2]+tri.Vertex2[2]+tri.Vertex3[2])/3 - center
		mag := math.Sqrt(cx*cx + cy*cy + cz*cz)
		if mag == 0 {
			continue
		}
		dot := (cx*float64(tri.Normal[0]) + cy*float64(tri.Normal[1]) + cz*float64(tri.Normal[2])) / mag
		if dot < -0.5 {
			t.Fatalf("triangle %d normal points inward, dot %f", i, dot)
		}
	}
}

func TestMarchingCubesScale(t *testing.T) {
	data := []float64{
		1, 0,
		0, 0,

		0, 0,
		0, 0,
	}

	mc := NewMarchingCubes(data, 2, 2, 2, 0.5)
	mc.SetScale(2.5, 1.5, 3.0)
	scaled := mc.GenerateTriangles()

	mc2 := NewMarchingCubes(data, 2, 2, 2, 0.5)
	plain := mc2.GenerateTriangles()

	if len(scaled) == 0 || len(plain) == 0 {
		t.Fatal("no triangles generated")
	}
	if scaled[0].Vertex1 == plain[0].Vertex1 &&
		scaled[0].Vertex2 == plain[0].Vertex2 &&
		scaled[0].Vertex3 == plain[0].Vertex3 {
		t.Error("scaling had no effect on triangle vertices")
	}
}

func TestMarchingCubesInterpolation(t *testing.T) {
	data := []float64{
		1, 0,
		0, 0,

		0, 0,
		0, 0,
	}

	mc := NewMarchingCubes(data, 2, 2, 2, 0.5)
	triangles := mc.GenerateTriangles()
	if len(triangles) == 0 {
		t.Fatal("no triangles generated")
	}

	tri := triangles[0]
	interpolated := false
	for _, v := range [][3]float32{tri.Vertex1, tri.Vertex2, tri.Vertex3} {
		for _, c := range v {
			if math.Abs(float64(c)-math.Round(float64(c))) > 0.001 {
				interpolated = true
			}
		}
	}
	if !interpolated {
		t.Error("no interpolated vertex found, crossing should lie between corners")
	}
	if tri.Normal == ([3]float32{}) {
		t.Error("triangle normal is zero")
	}
}

func TestWeldSharesVertices(t *testing.T) {
	size := 16
	mc := NewMarchingCubes(sphereField(size), size, size, size, 0.5)
	triangles := mc.GenerateTriangles()

	m := Weld(triangles, 1e-5)

	if m.NumFaces() == 0 {
		t.Fatal("weld produced no faces")
	}
	// Triangle soup carries 3 vertices per face; a closed welded surface
	// averages roughly half a vertex per face.
	if m.NumVertices() >= 3*m.NumFaces() {
		t.Errorf("weld did not merge vertices: %d vertices for %d faces",
			m.NumVertices(), m.NumFaces())
	}
	for _, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= m.NumVertices() {
				t.Fatalf("face references vertex %d out of %d", vi, m.NumVertices())
			}
		}
	}
}

func TestSmoothLaplacianShrinks(t *testing.T) {
	size := 20
	mc := NewMarchingCubes(sphereField(size), size, size, size, 0.5)
	m := Weld(mc.GenerateTriangles(), 1e-5)

	before := meanRadius(m)
	SmoothLaplacian(m, 20, 0.5)
	after := meanRadius(m)

	if after >= before {
		t.Errorf("laplacian smoothing should shrink the sphere: %f -> %f", before, after)
	}
}

func TestSmoothTaubinPreservesVolume(t *testing.T) {
	size := 20
	mc := NewMarchingCubes(sphereField(size), size, size, size, 0.5)

	lap := Weld(mc.GenerateTriangles(), 1e-5)
	tau := lap.Clone()

	SmoothLaplacian(lap, 50, 0.5)
	SmoothTaubin(tau, 50, 0.1)

	original := meanRadius(Weld(mc.GenerateTriangles(), 1e-5))
	lapLoss := original - meanRadius(lap)
	tauLoss := math.Abs(original - meanRadius(tau))

	if tauLoss >= lapLoss {
		t.Errorf("taubin lost more radius than laplacian: %f vs %f", tauLoss, lapLoss)
	}
}

func meanRadius(m *models.Mesh) float64 {
	min, max := m.Bounds()
	return ((max[0] - min[0]) + (max[1] - min[1]) + (max[2] - min[2])) / 6
}

func TestFillHolesClosesSmallOpening(t *testing.T) {
	size := 16
	mc := NewMarchingCubes(sphereField(size), size, size, size, 0.5)
	m := Weld(mc.GenerateTriangles(), 1e-5)

	// Punch a hole by removing a handful of faces around one vertex.
	victim := 0
	kept := m.Faces[:0]
	removed := 0
	for _, f := range m.Faces {
		if f[0] == victim || f[1] == victim || f[2] == victim {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept
	if removed == 0 {
		t.Fatal("failed to open a hole in the test mesh")
	}

	before := len(boundaryLoops(m))
	if before == 0 {
		t.Fatal("expected an open boundary after face removal")
	}

	FillHoles(m, 1e6)

	if after := len(boundaryLoops(m)); after != 0 {
		t.Errorf("expected all holes closed, %d boundary loops remain", after)
	}
}

func TestFillHolesRespectsAreaLimit(t *testing.T) {
	size := 16
	mc := NewMarchingCubes(sphereField(size), size, size, size, 0.5)
	m := Weld(mc.GenerateTriangles(), 1e-5)

	victim := 0
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if f[0] == victim || f[1] == victim || f[2] == victim {
			continue
		}
		kept = append(kept, f)
	}
	m.Faces = kept

	before := len(boundaryLoops(m))
	FillHoles(m, 1e-9)
	if after := len(boundaryLoops(m)); after != before {
		t.Errorf("no hole should be filled with a tiny area limit: %d -> %d loops", before, after)
	}
}

func TestLargestComponent(t *testing.T) {
	size := 24
	data := make([]float64, size*size*size)
	set := func(x, y, z int) { data[z*size*size+y*size+x] = 1 }

	// A large blob and a far away single-voxel speck.
	for z := 4; z < 12; z++ {
		for y := 4; y < 12; y++ {
			for x := 4; x < 12; x++ {
				set(x, y, z)
			}
		}
	}
	set(20, 20, 20)

	mc := NewMarchingCubes(data, size, size, size, 0.5)
	m := Weld(mc.GenerateTriangles(), 1e-5)

	main := LargestComponent(m)

	if main.NumFaces() >= m.NumFaces() {
		t.Error("expected the speck to be removed")
	}
	if main.NumFaces() < m.NumFaces()/2 {
		t.Errorf("largest component kept too little: %d of %d faces",
			main.NumFaces(), m.NumFaces())
	}

	// All kept vertices stay referenced.
	used := make([]bool, main.NumVertices())
	for _, f := range main.Faces {
		for _, vi := range f {
			used[vi] = true
		}
	}
	for i, u := range used {
		if !u {
			t.Fatalf("vertex %d is orphaned after component filtering", i)
		}
	}
}
