package mesh

import (
	"math"

	"neuroviz/internal/models"
)

// Weld merges triangle soup into an indexed mesh, collapsing vertices that
// lie within tol of each other. Degenerate triangles produced by the collapse
// are dropped.
func Weld(triangles []Triangle, tol float64) *models.Mesh {
	if tol <= 0 {
		tol = 1e-5
	}
	inv := 1.0 / tol

	type key [3]int64
	quantize := func(p [3]float32) key {
		return key{
			int64(math.Round(float64(p[0]) * inv)),
			int64(math.Round(float64(p[1]) * inv)),
			int64(math.Round(float64(p[2]) * inv)),
		}
	}

	lookup := make(map[key]int)
	m := &models.Mesh{}

	indexOf := func(p [3]float32) int {
		k := quantize(p)
		if idx, ok := lookup[k]; ok {
			return idx
		}
		idx := len(m.Vertices)
		m.Vertices = append(m.Vertices, [3]float64{float64(p[0]), float64(p[1]), float64(p[2])})
		lookup[k] = idx
		return idx
	}

	for _, t := range triangles {
		a := indexOf(t.Vertex1)
		b := indexOf(t.Vertex2)
		c := indexOf(t.Vertex3)
		if a == b || b == c || a == c {
			continue
		}
		m.Faces = append(m.Faces, [3]int{a, b, c})
	}
	return m
}

// ToTriangles expands an indexed mesh back into a triangle list, recomputing
// per-face normals from the winding. Smoothing filters move vertices, so the
// normals stored at extraction time go stale.
func ToTriangles(m *models.Mesh) []Triangle {
	out := make([]Triangle, 0, len(m.Faces))
	for _, f := range m.Faces {
		p1 := m.Vertices[f[0]]
		p2 := m.Vertices[f[1]]
		p3 := m.Vertices[f[2]]

		u := [3]float64{p2[0] - p1[0], p2[1] - p1[1], p2[2] - p1[2]}
		v := [3]float64{p3[0] - p1[0], p3[1] - p1[1], p3[2] - p1[2]}
		n := [3]float64{
			u[1]*v[2] - u[2]*v[1],
			u[2]*v[0] - u[0]*v[2],
			u[0]*v[1] - u[1]*v[0],
		}
		length := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if length > 1e-12 {
			n[0] /= length
			n[1] /= length
			n[2] /= length
		}

		out = append(out, Triangle{
			Normal:  [3]float32{float32(n[0]), float32(n[1]), float32(n[2])},
			Vertex1: [3]float32{float32(p1[0]), float32(p1[1]), float32(p1[2])},
			Vertex2: [3]float32{float32(p2[0]), float32(p2[1]), float32(p2[2])},
			Vertex3: [3]float32{float32(p3[0]), float32(p3[1]), float32(p3[2])},
		})
	}
	return out
}
