package mesh

import (
	"math"

	"neuroviz/internal/models"
)

// FillHoles closes boundary loops whose patch area does not exceed maxArea.
// Each hole is capped with a triangle fan around the loop centroid; larger
// openings are left alone so a cropped field of view is not welded shut.
func FillHoles(m *models.Mesh, maxArea float64) {
	loops := boundaryLoops(m)
	for _, loop := range loops {
		if len(loop) < 3 {
			continue
		}

		var cx, cy, cz float64
		for _, vi := range loop {
			cx += m.Vertices[vi][0]
			cy += m.Vertices[vi][1]
			cz += m.Vertices[vi][2]
		}
		inv := 1.0 / float64(len(loop))
		center := [3]float64{cx * inv, cy * inv, cz * inv}

		var area float64
		for i := range loop {
			a := m.Vertices[loop[i]]
			b := m.Vertices[loop[(i+1)%len(loop)]]
			area += triangleArea(center, a, b)
		}
		if area > maxArea {
			continue
		}

		ci := len(m.Vertices)
		m.Vertices = append(m.Vertices, center)
		if m.Scalars != nil {
			m.Scalars = append(m.Scalars, 0)
		}
		// Boundary edges run with the face winding, so the cap winds the
		// other way to keep the surface orientation consistent.
		for i := range loop {
			a := loop[i]
			b := loop[(i+1)%len(loop)]
			m.Faces = append(m.Faces, [3]int{ci, b, a})
		}
	}
}

// boundaryLoops finds directed edges used by exactly one face and chains
// them into closed loops.
func boundaryLoops(m *models.Mesh) [][]int {
	type edge struct{ a, b int }
	count := make(map[edge]int)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			count[edge{a, b}]++
		}
	}

	next := make(map[int]int)
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			ka, kb := a, b
			if ka > kb {
				ka, kb = kb, ka
			}
			if count[edge{ka, kb}] == 1 {
				next[a] = b
			}
		}
	}

	var loops [][]int
	visited := make(map[int]bool)
	for start := range next {
		if visited[start] {
			continue
		}
		var loop []int
		v := start
		for {
			if visited[v] {
				break
			}
			visited[v] = true
			loop = append(loop, v)
			n, ok := next[v]
			if !ok {
				loop = nil
				break
			}
			v = n
			if v == start {
				loops = append(loops, loop)
				loop = nil
				break
			}
		}
	}
	return loops
}

func triangleArea(a, b, c [3]float64) float64 {
	u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	nx := u[1]*v[2] - u[2]*v[1]
	ny := u[2]*v[0] - u[0]*v[2]
	nz := u[0]*v[1] - u[1]*v[0]
	return 0.5 * math.Sqrt(nx*nx+ny*ny+nz*nz)
}

// LargestComponent removes everything but the biggest connected surface
// patch, discarding disconnected specks left over from segmentation noise.
func LargestComponent(m *models.Mesh) *models.Mesh {
	if len(m.Faces) == 0 {
		return m.Clone()
	}

	parent := make([]int, len(m.Vertices))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, f := range m.Faces {
		union(f[0], f[1])
		union(f[1], f[2])
	}

	faceCount := make(map[int]int)
	for _, f := range m.Faces {
		faceCount[find(f[0])]++
	}
	best, bestN := -1, -1
	for root, n := range faceCount {
		if n > bestN {
			best, bestN = root, n
		}
	}

	out := &models.Mesh{}
	remap := make(map[int]int)
	mapVertex := func(vi int) int {
		if ni, ok := remap[vi]; ok {
			return ni
		}
		ni := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices[vi])
		if m.Scalars != nil {
			out.Scalars = append(out.Scalars, m.Scalars[vi])
		}
		remap[vi] = ni
		return ni
	}
	for _, f := range m.Faces {
		if find(f[0]) != best {
			continue
		}
		out.Faces = append(out.Faces, [3]int{mapVertex(f[0]), mapVertex(f[1]), mapVertex(f[2])})
	}
	return out
}
