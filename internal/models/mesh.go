package models

// Mesh is an indexed triangle mesh. Vertices are world-space positions in mm
// and Faces index into the vertex list. Scalars, when present, carries one
// value per vertex (e.g. mapped fMRI activation).
type Mesh struct {
	Vertices [][3]float64
	Faces    [][3]int
	Scalars  []float64
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumFaces returns the triangle count.
func (m *Mesh) NumFaces() int { return len(m.Faces) }

// HasScalars reports whether per-vertex scalar data is attached.
func (m *Mesh) HasScalars() bool { return len(m.Scalars) == len(m.Vertices) && len(m.Scalars) > 0 }

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: make([][3]float64, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Faces, m.Faces)
	if m.Scalars != nil {
		out.Scalars = make([]float64, len(m.Scalars))
		copy(out.Scalars, m.Scalars)
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the mesh.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if len(m.Vertices) == 0 {
		return min, max
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max
}

// VertexNeighbors builds the adjacency list: for each vertex, the indices of
// vertices sharing an edge with it. Used by the smoothing filters.
func (m *Mesh) VertexNeighbors() [][]int {
	seen := make([]map[int]struct{}, len(m.Vertices))
	add := func(a, b int) {
		if seen[a] == nil {
			seen[a] = make(map[int]struct{}, 6)
		}
		seen[a][b] = struct{}{}
	}
	for _, f := range m.Faces {
		add(f[0], f[1])
		add(f[1], f[0])
		add(f[1], f[2])
		add(f[2], f[1])
		add(f[2], f[0])
		add(f[0], f[2])
	}

	out := make([][]int, len(m.Vertices))
	for i, set := range seen {
		if set == nil {
			continue
		}
		nbrs := make([]int, 0, len(set))
		for j := range set {
			nbrs = append(nbrs, j)
		}
		out[i] = nbrs
	}
	return out
}

// ScalarRange returns the min and max of the attached scalars, or zeros when
// no scalars are present.
func (m *Mesh) ScalarRange() (min, max float64) {
	if !m.HasScalars() {
		return 0, 0
	}
	min, max = m.Scalars[0], m.Scalars[0]
	for _, s := range m.Scalars {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max
}
