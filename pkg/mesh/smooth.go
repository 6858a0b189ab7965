package mesh

import "neuroviz/internal/models"

// laplacianStep moves every vertex toward the average of its neighbors by
// factor. A negative factor inflates instead of shrinking.
func laplacianStep(m *models.Mesh, neighbors [][]int, factor float64) {
	moved := make([][3]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		ns := neighbors[i]
		if len(ns) == 0 {
			moved[i] = v
			continue
		}
		var ax, ay, az float64
		for _, n := range ns {
			ax += m.Vertices[n][0]
			ay += m.Vertices[n][1]
			az += m.Vertices[n][2]
		}
		inv := 1.0 / float64(len(ns))
		moved[i] = [3]float64{
			v[0] + factor*(ax*inv-v[0]),
			v[1] + factor*(ay*inv-v[1]),
			v[2] + factor*(az*inv-v[2]),
		}
	}
	m.Vertices = moved
}

// SmoothLaplacian applies iterative Laplacian smoothing with the given
// relaxation factor. The filter shrinks the surface slightly, which is
// acceptable for the coarse pass before feature-preserving smoothing.
func SmoothLaplacian(m *models.Mesh, iterations int, relaxation float64) {
	if iterations <= 0 || len(m.Vertices) == 0 {
		return
	}
	neighbors := m.VertexNeighbors()
	for it := 0; it < iterations; it++ {
		laplacianStep(m, neighbors, relaxation)
	}
}

// SmoothTaubin applies Taubin lambda-mu smoothing, the low-pass filter that
// removes stair-step artifacts without the volume loss of plain Laplacian
// smoothing. passBand is the normalized pass-band frequency; smaller values
// smooth more aggressively.
func SmoothTaubin(m *models.Mesh, iterations int, passBand float64) {
	if iterations <= 0 || len(m.Vertices) == 0 {
		return
	}
	if passBand <= 0 {
		passBand = 0.1
	}

	// Taubin's condition: 1/lambda + 1/mu = passBand, with lambda > 0 and
	// mu < -lambda so each pair of steps leaves the pass band untouched.
	lambda := 0.5
	mu := lambda / (passBand*lambda - 1)

	neighbors := m.VertexNeighbors()
	for it := 0; it < iterations; it++ {
		laplacianStep(m, neighbors, lambda)
		laplacianStep(m, neighbors, mu)
	}
}
