package mesh

import "math"

// Triangle is a single surface facet with its outward normal, ready for
// binary STL serialization.
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// MarchingCubes extracts an isosurface from a scalar volume stored as a flat
// slice indexed z*width*height + y*width + x.
type MarchingCubes struct {
	data     []float64
	width    int
	height   int
	depth    int
	isoLevel float64

	scaleX float32
	scaleY float32
	scaleZ float32
}

// NewMarchingCubes prepares an extraction over data with the given dimensions
// and isovalue. The default vertex scale is 1.0 along every axis.
func NewMarchingCubes(data []float64, width, height, depth int, isoLevel float64) *MarchingCubes {
	return &MarchingCubes{
		data:     data,
		width:    width,
		height:   height,
		depth:    depth,
		isoLevel: isoLevel,
		scaleX:   1,
		scaleY:   1,
		scaleZ:   1,
	}
}

// SetScale sets the physical size of one voxel along each axis. Generated
// vertex coordinates are multiplied by these factors.
func (mc *MarchingCubes) SetScale(x, y, z float32) {
	mc.scaleX = x
	mc.scaleY = y
	mc.scaleZ = z
}

// cubeCorners lists the grid offsets of the 8 cube corners in table order.
var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// edgeCorners maps each of the 12 cube edges to its two corner indices.
var edgeCorners = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func (mc *MarchingCubes) value(x, y, z int) float64 {
	return mc.data[z*mc.width*mc.height+y*mc.width+x]
}

// GenerateTriangles walks every cell of the volume and emits the triangles of
// the isosurface. Triangle winding is fixed up against the local field
// gradient so normals point out of the high-intensity region.
func (mc *MarchingCubes) GenerateTriangles() []Triangle {
	var triangles []Triangle
	if mc.width < 2 || mc.height < 2 || mc.depth < 2 {
		return triangles
	}

	var corners [8]float64
	var verts [12][3]float64

	for z := 0; z < mc.depth-1; z++ {
		for y := 0; y < mc.height-1; y++ {
			for x := 0; x < mc.width-1; x++ {
				cubeIndex := 0
				for i, c := range cubeCorners {
					corners[i] = mc.value(x+c[0], y+c[1], z+c[2])
					if corners[i] > mc.isoLevel {
						cubeIndex |= 1 << i
					}
				}

				edges := edgeTable[cubeIndex]
				if edges == 0 {
					continue
				}

				for e := 0; e < 12; e++ {
					if edges&(1<<e) == 0 {
						continue
					}
					a, b := edgeCorners[e][0], edgeCorners[e][1]
					verts[e] = mc.interpolate(
						x+cubeCorners[a][0], y+cubeCorners[a][1], z+cubeCorners[a][2], corners[a],
						x+cubeCorners[b][0], y+cubeCorners[b][1], z+cubeCorners[b][2], corners[b],
					)
				}

				for i := 0; triTable[cubeIndex][i] != -1; i += 3 {
					tri := mc.makeTriangle(
						verts[triTable[cubeIndex][i]],
						verts[triTable[cubeIndex][i+1]],
						verts[triTable[cubeIndex][i+2]],
					)
					triangles = append(triangles, tri)
				}
			}
		}
	}
	return triangles
}

// interpolate finds the point on the edge between two corner samples where
// the field crosses the isovalue.
func (mc *MarchingCubes) interpolate(x1, y1, z1 int, v1 float64, x2, y2, z2 int, v2 float64) [3]float64 {
	t := 0.5
	if math.Abs(v2-v1) > 1e-12 {
		t = (mc.isoLevel - v1) / (v2 - v1)
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return [3]float64{
		float64(x1) + t*float64(x2-x1),
		float64(y1) + t*float64(y2-y1),
		float64(z1) + t*float64(z2-z1),
	}
}

func (mc *MarchingCubes) makeTriangle(p1, p2, p3 [3]float64) Triangle {
	// Geometric normal from the winding.
	u := [3]float64{p2[0] - p1[0], p2[1] - p1[1], p2[2] - p1[2]}
	v := [3]float64{p3[0] - p1[0], p3[1] - p1[1], p3[2] - p1[2]}
	n := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}

	// The gradient points toward increasing intensity, i.e. into the
	// above-isovalue solid. The outward normal must oppose it.
	cx := (p1[0] + p2[0] + p3[0]) / 3
	cy := (p1[1] + p2[1] + p3[1]) / 3
	cz := (p1[2] + p2[2] + p3[2]) / 3
	g := mc.gradientAt(cx, cy, cz)
	if n[0]*g[0]+n[1]*g[1]+n[2]*g[2] > 0 {
		p2, p3 = p3, p2
		n[0], n[1], n[2] = -n[0], -n[1], -n[2]
	}

	length := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if length > 1e-12 {
		n[0] /= length
		n[1] /= length
		n[2] /= length
	}

	return Triangle{
		Normal:  [3]float32{float32(n[0]), float32(n[1]), float32(n[2])},
		Vertex1: mc.scaled(p1),
		Vertex2: mc.scaled(p2),
		Vertex3: mc.scaled(p3),
	}
}

func (mc *MarchingCubes) scaled(p [3]float64) [3]float32 {
	return [3]float32{
		float32(p[0]) * mc.scaleX,
		float32(p[1]) * mc.scaleY,
		float32(p[2]) * mc.scaleZ,
	}
}

// gradientAt samples the central-difference gradient at the nearest grid
// point to a continuous position, clamped to the volume interior.
func (mc *MarchingCubes) gradientAt(x, y, z float64) [3]float64 {
	xi := clampIndex(int(math.Round(x)), mc.width)
	yi := clampIndex(int(math.Round(y)), mc.height)
	zi := clampIndex(int(math.Round(z)), mc.depth)

	gx := mc.value(minIdx(xi+1, mc.width-1), yi, zi) - mc.value(maxIdx(xi-1, 0), yi, zi)
	gy := mc.value(xi, minIdx(yi+1, mc.height-1), zi) - mc.value(xi, maxIdx(yi-1, 0), zi)
	gz := mc.value(xi, yi, minIdx(zi+1, mc.depth-1)) - mc.value(xi, yi, maxIdx(zi-1, 0))
	return [3]float64{gx, gy, gz}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func minIdx(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxIdx(a, b int) int {
	if a > b {
		return a
	}
	return b
}
