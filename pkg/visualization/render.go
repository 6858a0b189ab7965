package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"neuroviz/internal/models"
	"neuroviz/pkg/fmrimap"
)

// MeshRenderer rasterizes a surface to an image with orthographic projection,
// depth-sorted faces and two-light Lambert shading. Faces pick up color from
// the mesh scalars through the color map; without scalars the surface renders
// in bone gray.
type MeshRenderer struct {
	Width  int
	Height int

	// Azimuth and Elevation orient the camera, in degrees.
	Azimuth   float64
	Elevation float64

	Colors *fmrimap.ColorMap
}

// NewMeshRenderer builds a renderer with a 800x600 canvas and a slightly
// raised three-quarter view.
func NewMeshRenderer() *MeshRenderer {
	return &MeshRenderer{
		Width:     800,
		Height:    600,
		Azimuth:   30,
		Elevation: 20,
	}
}

type projectedFace struct {
	pts   [3][2]float64
	depth float64
	col   color.RGBA
}

// Render draws the mesh and returns the image.
func (r *MeshRenderer) Render(m *models.Mesh) (image.Image, error) {
	if m.NumFaces() == 0 {
		return nil, fmt.Errorf("render: mesh has no faces")
	}

	az := r.Azimuth * math.Pi / 180
	el := r.Elevation * math.Pi / 180
	cosA, sinA := math.Cos(az), math.Sin(az)
	cosE, sinE := math.Cos(el), math.Sin(el)

	// Camera basis: rotate about z by azimuth, then tilt by elevation.
	// view maps world coordinates to (right, up, depth).
	view := func(p [3]float64) [3]float64 {
		x := p[0]*cosA + p[1]*sinA
		y := -p[0]*sinA + p[1]*cosA
		z := p[2]
		return [3]float64{
			x,
			y*sinE + z*cosE,
			y*cosE - z*sinE,
		}
	}

	viewPts := make([][3]float64, len(m.Vertices))
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range m.Vertices {
		v := view(p)
		viewPts[i] = v
		minX, maxX = math.Min(minX, v[0]), math.Max(maxX, v[0])
		minY, maxY = math.Min(minY, v[1]), math.Max(maxY, v[1])
	}

	// Fit the projected bounding box into the canvas with a 5% margin.
	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 || spanY <= 0 {
		return nil, fmt.Errorf("render: degenerate projected extent")
	}
	scale := 0.9 * math.Min(float64(r.Width)/spanX, float64(r.Height)/spanY)
	offX := (float64(r.Width) - spanX*scale) / 2
	offY := (float64(r.Height) - spanY*scale) / 2

	project := func(v [3]float64) [2]float64 {
		return [2]float64{
			offX + (v[0]-minX)*scale,
			// Flip y so up in world space is up on screen.
			float64(r.Height) - (offY + (v[1]-minY)*scale),
		}
	}

	// Key light from the camera, fill light from the upper left.
	lights := [][3]float64{
		normalize3([3]float64{0, 0, -1}),
		normalize3([3]float64{-0.5, 0.8, -0.3}),
	}
	lightWeights := []float64{0.7, 0.3}

	faces := make([]projectedFace, 0, len(m.Faces))
	for _, f := range m.Faces {
		a, b, c := viewPts[f[0]], viewPts[f[1]], viewPts[f[2]]

		n := normalize3(cross3(sub3(b, a), sub3(c, a)))
		// Render both sides of the sheet, lit as if facing the camera.
		if n[2] > 0 {
			n = [3]float64{-n[0], -n[1], -n[2]}
		}

		shade := 0.15 // ambient term
		for i, l := range lights {
			d := -(n[0]*l[0] + n[1]*l[1] + n[2]*l[2])
			if d > 0 {
				shade += lightWeights[i] * d
			}
		}
		if shade > 1 {
			shade = 1
		}

		base := color.RGBA{R: 222, G: 216, B: 200, A: 255}
		if r.Colors != nil && m.HasScalars() {
			s := (m.Scalars[f[0]] + m.Scalars[f[1]] + m.Scalars[f[2]]) / 3
			cr, cg, cb := r.Colors.Lookup(s)
			base = color.RGBA{R: cr, G: cg, B: cb, A: 255}
		}

		faces = append(faces, projectedFace{
			pts:   [3][2]float64{project(a), project(b), project(c)},
			depth: (a[2] + b[2] + c[2]) / 3,
			col: color.RGBA{
				R: uint8(float64(base.R) * shade),
				G: uint8(float64(base.G) * shade),
				B: uint8(float64(base.B) * shade),
				A: 255,
			},
		})
	}

	// Painter's algorithm: far faces first.
	sort.Slice(faces, func(i, j int) bool { return faces[i].depth > faces[j].depth })

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	bg := color.RGBA{R: 12, G: 12, B: 18, A: 255}
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			img.SetRGBA(x, y, bg)
		}
	}

	for _, f := range faces {
		fillTriangle(img, f.pts, f.col)
	}
	return img, nil
}

// fillTriangle rasterizes one triangle with edge-function coverage tests.
func fillTriangle(img *image.RGBA, p [3][2]float64, col color.RGBA) {
	minX := int(math.Floor(math.Min(p[0][0], math.Min(p[1][0], p[2][0]))))
	maxX := int(math.Ceil(math.Max(p[0][0], math.Max(p[1][0], p[2][0]))))
	minY := int(math.Floor(math.Min(p[0][1], math.Min(p[1][1], p[2][1]))))
	maxY := int(math.Ceil(math.Max(p[0][1], math.Max(p[1][1], p[2][1]))))

	b := img.Bounds()
	if minX < b.Min.X {
		minX = b.Min.X
	}
	if minY < b.Min.Y {
		minY = b.Min.Y
	}
	if maxX > b.Max.X-1 {
		maxX = b.Max.X - 1
	}
	if maxY > b.Max.Y-1 {
		maxY = b.Max.Y - 1
	}

	edge := func(ax, ay, bx, by, px, py float64) float64 {
		return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	}
	area := edge(p[0][0], p[0][1], p[1][0], p[1][1], p[2][0], p[2][1])
	if area == 0 {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			w0 := edge(p[1][0], p[1][1], p[2][0], p[2][1], px, py) / area
			w1 := edge(p[2][0], p[2][1], p[0][0], p[0][1], px, py) / area
			w2 := edge(p[0][0], p[0][1], p[1][0], p[1][1], px, py) / area
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize3(a [3]float64) [3]float64 {
	l := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
	if l < 1e-12 {
		return a
	}
	return [3]float64{a[0] / l, a[1] / l, a[2] / l}
}
