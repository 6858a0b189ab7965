package models

import (
	"fmt"
	"math"
)

// Volume is a 3D or 4D scalar image stored as a flat array in row-major
// order: x varies fastest, then y, then z, then (for 4D series) time.
type Volume struct {
	// Data holds the voxel intensities. Length is Width*Height*Depth*NumVolumes.
	Data []float64

	// Width, Height and Depth are the spatial dimensions in voxels.
	Width  int
	Height int
	Depth  int

	// NumVolumes is the number of time points. 1 for anatomical images,
	// >1 for fMRI BOLD series.
	NumVolumes int

	// Spacing is the physical voxel size in mm along x, y and z.
	Spacing [3]float64

	// Origin is the world-space position of voxel (0,0,0) in mm.
	Origin [3]float64

	// Direction is the 3x3 direction cosine matrix in row-major order.
	// Identity means the voxel axes coincide with the world axes.
	Direction [9]float64

	// TR is the repetition time in seconds for 4D series, 0 when unknown.
	TR float64
}

// NewVolume allocates a zero-filled 3D volume with unit spacing and
// identity orientation.
func NewVolume(width, height, depth int) *Volume {
	return &Volume{
		Data:       make([]float64, width*height*depth),
		Width:      width,
		Height:     height,
		Depth:      depth,
		NumVolumes: 1,
		Spacing:    [3]float64{1, 1, 1},
		Direction:  [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
	}
}

// VoxelCount returns the number of voxels in a single 3D frame.
func (v *Volume) VoxelCount() int {
	return v.Width * v.Height * v.Depth
}

// Index returns the flat index of voxel (x, y, z) in the first frame.
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At returns the intensity at voxel (x, y, z) of the first frame.
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Index(x, y, z)]
}

// Set stores an intensity at voxel (x, y, z) of the first frame.
func (v *Volume) Set(x, y, z int, value float64) {
	v.Data[v.Index(x, y, z)] = value
}

// AtT returns the intensity at voxel (x, y, z) of frame t.
func (v *Volume) AtT(x, y, z, t int) float64 {
	return v.Data[t*v.VoxelCount()+v.Index(x, y, z)]
}

// Frame extracts a single 3D frame from a 4D series as an independent volume.
// Spatial metadata is carried over; TR is preserved so callers can still
// report the acquisition timing.
func (v *Volume) Frame(t int) (*Volume, error) {
	if t < 0 || t >= v.NumVolumes {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", t, v.NumVolumes)
	}

	n := v.VoxelCount()
	out := &Volume{
		Data:       make([]float64, n),
		Width:      v.Width,
		Height:     v.Height,
		Depth:      v.Depth,
		NumVolumes: 1,
		Spacing:    v.Spacing,
		Origin:     v.Origin,
		Direction:  v.Direction,
		TR:         v.TR,
	}
	copy(out.Data, v.Data[t*n:(t+1)*n])
	return out, nil
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	out := *v
	out.Data = make([]float64, len(v.Data))
	copy(out.Data, v.Data)
	return &out
}

// MinMax returns the smallest and largest intensity in the volume.
func (v *Volume) MinMax() (min, max float64) {
	if len(v.Data) == 0 {
		return 0, 0
	}
	min, max = v.Data[0], v.Data[0]
	for _, val := range v.Data {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}
	return min, max
}

// SliceXY extracts the axial plane at depth z as a flat Width*Height array.
func (v *Volume) SliceXY(z int) []float64 {
	out := make([]float64, v.Width*v.Height)
	copy(out, v.Data[z*v.Width*v.Height:(z+1)*v.Width*v.Height])
	return out
}

// SliceXZ extracts the coronal plane at row y as a flat Width*Depth array.
func (v *Volume) SliceXZ(y int) []float64 {
	out := make([]float64, v.Width*v.Depth)
	for z := 0; z < v.Depth; z++ {
		for x := 0; x < v.Width; x++ {
			out[z*v.Width+x] = v.At(x, y, z)
		}
	}
	return out
}

// SliceYZ extracts the sagittal plane at column x as a flat Height*Depth array.
func (v *Volume) SliceYZ(x int) []float64 {
	out := make([]float64, v.Height*v.Depth)
	for z := 0; z < v.Depth; z++ {
		for y := 0; y < v.Height; y++ {
			out[z*v.Height+y] = v.At(x, y, z)
		}
	}
	return out
}

// VoxelTimeSeries returns the intensity of voxel (x, y, z) across all frames.
func (v *Volume) VoxelTimeSeries(x, y, z int) []float64 {
	out := make([]float64, v.NumVolumes)
	for t := 0; t < v.NumVolumes; t++ {
		out[t] = v.AtT(x, y, z, t)
	}
	return out
}

// VoxelToWorld maps continuous voxel coordinates to world-space mm using
// the direction cosines, spacing and origin.
func (v *Volume) VoxelToWorld(x, y, z float64) (wx, wy, wz float64) {
	sx := x * v.Spacing[0]
	sy := y * v.Spacing[1]
	sz := z * v.Spacing[2]
	d := v.Direction
	wx = d[0]*sx + d[1]*sy + d[2]*sz + v.Origin[0]
	wy = d[3]*sx + d[4]*sy + d[5]*sz + v.Origin[1]
	wz = d[6]*sx + d[7]*sy + d[8]*sz + v.Origin[2]
	return wx, wy, wz
}

// Affine returns the 4x4 voxel-to-world transform assembled from direction,
// spacing and origin.
func (v *Volume) Affine() [4][4]float64 {
	var m [4][4]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r][c] = v.Direction[r*3+c] * v.Spacing[c]
		}
		m[r][3] = v.Origin[r]
	}
	m[3][3] = 1
	return m
}

// Mean returns the average intensity of the volume.
func (v *Volume) Mean() float64 {
	if len(v.Data) == 0 {
		return 0
	}
	sum := 0.0
	for _, val := range v.Data {
		sum += val
	}
	return sum / float64(len(v.Data))
}

// IsNaNFree reports whether the volume contains no NaN values.
func (v *Volume) IsNaNFree() bool {
	for _, val := range v.Data {
		if math.IsNaN(val) {
			return false
		}
	}
	return true
}
