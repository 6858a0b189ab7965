// Package qc runs quality checks on loaded volumes before they enter the
// pipeline, and scores how well a processed volume matches its source.
package qc

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"neuroviz/internal/models"
)

// ErrUnsupportedView reports an orientation name outside the three
// anatomical planes.
var ErrUnsupportedView = errors.New("qc: unsupported view")

// minEdgeClarity is the fraction of mid-slice voxels that must sit on a
// visible gradient for the scan to count as usable.
const minEdgeClarity = 0.05

// Report collects the outcome of the pre-flight checks on one volume.
type Report struct {
	IntensityOK   bool
	OrientationOK bool
	EdgeClarity   float64
	Issues        []string
}

// Passed reports whether every check succeeded.
func (r *Report) Passed() bool {
	return len(r.Issues) == 0
}

// CheckVolume runs intensity, orientation and sharpness checks for the given
// anatomical view and collects human-readable findings.
func CheckVolume(vol *models.Volume, view string) (*Report, error) {
	rep := &Report{}

	if err := CheckIntensityRange(vol); err != nil {
		rep.Issues = append(rep.Issues, err.Error())
	} else {
		rep.IntensityOK = true
	}

	if err := CheckOrientation(vol, view); err != nil {
		if errors.Is(err, ErrUnsupportedView) {
			return nil, err
		}
		rep.Issues = append(rep.Issues, err.Error())
	} else {
		rep.OrientationOK = true
	}

	rep.EdgeClarity = EdgeClarity(vol)
	if rep.EdgeClarity < minEdgeClarity {
		rep.Issues = append(rep.Issues,
			fmt.Sprintf("edge clarity %.3f below %.2f, scan may be blurred or empty",
				rep.EdgeClarity, minEdgeClarity))
	}

	return rep, nil
}

// CheckIntensityRange rejects volumes that are empty, flat, or carry NaNs.
func CheckIntensityRange(vol *models.Volume) error {
	if len(vol.Data) == 0 {
		return errors.New("volume has no voxels")
	}
	if !vol.IsNaNFree() {
		return errors.New("volume contains NaN voxels")
	}
	min, max := vol.MinMax()
	if max <= min {
		return fmt.Errorf("volume is flat at intensity %g", min)
	}
	return nil
}

// CheckOrientation verifies that the direction matrix is consistent with the
// requested anatomical view: the axis normal to the viewing plane must have a
// positive direction cosine.
func CheckOrientation(vol *models.Volume, view string) error {
	var idx int
	switch view {
	case "axial":
		idx = 8
	case "sagittal":
		idx = 0
	case "coronal":
		idx = 4
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedView, view)
	}
	if vol.Direction[idx] <= 0 {
		return fmt.Errorf("direction cosine %g incompatible with %s view",
			vol.Direction[idx], view)
	}
	return nil
}

// EdgeClarity measures the fraction of mid axial slice voxels lying on a
// strong intensity gradient, normalized by the slice intensity range.
func EdgeClarity(vol *models.Volume) float64 {
	if vol.Width < 3 || vol.Height < 3 || vol.Depth == 0 {
		return 0
	}
	z := vol.Depth / 2

	min, max := math.Inf(1), math.Inf(-1)
	for y := 0; y < vol.Height; y++ {
		for x := 0; x < vol.Width; x++ {
			v := vol.At(x, y, z)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if max <= min {
		return 0
	}

	edgeVoxels, total := 0, 0
	for y := 1; y < vol.Height-1; y++ {
		for x := 1; x < vol.Width-1; x++ {
			gx := (vol.At(x+1, y, z) - vol.At(x-1, y, z)) / 2
			gy := (vol.At(x, y+1, z) - vol.At(x, y-1, z)) / 2
			g := math.Sqrt(gx*gx+gy*gy) / (max - min)
			if g > 0.1 {
				edgeVoxels++
			}
			total++
		}
	}
	return float64(edgeVoxels) / float64(total)
}

// Metrics scores the similarity between a processed volume and its source.
type Metrics struct {
	// MI approximates the mutual information between the two volumes
	// under a Gaussian model.
	MI float64

	// RMSE is the root mean square voxel difference.
	RMSE float64

	// SSIM is the structural similarity index over the whole volume.
	SSIM float64

	// EntropyDiff is the absolute difference in Shannon entropy, a proxy
	// for information lost or hallucinated by processing.
	EntropyDiff float64
}

// CompareVolumes computes similarity metrics between two equally sized
// volumes, both normalized to [0, 1] first so the metrics are comparable
// across scans with different intensity scales.
func CompareVolumes(original, processed *models.Volume) (*Metrics, error) {
	if len(original.Data) == 0 || len(original.Data) != len(processed.Data) {
		return nil, fmt.Errorf("qc: cannot compare %d voxels with %d",
			len(original.Data), len(processed.Data))
	}

	a := normalized(original.Data)
	b := normalized(processed.Data)

	return &Metrics{
		MI:          mutualInformation(a, b),
		RMSE:        rmse(a, b),
		SSIM:        ssim(a, b),
		EntropyDiff: math.Abs(entropy(a) - entropy(b)),
	}, nil
}

func normalized(data []float64) []float64 {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(data))
	if max <= min {
		return out
	}
	for i, v := range data {
		out[i] = (v - min) / (max - min)
	}
	return out
}

// mutualInformation uses the Gaussian approximation
// MI = 0.5 * log(varX*varY / (varX*varY - cov^2)).
func mutualInformation(a, b []float64) float64 {
	varA := stat.Variance(a, nil)
	varB := stat.Variance(b, nil)
	cov := stat.Covariance(a, b, nil)

	if varA <= 0 || varB <= 0 {
		return 0
	}
	det := varA*varB - cov*cov
	if det <= 0 {
		return 0
	}
	return 0.5 * math.Log(varA*varB/det)
}

func rmse(a, b []float64) float64 {
	var mse float64
	for i := range a {
		d := a[i] - b[i]
		mse += d * d
	}
	return math.Sqrt(mse / float64(len(a)))
}

func ssim(a, b []float64) float64 {
	const l = 1.0
	const k1, k2 = 0.01, 0.03
	c1 := (k1 * l) * (k1 * l)
	c2 := (k2 * l) * (k2 * l)

	muA := stat.Mean(a, nil)
	muB := stat.Mean(b, nil)
	varA := stat.Variance(a, nil)
	varB := stat.Variance(b, nil)
	cov := stat.Covariance(a, b, nil)

	num := (2*muA*muB + c1) * (2*cov + c2)
	den := (muA*muA + muB*muB + c1) * (varA + varB + c2)
	if den <= 0 {
		return 0
	}
	return num / den
}

// entropy computes Shannon entropy over a 256-bin histogram of values
// already normalized to [0, 1].
func entropy(data []float64) float64 {
	const numBins = 256
	hist := make([]float64, numBins)
	for _, v := range data {
		idx := int(v * numBins)
		if idx >= numBins {
			idx = numBins - 1
		} else if idx < 0 {
			idx = 0
		}
		hist[idx]++
	}

	var h float64
	n := float64(len(data))
	for _, count := range hist {
		if count > 0 {
			p := count / n
			h -= p * math.Log2(p)
		}
	}
	return h
}
