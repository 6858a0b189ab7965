// Package preprocess implements the T1 preprocessing pipeline: bias field
// correction, intensity normalization, adaptive histogram equalization and
// bilateral smoothing. Each stage is a pure Volume -> Volume transform so
// stages can be reordered or disabled from configuration.
package preprocess

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"neuroviz/internal/models"
	"neuroviz/pkg/nifti"
)

// CorrectBias removes the low-frequency intensity inhomogeneity (bias field)
// of an MRI volume. The field is estimated in the log domain by a wide
// separable Gaussian restricted to foreground voxels, then divided out. The
// volume mean over the foreground is preserved.
func CorrectBias(vol *models.Volume, sigma float64) *models.Volume {
	out := vol.Clone()
	if sigma <= 0 || len(vol.Data) == 0 {
		return out
	}

	threshold := otsuThreshold(vol.Data) * 0.5

	// Log transform over the foreground. Background voxels get the mean log
	// intensity so the blur does not drag the field toward zero near the
	// brain boundary.
	logData := make([]float64, len(vol.Data))
	mask := make([]bool, len(vol.Data))
	sumLog, n := 0.0, 0
	for i, v := range vol.Data {
		if v > threshold {
			mask[i] = true
			logData[i] = math.Log(v + 1)
			sumLog += logData[i]
			n++
		}
	}
	if n == 0 {
		return out
	}
	meanLog := sumLog / float64(n)
	for i := range logData {
		if !mask[i] {
			logData[i] = meanLog
		}
	}

	field := gaussianBlur3D(logData, vol.Width, vol.Height, vol.Depth, sigma)

	// Normalize the field to unit mean over the foreground so dividing it
	// out does not shift the global brightness.
	sumField := 0.0
	for i := range field {
		field[i] = math.Exp(field[i] - meanLog)
		if mask[i] {
			sumField += field[i]
		}
	}
	meanField := sumField / float64(n)
	if meanField <= 0 {
		return out
	}

	for i, v := range vol.Data {
		out.Data[i] = v / (field[i] / meanField)
	}
	return out
}

// RescaleIntensity linearly maps the volume's intensity range onto
// [lower, upper].
func RescaleIntensity(vol *models.Volume, lower, upper float64) *models.Volume {
	out := vol.Clone()
	min, max := vol.MinMax()
	if max <= min {
		return out
	}
	scale := (upper - lower) / (max - min)
	for i, v := range vol.Data {
		// Map the endpoints exactly; rounding can otherwise land them a few
		// ulps off the target bounds.
		switch {
		case v <= min:
			out.Data[i] = lower
		case v >= max:
			out.Data[i] = upper
		default:
			r := (v-min)*scale + lower
			if r < lower {
				r = lower
			}
			if r > upper {
				r = upper
			}
			out.Data[i] = r
		}
	}
	return out
}

// EqualizeAdaptive applies contrast-limited adaptive histogram equalization
// slice by slice along the z axis. tiles is the tile grid size per slice
// dimension and clipLimit bounds each tile histogram as a multiple of the
// uniform bin count.
func EqualizeAdaptive(vol *models.Volume, tiles int, clipLimit float64) *models.Volume {
	out := vol.Clone()
	if tiles < 2 {
		tiles = 2
	}
	if clipLimit < 1 {
		clipLimit = 1
	}

	min, max := vol.MinMax()
	if max <= min {
		return out
	}

	for z := 0; z < vol.Depth; z++ {
		slice := vol.SliceXY(z)
		equalized := claheSlice(slice, vol.Width, vol.Height, tiles, clipLimit, min, max)
		copy(out.Data[z*vol.Width*vol.Height:], equalized)
	}
	return out
}

// Bilateral applies 3D edge-preserving bilateral smoothing. domainSigma is
// the spatial sigma in voxels, rangeSigma the intensity sigma.
func Bilateral(vol *models.Volume, domainSigma, rangeSigma float64) *models.Volume {
	out := vol.Clone()
	if domainSigma <= 0 || rangeSigma <= 0 {
		return out
	}

	radius := int(math.Ceil(2 * domainSigma))
	if radius < 1 {
		radius = 1
	}

	// Precompute the spatial kernel.
	kernelSize := 2*radius + 1
	spatial := make([]float64, kernelSize*kernelSize*kernelSize)
	idx := 0
	for dz := -radius; dz <= radius; dz++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				d2 := float64(dx*dx + dy*dy + dz*dz)
				spatial[idx] = math.Exp(-d2 / (2 * domainSigma * domainSigma))
				idx++
			}
		}
	}

	invRange := 1 / (2 * rangeSigma * rangeSigma)

	// Fan out over z slices; each slice writes a disjoint region of out.Data.
	jobs := make(chan int, vol.Depth)
	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for z := range jobs {
				bilateralSlice(vol, out, z, radius, spatial, invRange)
			}
		}()
	}
	for z := 0; z < vol.Depth; z++ {
		jobs <- z
	}
	close(jobs)
	wg.Wait()
	return out
}

func bilateralSlice(vol, out *models.Volume, z, radius int, spatial []float64, invRange float64) {
	for y := 0; y < vol.Height; y++ {
		for x := 0; x < vol.Width; x++ {
			center := vol.At(x, y, z)
			sum, weight := 0.0, 0.0
			idx := 0
			for dz := -radius; dz <= radius; dz++ {
				zz := clampInt(z+dz, 0, vol.Depth-1)
				for dy := -radius; dy <= radius; dy++ {
					yy := clampInt(y+dy, 0, vol.Height-1)
					for dx := -radius; dx <= radius; dx++ {
						xx := clampInt(x+dx, 0, vol.Width-1)
						v := vol.At(xx, yy, zz)
						diff := v - center
						w := spatial[idx] * math.Exp(-diff*diff*invRange)
						sum += v * w
						weight += w
						idx++
					}
				}
			}
			if weight > 0 {
				out.Set(x, y, z, sum/weight)
			}
		}
	}
}

// Params collects the preprocessing stage parameters.
type Params struct {
	BiasSigma        float64
	Normalize        bool
	Equalize         bool
	ClipLimit        float64
	DomainSigma      float64
	RangeSigma       float64
	SaveIntermediate bool
	IntermediateDir  string
}

// Run executes the full preprocessing pipeline in the reference order:
// bias correction, normalization, adaptive equalization, bilateral smoothing.
func Run(vol *models.Volume, p Params) (*models.Volume, error) {
	type stage struct {
		name    string
		enabled bool
		apply   func(*models.Volume) *models.Volume
	}

	stages := []stage{
		{"01_bias_corrected", p.BiasSigma > 0, func(v *models.Volume) *models.Volume {
			return CorrectBias(v, p.BiasSigma)
		}},
		{"02_normalized", p.Normalize, func(v *models.Volume) *models.Volume {
			return RescaleIntensity(v, 0, 255)
		}},
		{"03_equalized", p.Equalize, func(v *models.Volume) *models.Volume {
			return EqualizeAdaptive(v, 8, p.ClipLimit)
		}},
		{"04_smoothed", p.DomainSigma > 0 && p.RangeSigma > 0, func(v *models.Volume) *models.Volume {
			return Bilateral(v, p.DomainSigma, p.RangeSigma)
		}},
	}

	current := vol
	for _, s := range stages {
		if !s.enabled {
			continue
		}
		start := time.Now()
		current = s.apply(current)
		fmt.Printf("[INFO] Stage %s completed in %.2fs\n", s.name, time.Since(start).Seconds())

		if p.SaveIntermediate && p.IntermediateDir != "" {
			if err := os.MkdirAll(p.IntermediateDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create intermediate directory: %w", err)
			}
			path := filepath.Join(p.IntermediateDir, s.name+".nii.gz")
			if err := nifti.WriteFile(path, current); err != nil {
				fmt.Printf("Warning: failed to save intermediate %s: %v\n", s.name, err)
			}
		}
	}
	return current, nil
}

// otsuThreshold computes Otsu's threshold over a 256-bin histogram.
func otsuThreshold(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= min {
		return min
	}

	const bins = 256
	hist := make([]float64, bins)
	binWidth := (max - min) / bins
	for _, v := range data {
		b := int((v - min) / binWidth)
		if b >= bins {
			b = bins - 1
		}
		hist[b]++
	}

	total := float64(len(data))
	sumAll := 0.0
	for b, c := range hist {
		sumAll += float64(b) * c
	}

	// The between-class variance is flat across the empty bins separating
	// well-split modes; taking the midpoint of that plateau puts the
	// threshold in the middle of the valley instead of at its left edge.
	firstBest, lastBest, bestVariance := 0, 0, 0.0
	wB, sumB := 0.0, 0.0
	for b := 0; b < bins; b++ {
		wB += hist[b]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(b) * hist[b]
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVariance {
			bestVariance = between
			firstBest, lastBest = b, b
		} else if between == bestVariance {
			lastBest = b
		}
	}

	mid := float64(firstBest+lastBest) / 2
	return min + (mid+0.5)*binWidth
}

// gaussianBlur3D applies a separable Gaussian along each axis.
func gaussianBlur3D(data []float64, w, h, d int, sigma float64) []float64 {
	kernel := gaussianKernel(sigma)
	tmp := blurAxis(data, w, h, d, kernel, 0)
	tmp = blurAxis(tmp, w, h, d, kernel, 1)
	return blurAxis(tmp, w, h, d, kernel, 2)
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func blurAxis(data []float64, w, h, d int, kernel []float64, axis int) []float64 {
	out := make([]float64, len(data))
	radius := len(kernel) / 2

	dims := [3]int{w, h, d}
	strides := [3]int{1, w, w * h}
	n := dims[axis]
	stride := strides[axis]

	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pos := [3]int{x, y, z}
				base := z*w*h + y*w + x
				sum := 0.0
				for k := -radius; k <= radius; k++ {
					p := clampInt(pos[axis]+k, 0, n-1)
					sum += kernel[k+radius] * data[base+(p-pos[axis])*stride]
				}
				out[base] = sum
			}
		}
	}
	return out
}

// claheSlice equalizes a single 2D slice using clipped per-tile histograms
// blended bilinearly between tile centers.
func claheSlice(slice []float64, w, h, tiles int, clipLimit, min, max float64) []float64 {
	const bins = 256
	binWidth := (max - min) / bins
	if binWidth <= 0 {
		out := make([]float64, len(slice))
		copy(out, slice)
		return out
	}

	binOf := func(v float64) int {
		b := int((v - min) / binWidth)
		if b < 0 {
			b = 0
		}
		if b >= bins {
			b = bins - 1
		}
		return b
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	// Per-tile clipped CDF mappings from bin -> equalized intensity.
	mappings := make([][]float64, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, w), minInt(y0+tileH, h)

			hist := make([]float64, bins)
			count := 0.0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[binOf(slice[y*w+x])]++
					count++
				}
			}
			if count == 0 {
				mappings[ty*tiles+tx] = identityMapping(bins, min, binWidth)
				continue
			}

			// Clip and redistribute the excess uniformly.
			limit := clipLimit * count / bins
			excess := 0.0
			for b := range hist {
				if hist[b] > limit {
					excess += hist[b] - limit
					hist[b] = limit
				}
			}
			perBin := excess / bins
			for b := range hist {
				hist[b] += perBin
			}

			mapping := make([]float64, bins)
			cum := 0.0
			for b := 0; b < bins; b++ {
				cum += hist[b]
				mapping[b] = min + (max-min)*cum/count
			}
			mappings[ty*tiles+tx] = mapping
		}
	}

	// Bilinear blend of the four surrounding tile mappings.
	out := make([]float64, len(slice))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx := (float64(x) - float64(tileW)/2 + 0.5) / float64(tileW)
			fy := (float64(y) - float64(tileH)/2 + 0.5) / float64(tileH)

			tx0 := int(math.Floor(fx))
			ty0 := int(math.Floor(fy))
			wx := fx - float64(tx0)
			wy := fy - float64(ty0)

			tx0c := clampInt(tx0, 0, tiles-1)
			tx1c := clampInt(tx0+1, 0, tiles-1)
			ty0c := clampInt(ty0, 0, tiles-1)
			ty1c := clampInt(ty0+1, 0, tiles-1)

			b := binOf(slice[y*w+x])
			v00 := mappings[ty0c*tiles+tx0c][b]
			v10 := mappings[ty0c*tiles+tx1c][b]
			v01 := mappings[ty1c*tiles+tx0c][b]
			v11 := mappings[ty1c*tiles+tx1c][b]

			top := v00*(1-wx) + v10*wx
			bottom := v01*(1-wx) + v11*wx
			out[y*w+x] = top*(1-wy) + bottom*wy
		}
	}
	return out
}

func identityMapping(bins int, min, binWidth float64) []float64 {
	m := make([]float64, bins)
	for b := range m {
		m[b] = min + (float64(b)+0.5)*binWidth
	}
	return m
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
