package preprocess

import (
	"math"
	"testing"

	"neuroviz/internal/models"
)

// biasedPhantom builds a volume with a bright central sphere multiplied by a
// smooth left-to-right intensity gradient, imitating coil shading.
func biasedPhantom(size int) *models.Volume {
	vol := models.NewVolume(size, size, size)
	center := float64(size) / 2
	radius := float64(size) / 3
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx, dy, dz := float64(x)-center, float64(y)-center, float64(z)-center
				value := 10.0
				if math.Sqrt(dx*dx+dy*dy+dz*dz) < radius {
					value = 200.0
				}
				bias := 0.7 + 0.6*float64(x)/float64(size-1)
				vol.Set(x, y, z, value*bias)
			}
		}
	}
	return vol
}

func TestCorrectBiasFlattensShading(t *testing.T) {
	vol := biasedPhantom(24)
	corrected := CorrectBias(vol, 6)

	if !corrected.IsNaNFree() {
		t.Fatal("corrected volume contains NaN")
	}

	// Compare the sphere intensity on the dim left side with the bright
	// right side: correction should reduce the asymmetry.
	ratioBefore := sideRatio(vol)
	ratioAfter := sideRatio(corrected)

	if math.Abs(ratioAfter-1) >= math.Abs(ratioBefore-1) {
		t.Errorf("bias correction did not reduce asymmetry: before %.3f after %.3f",
			ratioBefore, ratioAfter)
	}
}

// sideRatio compares mean foreground intensity of the left and right halves.
func sideRatio(vol *models.Volume) float64 {
	var sumL, sumR float64
	var nL, nR int
	for z := 0; z < vol.Depth; z++ {
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				v := vol.At(x, y, z)
				if v < 50 {
					continue
				}
				if x < vol.Width/2 {
					sumL += v
					nL++
				} else {
					sumR += v
					nR++
				}
			}
		}
	}
	if nL == 0 || nR == 0 {
		return 1
	}
	return (sumL / float64(nL)) / (sumR / float64(nR))
}

func TestRescaleIntensity(t *testing.T) {
	vol := models.NewVolume(4, 4, 4)
	for i := range vol.Data {
		vol.Data[i] = float64(i) * 3.7
	}

	out := RescaleIntensity(vol, 0, 255)
	min, max := out.MinMax()

	if min != 0 {
		t.Errorf("expected min 0, got %f", min)
	}
	if max != 255 {
		t.Errorf("expected max 255, got %f", max)
	}

	// Monotonicity must be preserved.
	for i := 1; i < len(out.Data); i++ {
		if out.Data[i] < out.Data[i-1] {
			t.Fatalf("rescale broke ordering at %d", i)
		}
	}
}

func TestRescaleFlatVolume(t *testing.T) {
	vol := models.NewVolume(3, 3, 3)
	for i := range vol.Data {
		vol.Data[i] = 42
	}
	out := RescaleIntensity(vol, 0, 255)
	if out.Data[0] != 42 {
		t.Errorf("flat volume should be returned unchanged, got %f", out.Data[0])
	}
}

func TestEqualizeAdaptiveStaysInRange(t *testing.T) {
	vol := biasedPhantom(16)
	vol = RescaleIntensity(vol, 0, 255)

	out := EqualizeAdaptive(vol, 4, 3.0)
	min, max := out.MinMax()

	if min < -1e-9 || max > 255+1e-9 {
		t.Errorf("equalized output escaped input range: [%f, %f]", min, max)
	}
	if !out.IsNaNFree() {
		t.Fatal("equalized volume contains NaN")
	}
}

func TestBilateralSmoothsNoiseKeepsEdges(t *testing.T) {
	// Two flat regions with an abrupt edge plus small additive noise.
	size := 12
	vol := models.NewVolume(size, size, size)
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				base := 10.0
				if x >= size/2 {
					base = 200.0
				}
				noise := 2.0 * math.Sin(float64(x*7+y*13+z*29))
				vol.Set(x, y, z, base+noise)
			}
		}
	}

	out := Bilateral(vol, 1.0, 20.0)

	// Noise inside a flat region shrinks.
	varBefore := regionVariance(vol, 1, size/2-2)
	varAfter := regionVariance(out, 1, size/2-2)
	if varAfter >= varBefore {
		t.Errorf("bilateral did not reduce in-region variance: %f -> %f", varBefore, varAfter)
	}

	// The edge contrast survives.
	left := out.At(size/2-2, size/2, size/2)
	right := out.At(size/2+1, size/2, size/2)
	if right-left < 150 {
		t.Errorf("edge was smoothed away: left %f right %f", left, right)
	}
}

func regionVariance(vol *models.Volume, x0, x1 int) float64 {
	var sum, sum2 float64
	var n int
	for z := 1; z < vol.Depth-1; z++ {
		for y := 1; y < vol.Height-1; y++ {
			for x := x0; x < x1; x++ {
				v := vol.At(x, y, z)
				sum += v
				sum2 += v * v
				n++
			}
		}
	}
	mean := sum / float64(n)
	return sum2/float64(n) - mean*mean
}

func TestRunPipelineOrder(t *testing.T) {
	vol := biasedPhantom(12)

	out, err := Run(vol, Params{
		BiasSigma:   4,
		Normalize:   true,
		Equalize:    true,
		ClipLimit:   3,
		DomainSigma: 1,
		RangeSigma:  20,
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	min, max := out.MinMax()
	if min < -1e-6 || max > 255+1e-6 {
		t.Errorf("pipeline output out of range: [%f, %f]", min, max)
	}
	if !out.IsNaNFree() {
		t.Fatal("pipeline output contains NaN")
	}
}

func TestOtsuSeparatesBimodal(t *testing.T) {
	data := make([]float64, 0, 2000)
	for i := 0; i < 1000; i++ {
		data = append(data, 10+float64(i%5))
	}
	for i := 0; i < 1000; i++ {
		data = append(data, 200+float64(i%5))
	}

	th := otsuThreshold(data)
	if th <= 15 || th >= 200 {
		t.Errorf("otsu threshold %f does not separate the modes", th)
	}
}
