package qc

import (
	"errors"
	"math"
	"testing"

	"neuroviz/internal/models"
)

// brainPhantom builds a volume with a bright sphere on dark background.
func brainPhantom(size int) *models.Volume {
	vol := models.NewVolume(size, size, size)
	center := float64(size) / 2
	radius := float64(size) / 3
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx, dy, dz := float64(x)-center, float64(y)-center, float64(z)-center
				if math.Sqrt(dx*dx+dy*dy+dz*dz) < radius {
					vol.Set(x, y, z, 200)
				} else {
					vol.Set(x, y, z, 10)
				}
			}
		}
	}
	return vol
}

func TestCheckVolumePasses(t *testing.T) {
	rep, err := CheckVolume(brainPhantom(16), "axial")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Passed() {
		t.Errorf("expected a clean report, got issues: %v", rep.Issues)
	}
	if !rep.IntensityOK || !rep.OrientationOK {
		t.Error("individual check flags should be set")
	}
}

func TestCheckVolumeFlagsFlatVolume(t *testing.T) {
	vol := models.NewVolume(8, 8, 8)

	rep, err := CheckVolume(vol, "axial")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Passed() {
		t.Error("flat volume should fail the checks")
	}
	if rep.IntensityOK {
		t.Error("flat volume must fail the intensity check")
	}
}

func TestCheckOrientation(t *testing.T) {
	vol := brainPhantom(8)

	for _, view := range []string{"axial", "sagittal", "coronal"} {
		if err := CheckOrientation(vol, view); err != nil {
			t.Errorf("identity orientation should pass %s view: %v", view, err)
		}
	}

	// Flipped z axis breaks the axial view but not the sagittal one.
	vol.Direction[8] = -1
	if err := CheckOrientation(vol, "axial"); err == nil {
		t.Error("flipped z axis should fail the axial check")
	}
	if err := CheckOrientation(vol, "sagittal"); err != nil {
		t.Errorf("sagittal view should not care about the z axis: %v", err)
	}

	if err := CheckOrientation(vol, "oblique"); !errors.Is(err, ErrUnsupportedView) {
		t.Errorf("want ErrUnsupportedView, got %v", err)
	}
}

func TestEdgeClarity(t *testing.T) {
	sharp := brainPhantom(16)
	flat := models.NewVolume(16, 16, 16)

	if c := EdgeClarity(sharp); c < minEdgeClarity {
		t.Errorf("phantom with hard edges scored %f, want at least %f", c, minEdgeClarity)
	}
	if c := EdgeClarity(flat); c != 0 {
		t.Errorf("flat volume should score 0, got %f", c)
	}
}

func TestCompareVolumesIdentical(t *testing.T) {
	vol := brainPhantom(12)

	m, err := CompareVolumes(vol, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.RMSE != 0 {
		t.Errorf("identical volumes should have RMSE 0, got %f", m.RMSE)
	}
	if math.Abs(m.SSIM-1) > 1e-6 {
		t.Errorf("identical volumes should have SSIM 1, got %f", m.SSIM)
	}
	if m.EntropyDiff != 0 {
		t.Errorf("identical volumes should have no entropy difference, got %f", m.EntropyDiff)
	}
}

func TestCompareVolumesDegradation(t *testing.T) {
	vol := brainPhantom(12)

	noisy := vol.Clone()
	for i := range noisy.Data {
		noisy.Data[i] += 30 * math.Sin(float64(i))
	}
	scrambled := vol.Clone()
	for i := range scrambled.Data {
		scrambled.Data[i] = 100 * math.Sin(float64(i*7919))
	}

	mNoisy, err := CompareVolumes(vol, noisy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mScrambled, err := CompareVolumes(vol, scrambled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mNoisy.SSIM <= mScrambled.SSIM {
		t.Errorf("noisy copy should be more similar than scrambled: %f vs %f",
			mNoisy.SSIM, mScrambled.SSIM)
	}
	if mNoisy.RMSE >= mScrambled.RMSE {
		t.Errorf("noisy copy should have lower RMSE than scrambled: %f vs %f",
			mNoisy.RMSE, mScrambled.RMSE)
	}
	if mNoisy.MI <= mScrambled.MI {
		t.Errorf("noisy copy should retain more information: %f vs %f",
			mNoisy.MI, mScrambled.MI)
	}
}

func TestCompareVolumesSizeMismatch(t *testing.T) {
	a := models.NewVolume(4, 4, 4)
	b := models.NewVolume(5, 5, 5)
	if _, err := CompareVolumes(a, b); err == nil {
		t.Error("expected an error for mismatched sizes")
	}
}
