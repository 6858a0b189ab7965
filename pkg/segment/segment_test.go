package segment

import (
	"errors"
	"testing"

	"neuroviz/internal/models"
)

func TestThresholdBinarizes(t *testing.T) {
	vol := models.NewVolume(4, 4, 4)
	for i := range vol.Data {
		vol.Data[i] = float64(i)
	}

	mask := Threshold(vol, 10, 20)

	for i, v := range mask.Data {
		want := 0.0
		if i >= 10 && i <= 20 {
			want = 1.0
		}
		if v != want {
			t.Fatalf("voxel %d: want %v got %v", i, want, v)
		}
	}
}

func TestThresholdKeepsGeometry(t *testing.T) {
	vol := models.NewVolume(3, 3, 3)
	vol.Spacing = [3]float64{0.5, 0.5, 2.0}
	vol.Origin = [3]float64{1, 2, 3}

	mask := Threshold(vol, 0, 1)
	if mask.Spacing != vol.Spacing || mask.Origin != vol.Origin {
		t.Error("threshold dropped geometry metadata")
	}
}

func TestDynamicIsovalue(t *testing.T) {
	vol := models.NewVolume(3, 3, 3)
	vol.Data[5] = 1 // binary mask: range [0, 1]

	iso, err := DynamicIsovalue(vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iso != 0.6 {
		t.Errorf("want isovalue 0.6, got %f", iso)
	}
}

func TestDynamicIsovalueFlatMask(t *testing.T) {
	vol := models.NewVolume(3, 3, 3) // all zeros

	_, err := DynamicIsovalue(vol)
	if !errors.Is(err, ErrNoScalars) {
		t.Errorf("want ErrNoScalars, got %v", err)
	}
}

func TestDynamicIsovalueEmpty(t *testing.T) {
	vol := &models.Volume{}
	if _, err := DynamicIsovalue(vol); !errors.Is(err, ErrNoScalars) {
		t.Errorf("want ErrNoScalars for empty volume, got %v", err)
	}
}
