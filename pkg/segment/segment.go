// Package segment provides intensity-threshold segmentation of volumes and
// the dynamic isovalue selection used before surface extraction.
package segment

import (
	"errors"

	"neuroviz/internal/models"
)

// ErrNoScalars reports that a segmented volume has no usable scalar range.
var ErrNoScalars = errors.New("segment: segmented data contains no scalars")

// Threshold produces a binary mask: voxels inside [lower, upper] become 1,
// everything else 0. Geometry metadata is carried over unchanged.
func Threshold(vol *models.Volume, lower, upper float64) *models.Volume {
	out := vol.Clone()
	for i, v := range vol.Data {
		if v >= lower && v <= upper {
			out.Data[i] = 1
		} else {
			out.Data[i] = 0
		}
	}
	return out
}

// DynamicIsovalue derives the isosurface threshold from the segmented data:
// 60% of the scalar range. An all-background or empty mask has no range to
// work with and yields ErrNoScalars.
func DynamicIsovalue(mask *models.Volume) (float64, error) {
	if len(mask.Data) == 0 {
		return 0, ErrNoScalars
	}
	min, max := mask.MinMax()
	if max <= min {
		return 0, ErrNoScalars
	}
	return (min + max) * 0.6, nil
}
