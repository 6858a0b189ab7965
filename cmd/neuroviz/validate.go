package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"neuroviz/pkg/nifti"
	"neuroviz/pkg/qc"
)

var (
	validateView    string
	validateCompare string
)

var validateCmd = &cobra.Command{
	Use:   "validate <volume.nii[.gz]>",
	Short: "Run quality checks on a volume",
	Long: `Checks intensity range, orientation and edge clarity of a volume.
With --compare, additionally scores the similarity between the two volumes
(mutual information, RMSE, SSIM, entropy difference), which is useful for
judging how much a preprocessing step changed the data.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vol, err := nifti.ReadFile(args[0])
		if err != nil {
			return err
		}

		rep, err := qc.CheckVolume(vol, validateView)
		if err != nil {
			return err
		}

		fmt.Printf("[INFO] Quality report for %s (%s view)\n", args[0], validateView)
		fmt.Printf("  intensity:    %s\n", passFail(rep.IntensityOK))
		fmt.Printf("  orientation:  %s\n", passFail(rep.OrientationOK))
		fmt.Printf("  edge clarity: %.3f\n", rep.EdgeClarity)
		for _, issue := range rep.Issues {
			fmt.Printf("  issue: %s\n", issue)
		}

		if validateCompare != "" {
			other, err := nifti.ReadFile(validateCompare)
			if err != nil {
				return err
			}
			m, err := qc.CompareVolumes(vol, other)
			if err != nil {
				return err
			}
			fmt.Printf("[INFO] Similarity to %s\n", validateCompare)
			fmt.Printf("  MI:           %.4f\n", m.MI)
			fmt.Printf("  RMSE:         %.4f\n", m.RMSE)
			fmt.Printf("  SSIM:         %.4f\n", m.SSIM)
			fmt.Printf("  entropy diff: %.4f\n", m.EntropyDiff)
		}

		if !rep.Passed() {
			return fmt.Errorf("volume failed %d quality check(s)", len(rep.Issues))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateView, "view", "axial",
		"anatomical view to check: axial, sagittal or coronal")
	validateCmd.Flags().StringVar(&validateCompare, "compare", "",
		"second volume to score similarity against")
}

func passFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "FAIL"
}
