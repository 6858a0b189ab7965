package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"neuroviz/internal/models"
	"neuroviz/pkg/config"
	"neuroviz/pkg/nifti"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "neuroviz",
	Short: "Multimodal neuroimaging visualization pipeline",
	Long: `neuroviz reconstructs cortical surfaces from T1-weighted MRI, maps
functional activations onto them and processes EEG recordings, producing
STL/VTK surfaces, PNG renders and interactive HTML pages.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "neuroviz.yaml",
		"path to the YAML configuration file")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(eegCmd)
	rootCmd.AddCommand(viewCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.CreateDefaultConfigFile(configPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Wrote default configuration to %s\n", configPath)
		return nil
	},
}

// loadConfig reads the configuration and makes sure the results directory
// exists.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Paths.Results, 0755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}
	return cfg, nil
}

// loadT1 loads the anatomical volume named by the configuration.
func loadT1(cfg *config.Config) (*models.Volume, error) {
	if cfg.Paths.T1 == "" {
		return nil, fmt.Errorf("no T1 volume configured, set paths.t1 in %s", configPath)
	}
	fmt.Printf("[INFO] Loading T1 volume from %s\n", cfg.Paths.T1)
	return nifti.ReadFile(cfg.Paths.T1)
}

// resultPath joins a file name onto the results directory.
func resultPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.Paths.Results, name)
}

// stem strips directory and recognized extensions from a data file path.
func stem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base))
}
