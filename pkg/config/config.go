// Package config provides configuration loading and management for neuroviz.
// It handles loading configuration from YAML files and provides default
// values matching the reference acquisition protocol.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Paths to the input datasets and the results directory.
	Paths struct {
		// T1 is the anatomical T1-weighted NIfTI volume.
		T1 string `yaml:"t1"`

		// FMRI lists the 4D BOLD NIfTI series.
		FMRI []string `yaml:"fmri"`

		// EEG lists the EDF recordings.
		EEG []string `yaml:"eeg"`

		// Results is the directory where surfaces, renders and plots are written.
		Results string `yaml:"results"`
	} `yaml:"paths"`

	// Preprocess parameters for the T1 pipeline.
	Preprocess struct {
		// BiasSigma is the spatial sigma in voxels of the bias field estimate.
		BiasSigma float64 `yaml:"biasSigma"`

		// Normalize rescales intensities to [0, 255] after bias correction.
		Normalize bool `yaml:"normalize"`

		// Equalize enables slice-wise adaptive histogram equalization.
		Equalize bool `yaml:"equalize"`

		// ClipLimit bounds the per-tile histogram during equalization.
		ClipLimit float64 `yaml:"clipLimit"`

		// DomainSigma is the spatial sigma of the bilateral filter in voxels.
		DomainSigma float64 `yaml:"domainSigma"`

		// RangeSigma is the intensity sigma of the bilateral filter.
		RangeSigma float64 `yaml:"rangeSigma"`

		// SaveIntermediate writes a NIfTI volume after each stage.
		SaveIntermediate bool `yaml:"saveIntermediate"`
	} `yaml:"preprocess"`

	// Surface reconstruction parameters.
	Surface struct {
		// LowerThreshold and UpperThreshold bound the segmentation window.
		LowerThreshold float64 `yaml:"lowerThreshold"`
		UpperThreshold float64 `yaml:"upperThreshold"`

		// LaplacianIterations and Relaxation control the first smoothing pass.
		LaplacianIterations int     `yaml:"laplacianIterations"`
		Relaxation          float64 `yaml:"relaxation"`

		// HoleSize is the largest hole area that gets filled, in mm^2.
		HoleSize float64 `yaml:"holeSize"`

		// SincIterations and PassBand control the final smoothing pass.
		SincIterations int     `yaml:"sincIterations"`
		PassBand       float64 `yaml:"passBand"`
	} `yaml:"surface"`

	// Mapping parameters for projecting fMRI activations onto the surface.
	Mapping struct {
		// Volume selects the frame of the 4D series to map.
		Volume int `yaml:"volume"`

		// SmoothIterations and PassBand control post-mapping smoothing.
		SmoothIterations int     `yaml:"smoothIterations"`
		PassBand         float64 `yaml:"passBand"`

		// SaturationScale trims the top of the color range (0.9 keeps the
		// hottest 10% saturated).
		SaturationScale float64 `yaml:"saturationScale"`
	} `yaml:"mapping"`

	// EEG processing parameters.
	EEG struct {
		// LowCut and HighCut are the bandpass corner frequencies in Hz.
		LowCut  float64 `yaml:"lowCut"`
		HighCut float64 `yaml:"highCut"`

		// FilterOrder is the Butterworth order per edge.
		FilterOrder int `yaml:"filterOrder"`

		// SegmentSeconds is the Welch segment length.
		SegmentSeconds float64 `yaml:"segmentSeconds"`

		// MaxFrequency truncates the plotted spectrum in Hz.
		MaxFrequency float64 `yaml:"maxFrequency"`
	} `yaml:"eeg"`
}

// DefaultConfig returns a configuration with default values. The numeric
// defaults mirror the reference pipeline's constants.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Paths.Results = "results"

	cfg.Preprocess.BiasSigma = 24
	cfg.Preprocess.Normalize = true
	cfg.Preprocess.Equalize = true
	cfg.Preprocess.ClipLimit = 3.0
	cfg.Preprocess.DomainSigma = 1.0
	cfg.Preprocess.RangeSigma = 20.0
	cfg.Preprocess.SaveIntermediate = false

	cfg.Surface.LowerThreshold = 30
	cfg.Surface.UpperThreshold = 60
	cfg.Surface.LaplacianIterations = 100
	cfg.Surface.Relaxation = 0.1
	cfg.Surface.HoleSize = 50.0
	cfg.Surface.SincIterations = 600
	cfg.Surface.PassBand = 0.2

	cfg.Mapping.Volume = 0
	cfg.Mapping.SmoothIterations = 100
	cfg.Mapping.PassBand = 0.08
	cfg.Mapping.SaturationScale = 0.9

	cfg.EEG.LowCut = 0.5
	cfg.EEG.HighCut = 40.0
	cfg.EEG.FilterOrder = 4
	cfg.EEG.SegmentSeconds = 4.0
	cfg.EEG.MaxFrequency = 50.0

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
