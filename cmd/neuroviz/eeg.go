package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"neuroviz/pkg/config"
	"neuroviz/pkg/edf"
	"neuroviz/pkg/eeg"
	"neuroviz/pkg/visualization"
)

var eegCmd = &cobra.Command{
	Use:   "eeg",
	Short: "Filter EEG recordings and estimate their spectra",
	Long: `Band-pass filters every configured EDF recording, plots the filtered
traces, estimates per-channel power spectra with Welch's method and writes an
interactive HTML browser. Band powers for the canonical rhythm bands are
printed per channel.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Paths.EEG) == 0 {
			return fmt.Errorf("no EEG recordings configured, set paths.eeg in %s", configPath)
		}

		for _, path := range cfg.Paths.EEG {
			if err := processRecording(path, cfg); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	},
}

// sanitizeLabel makes an EDF channel label usable in a file name. Labels come
// straight off the wire and routinely hold spaces or montage separators like
// "EEG Fp1-Cz".
func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "channel"
	}
	return b.String()
}

func processRecording(path string, cfg *config.Config) error {
	fmt.Printf("[INFO] Loading EEG recording from %s\n", path)
	rec, err := edf.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("[INFO] %d channels at %g Hz, %.1f s, %d annotations\n",
		rec.NumChannels(), rec.SampleRate, rec.Duration(), len(rec.Annotations))

	filtered, err := eeg.Bandpass(rec, cfg.EEG.LowCut, cfg.EEG.HighCut, cfg.EEG.FilterOrder)
	if err != nil {
		return err
	}
	fmt.Printf("[INFO] Band-pass %g-%g Hz applied\n", cfg.EEG.LowCut, cfg.EEG.HighCut)

	name := stem(path)

	tracesPath := resultPath(cfg, name+"_traces.png")
	if err := visualization.PlotEEGTraces(filtered, tracesPath); err != nil {
		return err
	}
	fmt.Printf("[INFO] Traces written to %s\n", tracesPath)

	var spectra []*eeg.PSD
	for _, ch := range filtered.Channels {
		psd, err := eeg.WelchPSD(ch.Samples, filtered.SampleRate,
			cfg.EEG.SegmentSeconds, cfg.EEG.MaxFrequency)
		if err != nil {
			fmt.Printf("[WARN] Skipping spectrum for %s: %v\n", ch.Label, err)
			continue
		}
		spectra = append(spectra, psd)

		psdPath := resultPath(cfg, fmt.Sprintf("%s_psd_%s.png", name, sanitizeLabel(ch.Label)))
		if err := visualization.PlotPSD(psd, ch.Label, psdPath); err != nil {
			return err
		}

		fmt.Printf("[INFO] %s: peak %.1f Hz, band power", ch.Label, psd.PeakFrequency())
		for _, band := range eeg.CanonicalBands {
			fmt.Printf(" %s=%.3g", band.Name, psd.BandPower(band.Low, band.High))
		}
		fmt.Println()
	}

	if len(spectra) > 0 {
		mean, err := eeg.MeanPSD(spectra...)
		if err != nil {
			return err
		}
		meanPath := resultPath(cfg, name+"_psd_mean.png")
		if err := visualization.PlotPSD(mean, "channel average", meanPath); err != nil {
			return err
		}
		fmt.Printf("[INFO] Average spectrum written to %s\n", meanPath)
	}

	htmlPath := resultPath(cfg, name+"_browser.html")
	if err := visualization.SaveEEGBrowser(filtered, htmlPath); err != nil {
		return err
	}
	fmt.Printf("[INFO] Interactive browser written to %s\n", htmlPath)
	return nil
}
