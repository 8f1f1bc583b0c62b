package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultBuildConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultBuildConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}

	if got := cfg.FrameSamples(); got != 1102 {
		t.Errorf("FrameSamples = %d, want 1102 (25ms at 44.1kHz)", got)
	}
	if got := cfg.HopSamples(); got != 661 {
		t.Errorf("HopSamples = %d, want 661 (15ms at 44.1kHz)", got)
	}
	if got := cfg.Feature.Dimension(); got != 42 {
		t.Errorf("Dimension = %d, want 42", got)
	}
}

func TestSampleOverridesBeatDurations(t *testing.T) {
	t.Parallel()

	cfg := DefaultBuildConfig()
	cfg.FrameLength = 512
	cfg.HopLength = 256

	if got := cfg.FrameSamples(); got != 512 {
		t.Errorf("FrameSamples = %d, want 512", got)
	}
	if got := cfg.HopSamples(); got != 256 {
		t.Errorf("HopSamples = %d, want 256", got)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*BuildConfig)
	}{
		{"zero sample rate", func(c *BuildConfig) { c.SampleRate = 0 }},
		{"negative sample rate", func(c *BuildConfig) { c.SampleRate = -44100 }},
		{"zero frame duration", func(c *BuildConfig) { c.FrameSeconds = 0 }},
		{"hop equals frame", func(c *BuildConfig) { c.HopSeconds = c.FrameSeconds }},
		{"hop exceeds frame", func(c *BuildConfig) { c.HopSeconds = 0.030 }},
		{"zero coefficients", func(c *BuildConfig) { c.Feature.NumCoefficients = 0 }},
		{"fewer filters than coefficients", func(c *BuildConfig) { c.Feature.NumMelFilters = 5 }},
		{"zero sub-window", func(c *BuildConfig) { c.Feature.SubWindowSize = 0 }},
		{"zero sub-hop", func(c *BuildConfig) { c.Feature.SubHopSize = 0 }},
		{"sub-window exceeds frame", func(c *BuildConfig) { c.Feature.SubWindowSize = 4096 }},
		{"unknown window type", func(c *BuildConfig) { c.Feature.WindowType = "kaiser" }},
		{"inverted energy bounds", func(c *BuildConfig) { c.Heuristic.EnergyMin, c.Heuristic.EnergyMax = 0.1, 0.001 }},
		{"negative energy min", func(c *BuildConfig) { c.Heuristic.EnergyMin = -0.1 }},
		{"zcr above one", func(c *BuildConfig) { c.Heuristic.MinZCR = 1.5 }},
		{"zero workers", func(c *BuildConfig) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultBuildConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v is not a configuration error", err)
			}
		})
	}
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corpus.yaml")
	content := []byte("sample_rate: 16000\nworkers: 2\nfeature:\n  num_coefficients: 12\n  num_mel_filters: 26\n  sub_window_size: 200\n  sub_hop_size: 100\n  delta_width: 2\n  window_type: hann\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.Feature.NumCoefficients != 12 {
		t.Errorf("NumCoefficients = %d, want 12", cfg.Feature.NumCoefficients)
	}

	// Untouched keys keep their defaults
	if cfg.FrameSeconds != 0.025 {
		t.Errorf("FrameSeconds = %g, want 0.025", cfg.FrameSeconds)
	}
	if len(cfg.Heuristic.MarkerWords) == 0 {
		t.Error("marker words lost their defaults")
	}
}

func TestLoadFileRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corpus.yaml")
	if err := os.WriteFile(path, []byte("sample_rate: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadFile(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("LoadFile error = %v, want configuration error", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
