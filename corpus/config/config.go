package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks configuration errors. These are fatal and reported
// before any audio is processed, never per-frame.
var ErrInvalidConfig = errors.New("invalid configuration")

// LabelStrategy selects how frames of one source are labeled. The choice is
// made once per source; mixing strategies within one file is disallowed.
type LabelStrategy string

const (
	// StrategyHeuristic gates on the transcript and then applies the
	// energy/ZCR acoustic rule per frame
	StrategyHeuristic LabelStrategy = "heuristic"

	// StrategySpans labels frames by overlap against annotated time spans
	StrategySpans LabelStrategy = "spans"
)

// BuildConfig configures one corpus build run
type BuildConfig struct {
	// Framing
	SampleRate   int     `json:"sample_rate" yaml:"sample_rate"`
	FrameSeconds float64 `json:"frame_seconds" yaml:"frame_seconds"` // analysis frame duration (default 25ms)
	HopSeconds   float64 `json:"hop_seconds" yaml:"hop_seconds"`     // stride between frame starts (default 15ms)
	FrameLength  int     `json:"frame_length,omitempty" yaml:"frame_length,omitempty"` // samples; overrides FrameSeconds when set
	HopLength    int     `json:"hop_length,omitempty" yaml:"hop_length,omitempty"`     // samples; overrides HopSeconds when set

	Feature   FeatureConfig   `json:"feature" yaml:"feature"`
	Heuristic HeuristicConfig `json:"heuristic" yaml:"heuristic"`

	// Workers bounds the number of files processed in parallel
	Workers int `json:"workers" yaml:"workers"`
}

// FeatureConfig configures per-frame feature extraction
type FeatureConfig struct {
	NumCoefficients int    `json:"num_coefficients" yaml:"num_coefficients"` // cepstral coefficients per sub-window (default 13)
	NumMelFilters   int    `json:"num_mel_filters" yaml:"num_mel_filters"`   // mel filter bank size (default 26)
	SubWindowSize   int    `json:"sub_window_size" yaml:"sub_window_size"`   // samples per sub-window inside a frame
	SubHopSize      int    `json:"sub_hop_size" yaml:"sub_hop_size"`         // stride between sub-windows
	DeltaWidth      int    `json:"delta_width" yaml:"delta_width"`           // regression half-window for delta features
	WindowType      string `json:"window_type" yaml:"window_type"`           // "hamming" or "hann"
}

// Dimension returns the feature vector length:
// coefficients + delta + delta-delta + centroid + zcr + energy
func (fc FeatureConfig) Dimension() int {
	return 3*fc.NumCoefficients + 3
}

// HeuristicConfig configures the heuristic label assigner.
//
// The energy bounds and ZCR minimum are empirically chosen and remain open
// calibration parameters; treat them as tunables, not exact ground truth.
type HeuristicConfig struct {
	EnergyMin float64 `json:"energy_min" yaml:"energy_min"` // open lower bound on frame mean-square energy
	EnergyMax float64 `json:"energy_max" yaml:"energy_max"` // open upper bound on frame mean-square energy
	MinZCR    float64 `json:"min_zcr" yaml:"min_zcr"`       // minimum normalized zero-crossing rate

	// MarkerWords gate whole files: a transcript containing none of these
	// labels every frame negative without acoustic checks
	MarkerWords []string `json:"marker_words" yaml:"marker_words"`
}

// defaultMarkerWords are the ח-containing words of the original annotation
// set, plus the bare grapheme
var defaultMarkerWords = []string{
	"חיים", "חם", "חכם", "חדש", "חלום", "אח", "רוח", "פתח",
	"חבר", "חג", "חוק", "חשב", "חזק", "חיל", "חסר", "חפש",
	"ח",
}

// DefaultBuildConfig returns the configuration used by the original corpus:
// 25ms frames with 15ms stride at 44.1kHz, 42-dim feature vectors
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		SampleRate:   44100,
		FrameSeconds: 0.025,
		HopSeconds:   0.015,
		Feature: FeatureConfig{
			NumCoefficients: 13,
			NumMelFilters:   26,
			SubWindowSize:   256,
			SubHopSize:      128,
			DeltaWidth:      2,
			WindowType:      "hamming",
		},
		Heuristic: HeuristicConfig{
			EnergyMin:   0.001,
			EnergyMax:   0.1,
			MinZCR:      0.05,
			MarkerWords: append([]string(nil), defaultMarkerWords...),
		},
		Workers: runtime.NumCPU(),
	}
}

// LoadFile reads a YAML build configuration over the defaults
func LoadFile(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultBuildConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v: %w", path, err, ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FrameSamples returns the frame length in samples
func (c *BuildConfig) FrameSamples() int {
	if c.FrameLength > 0 {
		return c.FrameLength
	}
	return int(c.FrameSeconds * float64(c.SampleRate))
}

// HopSamples returns the hop length in samples
func (c *BuildConfig) HopSamples() int {
	if c.HopLength > 0 {
		return c.HopLength
	}
	return int(c.HopSeconds * float64(c.SampleRate))
}

// Validate fails fast on configuration errors, before any processing begins
func (c *BuildConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d: %w", c.SampleRate, ErrInvalidConfig)
	}

	frameLen := c.FrameSamples()
	hopLen := c.HopSamples()

	if frameLen <= 0 {
		return fmt.Errorf("frame length must be positive, got %d samples: %w", frameLen, ErrInvalidConfig)
	}
	if hopLen <= 0 {
		return fmt.Errorf("hop length must be positive, got %d samples: %w", hopLen, ErrInvalidConfig)
	}
	if hopLen >= frameLen {
		return fmt.Errorf("hop length %d must be smaller than frame length %d to produce overlap: %w", hopLen, frameLen, ErrInvalidConfig)
	}

	if c.Feature.NumCoefficients <= 0 {
		return fmt.Errorf("coefficient count must be positive, got %d: %w", c.Feature.NumCoefficients, ErrInvalidConfig)
	}
	if c.Feature.NumMelFilters < c.Feature.NumCoefficients {
		return fmt.Errorf("mel filter count %d must be at least the coefficient count %d: %w",
			c.Feature.NumMelFilters, c.Feature.NumCoefficients, ErrInvalidConfig)
	}
	if c.Feature.SubWindowSize <= 0 || c.Feature.SubHopSize <= 0 {
		return fmt.Errorf("sub-window size %d and hop %d must be positive: %w",
			c.Feature.SubWindowSize, c.Feature.SubHopSize, ErrInvalidConfig)
	}
	if c.Feature.SubWindowSize > frameLen {
		return fmt.Errorf("sub-window size %d exceeds frame length %d: %w",
			c.Feature.SubWindowSize, frameLen, ErrInvalidConfig)
	}
	switch c.Feature.WindowType {
	case "hamming", "hann":
	default:
		return fmt.Errorf("unsupported window type %q: %w", c.Feature.WindowType, ErrInvalidConfig)
	}

	if c.Heuristic.EnergyMin < 0 || c.Heuristic.EnergyMax <= c.Heuristic.EnergyMin {
		return fmt.Errorf("heuristic energy bounds (%g, %g) must form a non-empty interval: %w",
			c.Heuristic.EnergyMin, c.Heuristic.EnergyMax, ErrInvalidConfig)
	}
	if c.Heuristic.MinZCR < 0 || c.Heuristic.MinZCR > 1 {
		return fmt.Errorf("heuristic ZCR minimum %g must be within [0, 1]: %w", c.Heuristic.MinZCR, ErrInvalidConfig)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d: %w", c.Workers, ErrInvalidConfig)
	}

	return nil
}
