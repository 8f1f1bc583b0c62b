package extractors

import (
	"errors"
	"math"
	"testing"

	"github.com/yossiferoz/Husher/corpus/analyzers"
	"github.com/yossiferoz/Husher/corpus/config"
)

const (
	testSampleRate  = 44100
	testFrameLength = 1102 // 25ms at 44.1kHz
)

func testFeatureConfig() config.FeatureConfig {
	return config.FeatureConfig{
		NumCoefficients: 13,
		NumMelFilters:   26,
		SubWindowSize:   256,
		SubHopSize:      128,
		DeltaWidth:      2,
		WindowType:      "hamming",
	}
}

func toneFrame(n int, freq float64) *analyzers.Frame {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return &analyzers.Frame{Samples: samples}
}

func TestNewFeatureExtractorValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*config.FeatureConfig)
		frameLength int
	}{
		{"zero frame length", func(c *config.FeatureConfig) {}, 0},
		{"sub-window exceeds frame", func(c *config.FeatureConfig) { c.SubWindowSize = 2048 }, testFrameLength},
		{"zero sub-hop", func(c *config.FeatureConfig) { c.SubHopSize = 0 }, testFrameLength},
		{"unknown window", func(c *config.FeatureConfig) { c.WindowType = "kaiser" }, testFrameLength},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testFeatureConfig()
			tt.mutate(&cfg)

			_, err := NewFeatureExtractor(cfg, testSampleRate, tt.frameLength)
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("error = %v, want configuration error", err)
			}
		})
	}
}

func TestExtractDimension(t *testing.T) {
	t.Parallel()

	extractor, err := NewFeatureExtractor(testFeatureConfig(), testSampleRate, testFrameLength)
	if err != nil {
		t.Fatalf("NewFeatureExtractor: %v", err)
	}

	if got := extractor.Dimension(); got != 42 {
		t.Fatalf("Dimension = %d, want 42", got)
	}

	vector, err := extractor.Extract(toneFrame(testFrameLength, 440))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(vector) != 42 {
		t.Errorf("vector length = %d, want 42", len(vector))
	}
}

func TestExtractRejectsWrongFrameLength(t *testing.T) {
	t.Parallel()

	extractor, err := NewFeatureExtractor(testFeatureConfig(), testSampleRate, testFrameLength)
	if err != nil {
		t.Fatalf("NewFeatureExtractor: %v", err)
	}

	short := &analyzers.Frame{Samples: make([]float64, 100)}
	if _, err := extractor.Extract(short); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("error = %v, want configuration error", err)
	}
}

func TestExtractSilenceIsFinite(t *testing.T) {
	t.Parallel()

	extractor, err := NewFeatureExtractor(testFeatureConfig(), testSampleRate, testFrameLength)
	if err != nil {
		t.Fatalf("NewFeatureExtractor: %v", err)
	}

	silence := &analyzers.Frame{Samples: make([]float64, testFrameLength)}
	vector, err := extractor.Extract(silence)
	if err != nil {
		t.Fatalf("Extract on silence: %v", err)
	}

	for i, value := range vector {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			t.Errorf("silence produced non-finite value %g at index %d", value, i)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	extractor, err := NewFeatureExtractor(testFeatureConfig(), testSampleRate, testFrameLength)
	if err != nil {
		t.Fatalf("NewFeatureExtractor: %v", err)
	}

	frame := toneFrame(testFrameLength, 1000)

	first, err := extractor.Extract(frame)
	if err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	second, err := extractor.Extract(frame)
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("index %d differs between runs: %g vs %g", i, first[i], second[i])
		}
	}
}

func TestExtractDistinguishesSignals(t *testing.T) {
	t.Parallel()

	extractor, err := NewFeatureExtractor(testFeatureConfig(), testSampleRate, testFrameLength)
	if err != nil {
		t.Fatalf("NewFeatureExtractor: %v", err)
	}

	low, err := extractor.Extract(toneFrame(testFrameLength, 200))
	if err != nil {
		t.Fatalf("Extract low tone: %v", err)
	}
	high, err := extractor.Extract(toneFrame(testFrameLength, 8000))
	if err != nil {
		t.Fatalf("Extract high tone: %v", err)
	}

	// Spectral centroid sits at index 3*13 = 39 and must follow the tone
	if low[39] >= high[39] {
		t.Errorf("centroid for 200Hz (%g) not below centroid for 8kHz (%g)", low[39], high[39])
	}
}
