package extractors

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/yossiferoz/Husher/algorithms/spectral"
	"github.com/yossiferoz/Husher/algorithms/temporal"
	"github.com/yossiferoz/Husher/algorithms/windowing"
	"github.com/yossiferoz/Husher/corpus/analyzers"
	"github.com/yossiferoz/Husher/corpus/config"
)

// FeatureExtractor reduces one fixed-length frame to a deterministic-length
// feature vector. Each channel is computed as a short time-series over the
// frame's sub-windows and reduced to its temporal mean. The reduction is
// deliberately lossy: temporal structure inside a frame is discarded to keep
// the vector small and fixed-size.
//
// Channel order is fixed: cepstral coefficients, their deltas, their
// delta-deltas, spectral centroid, zero-crossing rate, short-time energy.
type FeatureExtractor struct {
	cfg         config.FeatureConfig
	sampleRate  int
	frameLength int

	stft     *spectral.STFT
	mfcc     *spectral.MFCC
	delta    *spectral.Delta
	centroid *spectral.SpectralCentroid
	zcr      *spectral.ZeroCrossingRate
	energy   *temporal.Energy
	window   spectral.Window
}

// NewFeatureExtractor creates an extractor for frames of exactly frameLength
// samples. Extractors keep cached analysis state (filter bank, DCT matrix,
// frequency bins), so they are not safe for concurrent use; create one per
// worker.
func NewFeatureExtractor(cfg config.FeatureConfig, sampleRate, frameLength int) (*FeatureExtractor, error) {
	if frameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive, got %d: %w", frameLength, config.ErrInvalidConfig)
	}
	if cfg.SubWindowSize <= 0 || cfg.SubWindowSize > frameLength {
		return nil, fmt.Errorf("sub-window size %d must be within (0, %d]: %w", cfg.SubWindowSize, frameLength, config.ErrInvalidConfig)
	}
	if cfg.SubHopSize <= 0 {
		return nil, fmt.Errorf("sub-window hop must be positive, got %d: %w", cfg.SubHopSize, config.ErrInvalidConfig)
	}

	var window spectral.Window
	switch cfg.WindowType {
	case "hamming", "":
		window = windowing.NewHamming(cfg.SubWindowSize, true)
	case "hann":
		window = windowing.NewHann(cfg.SubWindowSize, true)
	default:
		return nil, fmt.Errorf("unsupported window type %q: %w", cfg.WindowType, config.ErrInvalidConfig)
	}

	return &FeatureExtractor{
		cfg:         cfg,
		sampleRate:  sampleRate,
		frameLength: frameLength,
		stft:        spectral.NewSTFT(),
		mfcc: spectral.NewMFCCWithParams(sampleRate, spectral.MFCCParams{
			NumCoefficients: cfg.NumCoefficients,
			NumMelFilters:   cfg.NumMelFilters,
		}),
		delta:    spectral.NewDelta(cfg.DeltaWidth),
		centroid: spectral.NewSpectralCentroid(sampleRate),
		zcr:      spectral.NewZeroCrossingRateWithParams(sampleRate, cfg.SubWindowSize, cfg.SubHopSize),
		energy:   temporal.NewEnergy(cfg.SubWindowSize, cfg.SubHopSize, sampleRate),
		window:   window,
	}, nil
}

// Dimension returns the feature vector length
func (fe *FeatureExtractor) Dimension() int {
	return fe.cfg.Dimension()
}

// Extract computes the feature vector for one frame. A frame of the wrong
// length is a configuration error; valid input never fails, and silence
// yields a finite (non-NaN) vector.
func (fe *FeatureExtractor) Extract(frame *analyzers.Frame) ([]float64, error) {
	if len(frame.Samples) != fe.frameLength {
		return nil, fmt.Errorf("frame length %d does not match configured length %d: %w",
			len(frame.Samples), fe.frameLength, config.ErrInvalidConfig)
	}

	// Sub-window magnitude spectrogram
	stftResult, err := fe.stft.ComputeWithWindow(frame.Samples, fe.cfg.SubWindowSize, fe.cfg.SubHopSize, fe.sampleRate, fe.window)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sub-window spectrogram: %w", err)
	}

	// Cepstral trajectory and its derivatives
	mfccFrames, err := fe.mfcc.ComputeFrames(stftResult.Magnitude)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cepstral coefficients: %w", err)
	}
	deltaFrames := fe.delta.Compute(mfccFrames)
	delta2Frames := fe.delta.Compute(deltaFrames)

	// Scalar channels over the same sub-window grid
	centroids := fe.centroid.ComputeFrames(stftResult.Magnitude)
	zcrValues := fe.zcr.ComputeFramesNormalized(frame.Samples)
	energies := fe.energy.ComputeShortTimeEnergy(frame.Samples)

	// Temporal mean pooling, concatenated in fixed channel order
	vector := make([]float64, 0, fe.Dimension())
	vector = append(vector, meanColumns(mfccFrames, fe.cfg.NumCoefficients)...)
	vector = append(vector, meanColumns(deltaFrames, fe.cfg.NumCoefficients)...)
	vector = append(vector, meanColumns(delta2Frames, fe.cfg.NumCoefficients)...)
	vector = append(vector, stat.Mean(centroids, nil))
	vector = append(vector, stat.Mean(zcrValues, nil))
	vector = append(vector, stat.Mean(energies, nil))

	if len(vector) != fe.Dimension() {
		return nil, fmt.Errorf("feature vector length %d does not match configured dimension %d: %w",
			len(vector), fe.Dimension(), config.ErrInvalidConfig)
	}

	return vector, nil
}

// meanColumns reduces a (time x coefficient) matrix to per-coefficient means
func meanColumns(frames [][]float64, numCoeffs int) []float64 {
	means := make([]float64, numCoeffs)
	if len(frames) == 0 {
		return means
	}

	column := make([]float64, len(frames))
	for c := 0; c < numCoeffs; c++ {
		for t, row := range frames {
			column[t] = row[c]
		}
		means[c] = stat.Mean(column, nil)
	}

	return means
}
