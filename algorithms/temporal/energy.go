package temporal

import (
	"gonum.org/v1/gonum/stat"
)

// Energy computes short-time energy features over the sub-windows of an
// analysis frame. Mean-square energy is the measure the heuristic labeler
// thresholds on and the energy channel of the feature vector.
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
	}
}

// MeanSquare calculates the mean squared amplitude of a signal.
// An empty or silent signal yields 0.
func MeanSquare(signal []float64) float64 {
	if len(signal) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, sample := range signal {
		sumSquares += sample * sample
	}
	return sumSquares / float64(len(signal))
}

// ComputeShortTimeEnergy calculates mean-square energy for overlapping
// sub-windows. Partial trailing sub-windows are not produced, matching the
// STFT sub-window grid.
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	energies := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * e.hopSize
		endIdx := startIdx + e.frameSize

		if endIdx > len(signal) {
			break
		}

		energies[i] = MeanSquare(signal[startIdx:endIdx])
	}

	return energies
}

// ComputeEnergyStatistics calculates summary statistics over sub-window
// energies using gonum
func (e *Energy) ComputeEnergyStatistics(energies []float64) (mean, variance float64) {
	if len(energies) == 0 {
		return 0, 0
	}
	if len(energies) == 1 {
		return energies[0], 0
	}

	return stat.Mean(energies, nil), stat.Variance(energies, nil)
}
