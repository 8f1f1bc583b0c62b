package spectral

import (
	"gonum.org/v1/gonum/stat"
)

// ZeroCrossingRate calculates zero crossing rate.
// High ZCR indicates fricatives/unvoiced speech, low ZCR indicates voiced
// speech, which is exactly the cue the heuristic labeler relies on.
type ZeroCrossingRate struct {
	sampleRate int
	frameSize  int
	hopSize    int
}

// NewZeroCrossingRate creates a zero crossing rate calculator with default
// framing parameters
func NewZeroCrossingRate(sampleRate int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		sampleRate: sampleRate,
		frameSize:  1024,
		hopSize:    512,
	}
}

// NewZeroCrossingRateWithParams creates calculator with custom parameters
func NewZeroCrossingRateWithParams(sampleRate, frameSize, hopSize int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		hopSize:    hopSize,
	}
}

// Compute calculates ZCR for a single frame
// Returns rate as crossings per second
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := countCrossings(frame)

	// Convert to crossings per second
	frameDuration := float64(len(frame)) / float64(zcr.sampleRate)
	return float64(crossings) / frameDuration
}

// ComputeNormalized calculates normalized ZCR (0-1 range).
// A silent frame has zero crossings and returns 0.
func (zcr *ZeroCrossingRate) ComputeNormalized(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	// Normalize by maximum possible crossings (alternating signal)
	maxCrossings := len(frame) - 1
	return float64(countCrossings(frame)) / float64(maxCrossings)
}

// ComputeFramesNormalized calculates normalized ZCR for overlapping frames
func (zcr *ZeroCrossingRate) ComputeFramesNormalized(signal []float64) []float64 {
	if len(signal) < zcr.frameSize || zcr.hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-zcr.frameSize)/zcr.hopSize + 1
	zcrValues := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * zcr.hopSize
		endIdx := startIdx + zcr.frameSize

		if endIdx > len(signal) {
			break
		}

		zcrValues[i] = zcr.ComputeNormalized(signal[startIdx:endIdx])
	}

	return zcrValues
}

// ComputeStatistics calculates ZCR statistics using gonum
func (zcr *ZeroCrossingRate) ComputeStatistics(zcrValues []float64) (mean, variance, minVal, maxVal float64) {
	if len(zcrValues) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(zcrValues, nil)
	variance = stat.Variance(zcrValues, nil)

	minVal = zcrValues[0]
	maxVal = zcrValues[0]
	for _, value := range zcrValues {
		if value < minVal {
			minVal = value
		}
		if value > maxVal {
			maxVal = value
		}
	}

	return mean, variance, minVal, maxVal
}

// countCrossings counts sign changes in a frame
func countCrossings(frame []float64) int {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0 && frame[i] < 0) || (frame[i-1] < 0 && frame[i] >= 0) {
			crossings++
		}
	}
	return crossings
}
