package spectral

// Delta computes first-order time derivatives of a coefficient time series
// using linear regression over a symmetric window. Fricative and guttural
// sounds are distinguished more by spectral change than by static shape, so
// the corpus features carry delta and delta-delta channels alongside the
// static cepstral coefficients.
type Delta struct {
	width int
	norm  float64
}

// NewDelta creates a delta calculator with the given half-window width.
// Width <= 0 falls back to the common default of 2 frames.
func NewDelta(width int) *Delta {
	if width <= 0 {
		width = 2
	}

	// Regression normalizer: 2 * sum(n^2) for n in 1..width
	norm := 0.0
	for n := 1; n <= width; n++ {
		norm += float64(n * n)
	}
	norm *= 2.0

	return &Delta{
		width: width,
		norm:  norm,
	}
}

// Compute calculates delta coefficients for a (time x coefficient) matrix.
// Edges are handled by clamping to the first/last frame, so the output has
// the same shape as the input. A single-frame input yields all zeros.
func (d *Delta) Compute(frames [][]float64) [][]float64 {
	if len(frames) == 0 {
		return [][]float64{}
	}

	numFrames := len(frames)
	numCoeffs := len(frames[0])

	deltas := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		deltas[t] = make([]float64, numCoeffs)

		for c := 0; c < numCoeffs; c++ {
			sum := 0.0
			for n := 1; n <= d.width; n++ {
				after := clampIndex(t+n, numFrames)
				before := clampIndex(t-n, numFrames)
				sum += float64(n) * (frames[after][c] - frames[before][c])
			}
			deltas[t][c] = sum / d.norm
		}
	}

	return deltas
}

// ComputeSecondOrder calculates delta-delta (acceleration) coefficients
func (d *Delta) ComputeSecondOrder(frames [][]float64) [][]float64 {
	return d.Compute(d.Compute(frames))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
