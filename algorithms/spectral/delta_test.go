package spectral

import "testing"

func TestDeltaConstantSeriesIsZero(t *testing.T) {
	t.Parallel()

	frames := [][]float64{{3, -1}, {3, -1}, {3, -1}, {3, -1}, {3, -1}}
	deltas := NewDelta(2).Compute(frames)

	if len(deltas) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(deltas), len(frames))
	}
	for tIdx, row := range deltas {
		for c, value := range row {
			if value != 0 {
				t.Errorf("frame %d coeff %d = %g, want 0", tIdx, c, value)
			}
		}
	}
}

func TestDeltaLinearRampHasUnitSlope(t *testing.T) {
	t.Parallel()

	frames := make([][]float64, 9)
	for i := range frames {
		frames[i] = []float64{float64(i)}
	}

	deltas := NewDelta(2).Compute(frames)

	// Interior frames see the full regression window; edges are clamped and
	// report a smaller slope
	for tIdx := 2; tIdx < 7; tIdx++ {
		if got := deltas[tIdx][0]; got != 1 {
			t.Errorf("frame %d slope = %g, want 1", tIdx, got)
		}
	}
	if deltas[0][0] >= 1 || deltas[8][0] >= 1 {
		t.Errorf("edge slopes %g / %g not reduced by clamping", deltas[0][0], deltas[8][0])
	}
}

func TestDeltaEmptyAndSingleFrame(t *testing.T) {
	t.Parallel()

	d := NewDelta(2)

	if got := d.Compute(nil); len(got) != 0 {
		t.Errorf("empty input produced %d frames", len(got))
	}

	single := d.Compute([][]float64{{5, 7}})
	if len(single) != 1 {
		t.Fatalf("got %d frames, want 1", len(single))
	}
	for c, value := range single[0] {
		if value != 0 {
			t.Errorf("single-frame delta coeff %d = %g, want 0", c, value)
		}
	}
}

func TestDeltaDefaultWidth(t *testing.T) {
	t.Parallel()

	frames := [][]float64{{0}, {1}, {2}, {3}, {4}}
	if got := NewDelta(0).Compute(frames); got[2][0] != 1 {
		t.Errorf("default-width slope = %g, want 1", got[2][0])
	}
}
