package analyzers

import (
	"errors"
	"testing"

	"github.com/yossiferoz/Husher/corpus/config"
)

func TestNewWindowerRejectsInvalidLengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		frameLength int
		hopLength   int
	}{
		{"zero frame length", 0, 10},
		{"negative frame length", -5, 10},
		{"zero hop length", 100, 0},
		{"negative hop length", 100, -1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewWindower(tt.frameLength, tt.hopLength)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("error %v is not a configuration error", err)
			}
		})
	}
}

func TestNumFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		frameLength int
		hopLength   int
		samples     int
		want        int
	}{
		{"empty buffer", 100, 60, 0, 0},
		{"negative length", 100, 60, -3, 0},
		{"shorter than one frame", 100, 60, 40, 1},
		{"exactly one frame", 100, 60, 100, 1},
		{"one sample past a frame", 100, 60, 101, 2},
		{"clean hop boundary", 100, 60, 220, 3},
		{"partial trailing frame", 100, 60, 250, 4},
		{"unit hop", 4, 1, 10, 7},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, err := NewWindower(tt.frameLength, tt.hopLength)
			if err != nil {
				t.Fatalf("NewWindower: %v", err)
			}

			if got := w.NumFrames(tt.samples); got != tt.want {
				t.Errorf("NumFrames(%d) = %d, want %d", tt.samples, got, tt.want)
			}
		})
	}
}

func TestFramesMatchNumFrames(t *testing.T) {
	t.Parallel()

	w, err := NewWindower(100, 60)
	if err != nil {
		t.Fatalf("NewWindower: %v", err)
	}

	for _, n := range []int{0, 1, 40, 100, 101, 220, 250, 1000} {
		buffer := make([]float64, n)
		frames := w.Frames(buffer)
		if len(frames) != w.NumFrames(n) {
			t.Errorf("len(Frames) = %d for %d samples, NumFrames = %d", len(frames), n, w.NumFrames(n))
		}
	}
}

func TestFramesContentAndPadding(t *testing.T) {
	t.Parallel()

	w, err := NewWindower(4, 2)
	if err != nil {
		t.Fatalf("NewWindower: %v", err)
	}

	buffer := []float64{1, 2, 3, 4, 5}
	frames := w.Frames(buffer)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	for i, frame := range frames {
		if frame.Index != i {
			t.Errorf("frame %d has Index %d", i, frame.Index)
		}
		if frame.Start != i*2 {
			t.Errorf("frame %d has Start %d, want %d", i, frame.Start, i*2)
		}
		if len(frame.Samples) != 4 {
			t.Errorf("frame %d has %d samples, want 4", i, len(frame.Samples))
		}
	}

	want0 := []float64{1, 2, 3, 4}
	want1 := []float64{3, 4, 5, 0} // trailing frame is zero-padded
	for i, want := range want0 {
		if frames[0].Samples[i] != want {
			t.Errorf("frame 0 sample %d = %g, want %g", i, frames[0].Samples[i], want)
		}
	}
	for i, want := range want1 {
		if frames[1].Samples[i] != want {
			t.Errorf("frame 1 sample %d = %g, want %g", i, frames[1].Samples[i], want)
		}
	}
}

func TestFramesDoNotAliasBuffer(t *testing.T) {
	t.Parallel()

	w, err := NewWindower(4, 2)
	if err != nil {
		t.Fatalf("NewWindower: %v", err)
	}

	buffer := []float64{1, 2, 3, 4}
	frames := w.Frames(buffer)
	buffer[0] = 99

	if frames[0].Samples[0] != 1 {
		t.Errorf("frame aliases the source buffer: sample 0 = %g", frames[0].Samples[0])
	}
}

func TestFrameTimes(t *testing.T) {
	t.Parallel()

	frame := Frame{Samples: make([]float64, 1102), Index: 2, Start: 1323}

	if got := frame.StartTime(44100); got != 0.03 {
		t.Errorf("StartTime = %g, want 0.03", got)
	}

	wantEnd := float64(1323+1102) / 44100
	if got := frame.EndTime(44100); got != wantEnd {
		t.Errorf("EndTime = %g, want %g", got, wantEnd)
	}
}
