package analyzers

import (
	"fmt"

	"github.com/yossiferoz/Husher/corpus/config"
)

// Frame is one fixed-length slice of an audio buffer. Samples always has
// exactly the configured frame length; the trailing frame of a buffer is
// zero-padded on the right rather than dropped or left short.
type Frame struct {
	Samples []float64
	Index   int // 0-based position within the source file
	Start   int // offset of the first sample in the source buffer
}

// StartTime returns the frame start in seconds
func (f *Frame) StartTime(sampleRate int) float64 {
	return float64(f.Start) / float64(sampleRate)
}

// EndTime returns the frame end in seconds (exclusive)
func (f *Frame) EndTime(sampleRate int) float64 {
	return float64(f.Start+len(f.Samples)) / float64(sampleRate)
}

// Windower splits a mono audio buffer into fixed-length overlapping frames
type Windower struct {
	frameLength int
	hopLength   int
}

// NewWindower creates a windower. Invalid lengths are a configuration error
// reported here, not per-frame.
func NewWindower(frameLength, hopLength int) (*Windower, error) {
	if frameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive, got %d: %w", frameLength, config.ErrInvalidConfig)
	}
	if hopLength <= 0 {
		return nil, fmt.Errorf("hop length must be positive, got %d: %w", hopLength, config.ErrInvalidConfig)
	}

	return &Windower{
		frameLength: frameLength,
		hopLength:   hopLength,
	}, nil
}

// FrameLength returns the configured frame length in samples
func (w *Windower) FrameLength() int {
	return w.frameLength
}

// HopLength returns the configured hop length in samples
func (w *Windower) HopLength() int {
	return w.hopLength
}

// NumFrames returns the number of frames produced for a buffer of n samples:
// ceil(max(n-frameLength, 0)/hopLength) + 1. A buffer shorter than one frame
// still yields exactly one padded frame; an empty buffer yields none.
func (w *Windower) NumFrames(n int) int {
	if n <= 0 {
		return 0
	}
	if n <= w.frameLength {
		return 1
	}
	return (n-w.frameLength+w.hopLength-1)/w.hopLength + 1
}

// Frames slices the buffer into frames. Each frame owns a copy of its
// samples, so the caller's buffer is never aliased or mutated.
func (w *Windower) Frames(buffer []float64) []Frame {
	numFrames := w.NumFrames(len(buffer))
	frames := make([]Frame, 0, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * w.hopLength
		samples := make([]float64, w.frameLength)

		// copy stops at the end of the buffer; the remainder of the
		// destination stays zero, which is the trailing-edge padding
		copy(samples, buffer[start:])

		frames = append(frames, Frame{
			Samples: samples,
			Index:   i,
			Start:   start,
		})
	}

	return frames
}
