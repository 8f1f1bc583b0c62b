package labelers

import (
	"fmt"
	"strings"

	"github.com/yossiferoz/Husher/algorithms/spectral"
	"github.com/yossiferoz/Husher/algorithms/temporal"
	"github.com/yossiferoz/Husher/corpus/analyzers"
	"github.com/yossiferoz/Husher/corpus/config"
)

// Labeler assigns a boolean label to each frame of one file. A labeler is
// built per file with that file's context (transcript or annotated spans) and
// applied uniformly to all of its frames; strategies are never mixed within
// one file.
type Labeler interface {
	Assign(frame *analyzers.Frame) bool
	Strategy() config.LabelStrategy
}

// HeuristicLabeler implements the transcript-gated acoustic heuristic: if the
// transcript contains no target marker, every frame is negative without
// further computation. Otherwise a frame is positive when its mean-square
// energy falls strictly inside the configured open interval and its
// normalized zero-crossing rate exceeds the configured minimum.
//
// This is a heuristic for fricative-like content, not ground truth; expect
// both false positives and false negatives.
type HeuristicLabeler struct {
	gate      bool
	energyMin float64
	energyMax float64
	minZCR    float64
	zcr       *spectral.ZeroCrossingRate
}

// NewHeuristicLabeler creates a heuristic labeler for one file's transcript
func NewHeuristicLabeler(cfg config.HeuristicConfig, transcript string, sampleRate int) *HeuristicLabeler {
	return &HeuristicLabeler{
		gate:      containsMarker(transcript, cfg.MarkerWords),
		energyMin: cfg.EnergyMin,
		energyMax: cfg.EnergyMax,
		minZCR:    cfg.MinZCR,
		zcr:       spectral.NewZeroCrossingRate(sampleRate),
	}
}

// Assign labels one frame
func (h *HeuristicLabeler) Assign(frame *analyzers.Frame) bool {
	if !h.gate {
		return false
	}

	energy := temporal.MeanSquare(frame.Samples)
	if energy <= h.energyMin || energy >= h.energyMax {
		return false
	}

	return h.zcr.ComputeNormalized(frame.Samples) > h.minZCR
}

// Strategy reports the labeling strategy
func (h *HeuristicLabeler) Strategy() config.LabelStrategy {
	return config.StrategyHeuristic
}

// GateOpen reports whether the transcript passed the lexical marker gate
func (h *HeuristicLabeler) GateOpen() bool {
	return h.gate
}

func containsMarker(transcript string, markers []string) bool {
	for _, marker := range markers {
		if marker != "" && strings.Contains(transcript, marker) {
			return true
		}
	}
	return false
}

// SpanLabeler labels frames by overlap against annotated time spans. A frame
// [start, end) is positive iff it touches at least one span:
// frameStart <= spanEnd && frameEnd >= spanStart.
type SpanLabeler struct {
	spans      []LabelSpan
	sampleRate int
}

// NewSpanLabeler creates a span labeler for one file's annotations. Spans
// must already be validated (ParseSpans raises malformed spans at load time).
func NewSpanLabeler(spans []LabelSpan, sampleRate int) (*SpanLabeler, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d: %w", sampleRate, config.ErrInvalidConfig)
	}

	for _, span := range spans {
		if span.End <= span.Start {
			return nil, fmt.Errorf("span [%g, %g) is empty or inverted: %w", span.Start, span.End, config.ErrInvalidConfig)
		}
	}

	return &SpanLabeler{
		spans:      spans,
		sampleRate: sampleRate,
	}, nil
}

// Assign labels one frame by the inclusive-touching overlap rule
func (s *SpanLabeler) Assign(frame *analyzers.Frame) bool {
	frameStart := frame.StartTime(s.sampleRate)
	frameEnd := frame.EndTime(s.sampleRate)

	for _, span := range s.spans {
		if frameStart <= span.End && frameEnd >= span.Start {
			return true
		}
	}

	return false
}

// Strategy reports the labeling strategy
func (s *SpanLabeler) Strategy() config.LabelStrategy {
	return config.StrategySpans
}
