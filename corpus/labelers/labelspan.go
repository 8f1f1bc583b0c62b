package labelers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yossiferoz/Husher/corpus/config"
)

// LabelSpan is a half-open time interval [Start, End) in seconds marking a
// positive region within one audio file
type LabelSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the span length in seconds
func (s LabelSpan) Duration() float64 {
	return s.End - s.Start
}

// ParseSpans parses a comma-separated list of "start-end" second pairs, the
// annotation format of the source CSV (e.g. "0.12-0.20,1.00-1.10"). An empty
// string yields no spans. Zero-length or inverted spans are a configuration
// error raised here at load time, never silently skipped.
func ParseSpans(value string) ([]LabelSpan, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	spans := make([]LabelSpan, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)

		startStr, endStr, found := strings.Cut(part, "-")
		if !found {
			return nil, fmt.Errorf("malformed span %q, want \"start-end\": %w", part, config.ErrInvalidConfig)
		}

		start, err := strconv.ParseFloat(strings.TrimSpace(startStr), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed span start %q: %w", part, config.ErrInvalidConfig)
		}

		end, err := strconv.ParseFloat(strings.TrimSpace(endStr), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed span end %q: %w", part, config.ErrInvalidConfig)
		}

		if start < 0 {
			return nil, fmt.Errorf("span %q starts before 0s: %w", part, config.ErrInvalidConfig)
		}
		if end <= start {
			return nil, fmt.Errorf("span %q is empty or inverted: %w", part, config.ErrInvalidConfig)
		}

		spans = append(spans, LabelSpan{Start: start, End: end})
	}

	return spans, nil
}
