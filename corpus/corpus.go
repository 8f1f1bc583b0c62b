package corpus

import (
	"errors"
	"fmt"

	"github.com/yossiferoz/Husher/corpus/config"
	"github.com/yossiferoz/Husher/corpus/labelers"
)

var (
	// ErrFileProcessing marks per-file failures (unreadable audio, missing
	// file). These are recovered: the file is skipped and the build continues.
	ErrFileProcessing = errors.New("file processing failed")

	// ErrNoFilesProcessed is returned when every file of a build failed
	ErrNoFilesProcessed = errors.New("no files processed successfully")
)

// Provenance records where a sample came from
type Provenance struct {
	Source     string `json:"source"`      // dataset name, e.g. "mozilla_cv"
	Path       string `json:"path"`        // originating audio file
	FrameIndex int    `json:"frame_index"` // 0-based frame position within the file
	Transcript string `json:"transcript,omitempty"`
	Word       string `json:"word,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
}

// Sample is one unit of training data: a feature vector, its label and its
// provenance. Samples are immutable after creation.
type Sample struct {
	Features   []float64
	Label      bool
	Provenance Provenance
}

// Corpus is an ordered sequence of samples with a fixed feature dimension.
// Feature rows, labels and metadata stay aligned by construction.
type Corpus struct {
	samples   []Sample
	dimension int
}

// NewCorpus creates an empty corpus for vectors of the given dimension
func NewCorpus(dimension int) *Corpus {
	return &Corpus{dimension: dimension}
}

// Append adds a sample, enforcing the corpus feature dimension
func (c *Corpus) Append(sample Sample) error {
	if len(sample.Features) != c.dimension {
		return fmt.Errorf("sample feature length %d does not match corpus dimension %d: %w",
			len(sample.Features), c.dimension, config.ErrInvalidConfig)
	}
	c.samples = append(c.samples, sample)
	return nil
}

// Samples returns the ordered sample sequence
func (c *Corpus) Samples() []Sample {
	return c.samples
}

// Len returns the number of samples
func (c *Corpus) Len() int {
	return len(c.samples)
}

// Dimension returns the feature vector length
func (c *Corpus) Dimension() int {
	return c.dimension
}

// Positives returns the number of positively labeled samples
func (c *Corpus) Positives() int {
	count := 0
	for _, sample := range c.samples {
		if sample.Label {
			count++
		}
	}
	return count
}

// FileTask describes one audio file to process: its location, provenance and
// labeling context. The strategy applies to every frame of the file.
type FileTask struct {
	Path       string
	Source     string
	Transcript string
	Word       string
	Speaker    string

	Strategy config.LabelStrategy
	Spans    []labelers.LabelSpan // used by StrategySpans only
}

// SkipRecord identifies a file dropped from the build and why
type SkipRecord struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BuildReport summarizes a build so silent data loss is always visible
type BuildReport struct {
	FilesAttempted int          `json:"files_attempted"`
	FilesSucceeded int          `json:"files_succeeded"`
	Skipped        []SkipRecord `json:"skipped,omitempty"`
	Samples        int          `json:"samples"`
	Positives      int          `json:"positives"`
	Negatives      int          `json:"negatives"`
}
