package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/yossiferoz/Husher/corpus"
	"github.com/yossiferoz/Husher/logging"
)

// ErrPersistence marks failures while writing or reading a dataset directory
var ErrPersistence = errors.New("dataset persistence failed")

// On-disk artifact names
const (
	FeaturesFile = "features.npy"
	LabelsFile   = "labels.npy"
	MetadataFile = "metadata.csv"
	ReportFile   = "build_report.json"
)

var metadataHeader = []string{"source", "original_file", "segment_id", "transcript", "word", "speaker_id", "label"}

// Writer persists a corpus as a dataset directory: a float64 feature matrix
// (features.npy), an int64 label vector (labels.npy), row-aligned provenance
// (metadata.csv) and the build report (build_report.json).
//
// Writes are staged: all artifacts land in <dir>.partial and the directory is
// renamed into place only after every file is written, so readers never see a
// half-written dataset under the destination path.
type Writer struct {
	logger logging.Logger
}

// NewWriter creates a dataset writer
func NewWriter() *Writer {
	return &Writer{
		logger: logging.WithFields(logging.Fields{
			"component": "dataset_writer",
		}),
	}
}

// Write persists the corpus and report under dir, replacing any previous
// dataset at that path. An empty corpus is refused: it usually means the
// build was misconfigured, and an all-zero dataset would fail silently much
// later, during training.
func (w *Writer) Write(dir string, c *corpus.Corpus, report *corpus.BuildReport) error {
	if c == nil || c.Len() == 0 {
		return fmt.Errorf("refusing to write empty dataset to %s: %w", dir, ErrPersistence)
	}

	staging := dir + ".partial"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("failed to clear staging directory %s: %v: %w", staging, err, ErrPersistence)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory %s: %v: %w", staging, err, ErrPersistence)
	}
	defer os.RemoveAll(staging)

	if err := w.writeFeatures(filepath.Join(staging, FeaturesFile), c); err != nil {
		return err
	}
	if err := w.writeLabels(filepath.Join(staging, LabelsFile), c); err != nil {
		return err
	}
	if err := w.writeMetadata(filepath.Join(staging, MetadataFile), c); err != nil {
		return err
	}
	if report != nil {
		if err := w.writeReport(filepath.Join(staging, ReportFile), report); err != nil {
			return err
		}
	}

	if err := replaceDir(staging, dir); err != nil {
		return fmt.Errorf("failed to move dataset into place at %s: %v: %w", dir, err, ErrPersistence)
	}

	w.logger.Info("Dataset written", logging.Fields{
		"dir":       dir,
		"samples":   c.Len(),
		"dimension": c.Dimension(),
		"positives": c.Positives(),
	})

	return nil
}

func (w *Writer) writeFeatures(path string, c *corpus.Corpus) error {
	samples := c.Samples()
	features := mat.NewDense(len(samples), c.Dimension(), nil)
	for i, sample := range samples {
		features.SetRow(i, sample.Features)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v: %w", path, err, ErrPersistence)
	}
	defer file.Close()

	if err := npyio.Write(file, features); err != nil {
		return fmt.Errorf("failed to write feature matrix %s: %v: %w", path, err, ErrPersistence)
	}
	return file.Close()
}

func (w *Writer) writeLabels(path string, c *corpus.Corpus) error {
	samples := c.Samples()
	labels := make([]int64, len(samples))
	for i, sample := range samples {
		if sample.Label {
			labels[i] = 1
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v: %w", path, err, ErrPersistence)
	}
	defer file.Close()

	if err := npyio.Write(file, labels); err != nil {
		return fmt.Errorf("failed to write label vector %s: %v: %w", path, err, ErrPersistence)
	}
	return file.Close()
}

func (w *Writer) writeMetadata(path string, c *corpus.Corpus) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v: %w", path, err, ErrPersistence)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(metadataHeader); err != nil {
		return fmt.Errorf("failed to write metadata header: %v: %w", err, ErrPersistence)
	}

	for _, sample := range c.Samples() {
		label := "0"
		if sample.Label {
			label = "1"
		}
		row := []string{
			sample.Provenance.Source,
			sample.Provenance.Path,
			strconv.Itoa(sample.Provenance.FrameIndex),
			sample.Provenance.Transcript,
			sample.Provenance.Word,
			sample.Provenance.Speaker,
			label,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write metadata row: %v: %w", err, ErrPersistence)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush metadata %s: %v: %w", path, err, ErrPersistence)
	}
	return file.Close()
}

func (w *Writer) writeReport(path string, report *corpus.BuildReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode build report: %v: %w", err, ErrPersistence)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write build report %s: %v: %w", path, err, ErrPersistence)
	}
	return nil
}

// replaceDir moves staging to dest. Any previous dataset is parked aside
// first, because rename cannot overwrite a non-empty directory.
func replaceDir(staging, dest string) error {
	old := dest + ".old"
	if err := os.RemoveAll(old); err != nil {
		return err
	}

	if _, err := os.Stat(dest); err == nil {
		if err := os.Rename(dest, old); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.Rename(staging, dest); err != nil {
		return err
	}

	return os.RemoveAll(old)
}
