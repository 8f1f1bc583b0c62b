package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/yossiferoz/Husher/corpus"
)

// Reader loads a dataset directory back into a corpus. It exists for
// inspection tooling and round-trip tests; training consumers read the .npy
// files directly.
type Reader struct{}

// NewReader creates a dataset reader
func NewReader() *Reader {
	return &Reader{}
}

// Read loads the dataset under dir. The three artifacts must agree on the
// sample count; any mismatch means the directory was assembled by hand or
// corrupted, and is refused.
func (r *Reader) Read(dir string) (*corpus.Corpus, error) {
	features, err := r.readFeatures(filepath.Join(dir, FeaturesFile))
	if err != nil {
		return nil, err
	}

	labels, err := r.readLabels(filepath.Join(dir, LabelsFile))
	if err != nil {
		return nil, err
	}

	provenance, err := r.readMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}

	rows, cols := features.Dims()
	if len(labels) != rows || len(provenance) != rows {
		return nil, fmt.Errorf("dataset %s is misaligned: %d feature rows, %d labels, %d metadata rows: %w",
			dir, rows, len(labels), len(provenance), ErrPersistence)
	}

	c := corpus.NewCorpus(cols)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		mat.Row(row, i, features)

		sample := corpus.Sample{
			Features:   row,
			Label:      labels[i] != 0,
			Provenance: provenance[i],
		}
		if err := c.Append(sample); err != nil {
			return nil, fmt.Errorf("dataset %s row %d: %v: %w", dir, i, err, ErrPersistence)
		}
	}

	return c, nil
}

func (r *Reader) readFeatures(path string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v: %w", path, err, ErrPersistence)
	}
	defer file.Close()

	var features mat.Dense
	if err := npyio.Read(file, &features); err != nil {
		return nil, fmt.Errorf("failed to read feature matrix %s: %v: %w", path, err, ErrPersistence)
	}
	return &features, nil
}

func (r *Reader) readLabels(path string) ([]int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v: %w", path, err, ErrPersistence)
	}
	defer file.Close()

	var labels []int64
	if err := npyio.Read(file, &labels); err != nil {
		return nil, fmt.Errorf("failed to read label vector %s: %v: %w", path, err, ErrPersistence)
	}
	return labels, nil
}

func (r *Reader) readMetadata(path string) ([]corpus.Provenance, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v: %w", path, err, ErrPersistence)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %v: %w", path, err, ErrPersistence)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metadata %s has no header: %w", path, ErrPersistence)
	}

	provenance := make([]corpus.Provenance, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(metadataHeader) {
			return nil, fmt.Errorf("metadata %s row %d has %d columns, want %d: %w",
				path, i+2, len(record), len(metadataHeader), ErrPersistence)
		}

		segment, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("metadata %s row %d has bad segment id %q: %w", path, i+2, record[2], ErrPersistence)
		}

		provenance = append(provenance, corpus.Provenance{
			Source:     record[0],
			Path:       record[1],
			FrameIndex: segment,
			Transcript: record[3],
			Word:       record[4],
			Speaker:    record[5],
		})
	}

	return provenance, nil
}
