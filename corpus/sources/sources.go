package sources

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yossiferoz/Husher/corpus"
	"github.com/yossiferoz/Husher/corpus/config"
	"github.com/yossiferoz/Husher/corpus/labelers"
	"github.com/yossiferoz/Husher/logging"
)

// Source names carried into sample provenance
const (
	SourceCommonVoice = "mozilla_cv"
	SourceOpenSLR     = "openslr"
	SourceCustom      = "custom"
)

// LoadCommonVoiceIndex reads a Common Voice-style train.tsv (columns "path"
// and "sentence") and returns heuristic-labeled tasks for the clips it
// references. When filter is non-empty, only sentences containing it are
// kept; audio paths resolve under dir/clips.
func LoadCommonVoiceIndex(dir, filter string) ([]corpus.FileTask, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "sources",
		"function":  "LoadCommonVoiceIndex",
		"dir":       dir,
	})

	indexPath := filepath.Join(dir, "train.tsv")
	file, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", indexPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = '\t'
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %v: %w", indexPath, err, config.ErrInvalidConfig)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("index %s is empty: %w", indexPath, config.ErrInvalidConfig)
	}

	columns := headerIndex(records[0])
	pathCol, ok := columns["path"]
	if !ok {
		return nil, fmt.Errorf("index %s has no \"path\" column: %w", indexPath, config.ErrInvalidConfig)
	}
	sentenceCol, ok := columns["sentence"]
	if !ok {
		return nil, fmt.Errorf("index %s has no \"sentence\" column: %w", indexPath, config.ErrInvalidConfig)
	}

	var tasks []corpus.FileTask
	for _, record := range records[1:] {
		if len(record) <= pathCol || len(record) <= sentenceCol {
			continue
		}

		sentence := record[sentenceCol]
		if filter != "" && !strings.Contains(sentence, filter) {
			continue
		}

		tasks = append(tasks, corpus.FileTask{
			Path:       filepath.Join(dir, "clips", record[pathCol]),
			Source:     SourceCommonVoice,
			Transcript: sentence,
			Strategy:   config.StrategyHeuristic,
		})
	}

	logger.Info("Loaded Common Voice index", logging.Fields{
		"rows":  len(records) - 1,
		"tasks": len(tasks),
	})

	return tasks, nil
}

// ScanAudioDir walks a directory tree for .wav files and returns heuristic
// tasks using each filename stem as the transcript placeholder. This matches
// the OpenSLR layout, where no sentence-level index ships with the audio.
func ScanAudioDir(dir, source string) ([]corpus.FileTask, error) {
	var tasks []corpus.FileTask

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".wav") {
			return nil
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		tasks = append(tasks, corpus.FileTask{
			Path:       path,
			Source:     source,
			Transcript: stem,
			Strategy:   config.StrategyHeuristic,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	return tasks, nil
}

// LoadAnnotations reads an annotations.csv with precise span labels
// (columns: filename, transcription, word, speaker_id, positions) and returns
// span-labeled tasks. Malformed span strings are a configuration error here
// at load time, before any audio is processed.
func LoadAnnotations(dir string) ([]corpus.FileTask, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "sources",
		"function":  "LoadAnnotations",
		"dir":       dir,
	})

	annotationsPath := filepath.Join(dir, "annotations.csv")
	file, err := os.Open(annotationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotations %s: %w", annotationsPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse annotations %s: %v: %w", annotationsPath, err, config.ErrInvalidConfig)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("annotations %s are empty: %w", annotationsPath, config.ErrInvalidConfig)
	}

	columns := headerIndex(records[0])
	filenameCol, ok := columns["filename"]
	if !ok {
		return nil, fmt.Errorf("annotations %s have no \"filename\" column: %w", annotationsPath, config.ErrInvalidConfig)
	}

	spanCol, hasSpans := columns["positions"]
	if !hasSpans {
		// Older annotation sheets used the phoneme-specific column name
		spanCol, hasSpans = columns["het_positions"]
	}
	if !hasSpans {
		return nil, fmt.Errorf("annotations %s have no span column: %w", annotationsPath, config.ErrInvalidConfig)
	}

	var tasks []corpus.FileTask
	for i, record := range records[1:] {
		if len(record) <= filenameCol {
			continue
		}

		spans, err := labelers.ParseSpans(cell(record, spanCol))
		if err != nil {
			return nil, fmt.Errorf("annotations %s row %d: %w", annotationsPath, i+2, err)
		}

		tasks = append(tasks, corpus.FileTask{
			Path:       filepath.Join(dir, record[filenameCol]),
			Source:     SourceCustom,
			Transcript: cell(record, column(columns, "transcription")),
			Word:       cell(record, column(columns, "word")),
			Speaker:    cell(record, column(columns, "speaker_id")),
			Strategy:   config.StrategySpans,
			Spans:      spans,
		})
	}

	logger.Info("Loaded annotations", logging.Fields{
		"tasks": len(tasks),
	})

	return tasks, nil
}

// headerIndex maps lowercased column names to their positions
func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

// column returns a column's position, or -1 when the header lacks it
func column(columns map[string]int, name string) int {
	if col, ok := columns[name]; ok {
		return col
	}
	return -1
}

// cell safely reads a column that may be absent from short rows
func cell(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return record[col]
}
