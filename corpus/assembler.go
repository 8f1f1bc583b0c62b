package corpus

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yossiferoz/Husher/corpus/analyzers"
	"github.com/yossiferoz/Husher/corpus/config"
	"github.com/yossiferoz/Husher/corpus/extractors"
	"github.com/yossiferoz/Husher/corpus/labelers"
	"github.com/yossiferoz/Husher/logging"
	"github.com/yossiferoz/Husher/transcode"
)

// DecodeFunc loads one audio file as mono PCM at the build sample rate.
// Injectable so tests can feed synthetic buffers without FFmpeg.
type DecodeFunc func(path string) ([]float64, error)

// Assembler fans files through the windower, the per-file labeler and the
// feature extractor, and accumulates the resulting samples into one corpus.
// Files are processed in parallel; the output order is the input task order
// regardless of worker scheduling, so identical inputs and configuration
// always yield an identical corpus.
type Assembler struct {
	cfg      *config.BuildConfig
	windower *analyzers.Windower
	decode   DecodeFunc
	logger   logging.Logger
}

// Option configures an Assembler
type Option func(*Assembler)

// WithDecodeFunc replaces the FFmpeg-backed audio decoder
func WithDecodeFunc(decode DecodeFunc) Option {
	return func(a *Assembler) {
		if decode != nil {
			a.decode = decode
		}
	}
}

// WithLogger replaces the global logger
func WithLogger(logger logging.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler creates an assembler. Configuration errors surface here,
// before any audio is touched.
func NewAssembler(cfg *config.BuildConfig, opts ...Option) (*Assembler, error) {
	if cfg == nil {
		cfg = config.DefaultBuildConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	windower, err := analyzers.NewWindower(cfg.FrameSamples(), cfg.HopSamples())
	if err != nil {
		return nil, err
	}

	// Probe extractor construction so feature misconfiguration fails fast
	// rather than per file
	if _, err := extractors.NewFeatureExtractor(cfg.Feature, cfg.SampleRate, cfg.FrameSamples()); err != nil {
		return nil, err
	}

	a := &Assembler{
		cfg:      cfg,
		windower: windower,
		logger: logging.WithFields(logging.Fields{
			"component": "corpus_assembler",
		}),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.decode == nil {
		decoder := transcode.NewDecoder(&transcode.DecoderConfig{
			TargetSampleRate: cfg.SampleRate,
			TargetChannels:   1,
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
			Timeout:          5 * time.Minute,
		})
		a.decode = func(path string) ([]float64, error) {
			audio, err := decoder.DecodeFile(path)
			if err != nil {
				return nil, err
			}
			return audio.PCM, nil
		}
	}

	return a, nil
}

// Build processes every task and returns the assembled corpus with its
// report. A single bad file is recorded and skipped; the build fails only
// when zero files succeed or the context is cancelled. Cancellation is
// coarse-grained: in-flight files finish, queued files are abandoned.
func (a *Assembler) Build(ctx context.Context, tasks []FileTask) (*Corpus, *BuildReport, error) {
	// Malformed tasks are configuration errors: fail fast before processing
	for _, task := range tasks {
		switch task.Strategy {
		case config.StrategyHeuristic, config.StrategySpans:
		default:
			return nil, nil, fmt.Errorf("unknown label strategy %q for %s: %w",
				task.Strategy, task.Path, config.ErrInvalidConfig)
		}
	}

	a.logger.Info("Starting corpus build", logging.Fields{
		"files":        len(tasks),
		"frame_length": a.cfg.FrameSamples(),
		"hop_length":   a.cfg.HopSamples(),
		"workers":      a.cfg.Workers,
	})

	results := make([][]Sample, len(tasks))
	skips := make([]*SkipRecord, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for i, task := range tasks {
		i := i
		task := task
		g.Go(func() error {
			// Abort between files on cancellation; no mid-file cancel
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			samples, err := a.processFile(task)
			if err != nil {
				a.logger.Warn("Skipping file", logging.Fields{
					"path":   task.Path,
					"source": task.Source,
					"reason": err.Error(),
				})
				skips[i] = &SkipRecord{Path: task.Path, Reason: err.Error()}
				return nil
			}

			results[i] = samples
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Merge per-file results in task order
	built := NewCorpus(a.cfg.Feature.Dimension())
	report := &BuildReport{FilesAttempted: len(tasks)}

	for i := range tasks {
		if skips[i] != nil {
			report.Skipped = append(report.Skipped, *skips[i])
			continue
		}
		report.FilesSucceeded++
		for _, sample := range results[i] {
			if err := built.Append(sample); err != nil {
				return nil, nil, err
			}
		}
	}

	if report.FilesAttempted > 0 && report.FilesSucceeded == 0 {
		return nil, report, fmt.Errorf("all %d files failed: %w", report.FilesAttempted, ErrNoFilesProcessed)
	}

	report.Samples = built.Len()
	report.Positives = built.Positives()
	report.Negatives = report.Samples - report.Positives

	a.logger.Info("Corpus build complete", logging.Fields{
		"files_succeeded": report.FilesSucceeded,
		"files_skipped":   len(report.Skipped),
		"samples":         report.Samples,
		"positives":       report.Positives,
		"negatives":       report.Negatives,
	})

	return built, report, nil
}

// processFile runs the windower -> labeler -> extractor pipeline for one file
func (a *Assembler) processFile(task FileTask) ([]Sample, error) {
	pcm, err := a.decode(task.Path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", task.Path, err, ErrFileProcessing)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("decode %s: empty audio: %w", task.Path, ErrFileProcessing)
	}

	labeler, err := a.makeLabeler(task)
	if err != nil {
		return nil, err
	}

	// Extractors cache analysis state, so each file gets its own
	extractor, err := extractors.NewFeatureExtractor(a.cfg.Feature, a.cfg.SampleRate, a.cfg.FrameSamples())
	if err != nil {
		return nil, err
	}

	frames := a.windower.Frames(pcm)
	samples := make([]Sample, 0, len(frames))

	for i := range frames {
		frame := &frames[i]

		vector, err := extractor.Extract(frame)
		if err != nil {
			return nil, fmt.Errorf("extract %s frame %d: %v: %w", task.Path, frame.Index, err, ErrFileProcessing)
		}

		samples = append(samples, Sample{
			Features: vector,
			Label:    labeler.Assign(frame),
			Provenance: Provenance{
				Source:     task.Source,
				Path:       task.Path,
				FrameIndex: frame.Index,
				Transcript: task.Transcript,
				Word:       task.Word,
				Speaker:    task.Speaker,
			},
		})
	}

	return samples, nil
}

func (a *Assembler) makeLabeler(task FileTask) (labelers.Labeler, error) {
	switch task.Strategy {
	case config.StrategyHeuristic:
		return labelers.NewHeuristicLabeler(a.cfg.Heuristic, task.Transcript, a.cfg.SampleRate), nil
	case config.StrategySpans:
		return labelers.NewSpanLabeler(task.Spans, a.cfg.SampleRate)
	default:
		return nil, fmt.Errorf("unknown label strategy %q: %w", task.Strategy, config.ErrInvalidConfig)
	}
}
