package corpus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/yossiferoz/Husher/corpus/config"
	"github.com/yossiferoz/Husher/corpus/labelers"
	"github.com/yossiferoz/Husher/logging"
)

func testBuildConfig() *config.BuildConfig {
	cfg := config.DefaultBuildConfig()
	cfg.SampleRate = 8000
	cfg.FrameLength = 400
	cfg.HopLength = 240
	cfg.Feature.SubWindowSize = 128
	cfg.Feature.SubHopSize = 64
	cfg.Workers = 4
	return cfg
}

// fakeDecode serves synthetic PCM keyed by path; unknown paths fail like a
// missing file would
func fakeDecode(buffers map[string][]float64) DecodeFunc {
	return func(path string) ([]float64, error) {
		pcm, ok := buffers[path]
		if !ok {
			return nil, fmt.Errorf("no such file: %s", path)
		}
		return pcm, nil
	}
}

func sine(n int, freq float64, sampleRate int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func newTestAssembler(t *testing.T, buffers map[string][]float64) *Assembler {
	t.Helper()

	assembler, err := NewAssembler(testBuildConfig(),
		WithDecodeFunc(fakeDecode(buffers)),
		WithLogger(&logging.NoOpLogger{}))
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	return assembler
}

func heuristicTask(path, transcript string) FileTask {
	return FileTask{
		Path:       path,
		Source:     "test",
		Transcript: transcript,
		Strategy:   config.StrategyHeuristic,
	}
}

func TestBuildSkipsBadFilesAndContinues(t *testing.T) {
	t.Parallel()

	buffers := map[string][]float64{
		"a.wav": sine(2000, 440, 8000),
		"c.wav": sine(2000, 880, 8000),
	}
	assembler := newTestAssembler(t, buffers)

	tasks := []FileTask{
		heuristicTask("a.wav", "שלום"),
		heuristicTask("b.wav", "שלום"), // not in buffers: decode fails
		heuristicTask("c.wav", "שלום"),
	}

	built, report, err := assembler.Build(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.FilesAttempted != 3 || report.FilesSucceeded != 2 {
		t.Errorf("report = %d attempted / %d succeeded, want 3 / 2", report.FilesAttempted, report.FilesSucceeded)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Path != "b.wav" {
		t.Fatalf("Skipped = %+v, want one record for b.wav", report.Skipped)
	}

	// 2000 samples at frame 400 / hop 240 yield 8 frames per file
	if built.Len() != 16 {
		t.Errorf("corpus has %d samples, want 16", built.Len())
	}
	if report.Samples != built.Len() {
		t.Errorf("report.Samples = %d, corpus has %d", report.Samples, built.Len())
	}
}

func TestBuildFailsWhenAllFilesFail(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, nil)

	tasks := []FileTask{
		heuristicTask("missing1.wav", ""),
		heuristicTask("missing2.wav", ""),
	}

	_, report, err := assembler.Build(context.Background(), tasks)
	if !errors.Is(err, ErrNoFilesProcessed) {
		t.Fatalf("error = %v, want ErrNoFilesProcessed", err)
	}
	if report == nil || len(report.Skipped) != 2 {
		t.Errorf("report = %+v, want 2 skip records", report)
	}
}

func TestBuildRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, map[string][]float64{
		"a.wav": sine(2000, 440, 8000),
	})

	tasks := []FileTask{{Path: "a.wav", Strategy: "majority-vote"}}

	_, _, err := assembler.Build(context.Background(), tasks)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("error = %v, want configuration error", err)
	}
}

func TestBuildOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	buffers := map[string][]float64{}
	var tasks []FileTask
	for i := 0; i < 12; i++ {
		path := fmt.Sprintf("file%02d.wav", i)
		buffers[path] = sine(2000, 200+float64(i)*100, 8000)
		tasks = append(tasks, heuristicTask(path, "חיים"))
	}
	assembler := newTestAssembler(t, buffers)

	first, _, err := assembler.Build(context.Background(), tasks)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, _, err := assembler.Build(context.Background(), tasks)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	if first.Len() != second.Len() {
		t.Fatalf("builds differ in size: %d vs %d", first.Len(), second.Len())
	}

	for i := 0; i < first.Len(); i++ {
		a, b := first.Samples()[i], second.Samples()[i]
		if a.Provenance != b.Provenance {
			t.Fatalf("sample %d provenance differs: %+v vs %+v", i, a.Provenance, b.Provenance)
		}
		if a.Label != b.Label {
			t.Fatalf("sample %d label differs", i)
		}
		for j := range a.Features {
			if a.Features[j] != b.Features[j] {
				t.Fatalf("sample %d feature %d differs: %g vs %g", i, j, a.Features[j], b.Features[j])
			}
		}
	}

	// Samples arrive in task order, frames in file order
	samples := first.Samples()
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1].Provenance, samples[i].Provenance
		if prev.Path == cur.Path && cur.FrameIndex != prev.FrameIndex+1 {
			t.Fatalf("frames out of order within %s: %d then %d", cur.Path, prev.FrameIndex, cur.FrameIndex)
		}
		if prev.Path != cur.Path && cur.FrameIndex != 0 {
			t.Fatalf("file %s does not start at frame 0", cur.Path)
		}
	}
}

func TestBuildSpanLabeling(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, map[string][]float64{
		"annotated.wav": sine(1000, 440, 8000),
	})

	tasks := []FileTask{{
		Path:     "annotated.wav",
		Source:   "custom",
		Word:     "חיים",
		Strategy: config.StrategySpans,
		Spans:    []labelers.LabelSpan{{Start: 0.01, End: 0.05}},
	}}

	built, report, err := assembler.Build(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 1000 samples yield 4 frames; the first two touch the span
	if built.Len() != 4 {
		t.Fatalf("corpus has %d samples, want 4", built.Len())
	}
	wantLabels := []bool{true, true, false, false}
	for i, sample := range built.Samples() {
		if sample.Label != wantLabels[i] {
			t.Errorf("frame %d label = %v, want %v", i, sample.Label, wantLabels[i])
		}
	}
	if report.Positives != 2 || report.Negatives != 2 {
		t.Errorf("report = %d positive / %d negative, want 2 / 2", report.Positives, report.Negatives)
	}
}

func TestBuildAllNegativeCorpusIsValid(t *testing.T) {
	t.Parallel()

	// Silence passes decoding but never the energy floor
	assembler := newTestAssembler(t, map[string][]float64{
		"quiet.wav": make([]float64, 2000),
	})

	built, report, err := assembler.Build(context.Background(), []FileTask{
		heuristicTask("quiet.wav", "חיים"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if built.Len() == 0 {
		t.Fatal("expected samples from a decodable file")
	}
	if report.Positives != 0 {
		t.Errorf("silence produced %d positives", report.Positives)
	}
}

func TestBuildEmptyTaskList(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, nil)

	built, report, err := assembler.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build with no tasks: %v", err)
	}
	if built.Len() != 0 || report.FilesAttempted != 0 {
		t.Errorf("empty build produced %d samples, %d attempted", built.Len(), report.FilesAttempted)
	}
}

func TestBuildCancelledContext(t *testing.T) {
	t.Parallel()

	assembler := newTestAssembler(t, map[string][]float64{
		"a.wav": sine(2000, 440, 8000),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := assembler.Build(ctx, []FileTask{heuristicTask("a.wav", "")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestCorpusAppendEnforcesDimension(t *testing.T) {
	t.Parallel()

	c := NewCorpus(42)
	err := c.Append(Sample{Features: make([]float64, 10)})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("error = %v, want configuration error", err)
	}

	if err := c.Append(Sample{Features: make([]float64, 42), Label: true}); err != nil {
		t.Fatalf("valid append failed: %v", err)
	}
	if c.Len() != 1 || c.Positives() != 1 {
		t.Errorf("corpus state = %d samples / %d positives, want 1 / 1", c.Len(), c.Positives())
	}
}
