package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yossiferoz/Husher/corpus"
	"github.com/yossiferoz/Husher/corpus/config"
	"github.com/yossiferoz/Husher/corpus/sources"
	"github.com/yossiferoz/Husher/dataset"
	"github.com/yossiferoz/Husher/logging"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes: 0 success, 1 general failure, 2 usage, 3 configuration,
// 4 empty build, 130 interrupt.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitConfig    = 3
	ExitNoData    = 4
	ExitInterrupt = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:     "husher-corpus",
		Short:   "Build labeled training datasets for guttural phoneme detection",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Errors are printed once, in main.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// buildOptions holds the validated options for the build command.
type buildOptions struct {
	dataDir    string
	outputDir  string
	datasets   []string
	configPath string
	sampleRate int
	workers    int
	verbose    bool
}

func buildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Process source audio into a feature/label dataset directory",
		Long: `Build decodes source audio, slices it into fixed-length frames, labels
each frame and extracts its feature vector, then writes the result as
features.npy, labels.npy and metadata.csv under the output directory.

Source layouts under --data-dir:
  common_voice/  train.tsv index with audio under clips/
  openslr/       bare .wav files, any directory depth
  custom/        annotations.csv with per-file phoneme time spans`,
		Example: `  husher-corpus build --data-dir data --output-dir out
  husher-corpus build --datasets mozilla,custom --workers 8
  husher-corpus build --config corpus.yaml --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "data", "Root directory of source datasets")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "training_data", "Dataset output directory")
	cmd.Flags().StringSliceVar(&opts.datasets, "datasets", []string{"all"}, "Datasets to include: mozilla, openslr, custom, all")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML build configuration file")
	cmd.Flags().IntVar(&opts.sampleRate, "sample-rate", 0, "Target sample rate in Hz (overrides config)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Parallel file workers (overrides config)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runBuild(ctx context.Context, opts buildOptions) error {
	if opts.verbose {
		logger := logging.NewDefaultLogger()
		logger.SetLevel(logging.DebugLevel)
		logging.SetGlobalLogger(logger)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	tasks, err := collectTasks(opts.dataDir, opts.datasets, cfg)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("no source files found under %s: %w", opts.dataDir, corpus.ErrNoFilesProcessed)
	}

	assembler, err := corpus.NewAssembler(cfg)
	if err != nil {
		return err
	}

	built, report, err := assembler.Build(ctx, tasks)
	if err != nil {
		return err
	}

	if err := dataset.NewWriter().Write(opts.outputDir, built, report); err != nil {
		return err
	}

	printReport(os.Stdout, opts.outputDir, built.Dimension(), report)
	return nil
}

// loadConfig layers the YAML file over defaults and applies flag overrides.
func loadConfig(opts buildOptions) (*config.BuildConfig, error) {
	cfg := config.DefaultBuildConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.sampleRate > 0 {
		cfg.SampleRate = opts.sampleRate
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// collectTasks gathers file tasks from the selected dataset layouts. A
// selected dataset whose directory is absent is skipped with a warning, so
// one machine can build from whichever sources it has synced.
func collectTasks(dataDir string, selected []string, cfg *config.BuildConfig) ([]corpus.FileTask, error) {
	include := map[string]bool{}
	for _, name := range selected {
		switch name {
		case "all":
			include["mozilla"] = true
			include["openslr"] = true
			include["custom"] = true
		case "mozilla", "openslr", "custom":
			include[name] = true
		default:
			return nil, fmt.Errorf("unknown dataset %q (want mozilla, openslr, custom or all): %w",
				name, config.ErrInvalidConfig)
		}
	}

	// Common Voice sentences are only worth decoding when they can contain
	// the target phoneme at all.
	filter := ""
	if len(cfg.Heuristic.MarkerWords) > 0 {
		filter = cfg.Heuristic.MarkerWords[len(cfg.Heuristic.MarkerWords)-1]
	}

	var tasks []corpus.FileTask

	if include["mozilla"] {
		loaded, err := loadOptional(filepath.Join(dataDir, "common_voice"), func(dir string) ([]corpus.FileTask, error) {
			return sources.LoadCommonVoiceIndex(dir, filter)
		})
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, loaded...)
	}

	if include["openslr"] {
		loaded, err := loadOptional(filepath.Join(dataDir, "openslr"), func(dir string) ([]corpus.FileTask, error) {
			return sources.ScanAudioDir(dir, sources.SourceOpenSLR)
		})
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, loaded...)
	}

	if include["custom"] {
		loaded, err := loadOptional(filepath.Join(dataDir, "custom"), sources.LoadAnnotations)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, loaded...)
	}

	return tasks, nil
}

func loadOptional(dir string, load func(string) ([]corpus.FileTask, error)) ([]corpus.FileTask, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		logging.Warn("Dataset directory missing, skipping", logging.Fields{"dir": dir})
		return nil, nil
	}
	return load(dir)
}

func printReport(w *os.File, outputDir string, dimension int, report *corpus.BuildReport) {
	fmt.Fprintf(w, "Dataset written to %s\n", outputDir)
	fmt.Fprintf(w, "  files:     %d processed, %d skipped\n", report.FilesSucceeded, len(report.Skipped))
	fmt.Fprintf(w, "  samples:   %d (dimension %d)\n", report.Samples, dimension)
	fmt.Fprintf(w, "  positives: %d\n", report.Positives)
	fmt.Fprintf(w, "  negatives: %d\n", report.Negatives)
	for _, skip := range report.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", skip.Path, skip.Reason)
	}
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <dataset-dir>",
		Short: "Summarize a previously written dataset directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dataset.NewReader().Read(args[0])
			if err != nil {
				return err
			}

			positives := c.Positives()
			fmt.Fprintf(os.Stdout, "%s: %d samples, dimension %d, %d positive / %d negative\n",
				args[0], c.Len(), c.Dimension(), positives, c.Len()-positives)
			return nil
		},
	}
	return cmd
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, corpus.ErrNoFilesProcessed):
		return ExitNoData
	default:
		return ExitGeneral
	}
}
