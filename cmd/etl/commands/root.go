// Package commands holds the etl CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twinforge/aasx-etl/internal/bootstrap"
	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/usecase"
	"github.com/twinforge/aasx-etl/internal/observability/logging"
)

const timeRounding = time.Millisecond

var (
	flagConfig     string
	flagOutputDir  string
	flagParallel   bool
	flagMaxWorkers int
	flagVerbose    bool
	flagCheck      bool
)

var rootCmd = &cobra.Command{
	Use:   "etl [files or directory]",
	Short: "Process AASX package files into relational, vector, and graph stores",
	Long: `Process Asset Administration Shell package files (.aasx) through an
extract, transform, load pipeline.

Each file is extracted with the first working strategy, cleaned and
enriched with quality metadata, then exported to the configured output
projections and loaded into the relational store. Vector and graph
loading are enabled through configuration.

Examples:
  etl plant_floor.aasx                 # one file
  etl packages/                        # every .aasx in a directory
  etl --parallel --max-workers 8 packages/
  etl --check                          # probe configured dependencies`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagCheck {
			return runCheck(cmd.Context())
		}
		if len(args) == 0 {
			return cmd.Help()
		}
		return runProcess(cmd.Context(), args)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output-dir", "", "override output directory")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	rootCmd.Flags().BoolVar(&flagParallel, "parallel", false, "process directory files in parallel")
	rootCmd.Flags().IntVar(&flagMaxWorkers, "max-workers", 0, "worker count for parallel mode")
	rootCmd.Flags().BoolVar(&flagCheck, "check", false, "probe configured dependencies and exit")

	rootCmd.AddCommand(reportCmd, ragExportCmd, searchCmd, enqueueCmd)
}

// loadConfig merges env configuration, the optional YAML file, and flag
// overrides.
func loadConfig() (config.Config, error) {
	var cfg config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.Load()
	}

	if flagOutputDir != "" {
		cfg.Load.OutputDirectory = flagOutputDir
	}
	if flagParallel {
		cfg.Pipeline.Parallel = true
	}
	if flagMaxWorkers > 0 {
		cfg.Pipeline.MaxWorkers = flagMaxWorkers
	}
	return cfg, cfg.Validate()
}

func buildApp() (*bootstrap.App, *usecase.Pipeline, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := logging.NewCLILogger(flagVerbose)

	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	pipeline := usecase.NewPipeline(cfg.Pipeline, app.Factory, logger, nil)
	return app, pipeline, logger, nil
}

func runProcess(ctx context.Context, args []string) error {
	app, pipeline, logger, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	failed := 0
	processed := 0

	if len(args) == 1 {
		if info, statErr := os.Stat(args[0]); statErr == nil && info.IsDir() {
			batch, err := pipeline.ProcessDirectory(ctx, args[0])
			if err != nil {
				return err
			}
			printBatchSummary(batch)
			if batch.FilesFailed > 0 {
				return fmt.Errorf("%d of %d files failed", batch.FilesFailed, batch.FilesFound)
			}
			return nil
		}
	}

	for _, path := range args {
		result := pipeline.ProcessFile(ctx, path)
		printRunResult(result)
		if result.Status == domain.StatusCompleted {
			processed++
		} else {
			failed++
		}
	}

	logger.Info("run finished", "processed", processed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, processed+failed)
	}
	return nil
}

func printRunResult(result *domain.RunResult) {
	if result.Status == domain.StatusCompleted {
		fmt.Printf("%s: ok (%s)\n", result.FilePath, result.ProcessingTime.Round(timeRounding))
		return
	}
	fmt.Printf("%s: FAILED\n", result.FilePath)
	for _, msg := range result.Errors {
		fmt.Printf("  %s\n", msg)
	}
}

func printBatchSummary(batch *domain.BatchResult) {
	for _, result := range batch.Results {
		printRunResult(result)
	}
	fmt.Printf("\n%d files found, %d processed, %d failed in %s (avg %s/file)\n",
		batch.FilesFound,
		batch.FilesProcessed,
		batch.FilesFailed,
		batch.TotalTime.Round(timeRounding),
		batch.AverageTimePerFile.Round(timeRounding),
	)
}
