package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twinforge/aasx-etl/internal/infrastructure/queue/nats"
	"github.com/twinforge/aasx-etl/internal/observability/logging"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <files...>",
	Short: "Publish package files to the worker queue",
	Long: `Publish package file paths to the worker queue instead of processing
them locally. A running worker picks them up.

Example:
  etl enqueue packages/*.aasx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := logging.NewCLILogger(flagVerbose)

		queue, err := nats.New(cfg.Worker.NATSURL, cfg.Worker.NATSSubject, logger)
		if err != nil {
			return err
		}
		defer queue.Close()

		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", path, err)
			}
			if err := queue.PublishPackage(cmd.Context(), abs); err != nil {
				return fmt.Errorf("publish %s: %w", path, err)
			}
			fmt.Printf("queued %s\n", abs)
		}
		return nil
	},
}
