package commands

import (
	"github.com/spf13/cobra"

	"github.com/twinforge/aasx-etl/internal/core/usecase"
)

var reportCmd = &cobra.Command{
	Use:   "report <output.json>",
	Short: "Validate components and write a pipeline report",
	Long: `Validate pipeline components and serialize the full configuration,
cumulative statistics, and per-component validation results to a JSON
report file.

Example:
  etl report pipeline_report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, pipeline, _, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		return pipeline.ExportReport(args[0], usecase.ComponentConfigs{
			Extract:   app.Config.Extract,
			Transform: app.Config.Transform,
			Load:      app.Config.Load,
		})
	},
}
