package commands

import (
	"github.com/spf13/cobra"
)

var ragExportCmd = &cobra.Command{
	Use:   "rag-export <output.json>",
	Short: "Export relational rows as a RAG-ready dataset",
	Long: `Flatten every stored asset and submodel into retrieval records and
write them as one JSON document. Fails when the relational store holds
no assets and no submodels.

Example:
  etl rag-export rag_dataset.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, pipeline, _, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		return pipeline.CreateRAGDataset(cmd.Context(), args[0])
	},
}
