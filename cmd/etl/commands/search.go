package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twinforge/aasx-etl/internal/core/usecase"
	"github.com/twinforge/aasx-etl/internal/infrastructure/llm/ollama"
)

var (
	flagSearchType   string
	flagSearchTopK   int
	flagSearchAnswer bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Similarity search over loaded entities",
	Long: `Embed the query and search the vector collections for similar
assets, submodels, and documents. Requires a configured vector backend.

With --answer, the hits are passed to the generation model and a
retrieval-augmented answer is printed after the matches.

Examples:
  etl search "DC motors with maintenance submodels"
  etl search --type asset --top-k 3 "hydraulic pumps"
  etl search --answer "which assets are missing descriptions?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, _, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		comps, err := app.Factory()
		if err != nil {
			return err
		}

		query := args[0]
		hits, err := comps.Loader.SearchSimilar(cmd.Context(), query, flagSearchType, flagSearchTopK)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("no matches (is a vector backend configured and loaded?)")
			return nil
		}

		for i, hit := range hits {
			fmt.Printf("%2d. %-10s %.3f  %s\n", i+1, hit.EntityType, hit.Score, hit.ID)
			if hit.Text != "" {
				fmt.Printf("    %s\n", hit.Text)
			}
		}

		if !flagSearchAnswer {
			return nil
		}
		if app.Ollama == nil {
			return fmt.Errorf("--answer requires a configured embedding backend")
		}
		service := usecase.NewQueryService(comps.Loader, ollama.NewGenerator(app.Ollama))
		answer, err := service.Answer(cmd.Context(), query, flagSearchType, flagSearchTopK)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", answer.Text)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchType, "type", "all", "entity type filter (asset, submodel, document, all)")
	searchCmd.Flags().IntVar(&flagSearchTopK, "top-k", 5, "number of results")
	searchCmd.Flags().BoolVar(&flagSearchAnswer, "answer", false, "generate a retrieval-augmented answer")
}
