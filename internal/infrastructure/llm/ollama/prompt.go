package ollama

import (
	"fmt"
	"strings"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

func buildAnswerPrompt(question string, hits []domain.SimilarityHit) string {
	var contextBuilder strings.Builder
	for idx, hit := range hits {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] entity=%s type=%s score=%.3f\n%s\n\n",
			idx+1,
			hit.ID,
			hit.EntityType,
			hit.Score,
			hit.Text,
		))
	}

	return fmt.Sprintf(`Answer the user question only from the digital twin context below.
The context lists industrial assets, submodels, and documents.
If the context is insufficient, say it directly.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}
