package usecase

import (
	"context"
	"fmt"

	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

// QueryService answers natural-language questions about loaded twin data:
// embed the question, retrieve similar entities, and pass the assembled
// context through the language model.
type QueryService struct {
	loader    *Loader
	generator ports.AnswerGenerator
}

func NewQueryService(loader *Loader, generator ports.AnswerGenerator) *QueryService {
	return &QueryService{loader: loader, generator: generator}
}

type Answer struct {
	Text    string                 `json:"text"`
	Sources []domain.SimilarityHit `json:"sources"`
}

func (s *QueryService) Answer(ctx context.Context, question, entityType string, topK int) (*Answer, error) {
	hits, err := s.loader.SearchSimilar(ctx, question, entityType, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve similar entities: %w", err)
	}

	text, err := s.generator.GenerateAnswer(ctx, question, hits)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &Answer{Text: text, Sources: hits}, nil
}
