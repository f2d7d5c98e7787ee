// Package memory is an in-process vector store for local runs and tests.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.VectorPoint
}

var _ ports.VectorStore = (*Store)(nil)

func New() *Store {
	return &Store{collections: map[string]map[string]domain.VectorPoint{}}
}

// Upsert replaces points by id, so reloading a package is idempotent.
func (s *Store) Upsert(_ context.Context, collection string, points []domain.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.collections[collection]
	if !ok {
		bucket = map[string]domain.VectorPoint{}
		s.collections[collection] = bucket
	}
	for _, p := range points {
		bucket[p.ID] = p
	}
	return nil
}

func (s *Store) Search(_ context.Context, collection string, vector []float32, limit int) ([]domain.SimilarityHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.collections[collection]
	hits := make([]domain.SimilarityHit, 0, len(bucket))
	for _, p := range bucket {
		hits = append(hits, domain.SimilarityHit{
			ID:         p.ID,
			EntityType: entityType(p.Payload),
			Text:       p.Text,
			Score:      cosine(vector, p.Vector),
			Payload:    p.Payload,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count reports how many points a collection holds.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func entityType(payload map[string]any) string {
	t, _ := payload["entity_type"].(string)
	return t
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
