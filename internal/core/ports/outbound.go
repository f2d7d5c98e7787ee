package ports

import (
	"context"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

// ExtractStrategy is one capability-checked way of pulling raw records out
// of a package file. Strategies are tried in priority order; the first
// success wins.
type ExtractStrategy interface {
	Name() string
	Available() bool
	TryExtract(ctx context.Context, path string) (*domain.RawExtraction, error)
}

// RelationalStore persists transformed records. One store is opened per load
// call and closed after; upserts are keyed by entity id.
type RelationalStore interface {
	EnsureSchema(ctx context.Context, createIndexes bool) error
	UpsertAsset(ctx context.Context, asset domain.Asset) error
	UpsertSubmodel(ctx context.Context, submodel domain.Submodel) error
	InsertDocument(ctx context.Context, doc domain.PackageDocument) error
	InsertRelationship(ctx context.Context, rel domain.Relationship) error
	Stats(ctx context.Context) (domain.StoreStats, error)
	ListRAGEntities(ctx context.Context) ([]domain.RAGEntity, error)
	Close() error
}

// StoreOpener opens a fresh relational store connection.
type StoreOpener func() (RelationalStore, error)

// VectorStore upserts and searches embeddings in per-entity-type collections.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, points []domain.VectorPoint) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.SimilarityHit, error)
}

// Embedder builds vectors for entity texts and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator creates the final user-facing answer for RAG queries.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, hits []domain.SimilarityHit) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// GraphStore imports a graph projection into a graph database.
type GraphStore interface {
	ImportGraph(ctx context.Context, graph *domain.GraphDocument) error
}

// DocumentTextExtractor pulls plain text out of an embedded document's bytes.
type DocumentTextExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

// MessageQueue publishes/consumes package-file processing jobs.
type MessageQueue interface {
	PublishPackage(ctx context.Context, path string) error
	SubscribePackages(ctx context.Context, handler func(context.Context, string) error) error
}
