// Package bootstrap wires configuration into pipeline components.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/ports"
	"github.com/twinforge/aasx-etl/internal/core/usecase"
	"github.com/twinforge/aasx-etl/internal/infrastructure/extractor/aaszip"
	"github.com/twinforge/aasx-etl/internal/infrastructure/extractor/dotnet"
	"github.com/twinforge/aasx-etl/internal/infrastructure/extractor/pdftext"
	"github.com/twinforge/aasx-etl/internal/infrastructure/graph/neo4j"
	"github.com/twinforge/aasx-etl/internal/infrastructure/llm/ollama"
	"github.com/twinforge/aasx-etl/internal/infrastructure/repository/sqlstore"
	"github.com/twinforge/aasx-etl/internal/infrastructure/vector/memory"
	"github.com/twinforge/aasx-etl/internal/infrastructure/vector/qdrant"
)

// App holds everything a command needs to run the pipeline.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Factory usecase.ComponentFactory

	// Shared backends. Per-worker components get their own store
	// connections through the factory, but vector and graph clients are
	// safe to share.
	Vector   ports.VectorStore
	Embedder ports.Embedder
	Graph    ports.GraphStore
	Ollama   *ollama.Client

	closeFns []func()
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger}

	if cfg.Load.VectorDB != "none" {
		client := ollama.New(cfg.Ollama.URL, cfg.Ollama.GenModel, cfg.Load.EmbeddingModel)
		app.Ollama = client
		app.Embedder = ollama.NewEmbedder(client)

		switch cfg.Load.VectorDB {
		case "qdrant":
			app.Vector = qdrant.New(cfg.Load.VectorDBURL)
		case "memory":
			app.Vector = memory.New()
		}
	}

	if cfg.Load.GraphImport {
		graph, err := neo4j.New(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
		if err != nil {
			return nil, fmt.Errorf("init graph store: %w", err)
		}
		app.Graph = graph
		app.closeFns = append(app.closeFns, func() {
			_ = graph.Close(context.Background())
		})
	}

	app.Factory = func() (*usecase.Components, error) {
		return app.buildComponents()
	}
	return app, nil
}

func (a *App) buildComponents() (*usecase.Components, error) {
	cfg := a.Config

	strategies := []ports.ExtractStrategy{}
	if cfg.Extract.ProcessorPath != "" {
		strategies = append(strategies, dotnet.New(cfg.Extract.ProcessorPath, cfg.Extract.ProcessorTimeout))
	}
	strategies = append(strategies, aaszip.NewParser(), aaszip.NewFallback())

	extractor := usecase.NewExtractor(a.Logger, strategies...)
	transformer := usecase.NewTransformer(cfg.Transform, a.Logger)

	opener := func() (ports.RelationalStore, error) {
		return sqlstore.Open(cfg.Load.DatabaseDriver, cfg.Load.DatabasePath)
	}

	opts := []usecase.LoaderOption{
		usecase.WithDocumentTextExtractor(pdftext.New()),
	}
	if a.Vector != nil && a.Embedder != nil {
		opts = append(opts, usecase.WithVectorStore(a.Vector, a.Embedder))
	}
	if a.Graph != nil {
		opts = append(opts, usecase.WithGraphStore(a.Graph))
	}
	loader := usecase.NewLoader(cfg.Load, opener, a.Logger, opts...)

	return &usecase.Components{
		Extractor:   extractor,
		Transformer: transformer,
		Loader:      loader,
	}, nil
}

func (a *App) Close() {
	for _, fn := range a.closeFns {
		fn()
	}
}
