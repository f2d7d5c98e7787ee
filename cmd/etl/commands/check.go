package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/infrastructure/extractor/dotnet"
	"github.com/twinforge/aasx-etl/internal/infrastructure/graph/neo4j"
	"github.com/twinforge/aasx-etl/internal/infrastructure/llm/ollama"
	"github.com/twinforge/aasx-etl/internal/infrastructure/repository/sqlstore"
)

type probe struct {
	name string
	run  func(context.Context) error
}

// runCheck probes each configured dependency and reports OK/FAILED per
// component. Optional components that are disabled are skipped.
func runCheck(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	probes := []probe{
		{"relational store", func(ctx context.Context) error {
			store, err := sqlstore.Open(cfg.Load.DatabaseDriver, cfg.Load.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.EnsureSchema(ctx, false)
		}},
		{"output directory", func(context.Context) error {
			return os.MkdirAll(cfg.Load.OutputDirectory, 0o755)
		}},
	}

	if cfg.Extract.ProcessorPath != "" {
		probes = append(probes, probe{"external processor", func(context.Context) error {
			bridge := dotnet.New(cfg.Extract.ProcessorPath, cfg.Extract.ProcessorTimeout)
			if !bridge.Available() {
				return fmt.Errorf("processor not found at %s", cfg.Extract.ProcessorPath)
			}
			return nil
		}})
	}
	if cfg.Load.VectorDB != "none" {
		probes = append(probes, probe{"embedding backend", func(ctx context.Context) error {
			return ollama.New(cfg.Ollama.URL, cfg.Ollama.GenModel, cfg.Load.EmbeddingModel).Ping(ctx)
		}})
	}
	if cfg.Load.GraphImport {
		probes = append(probes, probe{"graph database", func(ctx context.Context) error {
			graph, err := neo4j.New(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
			if err != nil {
				return err
			}
			defer graph.Close(ctx)
			return graph.Verify(ctx)
		}})
	}

	return reportProbes(ctx, cfg, probes)
}

func reportProbes(ctx context.Context, cfg config.Config, probes []probe) error {
	failures := 0
	for _, p := range probes {
		if err := p.run(ctx); err != nil {
			failures++
			fmt.Printf("FAILED  %-20s %v\n", p.name, err)
			continue
		}
		fmt.Printf("OK      %s\n", p.name)
	}

	fmt.Printf("\ndriver=%s vector_db=%s graph_import=%t\n",
		cfg.Load.DatabaseDriver, cfg.Load.VectorDB, cfg.Load.GraphImport)
	if failures > 0 {
		return fmt.Errorf("%d dependency check(s) failed", failures)
	}
	return nil
}
