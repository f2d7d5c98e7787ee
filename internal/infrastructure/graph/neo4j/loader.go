// Package neo4j imports the graph projection into a Neo4j knowledge graph.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

type Loader struct {
	driver neo4j.DriverWithContext
}

var _ ports.GraphStore = (*Loader)(nil)

func New(uri, username, password string) (*Loader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Loader{driver: driver}, nil
}

func (l *Loader) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

// Verify checks connectivity; used by the CLI dependency probe.
func (l *Loader) Verify(ctx context.Context) error {
	if err := l.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j connectivity: %w", err)
	}
	return nil
}

// ImportGraph merges nodes and edges, so re-importing the same package
// updates properties instead of duplicating the graph.
func (l *Loader) ImportGraph(ctx context.Context, graph *domain.GraphDocument) error {
	if graph == nil || len(graph.Nodes) == 0 {
		return nil
	}
	if graph.Format != "graph" {
		return fmt.Errorf("unexpected graph format %q", graph.Format)
	}

	session := l.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const nodeQuery = `
UNWIND $nodes AS node
MERGE (n:Node {id: node.id})
SET n += node.properties
SET n.type = node.type
`
		if _, err := tx.Run(ctx, nodeQuery, map[string]any{"nodes": nodeParams(graph.Nodes)}); err != nil {
			return nil, fmt.Errorf("merge nodes: %w", err)
		}

		if len(graph.Edges) == 0 {
			return nil, nil
		}
		const edgeQuery = `
UNWIND $edges AS edge
MATCH (source:Node {id: edge.source})
MATCH (target:Node {id: edge.target})
MERGE (source)-[r:RELATES_TO]->(target)
SET r.type = edge.type
SET r += edge.properties
`
		if _, err := tx.Run(ctx, edgeQuery, map[string]any{"edges": edgeParams(graph.Edges)}); err != nil {
			return nil, fmt.Errorf("merge edges: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

func nodeParams(nodes []domain.GraphNode) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, node := range nodes {
		properties := node.Properties
		if properties == nil {
			properties = map[string]any{}
		}
		out = append(out, map[string]any{
			"id":         node.ID,
			"type":       node.Type,
			"properties": properties,
		})
	}
	return out
}

func edgeParams(edges []domain.GraphEdge) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, edge := range edges {
		properties := edge.Properties
		if properties == nil {
			properties = map[string]any{}
		}
		out = append(out, map[string]any{
			"source":     edge.Source,
			"target":     edge.Target,
			"type":       edge.Type,
			"properties": properties,
		})
	}
	return out
}
