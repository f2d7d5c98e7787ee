package usecase

import (
	"time"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

// BuildGraph turns the cleaned entity set into the graph export shape:
// every asset and submodel becomes a typed node, every relationship an edge.
func BuildGraph(rec *domain.TransformedRecord, createdAt time.Time) *domain.GraphDocument {
	graph := &domain.GraphDocument{
		Format:  "graph",
		Version: envelopeVersion,
	}

	for _, asset := range rec.Assets {
		graph.Nodes = append(graph.Nodes, domain.GraphNode{
			ID:   asset.ID,
			Type: "asset",
			Properties: nodeProperties(asset.IDShort, asset.Description,
				asset.Type, asset.QIMetadata),
		})
	}
	for _, submodel := range rec.Submodels {
		graph.Nodes = append(graph.Nodes, domain.GraphNode{
			ID:   submodel.ID,
			Type: "submodel",
			Properties: nodeProperties(submodel.IDShort, submodel.Description,
				submodel.Type, submodel.QIMetadata),
		})
	}
	for _, rel := range rec.Relationships {
		properties := map[string]any{}
		for key, value := range rel.Metadata {
			properties[key] = value
		}
		graph.Edges = append(graph.Edges, domain.GraphEdge{
			Source:     rel.SourceID,
			Target:     rel.TargetID,
			Type:       rel.Type,
			Properties: properties,
		})
	}

	graph.Metadata = domain.GraphMetadata{
		CreatedAt:  createdAt,
		TotalNodes: len(graph.Nodes),
		TotalEdges: len(graph.Edges),
	}
	return graph
}

func nodeProperties(idShort, description, typ string, qi *domain.QIMetadata) map[string]any {
	properties := map[string]any{
		"id_short":    idShort,
		"description": description,
		"type":        typ,
	}
	if qi != nil {
		properties["quality_level"] = string(qi.QualityLevel)
		properties["compliance_status"] = string(qi.ComplianceStatus)
	}
	return properties
}
