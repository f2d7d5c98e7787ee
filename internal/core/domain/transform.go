package domain

import "time"

type OutputFormat string

const (
	FormatJSON      OutputFormat = "json"
	FormatXML       OutputFormat = "xml"
	FormatCSV       OutputFormat = "csv"
	FormatYAML      OutputFormat = "yaml"
	FormatGraph     OutputFormat = "graph"
	FormatFlattened OutputFormat = "flattened"
)

func (f OutputFormat) Valid() bool {
	switch f {
	case FormatJSON, FormatXML, FormatCSV, FormatYAML, FormatGraph, FormatFlattened:
		return true
	}
	return false
}

// QualityMetrics summarizes field completeness over the cleaned entity set.
// QualityScore is the mean of id coverage and description coverage across
// the union of assets and submodels.
type QualityMetrics struct {
	TotalAssets               int     `json:"total_assets"`
	TotalSubmodels            int     `json:"total_submodels"`
	TotalDocuments            int     `json:"total_documents"`
	TotalRelationships        int     `json:"total_relationships"`
	AssetsWithIDs             int     `json:"assets_with_ids"`
	SubmodelsWithIDs          int     `json:"submodels_with_ids"`
	AssetsWithDescriptions    int     `json:"assets_with_descriptions"`
	SubmodelsWithDescriptions int     `json:"submodels_with_descriptions"`
	QualityScore              float64 `json:"quality_score"`
}

// GraphNode and GraphEdge make up the graph projection.
type GraphNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

type GraphEdge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

type GraphMetadata struct {
	CreatedAt  time.Time `json:"created_at"`
	TotalNodes int       `json:"total_nodes"`
	TotalEdges int       `json:"total_edges"`
}

// GraphDocument is the graph export file shape.
type GraphDocument struct {
	Format   string        `json:"format"`
	Version  string        `json:"version"`
	Nodes    []GraphNode   `json:"nodes"`
	Edges    []GraphEdge   `json:"edges"`
	Metadata GraphMetadata `json:"metadata"`
}

// FlatEntity is one analytics row of the flattened projection and the CSV
// export.
type FlatEntity struct {
	EntityType       string `json:"entity_type"`
	ID               string `json:"id"`
	IDShort          string `json:"id_short"`
	Description      string `json:"description"`
	Type             string `json:"type"`
	QualityLevel     string `json:"quality_level"`
	ComplianceStatus string `json:"compliance_status"`
}

// Envelope is the format projection result: exactly one encoding of the
// cleaned and enriched structure.
type Envelope struct {
	Format         OutputFormat    `json:"format"`
	Version        string          `json:"version"`
	Data           any             `json:"data,omitempty"`
	XMLString      string          `json:"xml_string,omitempty"`
	Nodes          []GraphNode     `json:"nodes,omitempty"`
	Edges          []GraphEdge     `json:"edges,omitempty"`
	QualityMetrics *QualityMetrics `json:"quality_metrics,omitempty"`
	Metadata       *TransformMeta  `json:"metadata,omitempty"`
}

// TransformMeta is the metadata stamp attached when include_metadata is on.
type TransformMeta struct {
	TransformationTimestamp time.Time       `json:"transformation_timestamp"`
	TransformerVersion      string          `json:"transformer_version"`
	Configuration           any             `json:"configuration"`
	QualityMetrics          *QualityMetrics `json:"quality_metrics,omitempty"`
}

// TransformedRecord is the Transform phase output: the cleaned entity set
// plus the projected envelope. Held in memory only for the Load phase.
type TransformedRecord struct {
	Assets        []Asset           `json:"assets"`
	Submodels     []Submodel        `json:"submodels"`
	Documents     []PackageDocument `json:"documents"`
	Relationships []Relationship    `json:"relationships"`

	QualityMetrics *QualityMetrics `json:"quality_metrics,omitempty"`
	Output         *Envelope       `json:"output"`
	SourceFile     string          `json:"source_file,omitempty"`
}

type TransformOutcome struct {
	Success bool               `json:"success"`
	Data    *TransformedRecord `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
}
