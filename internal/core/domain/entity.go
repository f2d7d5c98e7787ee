package domain

import "time"

type QualityLevel string

const (
	QualityHigh   QualityLevel = "HIGH"
	QualityMedium QualityLevel = "MEDIUM"
	QualityLow    QualityLevel = "LOW"
)

type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "COMPLIANT"
	CompliancePartial      ComplianceStatus = "PARTIAL"
	ComplianceNonCompliant ComplianceStatus = "NON_COMPLIANT"
)

// QIMetadata is the quality-infrastructure enrichment block attached to
// assets and submodels during transformation.
type QIMetadata struct {
	QualityLevel     QualityLevel     `json:"quality_level"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	EnrichedAt       time.Time        `json:"enriched_at"`
}

// Asset is a cleaned asset administration shell entry.
type Asset struct {
	ID               string            `json:"id"`
	IDShort          string            `json:"id_short"`
	Description      string            `json:"description"`
	Type             string            `json:"type"`
	NormalizedID     string            `json:"normalized_id,omitempty"`
	AssetInformation map[string]any    `json:"asset_information,omitempty"`
	Submodels        []string          `json:"submodels,omitempty"`
	QIMetadata       *QIMetadata       `json:"qi_metadata,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Submodel is a cleaned submodel entry.
type Submodel struct {
	ID           string            `json:"id"`
	IDShort      string            `json:"id_short"`
	Description  string            `json:"description"`
	Type         string            `json:"type"`
	NormalizedID string            `json:"normalized_id,omitempty"`
	SemanticID   map[string]any    `json:"semantic_id,omitempty"`
	Elements     []SubmodelElement `json:"elements,omitempty"`
	QIMetadata   *QIMetadata       `json:"qi_metadata,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type SubmodelElement struct {
	IDShort    string         `json:"id_short"`
	Type       string         `json:"type"`
	Value      any            `json:"value,omitempty"`
	SemanticID map[string]any `json:"semantic_id,omitempty"`
}

// PackageDocument is an embedded file carried inside a package archive.
type PackageDocument struct {
	Filename string            `json:"filename"`
	Size     int64             `json:"size"`
	Type     string            `json:"type"`
	Content  []byte            `json:"-"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Relationship links an asset to one of its referenced submodels.
type Relationship struct {
	SourceID string            `json:"source_id"`
	TargetID string            `json:"target_id"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

const RelationAssetHasSubmodel = "asset_has_submodel"
