package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/domain"
)

const transformerVersion = "1.0.0"

// Transformer cleans, normalizes, and enriches raw extractions and projects
// them into one of the declarative output encodings.
type Transformer struct {
	cfg    config.TransformConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewTransformer(cfg config.TransformConfig, logger *slog.Logger) *Transformer {
	return &Transformer{cfg: cfg, logger: logger, now: time.Now}
}

// Transform runs the fixed transformation order: clean/normalize,
// relationship extraction, quality checks, enrichment, format projection,
// metadata stamping. Any fault is reported through the outcome; no partial
// output is returned.
func (t *Transformer) Transform(raw *domain.RawExtraction) (outcome *domain.TransformOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = &domain.TransformOutcome{
				Success: false,
				Error:   domain.WrapError(domain.ErrTransformation, "transform", fmt.Errorf("panic: %v", r)).Error(),
			}
		}
	}()

	if raw == nil {
		return &domain.TransformOutcome{
			Success: false,
			Error:   domain.WrapError(domain.ErrTransformation, "transform", fmt.Errorf("nil extraction")).Error(),
		}
	}

	rec := &domain.TransformedRecord{
		Assets:    t.cleanAssets(raw.Assets),
		Submodels: t.cleanSubmodels(raw.Submodels),
		Documents: cleanDocuments(raw.Documents),
	}
	rec.Relationships = extractRelationships(rec.Assets)

	if t.cfg.QualityChecks {
		rec.QualityMetrics = ComputeQualityMetrics(rec)
		t.logger.Info("quality checks completed", "quality_score", rec.QualityMetrics.QualityScore)
	}

	if t.cfg.EnrichWithExternalData {
		t.enrich(rec)
	}

	rec.Output = t.project(rec)

	if t.cfg.IncludeMetadata {
		rec.Output.Metadata = &domain.TransformMeta{
			TransformationTimestamp: t.now(),
			TransformerVersion:      transformerVersion,
			Configuration:           t.cfg,
			QualityMetrics:          rec.QualityMetrics,
		}
	}

	return &domain.TransformOutcome{Success: true, Data: rec}
}

func (t *Transformer) cleanAssets(assets []domain.RawAsset) []domain.Asset {
	cleaned := make([]domain.Asset, 0, len(assets))
	for _, raw := range assets {
		if raw.ID == "" && raw.IDShort == "" && len(raw.Description) == 0 {
			continue
		}
		asset := domain.Asset{
			ID:               normalizeID(raw.ID),
			IDShort:          strings.TrimSpace(raw.IDShort),
			Description:      raw.Description.Flatten(),
			Type:             kindOrUnknown(raw.Kind),
			AssetInformation: raw.AssetInformation,
			Submodels:        raw.Submodels,
			Metadata: map[string]string{
				"source":     raw.Source,
				"cleaned_at": t.now().Format(time.RFC3339),
			},
		}
		if t.cfg.NormalizeIDs {
			asset.NormalizedID = normalizedID(asset.ID, t.now)
		}
		cleaned = append(cleaned, asset)
	}
	return cleaned
}

func (t *Transformer) cleanSubmodels(submodels []domain.RawSubmodel) []domain.Submodel {
	cleaned := make([]domain.Submodel, 0, len(submodels))
	for _, raw := range submodels {
		if raw.ID == "" && raw.IDShort == "" && len(raw.Description) == 0 {
			continue
		}
		submodel := domain.Submodel{
			ID:          normalizeID(raw.ID),
			IDShort:     strings.TrimSpace(raw.IDShort),
			Description: raw.Description.Flatten(),
			Type:        kindOrUnknown(raw.Kind),
			SemanticID:  raw.SemanticID,
			Elements:    cleanElements(raw.Elements),
			Metadata: map[string]string{
				"source":     raw.Source,
				"cleaned_at": t.now().Format(time.RFC3339),
			},
		}
		if t.cfg.NormalizeIDs {
			submodel.NormalizedID = normalizedID(submodel.ID, t.now)
		}
		cleaned = append(cleaned, submodel)
	}
	return cleaned
}

func cleanElements(elements []map[string]any) []domain.SubmodelElement {
	cleaned := make([]domain.SubmodelElement, 0, len(elements))
	for _, el := range elements {
		if el == nil {
			continue
		}
		cleaned = append(cleaned, domain.SubmodelElement{
			IDShort:    stringField(el, "id_short"),
			Type:       stringFieldOr(el, "type", "Unknown"),
			Value:      el["value"],
			SemanticID: mapField(el, "semantic_id"),
		})
	}
	return cleaned
}

func cleanDocuments(docs []domain.RawDocument) []domain.PackageDocument {
	cleaned := make([]domain.PackageDocument, 0, len(docs))
	for _, raw := range docs {
		if raw.Filename == "" {
			continue
		}
		cleaned = append(cleaned, domain.PackageDocument{
			Filename: raw.Filename,
			Size:     raw.Size,
			Type:     raw.Type,
			Content:  raw.Content,
		})
	}
	return cleaned
}

// extractRelationships emits one asset_has_submodel edge per submodel
// reference declared on each cleaned asset.
func extractRelationships(assets []domain.Asset) []domain.Relationship {
	var relationships []domain.Relationship
	for _, asset := range assets {
		for _, submodelID := range asset.Submodels {
			relationships = append(relationships, domain.Relationship{
				SourceID: asset.ID,
				TargetID: submodelID,
				Type:     domain.RelationAssetHasSubmodel,
			})
		}
	}
	return relationships
}

// ComputeQualityMetrics is a pure function of the cleaned entity set. The
// score is the mean of id coverage and description coverage over the union
// of assets and submodels.
func ComputeQualityMetrics(rec *domain.TransformedRecord) *domain.QualityMetrics {
	m := &domain.QualityMetrics{
		TotalAssets:        len(rec.Assets),
		TotalSubmodels:     len(rec.Submodels),
		TotalDocuments:     len(rec.Documents),
		TotalRelationships: len(rec.Relationships),
	}

	for _, asset := range rec.Assets {
		if asset.ID != "" {
			m.AssetsWithIDs++
		}
		if asset.Description != "" {
			m.AssetsWithDescriptions++
		}
	}
	for _, submodel := range rec.Submodels {
		if submodel.ID != "" {
			m.SubmodelsWithIDs++
		}
		if submodel.Description != "" {
			m.SubmodelsWithDescriptions++
		}
	}

	total := m.TotalAssets + m.TotalSubmodels
	if total > 0 {
		idScore := float64(m.AssetsWithIDs+m.SubmodelsWithIDs) / float64(total)
		descScore := float64(m.AssetsWithDescriptions+m.SubmodelsWithDescriptions) / float64(total)
		m.QualityScore = (idScore + descScore) / 2
	}
	return m
}

// enrich applies the 3-point checklist (id, description, id_short) for the
// quality level and the id/description pair for compliance.
func (t *Transformer) enrich(rec *domain.TransformedRecord) {
	enrichedAt := t.now()
	for i := range rec.Assets {
		rec.Assets[i].QIMetadata = &domain.QIMetadata{
			QualityLevel:     qualityLevel(rec.Assets[i].ID, rec.Assets[i].Description, rec.Assets[i].IDShort),
			ComplianceStatus: complianceStatus(rec.Assets[i].ID, rec.Assets[i].Description),
			EnrichedAt:       enrichedAt,
		}
	}
	for i := range rec.Submodels {
		rec.Submodels[i].QIMetadata = &domain.QIMetadata{
			QualityLevel:     qualityLevel(rec.Submodels[i].ID, rec.Submodels[i].Description, rec.Submodels[i].IDShort),
			ComplianceStatus: complianceStatus(rec.Submodels[i].ID, rec.Submodels[i].Description),
			EnrichedAt:       enrichedAt,
		}
	}
}

func qualityLevel(id, description, idShort string) domain.QualityLevel {
	score := 0
	if id != "" {
		score++
	}
	if description != "" {
		score++
	}
	if idShort != "" {
		score++
	}
	switch {
	case score >= 3:
		return domain.QualityHigh
	case score == 2:
		return domain.QualityMedium
	default:
		return domain.QualityLow
	}
}

func complianceStatus(id, description string) domain.ComplianceStatus {
	switch {
	case id != "" && description != "":
		return domain.ComplianceCompliant
	case id != "":
		return domain.CompliancePartial
	default:
		return domain.ComplianceNonCompliant
	}
}

func normalizeID(id string) string {
	normalized := strings.TrimSpace(id)
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return normalized
}

func normalizedID(id string, now func() time.Time) string {
	if id != "" {
		return "normalized_" + id
	}
	return "auto_id_" + now().Format("20060102_150405")
}

func kindOrUnknown(kind string) string {
	if kind == "" {
		return "Unknown"
	}
	return kind
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringFieldOr(m map[string]any, key, fallback string) string {
	if v := stringField(m, key); v != "" {
		return v
	}
	return fallback
}

func mapField(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}
