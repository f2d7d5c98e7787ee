package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

const maxDocumentTextChars = 2000

// assetEmbeddingText builds the pipe-delimited descriptive string an asset
// is embedded under.
func assetEmbeddingText(asset domain.Asset) string {
	parts := []string{
		"Type: asset",
		"ID: " + asset.ID,
		"Short ID: " + asset.IDShort,
		"Description: " + asset.Description,
		"Asset Type: " + asset.Type,
	}
	if len(asset.AssetInformation) > 0 {
		if raw, err := json.Marshal(asset.AssetInformation); err == nil {
			parts = append(parts, "Asset Information: "+string(raw))
		}
	}
	return strings.Join(append(parts, qualityParts(asset.QIMetadata)...), " | ")
}

func submodelEmbeddingText(submodel domain.Submodel) string {
	parts := []string{
		"Type: submodel",
		"ID: " + submodel.ID,
		"Short ID: " + submodel.IDShort,
		"Description: " + submodel.Description,
		"Submodel Type: " + submodel.Type,
	}
	if len(submodel.SemanticID) > 0 {
		if raw, err := json.Marshal(submodel.SemanticID); err == nil {
			parts = append(parts, "Semantic ID: "+string(raw))
		}
	}
	return strings.Join(append(parts, qualityParts(submodel.QIMetadata)...), " | ")
}

// documentEmbeddingText may include text extracted from the document bytes
// when an extractor for its type is wired in.
func documentEmbeddingText(doc domain.PackageDocument, extracted string) string {
	parts := []string{
		"Type: document",
		"Document Type: " + doc.Type,
		"Filename: " + doc.Filename,
		fmt.Sprintf("Size: %d bytes", doc.Size),
	}
	if extracted != "" {
		if len(extracted) > maxDocumentTextChars {
			extracted = extracted[:maxDocumentTextChars]
		}
		parts = append(parts, "Content: "+extracted)
	}
	return strings.Join(parts, " | ")
}

func qualityParts(qi *domain.QIMetadata) []string {
	if qi == nil {
		return nil
	}
	return []string{
		"Quality Level: " + string(qi.QualityLevel),
		"Compliance Status: " + string(qi.ComplianceStatus),
	}
}
