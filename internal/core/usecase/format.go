package usecase

import (
	"encoding/xml"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

const envelopeVersion = "1.0"

// project renders the cleaned and enriched record into exactly one of the
// six output encodings. Each projection is pure and lossless for the fields
// it carries.
func (t *Transformer) project(rec *domain.TransformedRecord) *domain.Envelope {
	switch t.cfg.OutputFormat {
	case domain.FormatXML:
		return t.toXML(rec)
	case domain.FormatCSV:
		return t.toCSV(rec)
	case domain.FormatYAML:
		return t.toYAML(rec)
	case domain.FormatGraph:
		return t.toGraph(rec)
	case domain.FormatFlattened:
		return t.toFlattened(rec)
	default:
		return t.toJSON(rec)
	}
}

type entityBody struct {
	Assets        []domain.Asset           `json:"assets" yaml:"assets"`
	Submodels     []domain.Submodel        `json:"submodels" yaml:"submodels"`
	Documents     []domain.PackageDocument `json:"documents" yaml:"documents"`
	Relationships []domain.Relationship    `json:"relationships" yaml:"relationships"`
}

func body(rec *domain.TransformedRecord) entityBody {
	return entityBody{
		Assets:        rec.Assets,
		Submodels:     rec.Submodels,
		Documents:     rec.Documents,
		Relationships: rec.Relationships,
	}
}

func (t *Transformer) toJSON(rec *domain.TransformedRecord) *domain.Envelope {
	return &domain.Envelope{
		Format:         domain.FormatJSON,
		Version:        envelopeVersion,
		Data:           body(rec),
		QualityMetrics: rec.QualityMetrics,
	}
}

func (t *Transformer) toYAML(rec *domain.TransformedRecord) *domain.Envelope {
	return &domain.Envelope{
		Format:         domain.FormatYAML,
		Version:        envelopeVersion,
		Data:           body(rec),
		QualityMetrics: rec.QualityMetrics,
	}
}

type xmlEntity struct {
	ID          string `xml:"id,attr"`
	IDShort     string `xml:"id_short,attr"`
	Description string `xml:"description"`
}

type xmlDocument struct {
	XMLName   xml.Name    `xml:"aasx_data"`
	Version   string      `xml:"version,attr"`
	Format    string      `xml:"format,attr"`
	Assets    []xmlEntity `xml:"assets>asset"`
	Submodels []xmlEntity `xml:"submodels>submodel"`
}

func (t *Transformer) toXML(rec *domain.TransformedRecord) *domain.Envelope {
	doc := xmlDocument{Version: envelopeVersion, Format: "xml"}
	for _, asset := range rec.Assets {
		doc.Assets = append(doc.Assets, xmlEntity{ID: asset.ID, IDShort: asset.IDShort, Description: asset.Description})
	}
	for _, submodel := range rec.Submodels {
		doc.Submodels = append(doc.Submodels, xmlEntity{ID: submodel.ID, IDShort: submodel.IDShort, Description: submodel.Description})
	}

	raw, err := xml.Marshal(doc)
	if err != nil {
		// Marshal of a static struct shape cannot fail on these inputs;
		// keep the envelope well-formed regardless.
		raw = []byte("<aasx_data/>")
	}
	return &domain.Envelope{
		Format:         domain.FormatXML,
		Version:        envelopeVersion,
		XMLString:      string(raw),
		QualityMetrics: rec.QualityMetrics,
	}
}

func (t *Transformer) toCSV(rec *domain.TransformedRecord) *domain.Envelope {
	type csvBody struct {
		Assets    []domain.FlatEntity `json:"assets"`
		Submodels []domain.FlatEntity `json:"submodels"`
	}
	out := csvBody{}
	for _, asset := range rec.Assets {
		out.Assets = append(out.Assets, flatten("asset", asset.ID, asset.IDShort, asset.Description, asset.Type, asset.QIMetadata))
	}
	for _, submodel := range rec.Submodels {
		out.Submodels = append(out.Submodels, flatten("submodel", submodel.ID, submodel.IDShort, submodel.Description, submodel.Type, submodel.QIMetadata))
	}
	return &domain.Envelope{
		Format:         domain.FormatCSV,
		Version:        envelopeVersion,
		Data:           out,
		QualityMetrics: rec.QualityMetrics,
	}
}

func (t *Transformer) toGraph(rec *domain.TransformedRecord) *domain.Envelope {
	graph := BuildGraph(rec, t.now())
	return &domain.Envelope{
		Format:         domain.FormatGraph,
		Version:        envelopeVersion,
		Nodes:          graph.Nodes,
		Edges:          graph.Edges,
		QualityMetrics: rec.QualityMetrics,
	}
}

func (t *Transformer) toFlattened(rec *domain.TransformedRecord) *domain.Envelope {
	return &domain.Envelope{
		Format:         domain.FormatFlattened,
		Version:        envelopeVersion,
		Data:           FlattenEntities(rec),
		QualityMetrics: rec.QualityMetrics,
	}
}

// FlattenEntities produces one analytics row per asset and submodel; the
// same rows back the CSV export.
func FlattenEntities(rec *domain.TransformedRecord) []domain.FlatEntity {
	rows := make([]domain.FlatEntity, 0, len(rec.Assets)+len(rec.Submodels))
	for _, asset := range rec.Assets {
		rows = append(rows, flatten("asset", asset.ID, asset.IDShort, asset.Description, asset.Type, asset.QIMetadata))
	}
	for _, submodel := range rec.Submodels {
		rows = append(rows, flatten("submodel", submodel.ID, submodel.IDShort, submodel.Description, submodel.Type, submodel.QIMetadata))
	}
	return rows
}

func flatten(entityType, id, idShort, description, typ string, qi *domain.QIMetadata) domain.FlatEntity {
	row := domain.FlatEntity{
		EntityType:  entityType,
		ID:          id,
		IDShort:     idShort,
		Description: description,
		Type:        typ,
	}
	if qi != nil {
		row.QualityLevel = string(qi.QualityLevel)
		row.ComplianceStatus = string(qi.ComplianceStatus)
	}
	return row
}
