package usecase

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

func formatFixture() *domain.RawExtraction {
	return &domain.RawExtraction{
		Assets: []domain.RawAsset{{
			ID: "a1", IDShort: "Motor1",
			Description: domain.LocalizedText{"en": "DC motor"},
			Submodels:   []string{"sm1"},
		}},
		Submodels: []domain.RawSubmodel{{
			ID: "sm1", IDShort: "TechData",
			Description: domain.LocalizedText{"en": "Technical data"},
		}},
	}
}

func projectAs(t *testing.T, format domain.OutputFormat) *domain.Envelope {
	t.Helper()
	cfg := testTransformConfig()
	cfg.OutputFormat = format
	outcome := newTestTransformer(t, cfg).Transform(formatFixture())
	if !outcome.Success {
		t.Fatalf("Transform() failed: %s", outcome.Error)
	}
	return outcome.Data.Output
}

func TestProjectXMLEnvelope(t *testing.T) {
	envelope := projectAs(t, domain.FormatXML)

	if envelope.Format != domain.FormatXML || envelope.Version != "1.0" {
		t.Fatalf("envelope = %s/%s", envelope.Format, envelope.Version)
	}
	if envelope.Data != nil {
		t.Error("xml envelope must not carry structured data")
	}
	for _, want := range []string{
		"<aasx_data", `id="a1"`, `id_short="Motor1"`,
		"<description>DC motor</description>", "<submodels>", "<submodel",
	} {
		if !strings.Contains(envelope.XMLString, want) {
			t.Errorf("xml missing %q:\n%s", want, envelope.XMLString)
		}
	}
	if envelope.QualityMetrics == nil {
		t.Error("quality metrics missing from envelope")
	}
}

func TestProjectGraphEnvelope(t *testing.T) {
	envelope := projectAs(t, domain.FormatGraph)

	if len(envelope.Nodes) != 2 {
		t.Fatalf("nodes = %d, want asset and submodel", len(envelope.Nodes))
	}
	if len(envelope.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(envelope.Edges))
	}
	edge := envelope.Edges[0]
	if edge.Source != "a1" || edge.Target != "sm1" || edge.Type != domain.RelationAssetHasSubmodel {
		t.Errorf("edge = %+v", edge)
	}
	for _, node := range envelope.Nodes {
		if node.Properties["quality_level"] == nil {
			t.Errorf("node %s missing quality properties", node.ID)
		}
	}
}

func TestProjectFlattenedEnvelope(t *testing.T) {
	envelope := projectAs(t, domain.FormatFlattened)

	rows, ok := envelope.Data.([]domain.FlatEntity)
	if !ok {
		t.Fatalf("data type = %T", envelope.Data)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].EntityType != "asset" || rows[0].ID != "a1" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].EntityType != "submodel" || rows[1].ID != "sm1" {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[0].QualityLevel == "" || rows[0].ComplianceStatus == "" {
		t.Errorf("row 0 missing quality columns: %+v", rows[0])
	}
}

func TestProjectJSONCarriesEntityBody(t *testing.T) {
	envelope := projectAs(t, domain.FormatJSON)

	data, ok := envelope.Data.(entityBody)
	if !ok {
		t.Fatalf("data type = %T", envelope.Data)
	}
	if len(data.Assets) != 1 || len(data.Submodels) != 1 || len(data.Relationships) != 1 {
		t.Errorf("body = %d assets, %d submodels, %d relationships",
			len(data.Assets), len(data.Submodels), len(data.Relationships))
	}

	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("marshal envelope data: %v", err)
	}
	var parsed struct {
		Assets    []struct{ ID string `json:"id"` } `json:"assets"`
		Submodels []struct{ ID string `json:"id"` } `json:"submodels"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal envelope data: %v", err)
	}
	assetIDs := make(map[string]bool)
	for _, a := range parsed.Assets {
		assetIDs[a.ID] = true
	}
	submodelIDs := make(map[string]bool)
	for _, sm := range parsed.Submodels {
		submodelIDs[sm.ID] = true
	}
	if len(assetIDs) != 1 || !assetIDs["a1"] {
		t.Errorf("round-tripped asset ids = %v, want {a1}", assetIDs)
	}
	if len(submodelIDs) != 1 || !submodelIDs["sm1"] {
		t.Errorf("round-tripped submodel ids = %v, want {sm1}", submodelIDs)
	}
}
