package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	store := New(db)
	store.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return store, mock, func() { _ = db.Close() }
}

func TestEnsureSchemaSkipsIndexesWhenDisabled(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS assets").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnsureSchema(context.Background(), false); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaCreatesIndexes(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS assets").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_assets_type").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnsureSchema(context.Background(), true); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertAssetWritesQualityColumns(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO assets").
		WithArgs("urn:asset:1", "Motor1", "DC motor", "AssetAdministrationShell",
			"HIGH", "COMPLIANT", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertAsset(context.Background(), domain.Asset{
		ID:          "urn:asset:1",
		IDShort:     "Motor1",
		Description: "DC motor",
		Type:        "AssetAdministrationShell",
		QIMetadata: &domain.QIMetadata{
			QualityLevel:     domain.QualityHigh,
			ComplianceStatus: domain.ComplianceCompliant,
		},
	})
	if err != nil {
		t.Fatalf("UpsertAsset() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertSubmodelWithoutEnrichmentWritesEmptyQuality(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO submodels").
		WithArgs("urn:sm:1", "TechData", "", "Submodel", "", "",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertSubmodel(context.Background(), domain.Submodel{
		ID:      "urn:sm:1",
		IDShort: "TechData",
		Type:    "Submodel",
	})
	if err != nil {
		t.Fatalf("UpsertSubmodel() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertRelationshipGeneratesSurrogateKey(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO relationships").
		WithArgs(sqlmock.AnyArg(), "urn:asset:1", "urn:sm:1",
			domain.RelationAssetHasSubmodel, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.InsertRelationship(context.Background(), domain.Relationship{
		SourceID: "urn:asset:1",
		TargetID: "urn:sm:1",
		Type:     domain.RelationAssetHasSubmodel,
	})
	if err != nil {
		t.Fatalf("InsertRelationship() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStatsCountsAllTables(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	for _, entry := range []struct {
		table string
		count int
	}{
		{"assets", 3},
		{"submodels", 2},
		{"documents", 1},
		{"relationships", 4},
	} {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM " + entry.table).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(entry.count))
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := domain.StoreStats{
		AssetsCount:        3,
		SubmodelsCount:     2,
		DocumentsCount:     1,
		RelationshipsCount: 4,
	}
	if stats != want {
		t.Fatalf("Stats() = %+v, want %+v", stats, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRAGEntitiesFlattensAssetsAndSubmodels(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, id_short, description, quality_level, compliance_status FROM assets").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "id_short", "description", "quality_level", "compliance_status"},
		).AddRow("urn:asset:1", "Motor1", "DC motor", "HIGH", "COMPLIANT"))
	mock.ExpectQuery("SELECT id, id_short, description, quality_level, compliance_status FROM submodels").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "id_short", "description", "quality_level", "compliance_status"},
		).AddRow("urn:sm:1", "TechData", "", "LOW", "PARTIAL"))

	entities, err := store.ListRAGEntities(context.Background())
	if err != nil {
		t.Fatalf("ListRAGEntities() error = %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	if entities[0].Type != "asset" || entities[0].Content != "Asset: Motor1 - DC motor" {
		t.Fatalf("unexpected asset entity: %+v", entities[0])
	}
	if entities[1].Type != "submodel" || entities[1].Metadata["quality_level"] != "LOW" {
		t.Fatalf("unexpected submodel entity: %+v", entities[1])
	}
}
