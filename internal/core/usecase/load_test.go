package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

type fakeStore struct {
	assetErr error

	ensureCalls   int
	assets        []domain.Asset
	submodels     []domain.Submodel
	documents     []domain.PackageDocument
	relationships []domain.Relationship
	stats         domain.StoreStats
	entities      []domain.RAGEntity
	closed        bool
}

func (s *fakeStore) EnsureSchema(_ context.Context, _ bool) error {
	s.ensureCalls++
	return nil
}

func (s *fakeStore) UpsertAsset(_ context.Context, asset domain.Asset) error {
	if s.assetErr != nil {
		return s.assetErr
	}
	s.assets = append(s.assets, asset)
	return nil
}

func (s *fakeStore) UpsertSubmodel(_ context.Context, submodel domain.Submodel) error {
	s.submodels = append(s.submodels, submodel)
	return nil
}

func (s *fakeStore) InsertDocument(_ context.Context, doc domain.PackageDocument) error {
	s.documents = append(s.documents, doc)
	return nil
}

func (s *fakeStore) InsertRelationship(_ context.Context, rel domain.Relationship) error {
	s.relationships = append(s.relationships, rel)
	return nil
}

func (s *fakeStore) Stats(_ context.Context) (domain.StoreStats, error) { return s.stats, nil }

func (s *fakeStore) ListRAGEntities(_ context.Context) ([]domain.RAGEntity, error) {
	return s.entities, nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

type fakeVector struct {
	upserts map[string][]domain.VectorPoint
	hits    map[string][]domain.SimilarityHit
	err     error
}

func newFakeVector() *fakeVector {
	return &fakeVector{
		upserts: map[string][]domain.VectorPoint{},
		hits:    map[string][]domain.SimilarityHit{},
	}
}

func (v *fakeVector) Upsert(_ context.Context, collection string, points []domain.VectorPoint) error {
	if v.err != nil {
		return v.err
	}
	v.upserts[collection] = append(v.upserts[collection], points...)
	return nil
}

func (v *fakeVector) Search(_ context.Context, collection string, _ []float32, _ int) ([]domain.SimilarityHit, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.hits[collection], nil
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0, 0}, nil
}

type fakeGraph struct {
	imported []*domain.GraphDocument
	err      error
}

func (g *fakeGraph) ImportGraph(_ context.Context, graph *domain.GraphDocument) error {
	if g.err != nil {
		return g.err
	}
	g.imported = append(g.imported, graph)
	return nil
}

type fakeDocText struct {
	calls []string
}

func (d *fakeDocText) ExtractText(filename string, _ []byte) (string, error) {
	d.calls = append(d.calls, filename)
	return "manual content for " + filename, nil
}

func testLoadRecord() *domain.TransformedRecord {
	qi := &domain.QIMetadata{
		QualityLevel:     domain.QualityHigh,
		ComplianceStatus: domain.ComplianceCompliant,
	}
	rec := &domain.TransformedRecord{
		Assets: []domain.Asset{{
			ID: "urn:aas:pump-01", IDShort: "Pump01", Description: "Industrial pump",
			Type: "AssetAdministrationShell", Submodels: []string{"urn:sm:docs-01"}, QIMetadata: qi,
		}},
		Submodels: []domain.Submodel{{
			ID: "urn:sm:docs-01", IDShort: "Documentation", Description: "Technical docs",
			Type: "Submodel", QIMetadata: qi,
		}},
		Documents: []domain.PackageDocument{{
			Filename: "manual.pdf", Size: 42, Type: ".pdf", Content: []byte("%PDF-1.4"),
		}},
		Relationships: []domain.Relationship{{
			SourceID: "urn:aas:pump-01", TargetID: "urn:sm:docs-01", Type: domain.RelationAssetHasSubmodel,
		}},
		Output:     &domain.Envelope{Format: domain.FormatJSON, Version: "2.0"},
		SourceFile: "/packages/pump.aasx",
	}
	return rec
}

func newTestLoader(t *testing.T, cfg config.LoadConfig, opener ports.StoreOpener, opts ...LoaderOption) *Loader {
	t.Helper()
	loader := NewLoader(cfg, opener, slog.New(slog.NewTextHandler(os.Stderr, nil)), opts...)
	loader.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }
	return loader
}

func TestLoadExportsAllFormatsAndCountsRecords(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir}, func() (ports.RelationalStore, error) {
		return store, nil
	})

	result := loader.Load(context.Background(), testLoadRecord())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.FilesExported) != 5 {
		t.Fatalf("expected 5 exported files, got %d: %v", len(result.FilesExported), result.FilesExported)
	}
	wantSuffixes := []string{".json", ".yaml", ".csv", "_graph.json", ".xlsx"}
	for i, suffix := range wantSuffixes {
		if !strings.HasSuffix(result.FilesExported[i], suffix) {
			t.Errorf("file %d = %s, want suffix %s", i, result.FilesExported[i], suffix)
		}
		if _, err := os.Stat(result.FilesExported[i]); err != nil {
			t.Errorf("exported file missing: %v", err)
		}
	}
	if result.DatabaseRecords != 4 {
		t.Errorf("database records = %d, want 4", result.DatabaseRecords)
	}
	if !store.closed {
		t.Error("store was not closed after load")
	}
	if result.Failed() {
		t.Error("successful load reported as failed")
	}
}

func TestLoadSeparateFileOutputsUsesSourceStem(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir, SeparateFileOutputs: true},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil })

	result := loader.Load(context.Background(), testLoadRecord())

	for _, path := range result.FilesExported {
		if filepath.Dir(path) != filepath.Join(dir, "pump") {
			t.Fatalf("exported into %s, want %s", filepath.Dir(path), filepath.Join(dir, "pump"))
		}
	}
}

func TestLoadStoreFailureDoesNotAbortExports(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir}, func() (ports.RelationalStore, error) {
		return nil, errors.New("connection refused")
	})

	result := loader.Load(context.Background(), testLoadRecord())

	if len(result.FilesExported) != 5 {
		t.Fatalf("expected exports despite store failure, got %d", len(result.FilesExported))
	}
	if result.DatabaseRecords != 0 {
		t.Errorf("database records = %d, want 0", result.DatabaseRecords)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "relational load") {
		t.Fatalf("errors = %v, want one relational load error", result.Errors)
	}
	if result.Failed() {
		t.Error("partial load must not report total failure")
	}
}

func TestLoadUpsertFailureStopsRelationalStep(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{assetErr: errors.New("disk full")}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir}, func() (ports.RelationalStore, error) {
		return store, nil
	})

	result := loader.Load(context.Background(), testLoadRecord())

	if result.DatabaseRecords != 0 {
		t.Errorf("database records = %d, want 0 after first upsert failure", result.DatabaseRecords)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "upsert asset urn:aas:pump-01") {
		t.Fatalf("errors = %v, want asset upsert error", result.Errors)
	}
}

func TestLoadVectorPointsCarryPrefixedIDsAndQuality(t *testing.T) {
	dir := t.TempDir()
	vector := newFakeVector()
	docText := &fakeDocText{}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil },
		WithVectorStore(vector, &fakeEmbedder{}),
		WithDocumentTextExtractor(docText))

	result := loader.Load(context.Background(), testLoadRecord())

	if result.VectorEmbeddings != 3 {
		t.Fatalf("vector embeddings = %d, want 3", result.VectorEmbeddings)
	}
	assetPoints := vector.upserts["assets"]
	if len(assetPoints) != 1 || assetPoints[0].ID != "asset_urn:aas:pump-01" {
		t.Fatalf("asset points = %+v, want one point with prefixed id", assetPoints)
	}
	if assetPoints[0].Payload["quality_level"] != "HIGH" || assetPoints[0].Payload["compliance_status"] != "COMPLIANT" {
		t.Errorf("asset payload missing quality fields: %v", assetPoints[0].Payload)
	}
	if got := vector.upserts["submodels"][0].ID; got != "submodel_urn:sm:docs-01" {
		t.Errorf("submodel point id = %s", got)
	}
	docPoints := vector.upserts["documents"]
	if len(docPoints) != 1 || docPoints[0].ID != "document_manual.pdf" {
		t.Fatalf("document points = %+v", docPoints)
	}
	if !strings.Contains(docPoints[0].Text, "manual content for manual.pdf") {
		t.Errorf("document text missing extracted content: %s", docPoints[0].Text)
	}
	if len(docText.calls) != 1 {
		t.Errorf("document text extractor calls = %d, want 1", len(docText.calls))
	}
}

func TestLoadSkipsVectorsWithoutBackend(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil })

	result := loader.Load(context.Background(), testLoadRecord())

	if result.VectorEmbeddings != 0 {
		t.Errorf("vector embeddings = %d, want 0", result.VectorEmbeddings)
	}
	if len(result.Errors) != 0 {
		t.Errorf("missing vector backend must not produce errors: %v", result.Errors)
	}
}

func TestLoadEmbedFailureIsContained(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil },
		WithVectorStore(newFakeVector(), &fakeEmbedder{err: errors.New("model not loaded")}))

	result := loader.Load(context.Background(), testLoadRecord())

	if result.VectorEmbeddings != 0 {
		t.Errorf("vector embeddings = %d, want 0", result.VectorEmbeddings)
	}
	found := false
	for _, msg := range result.Errors {
		if strings.Contains(msg, "vector load") {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want a vector load error", result.Errors)
	}
	if result.DatabaseRecords != 4 {
		t.Errorf("relational load must survive embed failure, records = %d", result.DatabaseRecords)
	}
}

func TestLoadImportsGraphWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	graph := &fakeGraph{}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil },
		WithGraphStore(graph))

	result := loader.Load(context.Background(), testLoadRecord())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(graph.imported) != 1 {
		t.Fatalf("graph imports = %d, want 1", len(graph.imported))
	}
	doc := graph.imported[0]
	if doc.Format != "graph" || len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Errorf("graph document = format %s, %d nodes, %d edges", doc.Format, len(doc.Nodes), len(doc.Edges))
	}
}

func TestBackupRunsOncePerLoaderInstance(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "twins.db")
	if err := os.WriteFile(dbPath, []byte("sqlite data"), 0o644); err != nil {
		t.Fatal(err)
	}
	loader := newTestLoader(t, config.LoadConfig{
		OutputDirectory: dir,
		DatabasePath:    dbPath,
		DatabaseDriver:  "sqlite3",
		BackupExisting:  true,
	}, func() (ports.RelationalStore, error) { return &fakeStore{}, nil })

	loader.Load(context.Background(), testLoadRecord())

	backupPath := dbPath + ".backup_20250314_093000.db"
	raw, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("backup not created: %v", err)
	}
	if string(raw) != "sqlite data" {
		t.Errorf("backup content = %q", raw)
	}

	if err := os.Remove(backupPath); err != nil {
		t.Fatal(err)
	}
	loader.Load(context.Background(), testLoadRecord())
	if _, err := os.Stat(backupPath); !os.IsNotExist(err) {
		t.Error("second load must not back up again")
	}
}

func TestSearchSimilarWithoutBackendReturnsEmpty(t *testing.T) {
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: t.TempDir()},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil })

	hits, err := loader.SearchSimilar(context.Background(), "pump", "all", 5)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("hits = %v, want empty non-nil slice", hits)
	}
}

func TestSearchSimilarMergesSortsAndTruncates(t *testing.T) {
	vector := newFakeVector()
	vector.hits["assets"] = []domain.SimilarityHit{
		{ID: "asset_a", Score: 0.4},
		{ID: "asset_b", Score: 0.9},
	}
	vector.hits["submodels"] = []domain.SimilarityHit{
		{ID: "submodel_a", Score: 0.7},
	}
	vector.hits["documents"] = []domain.SimilarityHit{
		{ID: "document_a", Score: 0.8},
	}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: t.TempDir()},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil },
		WithVectorStore(vector, &fakeEmbedder{}))

	hits, err := loader.SearchSimilar(context.Background(), "pump", "all", 3)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	wantOrder := []string{"asset_b", "document_a", "submodel_a"}
	if len(hits) != len(wantOrder) {
		t.Fatalf("hits = %d, want %d", len(hits), len(wantOrder))
	}
	for i, want := range wantOrder {
		if hits[i].ID != want {
			t.Errorf("hit %d = %s, want %s", i, hits[i].ID, want)
		}
	}
}

func TestSearchSimilarFiltersByEntityType(t *testing.T) {
	vector := newFakeVector()
	vector.hits["assets"] = []domain.SimilarityHit{{ID: "asset_a", Score: 0.4}}
	vector.hits["submodels"] = []domain.SimilarityHit{{ID: "submodel_a", Score: 0.9}}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: t.TempDir()},
		func() (ports.RelationalStore, error) { return &fakeStore{}, nil },
		WithVectorStore(vector, &fakeEmbedder{}))

	hits, err := loader.SearchSimilar(context.Background(), "pump", "asset", 0)
	if err != nil {
		t.Fatalf("SearchSimilar: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "asset_a" {
		t.Fatalf("hits = %v, want only the asset hit", hits)
	}
}

func TestExportForRAGWritesDataset(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{entities: []domain.RAGEntity{
		{ID: "urn:aas:pump-01", Type: "asset", Content: "Asset: Pump01 - Industrial pump"},
	}}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: dir},
		func() (ports.RelationalStore, error) { return store, nil })

	path := filepath.Join(dir, "rag.json")
	if err := loader.ExportForRAG(context.Background(), path); err != nil {
		t.Fatalf("ExportForRAG: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var dataset domain.RAGDataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		t.Fatalf("unmarshal dataset: %v", err)
	}
	if dataset.Version != "1.0" || dataset.Format != "rag_ready" {
		t.Errorf("dataset header = %s/%s", dataset.Version, dataset.Format)
	}
	if len(dataset.Entities) != 1 || dataset.Entities[0].ID != "urn:aas:pump-01" {
		t.Errorf("dataset entities = %+v", dataset.Entities)
	}
	if !store.closed {
		t.Error("store was not closed after export")
	}
}

func TestDatabaseStatsEnsuresSchemaFirst(t *testing.T) {
	store := &fakeStore{stats: domain.StoreStats{AssetsCount: 2, SubmodelsCount: 3}}
	loader := newTestLoader(t, config.LoadConfig{OutputDirectory: t.TempDir()},
		func() (ports.RelationalStore, error) { return store, nil })

	stats, err := loader.DatabaseStats(context.Background())
	if err != nil {
		t.Fatalf("DatabaseStats: %v", err)
	}
	if stats.AssetsCount != 2 || stats.SubmodelsCount != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if store.ensureCalls != 1 {
		t.Errorf("ensure schema calls = %d, want 1", store.ensureCalls)
	}
	if !store.closed {
		t.Error("store was not closed after stats")
	}
}
