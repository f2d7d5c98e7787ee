package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

var vectorCollections = []string{"assets", "submodels", "documents"}

// Loader persists transformed records: file exports, relational upserts, and
// best-effort vector embeddings. Each step is fault-contained; errors
// accumulate in the LoadResult instead of aborting the remaining steps.
type Loader struct {
	cfg       config.LoadConfig
	openStore ports.StoreOpener
	vector    ports.VectorStore
	embedder  ports.Embedder
	graph     ports.GraphStore
	docText   ports.DocumentTextExtractor
	logger    *slog.Logger
	now       func() time.Time

	// backup-before-write happens once per Loader instance, not per
	// database file; parallel workers each hold their own flag (known gap,
	// see DESIGN.md).
	backupDone bool
}

type LoaderOption func(*Loader)

func WithVectorStore(vector ports.VectorStore, embedder ports.Embedder) LoaderOption {
	return func(l *Loader) {
		l.vector = vector
		l.embedder = embedder
	}
}

func WithGraphStore(graph ports.GraphStore) LoaderOption {
	return func(l *Loader) { l.graph = graph }
}

func WithDocumentTextExtractor(extractor ports.DocumentTextExtractor) LoaderOption {
	return func(l *Loader) { l.docText = extractor }
}

func NewLoader(cfg config.LoadConfig, openStore ports.StoreOpener, logger *slog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		cfg:       cfg,
		openStore: openStore,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Load(ctx context.Context, rec *domain.TransformedRecord) *domain.LoadResult {
	result := &domain.LoadResult{Errors: []string{}}
	var errs *multierror.Error

	exported, err := l.exportFiles(rec)
	result.FilesExported = exported
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("file export: %w", err))
	}

	records, err := l.loadRelational(ctx, rec)
	result.DatabaseRecords = records
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("relational load: %w", err))
	}

	embeddings, err := l.loadVectors(ctx, rec)
	result.VectorEmbeddings = embeddings
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("vector load: %w", err))
	}

	if l.graph != nil {
		if err := l.graph.ImportGraph(ctx, BuildGraph(rec, l.now())); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("graph import: %w", err))
		}
	}

	if errs != nil {
		for _, stepErr := range errs.Errors {
			result.Errors = append(result.Errors, stepErr.Error())
		}
	}
	l.logger.Info("load completed",
		"files_exported", len(result.FilesExported),
		"database_records", result.DatabaseRecords,
		"vector_embeddings", result.VectorEmbeddings,
		"errors", len(result.Errors))
	return result
}

func (l *Loader) outputDir(rec *domain.TransformedRecord) string {
	dir := l.cfg.OutputDirectory
	if l.cfg.SeparateFileOutputs && rec.SourceFile != "" {
		stem := strings.TrimSuffix(filepath.Base(rec.SourceFile), filepath.Ext(rec.SourceFile))
		dir = filepath.Join(dir, stem)
	}
	return dir
}

func (l *Loader) exportFiles(rec *domain.TransformedRecord) ([]string, error) {
	dir := l.outputDir(rec)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	stamp := l.now().Format("20060102_150405")
	var exported []string
	var errs *multierror.Error

	jsonPath := filepath.Join(dir, "aasx_data_"+stamp+".json")
	if err := writeJSON(jsonPath, rec.Output); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		exported = append(exported, jsonPath)
	}

	yamlPath := filepath.Join(dir, "aasx_data_"+stamp+".yaml")
	if err := writeYAML(yamlPath, rec.Output); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		exported = append(exported, yamlPath)
	}

	csvPath := filepath.Join(dir, "aasx_data_"+stamp+".csv")
	if err := writeCSV(csvPath, FlattenEntities(rec)); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		exported = append(exported, csvPath)
	}

	graphPath := filepath.Join(dir, "aasx_data_"+stamp+"_graph.json")
	if err := writeJSON(graphPath, BuildGraph(rec, l.now())); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		exported = append(exported, graphPath)
	}

	xlsxPath := filepath.Join(dir, "aasx_data_"+stamp+".xlsx")
	if err := writeWorkbook(xlsxPath, rec); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		exported = append(exported, xlsxPath)
	}

	return exported, errs.ErrorOrNil()
}

func (l *Loader) loadRelational(ctx context.Context, rec *domain.TransformedRecord) (int, error) {
	if err := l.backupDatabase(); err != nil {
		l.logger.Warn("database backup failed", "error", err)
	}

	store, err := l.openStore()
	if err != nil {
		return 0, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx, l.cfg.CreateIndexes); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}

	records := 0
	for _, asset := range rec.Assets {
		if err := store.UpsertAsset(ctx, asset); err != nil {
			return records, fmt.Errorf("upsert asset %s: %w", asset.ID, err)
		}
		records++
	}
	for _, submodel := range rec.Submodels {
		if err := store.UpsertSubmodel(ctx, submodel); err != nil {
			return records, fmt.Errorf("upsert submodel %s: %w", submodel.ID, err)
		}
		records++
	}
	for _, doc := range rec.Documents {
		if err := store.InsertDocument(ctx, doc); err != nil {
			return records, fmt.Errorf("insert document %s: %w", doc.Filename, err)
		}
		records++
	}
	for _, rel := range rec.Relationships {
		if err := store.InsertRelationship(ctx, rel); err != nil {
			return records, fmt.Errorf("insert relationship %s->%s: %w", rel.SourceID, rel.TargetID, err)
		}
		records++
	}
	return records, nil
}

// backupDatabase copies an existing SQLite file to a timestamped path before
// the first write made through this Loader instance.
func (l *Loader) backupDatabase() error {
	if !l.cfg.BackupExisting || l.backupDone || l.cfg.DatabaseDriver != "sqlite3" {
		return nil
	}
	l.backupDone = true

	if _, err := os.Stat(l.cfg.DatabasePath); err != nil {
		return nil
	}
	backupPath := l.cfg.DatabasePath + ".backup_" + l.now().Format("20060102_150405") + ".db"
	if err := copyFile(l.cfg.DatabasePath, backupPath); err != nil {
		return err
	}
	l.logger.Info("database backed up", "path", backupPath)
	return nil
}

func (l *Loader) loadVectors(ctx context.Context, rec *domain.TransformedRecord) (int, error) {
	if l.vector == nil || l.embedder == nil {
		return 0, nil
	}

	var errs *multierror.Error
	total := 0

	assetPoints := make([]pendingPoint, 0, len(rec.Assets))
	for _, asset := range rec.Assets {
		assetPoints = append(assetPoints, pendingPoint{
			id:      "asset_" + asset.ID,
			text:    assetEmbeddingText(asset),
			payload: entityPayload("asset", asset.ID, asset.QIMetadata, l.now()),
		})
	}
	n, err := l.upsertPoints(ctx, "assets", assetPoints)
	total += n
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	submodelPoints := make([]pendingPoint, 0, len(rec.Submodels))
	for _, submodel := range rec.Submodels {
		submodelPoints = append(submodelPoints, pendingPoint{
			id:      "submodel_" + submodel.ID,
			text:    submodelEmbeddingText(submodel),
			payload: entityPayload("submodel", submodel.ID, submodel.QIMetadata, l.now()),
		})
	}
	n, err = l.upsertPoints(ctx, "submodels", submodelPoints)
	total += n
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	docPoints := make([]pendingPoint, 0, len(rec.Documents))
	for _, doc := range rec.Documents {
		extracted := ""
		if l.docText != nil && len(doc.Content) > 0 {
			if text, err := l.docText.ExtractText(doc.Filename, doc.Content); err == nil {
				extracted = text
			}
		}
		docPoints = append(docPoints, pendingPoint{
			id:      "document_" + doc.Filename,
			text:    documentEmbeddingText(doc, extracted),
			payload: entityPayload("document", doc.Filename, nil, l.now()),
		})
	}
	n, err = l.upsertPoints(ctx, "documents", docPoints)
	total += n
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	return total, errs.ErrorOrNil()
}

type pendingPoint struct {
	id      string
	text    string
	payload map[string]any
}

func (l *Loader) upsertPoints(ctx context.Context, collection string, pending []pendingPoint) (int, error) {
	if len(pending) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i, p := range pending {
		texts[i] = p.text
	}
	vectors, err := l.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", collection, err)
	}
	if len(vectors) != len(pending) {
		return 0, fmt.Errorf("embed %s: vectors/texts mismatch: %d/%d", collection, len(vectors), len(pending))
	}

	points := make([]domain.VectorPoint, len(pending))
	for i, p := range pending {
		points[i] = domain.VectorPoint{ID: p.id, Vector: vectors[i], Text: p.text, Payload: p.payload}
	}
	if err := l.vector.Upsert(ctx, collection, points); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", collection, err)
	}
	return len(points), nil
}

func entityPayload(entityType, id string, qi *domain.QIMetadata, now time.Time) map[string]any {
	payload := map[string]any{
		"entity_type": entityType,
		"entity_id":   id,
		"timestamp":   now.Format(time.RFC3339),
	}
	if qi != nil {
		payload["quality_level"] = string(qi.QualityLevel)
		payload["compliance_status"] = string(qi.ComplianceStatus)
	}
	return payload
}

// SearchSimilar embeds the query, searches the matching collections, merges
// the hits, and re-sorts globally by similarity. A missing vector backend
// yields an empty result, not an error.
func (l *Loader) SearchSimilar(ctx context.Context, query, entityType string, topK int) ([]domain.SimilarityHit, error) {
	if l.vector == nil || l.embedder == nil {
		l.logger.Warn("vector search not available")
		return []domain.SimilarityHit{}, nil
	}
	if topK <= 0 {
		topK = 5
	}

	vector, err := l.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var merged []domain.SimilarityHit
	for _, collection := range vectorCollections {
		if entityType != "all" && entityType+"s" != collection {
			continue
		}
		hits, err := l.vector.Search(ctx, collection, vector, topK)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", collection, err)
		}
		merged = append(merged, hits...)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

func (l *Loader) DatabaseStats(ctx context.Context) (domain.StoreStats, error) {
	store, err := l.openStore()
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx, false); err != nil {
		return domain.StoreStats{}, fmt.Errorf("ensure schema: %w", err)
	}
	return store.Stats(ctx)
}

// ExportForRAG flattens all relational rows into a single RAG-ready JSON
// document.
func (l *Loader) ExportForRAG(ctx context.Context, path string) error {
	store, err := l.openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	entities, err := store.ListRAGEntities(ctx)
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}

	dataset := domain.RAGDataset{
		Version:   "1.0",
		Format:    "rag_ready",
		Timestamp: l.now(),
		Entities:  entities,
	}
	if err := writeJSON(path, dataset); err != nil {
		return err
	}
	l.logger.Info("rag dataset exported", "path", path, "entities", len(entities))
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

var csvHeader = []string{"entity_type", "id", "id_short", "description", "type", "quality_level", "compliance_status"}

func writeCSV(path string, rows []domain.FlatEntity) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.EntityType, row.ID, row.IDShort, row.Description, row.Type, row.QualityLevel, row.ComplianceStatus}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
