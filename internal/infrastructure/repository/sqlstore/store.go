// Package sqlstore persists transformed package records through database/sql.
// It speaks plain SQL that both the sqlite3 and pgx drivers accept.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.RelationalStore = (*Store)(nil)

// Open connects with the named driver. For sqlite3 the DSN is the database
// file path; for pgx it is a Postgres connection string.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) EnsureSchema(ctx context.Context, createIndexes bool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS assets (
	id TEXT PRIMARY KEY,
	id_short TEXT,
	description TEXT,
	type TEXT,
	quality_level TEXT,
	compliance_status TEXT,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS submodels (
	id TEXT PRIMARY KEY,
	id_short TEXT,
	description TEXT,
	type TEXT,
	quality_level TEXT,
	compliance_status TEXT,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	type TEXT,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS relationships (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	type TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if !createIndexes {
		return nil
	}
	const indexes = `
CREATE INDEX IF NOT EXISTS idx_assets_type ON assets(type);
CREATE INDEX IF NOT EXISTS idx_submodels_type ON submodels(type);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);
`
	if _, err := s.db.ExecContext(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (s *Store) UpsertAsset(ctx context.Context, asset domain.Asset) error {
	metadata, err := assetMetadata(asset)
	if err != nil {
		return fmt.Errorf("marshal asset metadata: %w", err)
	}
	level, status := qualityColumns(asset.QIMetadata)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO assets (id, id_short, description, type, quality_level, compliance_status, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	id_short = excluded.id_short,
	description = excluded.description,
	type = excluded.type,
	quality_level = excluded.quality_level,
	compliance_status = excluded.compliance_status,
	metadata = excluded.metadata
`, asset.ID, asset.IDShort, asset.Description, asset.Type, level, status, metadata, s.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert asset %s: %w", asset.ID, err)
	}
	return nil
}

func (s *Store) UpsertSubmodel(ctx context.Context, submodel domain.Submodel) error {
	metadata, err := submodelMetadata(submodel)
	if err != nil {
		return fmt.Errorf("marshal submodel metadata: %w", err)
	}
	level, status := qualityColumns(submodel.QIMetadata)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO submodels (id, id_short, description, type, quality_level, compliance_status, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	id_short = excluded.id_short,
	description = excluded.description,
	type = excluded.type,
	quality_level = excluded.quality_level,
	compliance_status = excluded.compliance_status,
	metadata = excluded.metadata
`, submodel.ID, submodel.IDShort, submodel.Description, submodel.Type, level, status, metadata, s.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert submodel %s: %w", submodel.ID, err)
	}
	return nil
}

func (s *Store) InsertDocument(ctx context.Context, doc domain.PackageDocument) error {
	metadata, err := json.Marshal(orEmpty(doc.Metadata))
	if err != nil {
		return fmt.Errorf("marshal document metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO documents (id, filename, size, type, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, uuid.NewString(), doc.Filename, doc.Size, doc.Type, metadata, s.now().UTC())
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.Filename, err)
	}
	return nil
}

func (s *Store) InsertRelationship(ctx context.Context, rel domain.Relationship) error {
	metadata, err := json.Marshal(orEmpty(rel.Metadata))
	if err != nil {
		return fmt.Errorf("marshal relationship metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO relationships (id, source_id, target_id, type, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, uuid.NewString(), rel.SourceID, rel.TargetID, rel.Type, metadata, s.now().UTC())
	if err != nil {
		return fmt.Errorf("insert relationship %s->%s: %w", rel.SourceID, rel.TargetID, err)
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	for _, entry := range []struct {
		table string
		dest  *int
	}{
		{"assets", &stats.AssetsCount},
		{"submodels", &stats.SubmodelsCount},
		{"documents", &stats.DocumentsCount},
		{"relationships", &stats.RelationshipsCount},
	} {
		row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+entry.table)
		if err := row.Scan(entry.dest); err != nil {
			return domain.StoreStats{}, fmt.Errorf("count %s: %w", entry.table, err)
		}
	}
	return stats, nil
}

// ListRAGEntities flattens the asset and submodel tables into retrieval
// records. Content is a short human-readable line per entity.
func (s *Store) ListRAGEntities(ctx context.Context) ([]domain.RAGEntity, error) {
	var entities []domain.RAGEntity
	for _, table := range []struct {
		name     string
		rowType  string
		headline string
	}{
		{"assets", "asset", "Asset"},
		{"submodels", "submodel", "Submodel"},
	} {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, id_short, description, quality_level, compliance_status
FROM %s
ORDER BY id
`, table.name))
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table.name, err)
		}

		for rows.Next() {
			var id, idShort, description, level, status sql.NullString
			if err := rows.Scan(&id, &idShort, &description, &level, &status); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s row: %w", table.name, err)
			}
			entities = append(entities, domain.RAGEntity{
				Type:        table.rowType,
				ID:          id.String,
				IDShort:     idShort.String,
				Description: description.String,
				Content:     fmt.Sprintf("%s: %s - %s", table.headline, idShort.String, description.String),
				Metadata: map[string]string{
					"quality_level":     level.String,
					"compliance_status": status.String,
				},
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate %s rows: %w", table.name, err)
		}
		rows.Close()
	}
	return entities, nil
}

func qualityColumns(qi *domain.QIMetadata) (string, string) {
	if qi == nil {
		return "", ""
	}
	return string(qi.QualityLevel), string(qi.ComplianceStatus)
}

// assetMetadata merges the string metadata with structured fields that have
// no dedicated column.
func assetMetadata(asset domain.Asset) ([]byte, error) {
	merged := map[string]any{}
	for k, v := range asset.Metadata {
		merged[k] = v
	}
	if asset.NormalizedID != "" {
		merged["normalized_id"] = asset.NormalizedID
	}
	if len(asset.Submodels) > 0 {
		merged["submodels"] = asset.Submodels
	}
	if len(asset.AssetInformation) > 0 {
		merged["asset_information"] = asset.AssetInformation
	}
	return json.Marshal(merged)
}

func submodelMetadata(submodel domain.Submodel) ([]byte, error) {
	merged := map[string]any{}
	for k, v := range submodel.Metadata {
		merged[k] = v
	}
	if submodel.NormalizedID != "" {
		merged["normalized_id"] = submodel.NormalizedID
	}
	if len(submodel.SemanticID) > 0 {
		merged["semantic_id"] = submodel.SemanticID
	}
	if len(submodel.Elements) > 0 {
		merged["element_count"] = len(submodel.Elements)
	}
	return json.Marshal(merged)
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
