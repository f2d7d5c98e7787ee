package domain

import "time"

// LoadResult tracks the three load steps independently; a failure in one
// accumulates here instead of aborting the others.
type LoadResult struct {
	FilesExported    []string `json:"files_exported"`
	DatabaseRecords  int      `json:"database_records"`
	VectorEmbeddings int      `json:"vector_embeddings"`
	Errors           []string `json:"errors"`
}

func (r *LoadResult) Failed() bool {
	return len(r.Errors) > 0 && len(r.FilesExported) == 0 && r.DatabaseRecords == 0 && r.VectorEmbeddings == 0
}

type RunStatus string

const (
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// RunResult is the per-file pipeline record. Every input file yields exactly
// one of these.
type RunResult struct {
	FilePath        string            `json:"file_path"`
	Status          RunStatus         `json:"status"`
	ExtractResult   *ExtractOutcome   `json:"extract_result,omitempty"`
	TransformResult *TransformOutcome `json:"transform_result,omitempty"`
	LoadResult      *LoadResult       `json:"load_result,omitempty"`
	ProcessingTime  time.Duration     `json:"processing_time"`
	Errors          []string          `json:"errors"`
}

// PipelineStats accumulates across ProcessFile calls for the lifetime of one
// orchestrator instance. Reset only via ResetStats.
type PipelineStats struct {
	FilesProcessed      int           `json:"files_processed"`
	FilesFailed         int           `json:"files_failed"`
	TotalProcessingTime time.Duration `json:"total_processing_time"`
	ExtractTime         time.Duration `json:"extract_time"`
	TransformTime       time.Duration `json:"transform_time"`
	LoadTime            time.Duration `json:"load_time"`
	Errors              []string      `json:"errors"`
}

// BatchResult aggregates one ProcessDirectory call.
type BatchResult struct {
	Directory          string        `json:"directory"`
	FilesFound         int           `json:"files_found"`
	FilesProcessed     int           `json:"files_processed"`
	FilesFailed        int           `json:"files_failed"`
	TotalTime          time.Duration `json:"total_time"`
	AverageTimePerFile time.Duration `json:"average_time_per_file"`
	Results            []*RunResult  `json:"results"`
}

type ComponentStatus struct {
	Valid  bool   `json:"valid"`
	Status string `json:"status"`
}

type ValidationReport struct {
	PipelineValid bool                       `json:"pipeline_valid"`
	Components    map[string]ComponentStatus `json:"components"`
	Errors        []string                   `json:"errors"`
}

// StoreStats are the relational table row counts.
type StoreStats struct {
	AssetsCount        int `json:"assets_count"`
	SubmodelsCount     int `json:"submodels_count"`
	DocumentsCount     int `json:"documents_count"`
	RelationshipsCount int `json:"relationships_count"`
}

func (s StoreStats) Empty() bool {
	return s.AssetsCount == 0 && s.SubmodelsCount == 0
}

// RAGEntity is one flattened row of the RAG export document.
type RAGEntity struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	IDShort     string            `json:"id_short"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata"`
}

// RAGDataset is the RAG export file shape.
type RAGDataset struct {
	Version   string      `json:"version"`
	Format    string      `json:"format"`
	Timestamp time.Time   `json:"timestamp"`
	Entities  []RAGEntity `json:"entities"`
}

// VectorPoint is an embedding upsert unit keyed by a prefixed entity id.
type VectorPoint struct {
	ID      string
	Vector  []float32
	Text    string
	Payload map[string]any
}

// SimilarityHit is one vector search result after global re-sorting.
type SimilarityHit struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	Text       string         `json:"document"`
	Score      float64        `json:"similarity"`
	Payload    map[string]any `json:"metadata,omitempty"`
}
