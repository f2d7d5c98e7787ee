package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

type ExtractConfig struct {
	ProcessorPath    string        `yaml:"processor_path"`
	ProcessorTimeout time.Duration `yaml:"processor_timeout"`
}

type TransformConfig struct {
	OutputFormat           domain.OutputFormat `yaml:"output_format"`
	IncludeMetadata        bool                `yaml:"include_metadata"`
	NormalizeIDs           bool                `yaml:"normalize_ids"`
	QualityChecks          bool                `yaml:"quality_checks"`
	EnrichWithExternalData bool                `yaml:"enrich_with_external_data"`
}

type LoadConfig struct {
	OutputDirectory     string `yaml:"output_directory"`
	DatabasePath        string `yaml:"database_path"`
	DatabaseDriver      string `yaml:"database_driver"`
	VectorDB            string `yaml:"vector_db"`
	VectorDBURL         string `yaml:"vector_db_url"`
	EmbeddingModel      string `yaml:"embedding_model"`
	BackupExisting      bool   `yaml:"backup_existing"`
	SeparateFileOutputs bool   `yaml:"separate_file_outputs"`
	CreateIndexes       bool   `yaml:"create_indexes"`
	GraphImport         bool   `yaml:"graph_import"`
}

type PipelineConfig struct {
	Parallel   bool `yaml:"parallel"`
	MaxWorkers int  `yaml:"max_workers"`
}

type OllamaConfig struct {
	URL        string `yaml:"url"`
	GenModel   string `yaml:"gen_model"`
	EmbedModel string `yaml:"embed_model"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type WorkerConfig struct {
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
	MetricsPort string `yaml:"metrics_port"`
}

type Config struct {
	LogLevel string `yaml:"log_level"`

	Extract   ExtractConfig   `yaml:"extract"`
	Transform TransformConfig `yaml:"transform"`
	Load      LoadConfig      `yaml:"load"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
	Worker    WorkerConfig    `yaml:"worker"`
}

func Load() Config {
	return Config{
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		Extract: ExtractConfig{
			ProcessorPath:    mustEnv("AAS_PROCESSOR_PATH", ""),
			ProcessorTimeout: mustEnvDuration("AAS_PROCESSOR_TIMEOUT", 60*time.Second),
		},

		Transform: TransformConfig{
			OutputFormat:           domain.OutputFormat(mustEnv("TRANSFORM_OUTPUT_FORMAT", "json")),
			IncludeMetadata:        mustEnvBool("TRANSFORM_INCLUDE_METADATA", true),
			NormalizeIDs:           mustEnvBool("TRANSFORM_NORMALIZE_IDS", true),
			QualityChecks:          mustEnvBool("TRANSFORM_QUALITY_CHECKS", true),
			EnrichWithExternalData: mustEnvBool("TRANSFORM_ENRICH", true),
		},

		Load: LoadConfig{
			OutputDirectory:     mustEnv("LOAD_OUTPUT_DIR", "output"),
			DatabasePath:        mustEnv("LOAD_DATABASE_PATH", "aasx_data.db"),
			DatabaseDriver:      mustEnv("LOAD_DATABASE_DRIVER", "sqlite3"),
			VectorDB:            mustEnv("LOAD_VECTOR_DB", "none"),
			VectorDBURL:         mustEnv("LOAD_VECTOR_DB_URL", "http://localhost:6333"),
			EmbeddingModel:      mustEnv("LOAD_EMBEDDING_MODEL", "nomic-embed-text"),
			BackupExisting:      mustEnvBool("LOAD_BACKUP_EXISTING", true),
			SeparateFileOutputs: mustEnvBool("LOAD_SEPARATE_FILE_OUTPUTS", false),
			CreateIndexes:       mustEnvBool("LOAD_CREATE_INDEXES", true),
			GraphImport:         mustEnvBool("LOAD_GRAPH_IMPORT", false),
		},

		Pipeline: PipelineConfig{
			Parallel:   mustEnvBool("PIPELINE_PARALLEL", false),
			MaxWorkers: mustEnvInt("PIPELINE_MAX_WORKERS", 4),
		},

		Ollama: OllamaConfig{
			URL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
			GenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
			EmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		},

		Neo4j: Neo4jConfig{
			URI:      mustEnv("NEO4J_URI", "bolt://localhost:7687"),
			User:     mustEnv("NEO4J_USER", "neo4j"),
			Password: mustEnv("NEO4J_PASSWORD", ""),
		},

		Worker: WorkerConfig{
			NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
			NATSSubject: mustEnv("NATS_SUBJECT", "aasx.packages"),
			MetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
		},
	}
}

// LoadFile overlays a YAML file on top of the env-derived configuration.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Transform.OutputFormat.Valid() {
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			fmt.Errorf("unknown output format %q", c.Transform.OutputFormat))
	}
	switch c.Load.DatabaseDriver {
	case "sqlite3", "pgx":
	default:
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			fmt.Errorf("unknown database driver %q", c.Load.DatabaseDriver))
	}
	switch c.Load.VectorDB {
	case "qdrant", "memory", "none":
	default:
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			fmt.Errorf("unknown vector db %q", c.Load.VectorDB))
	}
	if c.Pipeline.MaxWorkers <= 0 {
		return domain.WrapError(domain.ErrConfiguration, "validate config",
			fmt.Errorf("max_workers must be positive, got %d", c.Pipeline.MaxWorkers))
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
