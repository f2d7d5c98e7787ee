package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/domain"
)

// ValidatePipeline reports a per-component OK/FAILED breakdown.
func (p *Pipeline) ValidatePipeline() domain.ValidationReport {
	report := domain.ValidationReport{
		PipelineValid: true,
		Components:    map[string]domain.ComponentStatus{},
		Errors:        []string{},
	}

	comps, err := p.sharedComponents()
	if err != nil {
		report.PipelineValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("component construction failed: %v", err))
		for _, name := range []string{"processor", "transformer", "loader"} {
			report.Components[name] = domain.ComponentStatus{Valid: false, Status: "FAILED"}
		}
		return report
	}

	checks := map[string]bool{
		"processor":   comps.Extractor != nil,
		"transformer": comps.Transformer != nil,
		"loader":      comps.Loader != nil,
	}
	for name, valid := range checks {
		status := "OK"
		if !valid {
			status = "FAILED"
			report.PipelineValid = false
		}
		report.Components[name] = domain.ComponentStatus{Valid: valid, Status: status}
	}
	if !report.PipelineValid {
		report.Errors = append(report.Errors, "one or more pipeline components failed validation")
	}
	return report
}

// PipelineReport is the serialized run report shape.
type PipelineReport struct {
	ReportType        string                  `json:"report_type"`
	GeneratedAt       time.Time               `json:"generated_at"`
	PipelineConfig    config.PipelineConfig   `json:"pipeline_config"`
	PipelineStats     domain.PipelineStats    `json:"pipeline_stats"`
	ValidationResults domain.ValidationReport `json:"validation_results"`
	ComponentConfigs  ComponentConfigs        `json:"component_configs"`
}

type ComponentConfigs struct {
	Extract   config.ExtractConfig   `json:"extract_config"`
	Transform config.TransformConfig `json:"transform_config"`
	Load      config.LoadConfig      `json:"load_config"`
}

// ExportReport serializes configuration, cumulative stats, and validation
// results to a JSON file.
func (p *Pipeline) ExportReport(path string, configs ComponentConfigs) error {
	report := PipelineReport{
		ReportType:        "AASX_ETL_Pipeline_Report",
		GeneratedAt:       p.now(),
		PipelineConfig:    p.cfg,
		PipelineStats:     p.Stats(),
		ValidationResults: p.ValidatePipeline(),
		ComponentConfigs:  configs,
	}
	if err := writeJSON(path, report); err != nil {
		return fmt.Errorf("export pipeline report: %w", err)
	}
	p.logger.Info("pipeline report exported", "path", path)
	return nil
}

// CreateRAGDataset refuses when the relational store holds no assets and no
// submodels; otherwise it delegates to the Loader's RAG export.
func (p *Pipeline) CreateRAGDataset(ctx context.Context, path string) error {
	comps, err := p.sharedComponents()
	if err != nil {
		return fmt.Errorf("build pipeline components: %w", err)
	}

	stats, err := comps.Loader.DatabaseStats(ctx)
	if err != nil {
		return fmt.Errorf("read database stats: %w", err)
	}
	if stats.Empty() {
		return domain.WrapError(domain.ErrConfiguration, "create rag dataset",
			fmt.Errorf("no data available for rag dataset creation"))
	}
	return comps.Loader.ExportForRAG(ctx, path)
}
