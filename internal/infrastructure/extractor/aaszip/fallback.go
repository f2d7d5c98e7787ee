package aaszip

import (
	"context"

	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

// Fallback is the last extraction strategy in the chain. It walks the
// archive, decodes whatever JSON members parse, and returns empty
// collections when nothing is recognized. Only an unreadable archive is an
// error.
type Fallback struct {
	keepDocumentBytes bool
}

var _ ports.ExtractStrategy = (*Fallback)(nil)

func NewFallback() *Fallback {
	return &Fallback{keepDocumentBytes: true}
}

func (f *Fallback) Name() string { return "zipfallback" }

func (f *Fallback) Available() bool { return true }

func (f *Fallback) TryExtract(ctx context.Context, path string) (*domain.RawExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contents, err := readArchive(path, f.keepDocumentBytes)
	if err != nil {
		return nil, err
	}

	extraction := &domain.RawExtraction{
		Assets:    parseAssets(contents.jsonMembers),
		Submodels: parseSubmodels(contents.jsonMembers),
		Documents: contents.documents,
		Metadata: map[string]any{
			"processing_method": "zip_fallback",
			"archive_files":     len(contents.allFiles),
			"json_members":      len(contents.jsonMembers),
		},
	}
	if extraction.Assets == nil {
		extraction.Assets = []domain.RawAsset{}
	}
	if extraction.Submodels == nil {
		extraction.Submodels = []domain.RawSubmodel{}
	}
	if extraction.Documents == nil {
		extraction.Documents = []domain.RawDocument{}
	}
	return extraction, nil
}
