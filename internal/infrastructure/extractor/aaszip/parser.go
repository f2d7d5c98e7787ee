// Package aaszip extracts Asset Administration Shell environments from
// package archives without an external processor.
package aaszip

import (
	"context"
	"fmt"

	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

// Parser reads the archive in process and parses the AAS environment JSON
// members into the raw extraction shape.
type Parser struct {
	keepDocumentBytes bool
}

var _ ports.ExtractStrategy = (*Parser)(nil)

func NewParser() *Parser {
	return &Parser{keepDocumentBytes: true}
}

func (p *Parser) Name() string { return "aasenv" }

// Available is always true; the parser has no external requirements.
func (p *Parser) Available() bool { return true }

func (p *Parser) TryExtract(ctx context.Context, path string) (*domain.RawExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contents, err := readArchive(path, p.keepDocumentBytes)
	if err != nil {
		return nil, err
	}
	if len(contents.jsonMembers) == 0 {
		return nil, fmt.Errorf("no aas environment members in %s", path)
	}

	assets := parseAssets(contents.jsonMembers)
	submodels := parseSubmodels(contents.jsonMembers)
	if len(assets) == 0 && len(submodels) == 0 {
		return nil, fmt.Errorf("no shells or submodels recognized in %s", path)
	}

	return &domain.RawExtraction{
		Assets:    assets,
		Submodels: submodels,
		Documents: contents.documents,
		Metadata: map[string]any{
			"processing_method": "aas_environment",
			"archive_files":     len(contents.allFiles),
		},
	}, nil
}
