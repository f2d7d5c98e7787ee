// Package pdftext pulls plain text out of embedded package documents so
// they can be embedded alongside assets and submodels.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/twinforge/aasx-etl/internal/core/ports"
)

type Extractor struct{}

var _ ports.DocumentTextExtractor = (*Extractor)(nil)

func New() *Extractor { return &Extractor{} }

// ExtractText returns the text content of a document. PDF documents are
// parsed; plain text passes through; other types yield an empty string.
func (e *Extractor) ExtractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return pdfText(filename, data)
	case ".txt":
		return string(data), nil
	default:
		return "", nil
	}
}

func pdfText(filename string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf %s: %w", filename, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", filename, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", filename, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
