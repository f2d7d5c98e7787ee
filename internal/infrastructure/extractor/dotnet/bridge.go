package dotnet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

// Bridge invokes the external AAS processor executable with
// (input_package_path, output_json_path) and reads the result back. It is
// the highest-priority extraction strategy when the executable is present.
type Bridge struct {
	executable string
	timeout    time.Duration
}

func New(executable string, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Bridge{executable: executable, timeout: timeout}
}

func (b *Bridge) Name() string { return "dotnet" }

func (b *Bridge) Available() bool {
	if b.executable == "" {
		return false
	}
	info, err := os.Stat(b.executable)
	return err == nil && !info.IsDir()
}

func (b *Bridge) TryExtract(ctx context.Context, path string) (*domain.RawExtraction, error) {
	output := filepath.Join(os.TempDir(), "aas_extract_"+uuid.NewString()+".json")
	defer os.Remove(output)

	// A stuck processor must not block a worker forever.
	runCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, b.executable, path, output)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("processor timed out after %s", b.timeout)
		}
		return nil, fmt.Errorf("processor exited: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("read processor output: %w", err)
	}

	var extraction domain.RawExtraction
	if err := json.Unmarshal(raw, &extraction); err != nil {
		return nil, fmt.Errorf("decode processor output: %w", err)
	}
	if extraction.Metadata == nil {
		extraction.Metadata = map[string]any{}
	}
	extraction.Metadata["processing_method"] = "dotnet_processor"
	return &extraction, nil
}
