package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/core/ports"
)

// Extractor pulls raw structured records out of one package file by trying
// an ordered chain of extraction strategies. It never lets an internal fault
// escape: every path returns an ExtractOutcome.
type Extractor struct {
	strategies []ports.ExtractStrategy
	logger     *slog.Logger
}

func NewExtractor(logger *slog.Logger, strategies ...ports.ExtractStrategy) *Extractor {
	return &Extractor{strategies: strategies, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, path string) *domain.ExtractOutcome {
	info, err := os.Stat(path)
	if err != nil {
		return failedOutcome(domain.WrapError(domain.ErrNotFound, "stat package file", err))
	}
	if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".aasx") {
		return failedOutcome(domain.WrapError(domain.ErrInvalidFormat, "check package file",
			fmt.Errorf("expected an .aasx package: %s", path)))
	}

	var lastErr error
	for _, strategy := range e.strategies {
		if !strategy.Available() {
			e.logger.Debug("extract strategy unavailable", "strategy", strategy.Name())
			continue
		}

		raw, err := e.tryStrategy(ctx, strategy, path)
		if err != nil {
			e.logger.Warn("extract strategy failed",
				"strategy", strategy.Name(), "file", path, "error", err)
			lastErr = fmt.Errorf("%s: %w", strategy.Name(), err)
			continue
		}

		e.logger.Info("extraction completed",
			"strategy", strategy.Name(), "file", path,
			"assets", len(raw.Assets), "submodels", len(raw.Submodels), "documents", len(raw.Documents))
		return &domain.ExtractOutcome{Success: true, Data: raw}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no extraction strategy available")
	}
	return failedOutcome(domain.WrapError(domain.ErrExtraction, "extract package", lastErr))
}

// tryStrategy recovers strategy panics so a broken archive degrades to the
// next fallback instead of killing the worker.
func (e *Extractor) tryStrategy(ctx context.Context, strategy ports.ExtractStrategy, path string) (raw *domain.RawExtraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()

	raw, err = strategy.TryExtract(ctx, path)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("strategy returned no data")
	}
	return raw, nil
}

func failedOutcome(err error) *domain.ExtractOutcome {
	return &domain.ExtractOutcome{Success: false, Error: err.Error()}
}
