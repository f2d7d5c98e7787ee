package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/twinforge/aasx-etl/internal/core/domain"
)

type fakeStrategy struct {
	name      string
	available bool
	data      *domain.RawExtraction
	err       error
	panicMsg  string
	calls     int
}

func (s *fakeStrategy) Name() string    { return s.name }
func (s *fakeStrategy) Available() bool { return s.available }

func (s *fakeStrategy) TryExtract(context.Context, string) (*domain.RawExtraction, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.data, s.err
}

func writeTestPackage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not a real archive"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func TestExtractMissingFileReportsNotFound(t *testing.T) {
	extractor := NewExtractor(slog.Default(), &fakeStrategy{name: "s1", available: true})

	outcome := extractor.Extract(context.Background(), "/does/not/exist.aasx")
	if outcome.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(outcome.Error, domain.ErrNotFound.Error()) {
		t.Fatalf("expected not-found error, got %q", outcome.Error)
	}
}

func TestExtractWrongExtensionReportsInvalidFormat(t *testing.T) {
	path := writeTestPackage(t, "package.zip")
	strategy := &fakeStrategy{name: "s1", available: true}
	extractor := NewExtractor(slog.Default(), strategy)

	outcome := extractor.Extract(context.Background(), path)
	if outcome.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(outcome.Error, domain.ErrInvalidFormat.Error()) {
		t.Fatalf("expected invalid-format error, got %q", outcome.Error)
	}
	if strategy.calls != 0 {
		t.Fatalf("strategies must not run for invalid files")
	}
}

func TestExtractFirstSuccessfulStrategyWins(t *testing.T) {
	path := writeTestPackage(t, "ok.aasx")
	first := &fakeStrategy{name: "first", available: true, err: errors.New("broken")}
	second := &fakeStrategy{
		name:      "second",
		available: true,
		data:      &domain.RawExtraction{Assets: []domain.RawAsset{{ID: "a1"}}},
	}
	third := &fakeStrategy{name: "third", available: true, data: &domain.RawExtraction{}}
	extractor := NewExtractor(slog.Default(), first, second, third)

	outcome := extractor.Extract(context.Background(), path)
	if !outcome.Success {
		t.Fatalf("Extract() failed: %s", outcome.Error)
	}
	if len(outcome.Data.Assets) != 1 {
		t.Fatalf("expected data from second strategy")
	}
	if third.calls != 0 {
		t.Fatalf("later strategies must not run after a success")
	}
}

func TestExtractSkipsUnavailableStrategies(t *testing.T) {
	path := writeTestPackage(t, "ok.aasx")
	unavailable := &fakeStrategy{name: "external", available: false}
	fallback := &fakeStrategy{name: "fallback", available: true, data: &domain.RawExtraction{}}
	extractor := NewExtractor(slog.Default(), unavailable, fallback)

	outcome := extractor.Extract(context.Background(), path)
	if !outcome.Success {
		t.Fatalf("Extract() failed: %s", outcome.Error)
	}
	if unavailable.calls != 0 {
		t.Fatalf("unavailable strategy must be skipped")
	}
}

func TestExtractRecoversStrategyPanics(t *testing.T) {
	path := writeTestPackage(t, "ok.aasx")
	panicking := &fakeStrategy{name: "panicker", available: true, panicMsg: "corrupt archive"}
	fallback := &fakeStrategy{name: "fallback", available: true, data: &domain.RawExtraction{}}
	extractor := NewExtractor(slog.Default(), panicking, fallback)

	outcome := extractor.Extract(context.Background(), path)
	if !outcome.Success {
		t.Fatalf("expected fallback success after panic, got %s", outcome.Error)
	}
	if fallback.calls != 1 {
		t.Fatalf("expected fallback to run")
	}
}

func TestExtractAllStrategiesFailing(t *testing.T) {
	path := writeTestPackage(t, "ok.aasx")
	first := &fakeStrategy{name: "first", available: true, err: errors.New("first broken")}
	second := &fakeStrategy{name: "second", available: true, err: errors.New("second broken")}
	extractor := NewExtractor(slog.Default(), first, second)

	outcome := extractor.Extract(context.Background(), path)
	if outcome.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(outcome.Error, domain.ErrExtraction.Error()) {
		t.Fatalf("expected extraction error kind, got %q", outcome.Error)
	}
	if !strings.Contains(outcome.Error, "second broken") {
		t.Fatalf("expected last strategy error preserved, got %q", outcome.Error)
	}
}
