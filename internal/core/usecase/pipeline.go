package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/twinforge/aasx-etl/internal/config"
	"github.com/twinforge/aasx-etl/internal/core/domain"
	"github.com/twinforge/aasx-etl/internal/observability/metrics"
)

// Components is one worker's private set of pipeline stages. Parallel mode
// builds a fresh set per worker so no phase state is shared across workers.
type Components struct {
	Extractor   *Extractor
	Transformer *Transformer
	Loader      *Loader
}

// ComponentFactory builds an independent component set.
type ComponentFactory func() (*Components, error)

// Pipeline sequences Extract, Transform, and Load per file and aggregates
// instance-owned statistics across calls.
type Pipeline struct {
	cfg     config.PipelineConfig
	factory ComponentFactory
	logger  *slog.Logger
	metrics *metrics.PipelineMetrics
	now     func() time.Time

	mu         sync.Mutex
	stats      domain.PipelineStats
	components *Components
}

func NewPipeline(cfg config.PipelineConfig, factory ComponentFactory, logger *slog.Logger, m *metrics.PipelineMetrics) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		factory: factory,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// ProcessFile runs one file through the three phases. The first failed phase
// short-circuits the rest; per-file faults never surface as errors to the
// caller.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) *domain.RunResult {
	comps, err := p.sharedComponents()
	if err != nil {
		return p.failedRun(path, 0, fmt.Errorf("build pipeline components: %w", err))
	}
	return p.processWith(ctx, comps, path)
}

func (p *Pipeline) processWith(ctx context.Context, comps *Components, path string) (result *domain.RunResult) {
	start := p.now()
	result = &domain.RunResult{
		FilePath: path,
		Status:   domain.StatusProcessing,
		Errors:   []string{},
	}

	if p.metrics != nil {
		p.metrics.StartFile()
	}
	defer func() {
		if p.metrics != nil {
			p.metrics.FinishFile()
		}
		if r := recover(); r != nil {
			result = p.failedRun(path, p.now().Sub(start), fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	p.logger.Info("starting etl processing", "file", path)

	extractStart := p.now()
	extract := comps.Extractor.Extract(ctx, path)
	result.ExtractResult = extract
	p.recordPhase("extract", p.now().Sub(extractStart))
	if !extract.Success {
		return p.finishRun(result, start, fmt.Errorf("extraction failed: %s", extract.Error))
	}

	transformStart := p.now()
	transform := comps.Transformer.Transform(extract.Data)
	result.TransformResult = transform
	p.recordPhase("transform", p.now().Sub(transformStart))
	if !transform.Success {
		return p.finishRun(result, start, fmt.Errorf("transformation failed: %s", transform.Error))
	}
	transform.Data.SourceFile = path

	loadStart := p.now()
	load := comps.Loader.Load(ctx, transform.Data)
	result.LoadResult = load
	p.recordPhase("load", p.now().Sub(loadStart))
	if load.Failed() {
		return p.finishRun(result, start, fmt.Errorf("loading failed: %s", load.Errors[0]))
	}

	result.Status = domain.StatusCompleted
	result.ProcessingTime = p.now().Sub(start)

	p.mu.Lock()
	p.stats.FilesProcessed++
	p.stats.TotalProcessingTime += result.ProcessingTime
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ObserveFile(string(domain.StatusCompleted), result.ProcessingTime)
	}
	p.logger.Info("etl processing completed", "file", path, "duration", result.ProcessingTime)
	return result
}

func (p *Pipeline) finishRun(result *domain.RunResult, start time.Time, cause error) *domain.RunResult {
	message := fmt.Sprintf("etl processing failed for %s: %v", result.FilePath, cause)
	p.logger.Error("etl processing failed", "file", result.FilePath, "error", cause)

	result.Status = domain.StatusFailed
	result.Errors = append(result.Errors, message)
	result.ProcessingTime = p.now().Sub(start)

	p.mu.Lock()
	p.stats.FilesFailed++
	p.stats.TotalProcessingTime += result.ProcessingTime
	p.stats.Errors = append(p.stats.Errors, message)
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ObserveFile(string(domain.StatusFailed), result.ProcessingTime)
	}
	return result
}

func (p *Pipeline) failedRun(path string, elapsed time.Duration, cause error) *domain.RunResult {
	result := &domain.RunResult{
		FilePath: path,
		Status:   domain.StatusProcessing,
		Errors:   []string{},
	}
	return p.finishRun(result, p.now().Add(-elapsed), cause)
}

// ProcessDirectory discovers all package files in dir (non-recursive, sorted
// glob order) and processes them sequentially or with a bounded worker pool.
// Every discovered file yields exactly one result.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string) (*domain.BatchResult, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, domain.WrapError(domain.ErrNotFound, "process directory",
			fmt.Errorf("directory does not exist: %s", dir))
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.aasx"))
	if err != nil {
		return nil, fmt.Errorf("glob package files: %w", err)
	}
	sort.Strings(files)

	batch := &domain.BatchResult{Directory: dir, FilesFound: len(files), Results: []*domain.RunResult{}}
	if len(files) == 0 {
		p.logger.Warn("no package files found", "directory", dir)
		return batch, nil
	}
	p.logger.Info("batch discovered package files", "directory", dir, "count", len(files))

	start := p.now()
	if p.cfg.Parallel {
		batch.Results = p.processParallel(ctx, files)
	} else {
		batch.Results = p.processSequential(ctx, files)
	}
	batch.TotalTime = p.now().Sub(start)
	batch.AverageTimePerFile = batch.TotalTime / time.Duration(len(files))

	for _, result := range batch.Results {
		if result.Status == domain.StatusCompleted {
			batch.FilesProcessed++
		} else {
			batch.FilesFailed++
		}
	}
	return batch, nil
}

func (p *Pipeline) processSequential(ctx context.Context, files []string) []*domain.RunResult {
	results := make([]*domain.RunResult, 0, len(files))
	for _, file := range files {
		results = append(results, p.ProcessFile(ctx, file))
	}
	return results
}

// processParallel runs a fixed-size worker pool; each worker owns a private
// component set. Results arrive in completion order.
func (p *Pipeline) processParallel(ctx context.Context, files []string) []*domain.RunResult {
	workers := p.cfg.MaxWorkers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	out := make(chan *domain.RunResult)

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comps, err := p.factory()
			for file := range jobs {
				if err != nil {
					out <- p.failedRun(file, 0, fmt.Errorf("build worker components: %w", err))
					continue
				}
				out <- p.processWith(ctx, comps, file)
			}
		}()
	}

	go func() {
		for _, file := range files {
			jobs <- file
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	results := make([]*domain.RunResult, 0, len(files))
	for result := range out {
		results = append(results, result)
	}
	return results
}

func (p *Pipeline) sharedComponents() (*Components, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.components == nil {
		comps, err := p.factory()
		if err != nil {
			return nil, err
		}
		p.components = comps
	}
	return p.components, nil
}

func (p *Pipeline) recordPhase(phase string, elapsed time.Duration) {
	p.mu.Lock()
	switch phase {
	case "extract":
		p.stats.ExtractTime += elapsed
	case "transform":
		p.stats.TransformTime += elapsed
	case "load":
		p.stats.LoadTime += elapsed
	}
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ObservePhase(phase, elapsed)
	}
}

// Stats returns a copy of the accumulated counters.
func (p *Pipeline) Stats() domain.PipelineStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := p.stats
	stats.Errors = append([]string(nil), p.stats.Errors...)
	return stats
}

func (p *Pipeline) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = domain.PipelineStats{}
}
