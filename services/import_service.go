package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/pkg/retry"
	"github.com/na4oman/samsung-shop/repository"
	"go.uber.org/zap"
)

// UnexpectedImportError is recorded for a row whose processing panicked.
const UnexpectedImportError = "Unexpected error while importing product"

// Metric names recorded after every batch.
const (
	MetricProductsImported = "ProductsImported"
	MetricImportFailures   = "ProductImportFailures"
)

// ImportService runs batches of candidate rows through validation, duplicate
// detection and retried persistence.
type ImportService interface {
	ImportBatch(ctx context.Context, inputs []models.ProductInput) *models.ImportResult
	ImportBatchWithMeta(ctx context.Context, inputs []models.ProductInput, meta ImportMeta) *models.ImportResult
	ListRuns(ctx context.Context, page, limit int) ([]models.ImportRun, int64, *ServiceError)
}

type importServiceImpl struct {
	store    ProductStore
	detector *DuplicateDetector
	policy   retry.Policy
	events   EventPublisher
	metrics  MetricsRecorder
	runs     repository.ImportRunRepo
	logger   *zap.Logger
	now      func() time.Time
}

// ImportOption configures optional collaborators of the import service.
type ImportOption func(*importServiceImpl)

func WithRetryPolicy(p retry.Policy) ImportOption {
	return func(s *importServiceImpl) { s.policy = p }
}

func WithEvents(events EventPublisher) ImportOption {
	return func(s *importServiceImpl) { s.events = events }
}

func WithMetrics(metrics MetricsRecorder) ImportOption {
	return func(s *importServiceImpl) { s.metrics = metrics }
}

func WithImportRuns(runs repository.ImportRunRepo) ImportOption {
	return func(s *importServiceImpl) { s.runs = runs }
}

// NewImportService creates a new ImportService.
func NewImportService(store ProductStore, detector *DuplicateDetector, logger *zap.Logger, opts ...ImportOption) ImportService {
	s := &importServiceImpl{
		store:    store,
		detector: detector,
		policy:   retry.DefaultPolicy(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *importServiceImpl) ImportBatch(ctx context.Context, inputs []models.ProductInput) *models.ImportResult {
	return s.ImportBatchWithMeta(ctx, inputs, ImportMeta{Source: models.SourceJSON})
}

// ImportBatchWithMeta processes inputs strictly in order and always returns a
// result. Rows accepted earlier in the batch take part in duplicate detection
// for later rows.
func (s *importServiceImpl) ImportBatchWithMeta(ctx context.Context, inputs []models.ProductInput, meta ImportMeta) *models.ImportResult {
	started := s.now()
	result := &models.ImportResult{
		Successful:     []models.Product{},
		Failed:         []models.ImportError{},
		TotalProcessed: len(inputs),
	}

	existing, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("Could not fetch existing products for duplicate checking, continuing with empty catalog", zap.Error(err))
		existing = nil
	}
	known := NewKnownSet(existing)
	s.logger.Info("Import batch started",
		zap.Int("products", len(inputs)),
		zap.Int("known_products", known.Len()),
		zap.String("source", string(meta.Source)),
	)

	for i, in := range inputs {
		product, reason := s.processRecord(ctx, i, in, known)
		if product == nil {
			result.Failed = append(result.Failed, models.ImportError{Product: in, Error: reason, Index: i, Row: meta.sourceRow(i)})
			continue
		}
		result.Successful = append(result.Successful, *product)
		known.Add(*product)
	}

	finished := s.now()
	s.logger.Info("Import batch completed",
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("took", finished.Sub(started)),
	)

	s.publish(result)
	s.recordMetrics(ctx, result, meta)
	s.recordRun(ctx, result, meta, started, finished)
	return result
}

// processRecord returns the persisted product, or nil and the rejection reason.
func (s *importServiceImpl) processRecord(ctx context.Context, idx int, in models.ProductInput, known *KnownSet) (product *models.Product, reason string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while importing product", zap.Int("index", idx), zap.Any("panic", r))
			product, reason = nil, UnexpectedImportError
		}
	}()

	validation := ValidateProduct(in)
	if !validation.IsValid {
		s.logger.Debug("Validation failed", zap.Int("index", idx), zap.Strings("errors", validation.Errors))
		return nil, strings.Join(validation.Errors, "; ")
	}

	rec := in.Record()
	if conflicts := s.detector.FindConflicts(rec, known); len(conflicts) > 0 {
		s.logger.Debug("Duplicate detected", zap.Int("index", idx), zap.Strings("conflicts", conflicts))
		return nil, strings.Join(conflicts, "; ")
	}

	policy := s.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.logger.Warn("Retrying product create",
			zap.Int("index", idx),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	created, err := retry.Do(ctx, policy, func(ctx context.Context) (*models.Product, error) {
		return s.store.Create(ctx, rec)
	})
	if err != nil {
		s.logger.Error("Failed to create product", zap.Int("index", idx), zap.String("part_number", rec.PartNumber), zap.Error(err))
		return nil, err.Error()
	}
	if created == nil {
		return nil, fmt.Sprintf("store returned no product for part number %s", rec.PartNumber)
	}
	return created, ""
}

func (s *importServiceImpl) publish(result *models.ImportResult) {
	if s.events == nil || len(result.Successful) == 0 {
		return
	}
	ids := make([]string, 0, len(result.Successful))
	for _, p := range result.Successful {
		ids = append(ids, p.ID)
	}
	s.events.Publish(models.CatalogEvent{
		Type:       models.EventImport,
		Timestamp:  s.now(),
		Count:      len(ids),
		ProductIDs: ids,
	})
}

func (s *importServiceImpl) recordMetrics(ctx context.Context, result *models.ImportResult, meta ImportMeta) {
	if s.metrics == nil {
		return
	}
	dims := map[string]string{"Service": "catalog", "Source": string(meta.Source)}
	if err := s.metrics.RecordValue(ctx, MetricProductsImported, float64(len(result.Successful)), dims); err != nil {
		s.logger.Warn("Failed to record import metric", zap.Error(err))
	}
	if err := s.metrics.RecordValue(ctx, MetricImportFailures, float64(len(result.Failed)), dims); err != nil {
		s.logger.Warn("Failed to record import metric", zap.Error(err))
	}
}

func (s *importServiceImpl) recordRun(ctx context.Context, result *models.ImportResult, meta ImportMeta, started, finished time.Time) {
	if s.runs == nil {
		return
	}
	run := &models.ImportRun{
		ID:         uuid.New().String(),
		JobID:      meta.JobID,
		Source:     meta.Source,
		Actor:      meta.Actor,
		Total:      result.TotalProcessed,
		Succeeded:  len(result.Successful),
		Failed:     len(result.Failed),
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Warn("Failed to record import run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *importServiceImpl) ListRuns(ctx context.Context, page, limit int) ([]models.ImportRun, int64, *ServiceError) {
	if s.runs == nil {
		return nil, 0, &ServiceError{StatusCode: 503, Message: "Import history is not configured"}
	}
	runs, total, err := s.runs.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list import runs", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list import runs"}
	}
	return runs, total, nil
}
