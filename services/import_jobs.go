package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/repository"
	"go.uber.org/zap"
)

// ArchiveStore keeps uploaded import files until a worker picks them up.
type ArchiveStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// ImportJobService queues file imports and runs them in the background.
type ImportJobService interface {
	Submit(ctx context.Context, filename string, data []byte, actor string) (*models.ImportJob, *ServiceError)
	Status(ctx context.Context, id string) (*models.ImportJob, *ServiceError)
	Process(ctx context.Context, id string) error
}

type importJobServiceImpl struct {
	jobs     repository.JobStore
	archive  ArchiveStore
	importer ImportService
	logger   *zap.Logger
	now      func() time.Time
}

func NewImportJobService(jobs repository.JobStore, archive ArchiveStore, importer ImportService, logger *zap.Logger) ImportJobService {
	return &importJobServiceImpl{
		jobs:     jobs,
		archive:  archive,
		importer: importer,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit archives data and queues a pending job for it.
func (s *importJobServiceImpl) Submit(ctx context.Context, filename string, data []byte, actor string) (*models.ImportJob, *ServiceError) {
	source, err := SourceFromFilename(filename)
	if err != nil {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: err.Error()}
	}

	id := uuid.New().String()
	job := &models.ImportJob{
		ID:        id,
		Status:    models.JobPending,
		ObjectKey: fmt.Sprintf("imports/%s.%s", id, source),
		Source:    source,
		Actor:     actor,
		CreatedAt: s.now().UTC(),
	}

	if err := s.archive.Upload(ctx, job.ObjectKey, contentTypeFor(source), bytes.NewReader(data)); err != nil {
		s.logger.Error("Failed to archive import file", zap.String("job_id", id), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to queue import job"}
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.logger.Error("Failed to store import job", zap.String("job_id", id), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to queue import job"}
	}
	if err := s.jobs.Enqueue(ctx, id); err != nil {
		_ = s.jobs.Delete(ctx, id)
		s.logger.Error("Failed to enqueue import job", zap.String("job_id", id), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to queue import job"}
	}

	s.logger.Info("Import job queued", zap.String("job_id", id), zap.String("source", string(source)), zap.Int("bytes", len(data)))
	return job, nil
}

func (s *importJobServiceImpl) Status(ctx context.Context, id string) (*models.ImportJob, *ServiceError) {
	job, err := s.jobs.Get(ctx, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		return nil, &ServiceError{StatusCode: http.StatusNotFound, Message: "Job not found"}
	}
	if err != nil {
		s.logger.Error("Failed to get job status", zap.String("job_id", id), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to retrieve job status"}
	}
	return job, nil
}

// Process runs one queued job: pending → processing → done|failed. The
// returned error is only for failures to read or update the job itself.
func (s *importJobServiceImpl) Process(ctx context.Context, id string) error {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load job %s: %w", id, err)
	}

	job.Status = models.JobProcessing
	if err := s.jobs.Save(ctx, job); err != nil {
		return err
	}

	parsed, err := s.load(ctx, job)
	if err != nil {
		s.logger.Error("Import job failed", zap.String("job_id", id), zap.Error(err))
		job.Status = models.JobFailed
		job.Error = err.Error()
		return s.jobs.Save(ctx, job)
	}

	result := s.importer.ImportBatchWithMeta(ctx, parsed.Inputs, ImportMeta{
		Source:     job.Source,
		Actor:      job.Actor,
		JobID:      job.ID,
		SourceRows: parsed.Rows,
	})
	job.Status = models.JobDone
	job.Result = result
	s.logger.Info("Import job done",
		zap.String("job_id", id),
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)),
	)
	return s.jobs.Save(ctx, job)
}

func (s *importJobServiceImpl) load(ctx context.Context, job *models.ImportJob) (*ParsedFile, error) {
	body, err := s.archive.Download(ctx, job.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", job.ObjectKey, err)
	}
	defer body.Close()
	return ParseProductSheet(body, job.Source)
}

func contentTypeFor(source models.ImportSource) string {
	switch source {
	case models.SourceCSV:
		return "text/csv"
	case models.SourceXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// JobQueue is the blocking side of the job store used by the worker.
type JobQueue interface {
	Dequeue(ctx context.Context) (string, error)
}

// StartImportWorker consumes job IDs until ctx is done, one job at a time.
func StartImportWorker(ctx context.Context, queue JobQueue, jobs ImportJobService, logger *zap.Logger) {
	go func() {
		logger.Info("Import worker started", zap.String("queue", repository.ImportQueueKey))
		for {
			select {
			case <-ctx.Done():
				logger.Info("Import worker stopping")
				return
			default:
			}

			id, err := queue.Dequeue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Info("Import worker stopping")
					return
				}
				logger.Error("Failed to dequeue import job", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(500 * time.Millisecond):
				}
				continue
			}

			if err := jobs.Process(ctx, id); err != nil {
				logger.Error("Failed to process import job", zap.String("job_id", id), zap.Error(err))
			}
		}
	}()
}
