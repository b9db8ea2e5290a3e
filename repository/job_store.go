package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/na4oman/samsung-shop/models"
)

const (
	ImportQueueKey  = "bulk_import:queue"
	importJobPrefix = "bulk_import:job:"
	DefaultJobTTL   = 24 * time.Hour
)

var ErrJobNotFound = errors.New("import job not found")

// JobStore keeps async import job metadata and the queue of pending job IDs.
type JobStore interface {
	Save(ctx context.Context, job *models.ImportJob) error
	Get(ctx context.Context, id string) (*models.ImportJob, error)
	Delete(ctx context.Context, id string) error
	Enqueue(ctx context.Context, id string) error
	// Dequeue blocks until a job ID is available or ctx is done.
	Dequeue(ctx context.Context) (string, error)
}

// RedisJobStore implements JobStore with one JSON value per job and a Redis list as queue.
type RedisJobStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisJobStore(rdb *redis.Client) *RedisJobStore {
	return &RedisJobStore{rdb: rdb, ttl: DefaultJobTTL}
}

func jobKey(id string) string { return importJobPrefix + id }

func (s *RedisJobStore) Save(ctx context.Context, job *models.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	if err := s.rdb.Set(ctx, jobKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	val, err := s.rdb.Get(ctx, jobKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}
	var job models.ImportJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisJobStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, jobKey(id)).Err()
}

func (s *RedisJobStore) Enqueue(ctx context.Context, id string) error {
	if err := s.rdb.RPush(ctx, ImportQueueKey, id).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (s *RedisJobStore) Dequeue(ctx context.Context) (string, error) {
	res, err := s.rdb.BLPop(ctx, 0, ImportQueueKey).Result()
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", fmt.Errorf("unexpected BLPOP reply %v", res)
	}
	return res[1], nil
}
