package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docuparse-client/internal/domain"
	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/repository"
)

var _ repository.SnapshotCache = (*SnapshotCache)(nil)

// SnapshotCache shares job snapshots and run lists across components so the
// same view is not re-fetched by every consumer. Entries carry the configured
// TTL (a short staleness window); mutations invalidate explicitly — there is
// no background revalidation. A miss surfaces as domain.ErrNotFound so
// callers fall through to the API.
type SnapshotCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewSnapshotCache(client RedisClient, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func jobKey(jobID string) string  { return "job:" + jobID }
func runsKey(jobID string) string { return "job_runs:" + jobID }

func (c *SnapshotCache) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := c.client.Get(ctx, jobKey(jobID))
	if err != nil {
		if IsMiss(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("cache get job: %w", err)
	}
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("cache decode job: %w", err)
	}
	return &job, nil
}

func (c *SnapshotCache) SetJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("cache encode job: %w", err)
	}
	return c.client.Set(ctx, jobKey(job.ID), data, c.ttl)
}

func (c *SnapshotCache) GetRuns(ctx context.Context, jobID string) ([]model.Run, error) {
	data, err := c.client.Get(ctx, runsKey(jobID))
	if err != nil {
		if IsMiss(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("cache get runs: %w", err)
	}
	var runs []model.Run
	if err := json.Unmarshal([]byte(data), &runs); err != nil {
		return nil, fmt.Errorf("cache decode runs: %w", err)
	}
	return runs, nil
}

func (c *SnapshotCache) SetRuns(ctx context.Context, jobID string, runs []model.Run) error {
	data, err := json.Marshal(runs)
	if err != nil {
		return fmt.Errorf("cache encode runs: %w", err)
	}
	return c.client.Set(ctx, runsKey(jobID), data, c.ttl)
}

func (c *SnapshotCache) InvalidateJob(ctx context.Context, jobID string) error {
	return c.client.Del(ctx, jobKey(jobID), runsKey(jobID))
}
