package repository

import (
	"context"
	"time"

	"social-hub/domain/model"
)

// IJob is the durable publish queue. One logical FIFO queue exists per
// platform over the shared table; ordering is by next_run_at, so a retried
// job re-enters at the tail relative to newer jobs.
type IJob interface {
	Enqueue(ctx context.Context, job *model.PublishJob) (int64, error)
	Get(ctx context.Context, jobID int64) (*model.PublishJob, error)
	// FetchDue returns queued jobs for one platform whose next_run_at has passed.
	FetchDue(ctx context.Context, platform model.Platform, limit int) ([]*model.PublishJob, error)
	// MarkProcessing claims a job; returns false when another worker got it first.
	MarkProcessing(ctx context.Context, jobID int64) (bool, error)
	MarkPosted(ctx context.Context, jobID int64) error
	MarkFailed(ctx context.Context, jobID int64, lastError string) error
	// Reschedule re-queues a retryable failure with the backoff delay applied.
	Reschedule(ctx context.Context, jobID int64, attempts int, lastError string, nextRunAt time.Time) error
}
