package queue

import (
	"context"
	"errors"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// Worker drains one platform's queue. Jobs are claimed oldest first so a
// rescheduled retry re-joins behind newer work; platforms never block each
// other because every platform runs its own worker.
type Worker struct {
	platform model.Platform
	jobs     repository.IJob
	executor Executor
	listener Listener
	cfg      Config
}

func NewWorker(platform model.Platform, jobs repository.IJob, executor Executor, listener Listener, cfg Config) *Worker {
	return &Worker{platform: platform, jobs: jobs, executor: executor, listener: listener, cfg: cfg}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.GetLogger().
					WithField("platform", w.platform).
					WithField("error", err).
					Error("Error while draining publish queue")
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	due, err := w.jobs.FetchDue(ctx, w.platform, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		claimed, err := w.jobs.MarkProcessing(ctx, job.ID)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		w.process(ctx, job)
	}
	return nil
}

func (w *Worker) process(ctx context.Context, job *model.PublishJob) {
	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	result, err := w.executor.Execute(jobCtx, job)
	if err == nil {
		if markErr := w.jobs.MarkPosted(ctx, job.ID); markErr != nil {
			logger.GetLogger().WithField("job_id", job.ID).WithField("error", markErr).Error("Error while marking job posted")
		}
		w.notify(ctx, job, model.PlatformPostPosted, result, nil)
		return
	}

	// A job that blew the wall clock is force-failed, not retried.
	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		err = model.NewTimeoutError(w.platform, "job exceeded %s wall clock", w.cfg.JobTimeout)
	}

	attempts := job.Attempts + 1
	msg := err.Error()
	if model.IsRetryable(err) && attempts <= w.cfg.MaxRetries {
		delay := w.cfg.RetryDelay(attempts)
		nextRun := time.Now().UTC().Add(delay)
		logger.GetLogger().
			WithField("job_id", job.ID).
			WithField("platform", w.platform).
			WithField("attempt", attempts).
			WithField("delay", delay.String()).
			Warn("Publish failed, retrying")
		if resErr := w.jobs.Reschedule(ctx, job.ID, attempts, msg, nextRun); resErr != nil {
			logger.GetLogger().WithField("job_id", job.ID).WithField("error", resErr).Error("Error while rescheduling job")
		}
		return
	}

	logger.GetLogger().
		WithField("job_id", job.ID).
		WithField("platform", w.platform).
		WithField("kind", model.KindOf(err)).
		WithField("error", msg).
		Error("Publish failed permanently")
	if markErr := w.jobs.MarkFailed(ctx, job.ID, msg); markErr != nil {
		logger.GetLogger().WithField("job_id", job.ID).WithField("error", markErr).Error("Error while marking job failed")
	}
	w.notify(ctx, job, model.PlatformPostFailed, nil, &msg)
}

func (w *Worker) notify(ctx context.Context, job *model.PublishJob, status model.PlatformPostStatus, result *model.PublishResult, errMsg *string) {
	if w.listener == nil {
		return
	}
	w.listener.JobResolved(ctx, job, status, result, errMsg)
}
