package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"social-hub/domain/model"
)

type JobRepository struct{ db *sql.DB }

func NewJobRepository(db *sql.DB) *JobRepository { return &JobRepository{db: db} }

func (r *JobRepository) Enqueue(ctx context.Context, job *model.PublishJob) (int64, error) {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.JobQueued
	}
	if job.NextRunAt.IsZero() {
		job.NextRunAt = now
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO publish_jobs (post_id, platform, payload, status, attempts, last_error, next_run_at, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		job.PostID, job.Platform, job.Payload, job.Status, job.Attempts, job.LastError,
		job.NextRunAt, job.CreatedAt, job.UpdatedAt).Scan(&job.ID)
	if err != nil {
		return 0, err
	}
	return job.ID, nil
}

func (r *JobRepository) Get(ctx context.Context, id int64) (*model.PublishJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, platform, payload, status, attempts, last_error, next_run_at, created_at, updated_at
		 FROM publish_jobs WHERE id=$1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// FetchDue returns queued jobs for one platform whose next_run_at has passed,
// oldest first so a retried job re-joins the tail of the line.
func (r *JobRepository) FetchDue(ctx context.Context, platform model.Platform, limit int) ([]*model.PublishJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, platform, payload, status, attempts, last_error, next_run_at, created_at, updated_at
		 FROM publish_jobs
		 WHERE platform=$1 AND status=$2 AND next_run_at<=$3
		 ORDER BY next_run_at ASC, id ASC
		 LIMIT $4`,
		platform, model.JobQueued, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*model.PublishJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkProcessing claims a queued job. It reports false when another worker
// already took it.
func (r *JobRepository) MarkProcessing(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE publish_jobs SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		model.JobProcessing, time.Now().UTC(), id, model.JobQueued)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *JobRepository) MarkPosted(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publish_jobs SET status=$1, last_error=NULL, updated_at=$2 WHERE id=$3`,
		model.JobPosted, time.Now().UTC(), id)
	return err
}

func (r *JobRepository) MarkFailed(ctx context.Context, id int64, lastError string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publish_jobs SET status=$1, last_error=$2, updated_at=$3 WHERE id=$4`,
		model.JobFailed, lastError, time.Now().UTC(), id)
	return err
}

// Reschedule returns a job to the queue for a later retry.
func (r *JobRepository) Reschedule(ctx context.Context, id int64, attempts int, lastError string, nextRunAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publish_jobs SET status=$1, attempts=$2, last_error=$3, next_run_at=$4, updated_at=$5 WHERE id=$6`,
		model.JobQueued, attempts, lastError, nextRunAt.UTC(), time.Now().UTC(), id)
	return err
}

func scanJob(row rowScanner) (*model.PublishJob, error) {
	job := &model.PublishJob{}
	var lastError sql.NullString
	if err := row.Scan(&job.ID, &job.PostID, &job.Platform, &job.Payload, &job.Status,
		&job.Attempts, &lastError, &job.NextRunAt, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	if lastError.Valid {
		v := lastError.String
		job.LastError = &v
	}
	return job, nil
}
