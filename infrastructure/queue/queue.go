package queue

import (
	"context"
	"time"

	"social-hub/domain/model"
	"social-hub/infrastructure/configuration"
)

// Executor runs the publish pipeline for one claimed job.
type Executor interface {
	Execute(ctx context.Context, job *model.PublishJob) (*model.PublishResult, error)
}

// Listener is notified once per job resolution (posted or terminally failed),
// never for retries that will run again.
type Listener interface {
	JobResolved(ctx context.Context, job *model.PublishJob, status model.PlatformPostStatus, result *model.PublishResult, errMsg *string)
}

// Config tunes the workers. Use DefaultConfig or FromConfiguration; the zero
// value would poll in a hot loop.
type Config struct {
	PollInterval time.Duration
	BaseDelay    time.Duration
	MaxRetries   int
	JobTimeout   time.Duration
	BatchSize    int
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 1 * time.Second,
		BaseDelay:    2000 * time.Millisecond,
		MaxRetries:   3,
		JobTimeout:   10 * time.Minute,
		BatchSize:    10,
	}
}

// FromConfiguration builds worker settings from the loaded config file,
// falling back to defaults for anything unset.
func FromConfiguration(qc configuration.Queue) Config {
	cfg := DefaultConfig()
	if qc.PollIntervalMS > 0 {
		cfg.PollInterval = time.Duration(qc.PollIntervalMS) * time.Millisecond
	}
	if qc.BaseDelayMS > 0 {
		cfg.BaseDelay = time.Duration(qc.BaseDelayMS) * time.Millisecond
	}
	if qc.MaxAttempts > 0 {
		cfg.MaxRetries = qc.MaxAttempts
	}
	if qc.JobTimeoutMinutes > 0 {
		cfg.JobTimeout = time.Duration(qc.JobTimeoutMinutes) * time.Minute
	}
	if qc.BatchSize > 0 {
		cfg.BatchSize = qc.BatchSize
	}
	return cfg
}

// RetryDelay is the exponential backoff before retry n (1-based):
// base × 2^(n-1).
func (c Config) RetryDelay(retry int) time.Duration {
	d := c.BaseDelay
	for i := 1; i < retry; i++ {
		d *= 2
	}
	return d
}
