package model

import "time"

// JobStatus is the queue-native state of a publish job.
// Jobs move queued -> processing -> (posted | failed); a retryable failure
// re-enters queued with a later next_run_at until attempts are exhausted.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobPosted     JobStatus = "posted"
	JobFailed     JobStatus = "failed"
)

// PublishJob is one queued platform publish. The payload is the serialized
// PublishPayload; attempts counts executions, not enqueues.
type PublishJob struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	Platform  Platform  `json:"platform"`
	Payload   []byte    `json:"payload"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError *string   `json:"last_error,omitempty"`
	NextRunAt time.Time `json:"next_run_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublishPayload is everything a worker needs to run the publish pipeline for
// one platform without touching the request context again.
type PublishPayload struct {
	UserID  string      `json:"user_id"`
	Content PostContent `json:"content"`
}
