package model

import "time"

// PostStatus is the aggregate status of a multi-platform post.
type PostStatus string

const (
	PostStatusProcessing PostStatus = "processing"
	PostStatusCompleted  PostStatus = "completed"
	PostStatusFailed     PostStatus = "failed"
)

// PlatformPostStatus is the per-platform outcome of a publish request.
type PlatformPostStatus string

const (
	PlatformPostQueued PlatformPostStatus = "queued"
	PlatformPostPosted PlatformPostStatus = "posted"
	PlatformPostFailed PlatformPostStatus = "failed"
)

// Post is one logical multi-platform publish request.
// Status is recomputed whenever any child PlatformPost resolves and is
// terminal once all children are resolved.
type Post struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	Text      string     `json:"text"`
	Status    PostStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PlatformPost tracks one platform's share of a Post. Exactly one row exists
// per (post_id, platform); it is created at enqueue time and mutated only by
// the job completion/failure listener.
type PlatformPost struct {
	ID             int64              `json:"id"`
	PostID         int64              `json:"post_id"`
	Platform       Platform           `json:"platform"`
	PlatformPostID *string            `json:"platform_post_id,omitempty"`
	Status         PlatformPostStatus `json:"status"`
	PostedAt       *time.Time         `json:"posted_at,omitempty"`
	URL            *string            `json:"url,omitempty"`
	ErrorMessage   *string            `json:"error_message,omitempty"`
	JobID          *int64             `json:"job_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// PublishResult is the provider's answer to a successful post-create call.
type PublishResult struct {
	PlatformPostID string `json:"platform_post_id"`
	URL            string `json:"url,omitempty"`
}

// PostStatusEvent is emitted when a post reaches a terminal aggregate status.
type PostStatusEvent struct {
	PostID    int64      `json:"post_id"`
	Status    PostStatus `json:"status"`
	Platforms int        `json:"platforms"`
	Posted    int        `json:"posted"`
	Failed    int        `json:"failed"`
	At        time.Time  `json:"at"`
}

// PublishAudit is an append-only log entry written whenever a publish job resolves.
type PublishAudit struct {
	PostID       int64     `bson:"post_id" json:"post_id"`
	Platform     Platform  `bson:"platform" json:"platform"`
	JobID        int64     `bson:"job_id" json:"job_id"`
	Status       string    `bson:"status" json:"status"`
	ErrorMessage *string   `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
