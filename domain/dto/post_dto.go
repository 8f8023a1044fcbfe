package dto

import (
	"time"

	"social-hub/domain/model"
)

// Res is the generic response envelope used by error paths.
type Res struct {
	ResponseCode    string      `json:"response_code"`
	ResponseMessage string      `json:"response_message"`
	Data            interface{} `json:"data,omitempty"`
}

// CreatePostRequest is the body of POST /api/posts/multi-platform.
type CreatePostRequest struct {
	Text      string            `json:"text"`
	Media     []model.MediaItem `json:"media,omitempty"`
	Link      string            `json:"link,omitempty"`
	Platforms []string          `json:"platforms" binding:"required"`
	Title     string            `json:"title,omitempty"`
	BoardID   string            `json:"board_id,omitempty"`
	Subreddit string            `json:"subreddit,omitempty"`
}

// Content maps the request onto the platform-independent content struct.
func (r *CreatePostRequest) Content() *model.PostContent {
	return &model.PostContent{
		Text:      r.Text,
		Link:      r.Link,
		Media:     r.Media,
		Title:     r.Title,
		BoardID:   r.BoardID,
		Subreddit: r.Subreddit,
	}
}

// PlatformResult is the immediate per-platform outcome of a create request.
type PlatformResult struct {
	JobID  *int64 `json:"job_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type CreatePostResponse struct {
	PostID  int64                     `json:"post_id"`
	Status  string                    `json:"status"`
	Results map[string]PlatformResult `json:"results"`
}

// PlatformPostStatus is one platform's entry in the status response.
type PlatformPostStatus struct {
	Platform       string     `json:"platform"`
	Status         string     `json:"status"`
	PlatformPostID *string    `json:"platform_post_id,omitempty"`
	URL            *string    `json:"url,omitempty"`
	Error          *string    `json:"error,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
}

type PostStatusResponse struct {
	PostID    int64                `json:"post_id"`
	Status    string               `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	Platforms []PlatformPostStatus `json:"platforms"`
}
