package repository

import (
	"context"

	"social-hub/domain/model"
)

// IPost persists posts and their per-platform children.
type IPost interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	UpdatePostStatus(ctx context.Context, id int64, status model.PostStatus) error

	// CreatePlatformPost inserts the single row for (post_id, platform).
	CreatePlatformPost(ctx context.Context, pp *model.PlatformPost) error
	GetPlatformPosts(ctx context.Context, postID int64) ([]*model.PlatformPost, error)
	GetPlatformPost(ctx context.Context, postID int64, platform model.Platform) (*model.PlatformPost, error)
	// UpdatePlatformPostResult is called only by the job completion/failure
	// listener; result may be nil on failure.
	UpdatePlatformPostResult(ctx context.Context, postID int64, platform model.Platform,
		status model.PlatformPostStatus, result *model.PublishResult, errMsg *string) error
}
