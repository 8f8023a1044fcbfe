package usecase

import (
	"context"
	"fmt"
	"time"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// IPostUsecase is the top-level fan-out/fan-in across platform adapters plus
// the status aggregation that merges per-platform outcomes into one post
// status.
type IPostUsecase interface {
	CreateMultiPlatformPost(ctx context.Context, userID string, req *dto.CreatePostRequest) (*dto.CreatePostResponse, error)
	GetPostStatus(ctx context.Context, postID int64) (*dto.PostStatusResponse, error)
	RecomputePostStatus(ctx context.Context, postID int64) (model.PostStatus, error)
	// RetryPost re-enqueues the failed platform entries of a post and returns
	// the refreshed status, or nil when the post does not exist.
	RetryPost(ctx context.Context, postID int64) (*dto.PostStatusResponse, error)
	// JobResolved is the queue listener: it records the outcome on the
	// PlatformPost row, appends the audit entry and re-aggregates.
	JobResolved(ctx context.Context, job *model.PublishJob, status model.PlatformPostStatus, result *model.PublishResult, errMsg *string)
}

type postUsecase struct {
	registry Registry
	tokens   ITokenStore
	posts    repository.IPost
	jobs     repository.IJob
	events   repository.IEventPublisher
	audit    repository.IAuditTrail
}

func NewPostUsecase(registry Registry, tokens ITokenStore, posts repository.IPost, jobs repository.IJob,
	events repository.IEventPublisher, audit repository.IAuditTrail) IPostUsecase {
	return &postUsecase{registry: registry, tokens: tokens, posts: posts, jobs: jobs, events: events, audit: audit}
}

// CreateMultiPlatformPost resolves each requested platform independently: a
// missing connection or bad content fails that platform's entry immediately
// without blocking its siblings.
func (u *postUsecase) CreateMultiPlatformPost(ctx context.Context, userID string, req *dto.CreatePostRequest) (*dto.CreatePostResponse, error) {
	if len(req.Platforms) == 0 {
		return nil, model.NewValidationError("", "at least one platform is required")
	}
	content := req.Content()

	post := &model.Post{UserID: userID, Text: req.Text, Status: model.PostStatusProcessing}
	if err := u.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	results := make(map[string]dto.PlatformResult, len(req.Platforms))
	for _, name := range req.Platforms {
		platform, ok := model.ParsePlatform(name)
		if !ok {
			results[name] = dto.PlatformResult{
				Status: string(model.PlatformPostFailed),
				Error:  fmt.Sprintf("unsupported platform %q", name),
			}
			continue
		}
		result := u.dispatch(ctx, post.ID, userID, platform, content)
		results[string(platform)] = result

		pp := &model.PlatformPost{
			PostID:   post.ID,
			Platform: platform,
			Status:   model.PlatformPostStatus(result.Status),
			JobID:    result.JobID,
		}
		if result.Error != "" {
			msg := result.Error
			pp.ErrorMessage = &msg
		}
		if err := u.posts.CreatePlatformPost(ctx, pp); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while recording platform post")
		}
	}

	status, err := u.RecomputePostStatus(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &dto.CreatePostResponse{PostID: post.ID, Status: string(status), Results: results}, nil
}

func (u *postUsecase) dispatch(ctx context.Context, postID int64, userID string, platform model.Platform, content *model.PostContent) dto.PlatformResult {
	adapter, ok := u.registry[platform]
	if !ok {
		return dto.PlatformResult{Status: string(model.PlatformPostFailed), Error: "platform not configured"}
	}
	valid, err := u.tokens.HasValidToken(ctx, userID, platform)
	if err != nil {
		return dto.PlatformResult{Status: string(model.PlatformPostFailed), Error: err.Error()}
	}
	if !valid {
		return dto.PlatformResult{Status: string(model.PlatformPostFailed), Error: "no active connection"}
	}
	return adapter.Post(ctx, postID, userID, content)
}

func (u *postUsecase) GetPostStatus(ctx context.Context, postID int64) (*dto.PostStatusResponse, error) {
	post, err := u.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}
	children, err := u.posts.GetPlatformPosts(ctx, postID)
	if err != nil {
		return nil, err
	}
	resp := &dto.PostStatusResponse{
		PostID:    post.ID,
		Status:    string(post.Status),
		CreatedAt: post.CreatedAt,
		Platforms: make([]dto.PlatformPostStatus, 0, len(children)),
	}
	for _, pp := range children {
		resp.Platforms = append(resp.Platforms, dto.PlatformPostStatus{
			Platform:       string(pp.Platform),
			Status:         string(pp.Status),
			PlatformPostID: pp.PlatformPostID,
			URL:            pp.URL,
			Error:          pp.ErrorMessage,
			PostedAt:       pp.PostedAt,
		})
	}
	return resp, nil
}

// RecomputePostStatus applies the aggregation rules: completed once at least
// one child posted and all are resolved, failed only when all failed,
// processing while anything is still queued.
func (u *postUsecase) RecomputePostStatus(ctx context.Context, postID int64) (model.PostStatus, error) {
	children, err := u.posts.GetPlatformPosts(ctx, postID)
	if err != nil {
		return "", err
	}
	var posted, failed, queued int
	for _, pp := range children {
		switch pp.Status {
		case model.PlatformPostPosted:
			posted++
		case model.PlatformPostFailed:
			failed++
		default:
			queued++
		}
	}
	status := model.PostStatusProcessing
	switch {
	case queued == 0 && posted > 0:
		status = model.PostStatusCompleted
	case queued == 0 && len(children) > 0 && failed == len(children):
		status = model.PostStatusFailed
	}
	if err := u.posts.UpdatePostStatus(ctx, postID, status); err != nil {
		return "", err
	}
	if status != model.PostStatusProcessing {
		u.publishStatusEvent(ctx, postID, status, len(children), posted, failed)
	}
	return status, nil
}

func (u *postUsecase) publishStatusEvent(ctx context.Context, postID int64, status model.PostStatus, platforms, posted, failed int) {
	if u.events == nil {
		return
	}
	event := &model.PostStatusEvent{
		PostID:    postID,
		Status:    status,
		Platforms: platforms,
		Posted:    posted,
		Failed:    failed,
		At:        time.Now().UTC(),
	}
	if err := u.events.PublishStatus(ctx, event); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while publishing status event")
	}
}

// RetryPost puts every failed platform entry back on the queue with a fresh
// attempt budget. Only entries that reached the queue can be retried; a
// synchronous validation failure has no stored payload to re-run.
func (u *postUsecase) RetryPost(ctx context.Context, postID int64) (*dto.PostStatusResponse, error) {
	post, err := u.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, nil
	}
	children, err := u.posts.GetPlatformPosts(ctx, postID)
	if err != nil {
		return nil, err
	}
	retried := 0
	for _, pp := range children {
		if pp.Status != model.PlatformPostFailed || pp.JobID == nil {
			continue
		}
		if err := u.jobs.Reschedule(ctx, *pp.JobID, 0, "", time.Now().UTC()); err != nil {
			logger.GetLogger().WithField("job_id", *pp.JobID).WithField("error", err).Error("Error while re-enqueuing job")
			continue
		}
		if err := u.posts.UpdatePlatformPostResult(ctx, postID, pp.Platform, model.PlatformPostQueued, nil, nil); err != nil {
			logger.GetLogger().WithField("post_id", postID).WithField("error", err).Error("Error while resetting platform post")
		}
		retried++
	}
	if retried > 0 {
		logger.GetLogger().WithField("post_id", postID).WithField("platforms", retried).Info("Failed platform posts re-enqueued")
		if _, err := u.RecomputePostStatus(ctx, postID); err != nil {
			return nil, err
		}
	}
	return u.GetPostStatus(ctx, postID)
}

func (u *postUsecase) JobResolved(ctx context.Context, job *model.PublishJob, status model.PlatformPostStatus, result *model.PublishResult, errMsg *string) {
	if err := u.posts.UpdatePlatformPostResult(ctx, job.PostID, job.Platform, status, result, errMsg); err != nil {
		logger.GetLogger().
			WithField("post_id", job.PostID).
			WithField("platform", job.Platform).
			WithField("error", err).
			Error("Error while updating platform post result")
	}
	if u.audit != nil {
		entry := &model.PublishAudit{
			PostID:       job.PostID,
			Platform:     job.Platform,
			JobID:        job.ID,
			Status:       string(status),
			ErrorMessage: errMsg,
		}
		if err := u.audit.Append(ctx, entry); err != nil {
			logger.GetLogger().WithField("error", err).Debug("Audit append failed")
		}
	}
	if _, err := u.RecomputePostStatus(ctx, job.PostID); err != nil {
		logger.GetLogger().WithField("post_id", job.PostID).WithField("error", err).Error("Error while recomputing post status")
	}
}
