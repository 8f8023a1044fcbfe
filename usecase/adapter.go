package usecase

import (
	"context"
	"encoding/json"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
)

// PlatformAdapter is the common three-method contract the orchestrator talks
// to. Post never performs network I/O; it validates, enqueues and returns.
type PlatformAdapter interface {
	Platform() model.Platform
	Validate(content *model.PostContent) *model.ValidationResult
	// Post enqueues a publish job. On validation failure it returns a failed
	// result immediately and no job is created.
	Post(ctx context.Context, postID int64, userID string, content *model.PostContent) dto.PlatformResult
	// GetStatus maps the queue-native job state to the public tri-state.
	GetStatus(ctx context.Context, jobID int64) (*dto.PlatformPostStatus, error)
}

// Registry maps platforms to their adapters. It is built once at startup and
// passed by dependency; nothing mutates it afterwards.
type Registry map[model.Platform]PlatformAdapter

// NewRegistry builds one adapter per configured platform client.
func NewRegistry(clients map[model.Platform]repository.IPlatformClient, jobs repository.IJob, posts repository.IPost) Registry {
	registry := make(Registry, len(clients))
	for platform := range clients {
		registry[platform] = &platformAdapter{platform: platform, jobs: jobs, posts: posts}
	}
	return registry
}

type platformAdapter struct {
	platform model.Platform
	jobs     repository.IJob
	posts    repository.IPost
}

func (a *platformAdapter) Platform() model.Platform { return a.platform }

func (a *platformAdapter) Validate(content *model.PostContent) *model.ValidationResult {
	return ValidateContent(a.platform, content)
}

func (a *platformAdapter) Post(ctx context.Context, postID int64, userID string, content *model.PostContent) dto.PlatformResult {
	if result := a.Validate(content); !result.Valid {
		msg := ""
		for i, e := range result.Errors {
			if i > 0 {
				msg += "; "
			}
			msg += e
		}
		return dto.PlatformResult{Status: string(model.PlatformPostFailed), Error: msg}
	}
	payload, err := json.Marshal(model.PublishPayload{UserID: userID, Content: *content})
	if err != nil {
		return dto.PlatformResult{Status: string(model.PlatformPostFailed), Error: err.Error()}
	}
	jobID, err := a.jobs.Enqueue(ctx, &model.PublishJob{
		PostID:   postID,
		Platform: a.platform,
		Payload:  payload,
	})
	if err != nil {
		return dto.PlatformResult{Status: string(model.PlatformPostFailed), Error: err.Error()}
	}
	return dto.PlatformResult{JobID: &jobID, Status: string(model.PlatformPostQueued)}
}

func (a *platformAdapter) GetStatus(ctx context.Context, jobID int64) (*dto.PlatformPostStatus, error) {
	job, err := a.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	status := &dto.PlatformPostStatus{
		Platform: string(a.platform),
		Status:   string(jobToPlatformStatus(job.Status)),
		Error:    job.LastError,
	}
	// On success the PlatformPost row carries the provider id and URL.
	if job.Status == model.JobPosted {
		pp, err := a.posts.GetPlatformPost(ctx, job.PostID, a.platform)
		if err != nil {
			return nil, err
		}
		if pp != nil {
			status.PlatformPostID = pp.PlatformPostID
			status.URL = pp.URL
			status.PostedAt = pp.PostedAt
		}
	}
	return status, nil
}

// jobToPlatformStatus collapses the four queue states onto the public
// tri-state; a processing job is still queued from the caller's view.
func jobToPlatformStatus(s model.JobStatus) model.PlatformPostStatus {
	switch s {
	case model.JobPosted:
		return model.PlatformPostPosted
	case model.JobFailed:
		return model.PlatformPostFailed
	default:
		return model.PlatformPostQueued
	}
}
