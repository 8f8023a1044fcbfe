package usecase

import (
	"context"
	"encoding/json"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// Publisher executes one queued publish job end to end: resolve the token,
// run the platform's upload pipeline, create the post. It is the queue
// worker's executor; it never touches Post rows itself.
type Publisher struct {
	clients map[model.Platform]repository.IPlatformClient
	tokens  ITokenStore
}

func NewPublisher(clients map[model.Platform]repository.IPlatformClient, tokens ITokenStore) *Publisher {
	return &Publisher{clients: clients, tokens: tokens}
}

func (p *Publisher) Execute(ctx context.Context, job *model.PublishJob) (*model.PublishResult, error) {
	var payload model.PublishPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, model.NewValidationError(job.Platform, "corrupt job payload: %v", err)
	}
	client, ok := p.clients[job.Platform]
	if !ok {
		return nil, model.NewConfigurationError(job.Platform, "platform not configured")
	}
	token, err := p.tokens.GetToken(ctx, payload.UserID, job.Platform)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, model.NewAuthenticationError(job.Platform, "no active connection")
	}

	refs, err := client.UploadMedia(ctx, token, payload.Content.Media)
	if err != nil {
		return nil, err
	}
	result, err := client.CreatePost(ctx, token, &payload, refs)
	if err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("platform", job.Platform).
		WithField("post_id", job.PostID).
		WithField("platform_post_id", result.PlatformPostID).
		Info("Post published")
	return result, nil
}
