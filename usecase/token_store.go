package usecase

import (
	"context"
	"time"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// ITokenStore is the single entry point for platform credentials. GetToken
// transparently refreshes tokens nearing expiry; callers never talk to the
// provider token endpoints directly.
type ITokenStore interface {
	// GetToken returns (nil, nil) when the user has no active connection. A
	// failed refresh logs and returns the stale token so the caller decides.
	GetToken(ctx context.Context, userID string, platform model.Platform) (*model.OAuthToken, error)
	SaveToken(ctx context.Context, token *model.OAuthToken) error
	RevokeToken(ctx context.Context, userID string, platform model.Platform) error
	HasValidToken(ctx context.Context, userID string, platform model.Platform) (bool, error)
}

type tokenStore struct {
	tokens  repository.IOAuthToken
	clients map[model.Platform]repository.IPlatformClient
	now     func() time.Time
}

func NewTokenStore(tokens repository.IOAuthToken, clients map[model.Platform]repository.IPlatformClient) ITokenStore {
	return &tokenStore{tokens: tokens, clients: clients, now: time.Now}
}

func (s *tokenStore) GetToken(ctx context.Context, userID string, platform model.Platform) (*model.OAuthToken, error) {
	token, err := s.tokens.Get(ctx, userID, platform)
	if err != nil || token == nil {
		return token, err
	}
	if !token.NeedsRefresh(s.now()) || token.RefreshToken == "" {
		return token, nil
	}
	client, ok := s.clients[platform]
	if !ok {
		return token, nil
	}
	fresh, err := client.Refresh(ctx, token)
	if err != nil {
		// Fail open: hand back the stale token and let the caller decide.
		logger.GetLogger().
			WithField("platform", platform).
			WithField("user_id", userID).
			WithField("error", err).
			Warn("Token refresh failed, returning stale token")
		return token, nil
	}
	merged := s.merge(token, fresh)
	if err := s.tokens.Upsert(ctx, merged); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while persisting refreshed token")
		return token, nil
	}
	return merged, nil
}

// merge folds a refresh response into the stored token. Providers that omit
// the refresh token on refresh keep the old one; identity and metadata always
// survive.
func (s *tokenStore) merge(old, fresh *model.OAuthToken) *model.OAuthToken {
	out := *old
	out.AccessToken = fresh.AccessToken
	out.ExpiresAt = fresh.ExpiresAt
	if fresh.RefreshToken != "" {
		out.RefreshToken = fresh.RefreshToken
	}
	if len(fresh.Scopes) > 0 {
		out.Scopes = fresh.Scopes
	}
	if len(fresh.Metadata) > 0 {
		out.Metadata = fresh.Metadata
	}
	return &out
}

func (s *tokenStore) SaveToken(ctx context.Context, token *model.OAuthToken) error {
	if token.RefreshToken == "" {
		existing, err := s.tokens.Get(ctx, token.UserID, token.Platform)
		if err != nil {
			return err
		}
		if existing != nil {
			token.RefreshToken = existing.RefreshToken
		}
	}
	return s.tokens.Upsert(ctx, token)
}

func (s *tokenStore) RevokeToken(ctx context.Context, userID string, platform model.Platform) error {
	return s.tokens.Revoke(ctx, userID, platform)
}

func (s *tokenStore) HasValidToken(ctx context.Context, userID string, platform model.Platform) (bool, error) {
	token, err := s.tokens.Get(ctx, userID, platform)
	if err != nil {
		return false, err
	}
	return token != nil && !token.IsExpired(s.now()), nil
}
