package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"golang.org/x/oauth2"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/logger"
)

// IOAuthFlow drives the per-platform authorization round trip: consent URL,
// callback exchange, connection status and revocation.
type IOAuthFlow interface {
	AuthorizationURL(ctx context.Context, userID string, platform model.Platform) (*dto.AuthURLResponse, error)
	// HandleCallback validates the state, exchanges the code and persists the
	// token together with the provider profile. Nothing is stored unless both
	// the exchange and the profile fetch succeed.
	HandleCallback(ctx context.Context, code, state string) (*model.OAuthToken, error)
	ConnectionStatus(ctx context.Context, userID string, platform model.Platform) (*dto.ConnectionStatus, error)
	Revoke(ctx context.Context, userID string, platform model.Platform) error
}

type oauthFlow struct {
	clients map[model.Platform]repository.IPlatformClient
	states  repository.IStateStore
	tokens  ITokenStore
	now     func() time.Time
}

func NewOAuthFlow(clients map[model.Platform]repository.IPlatformClient, states repository.IStateStore, tokens ITokenStore) IOAuthFlow {
	return &oauthFlow{clients: clients, states: states, tokens: tokens, now: time.Now}
}

// randomState returns an opaque nonce. The user id and issue time live only
// in the server-side state record, never in the redirect URL.
func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (f *oauthFlow) AuthorizationURL(ctx context.Context, userID string, platform model.Platform) (*dto.AuthURLResponse, error) {
	client, ok := f.clients[platform]
	if !ok {
		return nil, model.NewConfigurationError(platform, "platform not configured")
	}
	state := randomState()
	record := &model.OAuthState{
		UserID:   userID,
		Platform: platform,
		IssuedAt: f.now().UTC(),
	}
	challenge := ""
	if client.RequiresPKCE() {
		verifier := oauth2.GenerateVerifier()
		record.Verifier = verifier
		challenge = oauth2.S256ChallengeFromVerifier(verifier)
	}
	if err := f.states.Save(ctx, state, record, model.StateTTL); err != nil {
		return nil, err
	}
	return &dto.AuthURLResponse{
		AuthURL: client.AuthorizationURL(state, challenge),
		State:   state,
	}, nil
}

func (f *oauthFlow) HandleCallback(ctx context.Context, code, state string) (*model.OAuthToken, error) {
	record, err := f.states.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, model.NewValidationError("", "unknown or expired state")
	}
	// The store TTL already bounds the lifetime; this guards against a store
	// with a coarser expiry than the contract.
	if f.now().Sub(record.IssuedAt) > model.StateTTL {
		return nil, model.NewValidationError(record.Platform, "state expired")
	}
	client, ok := f.clients[record.Platform]
	if !ok {
		return nil, model.NewConfigurationError(record.Platform, "platform not configured")
	}
	token, profile, err := client.ExchangeCode(ctx, code, record.Verifier)
	if err != nil {
		return nil, err
	}
	token.UserID = record.UserID
	token.Platform = record.Platform
	if profile != nil {
		token.PlatformUserID = &profile.UserID
		token.PlatformUsername = &profile.Username
	}
	if err := f.tokens.SaveToken(ctx, token); err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("platform", record.Platform).
		WithField("user_id", record.UserID).
		Info("Platform connection established")
	return token, nil
}

func (f *oauthFlow) ConnectionStatus(ctx context.Context, userID string, platform model.Platform) (*dto.ConnectionStatus, error) {
	token, err := f.tokens.GetToken(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	status := &dto.ConnectionStatus{Platform: string(platform)}
	if token == nil {
		return status, nil
	}
	status.Connected = true
	status.Scopes = token.Scopes
	status.ExpiresAt = token.ExpiresAt
	if token.PlatformUserID != nil {
		status.PlatformUserID = *token.PlatformUserID
	}
	if token.PlatformUsername != nil {
		status.PlatformUsername = *token.PlatformUsername
	}
	return status, nil
}

func (f *oauthFlow) Revoke(ctx context.Context, userID string, platform model.Platform) error {
	return f.tokens.RevokeToken(ctx, userID, platform)
}
