package repository

import (
	"context"

	"social-hub/domain/model"
)

// IPlatformClient is the contract every wrapped provider API must satisfy.
// Implementations live under infrastructure/clients and own the provider's
// wire formats, upload protocol and error mapping.
type IPlatformClient interface {
	Platform() model.Platform
	// RequiresPKCE reports whether the provider's code flow uses a
	// code_verifier/code_challenge pair.
	RequiresPKCE() bool
	// AuthorizationURL builds the provider consent URL. challenge is the PKCE
	// S256 challenge and is empty for non-PKCE providers.
	AuthorizationURL(state, challenge string) string
	// ExchangeCode trades the authorization code for a token and fetches the
	// provider profile. Both must succeed; nothing is persisted here.
	ExchangeCode(ctx context.Context, code, verifier string) (*model.OAuthToken, *model.PlatformProfile, error)
	// Refresh obtains a fresh access token. Providers that omit the refresh
	// token in the response return it empty; the caller preserves the old one.
	Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error)
	// UploadMedia runs the platform's upload variant and returns provider
	// media references to attach at post-create time.
	UploadMedia(ctx context.Context, token *model.OAuthToken, media []model.MediaItem) ([]string, error)
	// CreatePost publishes and maps the provider response to an id and URL.
	CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error)
}
