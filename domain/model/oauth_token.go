package model

import "time"

// TokenRefreshSkew is how close to expiry a token may get before we refresh it.
const TokenRefreshSkew = 5 * time.Minute

// OAuthToken stores platform OAuth credentials per user.
// Exactly one active row exists per (user_id, platform); revoked rows are kept
// with is_active=false, never deleted.
type OAuthToken struct {
	ID               int64             `json:"id"`
	UserID           string            `json:"user_id"`
	Platform         Platform          `json:"platform"`
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	Scopes           []string          `json:"scopes"`
	PlatformUserID   *string           `json:"platform_user_id,omitempty"`
	PlatformUsername *string           `json:"platform_username,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	IsActive         bool              `json:"is_active"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsExpired reports whether the access token is past its expiry.
// Tokens without an expiry never expire.
func (t *OAuthToken) IsExpired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.After(*t.ExpiresAt)
}

// NeedsRefresh reports whether the token expires within the refresh skew.
func (t *OAuthToken) NeedsRefresh(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Before(now.Add(TokenRefreshSkew))
}

// Meta returns a metadata value, tolerating a nil map.
func (t *OAuthToken) Meta(key string) string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[key]
}

// PlatformProfile is the provider-side identity fetched after a code exchange.
type PlatformProfile struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// OAuthState is the server-side record behind an opaque OAuth state nonce.
// It lives for five minutes from issuance and is consumed on first use.
type OAuthState struct {
	UserID   string    `json:"user_id"`
	Platform Platform  `json:"platform"`
	IssuedAt time.Time `json:"issued_at"`
	Verifier string    `json:"verifier,omitempty"` // PKCE code_verifier, when the provider uses PKCE
}

// StateTTL is how long an issued OAuth state nonce remains redeemable.
const StateTTL = 5 * time.Minute
