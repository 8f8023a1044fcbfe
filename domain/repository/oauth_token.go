package repository

import (
	"context"

	"social-hub/domain/model"
)

// IOAuthToken persists per-(user, platform) OAuth credentials.
type IOAuthToken interface {
	// Upsert creates or replaces the active token row keyed (user_id, platform).
	Upsert(ctx context.Context, t *model.OAuthToken) error
	// Get returns the active token, or (nil, nil) when no active row exists.
	Get(ctx context.Context, userID string, platform model.Platform) (*model.OAuthToken, error)
	// Revoke soft-deletes the row (is_active=false). Idempotent.
	Revoke(ctx context.Context, userID string, platform model.Platform) error
}
