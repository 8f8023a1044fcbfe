package repository

import (
	"context"
	"time"

	"social-hub/domain/model"
)

// IStateStore holds OAuth state records keyed by their opaque nonce.
// Records self-expire after the TTL passed to Save.
type IStateStore interface {
	Save(ctx context.Context, state string, data *model.OAuthState, ttl time.Duration) error
	// Take consumes the record. Returns (nil, nil) when the state is unknown
	// or already expired; a state can be taken at most once.
	Take(ctx context.Context, state string) (*model.OAuthState, error)
}
