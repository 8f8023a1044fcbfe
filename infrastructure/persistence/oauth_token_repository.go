package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"social-hub/domain/model"
)

type OAuthTokenRepository struct{ db *sql.DB }

func NewOAuthTokenRepository(db *sql.DB) *OAuthTokenRepository { return &OAuthTokenRepository{db: db} }

func (r *OAuthTokenRepository) Upsert(ctx context.Context, t *model.OAuthToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.IsActive = true
	var meta []byte
	if len(t.Metadata) > 0 {
		b, err := json.Marshal(t.Metadata)
		if err != nil {
			return err
		}
		meta = b
	}
	q := `INSERT INTO oauth_tokens (user_id, platform, access_token, refresh_token, expires_at, scopes, platform_user_id, platform_username, metadata, is_active, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,TRUE,$10,$11)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			platform_user_id=EXCLUDED.platform_user_id,
			platform_username=EXCLUDED.platform_username,
			metadata=EXCLUDED.metadata,
			is_active=TRUE,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, t.UserID, t.Platform, t.AccessToken, t.RefreshToken, t.ExpiresAt,
		strings.Join(t.Scopes, " "), t.PlatformUserID, t.PlatformUsername, meta, t.CreatedAt, t.UpdatedAt)
	return err
}

// Get returns the active token for (user, platform), or (nil, nil) when the
// user has no active connection.
func (r *OAuthTokenRepository) Get(ctx context.Context, userID string, platform model.Platform) (*model.OAuthToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, platform, access_token, refresh_token, expires_at, scopes, platform_user_id, platform_username, metadata, is_active, created_at, updated_at
		FROM oauth_tokens WHERE user_id=$1 AND platform=$2 AND is_active=TRUE`, userID, platform)
	tok := &model.OAuthToken{}
	var exp sql.NullTime
	var scopes string
	var platformUserID, platformUsername sql.NullString
	var meta []byte
	if err := row.Scan(&tok.ID, &tok.UserID, &tok.Platform, &tok.AccessToken, &tok.RefreshToken, &exp,
		&scopes, &platformUserID, &platformUsername, &meta, &tok.IsActive, &tok.CreatedAt, &tok.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if exp.Valid {
		t := exp.Time
		tok.ExpiresAt = &t
	}
	if scopes != "" {
		tok.Scopes = strings.Fields(scopes)
	}
	if platformUserID.Valid {
		v := platformUserID.String
		tok.PlatformUserID = &v
	}
	if platformUsername.Valid {
		v := platformUsername.String
		tok.PlatformUsername = &v
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &tok.Metadata); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// Revoke soft-deletes the connection. Calling it again is a no-op.
func (r *OAuthTokenRepository) Revoke(ctx context.Context, userID string, platform model.Platform) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE oauth_tokens SET is_active=FALSE, updated_at=$1 WHERE user_id=$2 AND platform=$3`,
		time.Now().UTC(), userID, platform)
	return err
}
