package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
)

func TestOAuthTokenRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expires := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	token := &model.OAuthToken{
		UserID:       "u1",
		Platform:     model.PlatformTwitter,
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    &expires,
		Scopes:       []string{"tweet.read", "tweet.write"},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO oauth_tokens")).
		WithArgs("u1", model.PlatformTwitter, "at", "rt", &expires,
			"tweet.read tweet.write", nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewOAuthTokenRepository(db)
	require.NoError(t, repo.Upsert(context.Background(), token))
	require.True(t, token.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthTokenRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	expires := now.Add(time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "platform", "access_token", "refresh_token", "expires_at",
		"scopes", "platform_user_id", "platform_username", "metadata", "is_active", "created_at", "updated_at",
	}).AddRow(int64(3), "u1", "twitter", "at", "rt", expires,
		"tweet.read tweet.write", "tw-1", "birdie", []byte(`{"k":"v"}`), true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM oauth_tokens WHERE user_id=$1 AND platform=$2 AND is_active=TRUE")).
		WithArgs("u1", model.PlatformTwitter).
		WillReturnRows(rows)

	repo := NewOAuthTokenRepository(db)
	token, err := repo.Get(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	require.Equal(t, "at", token.AccessToken)
	require.Equal(t, []string{"tweet.read", "tweet.write"}, token.Scopes)
	require.Equal(t, "tw-1", *token.PlatformUserID)
	require.Equal(t, "birdie", *token.PlatformUsername)
	require.Equal(t, "v", token.Metadata["k"])
	require.True(t, expires.Equal(*token.ExpiresAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthTokenRepository_Get_NoConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM oauth_tokens")).
		WithArgs("u1", model.PlatformReddit).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewOAuthTokenRepository(db)
	token, err := repo.Get(context.Background(), "u1", model.PlatformReddit)
	require.NoError(t, err)
	require.Nil(t, token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthTokenRepository_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE oauth_tokens SET is_active=FALSE")).
		WithArgs(sqlmock.AnyArg(), "u1", model.PlatformLinkedIn).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOAuthTokenRepository(db)
	require.NoError(t, repo.Revoke(context.Background(), "u1", model.PlatformLinkedIn))
	require.NoError(t, mock.ExpectationsWereMet())
}
