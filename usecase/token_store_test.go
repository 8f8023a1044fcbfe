package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
	"social-hub/domain/repository"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestTokenStore(repo *fakeTokenRepo, clients map[model.Platform]repository.IPlatformClient) *tokenStore {
	store := NewTokenStore(repo, clients).(*tokenStore)
	store.now = fixedNow
	return store
}

func TestTokenStore_GetToken_NoConnection(t *testing.T) {
	store := newTestTokenStore(newFakeTokenRepo(), nil)

	token, err := store.GetToken(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	require.Nil(t, token)
}

func TestTokenStore_GetToken_RefreshesNearExpiry(t *testing.T) {
	repo := newFakeTokenRepo()
	soon := fixedNow().Add(2 * time.Minute)
	later := fixedNow().Add(time.Hour)
	require.NoError(t, repo.Upsert(context.Background(), &model.OAuthToken{
		UserID:       "u1",
		Platform:     model.PlatformTwitter,
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    &soon,
	}))

	client := &fakeClient{
		platform: model.PlatformTwitter,
		refreshFn: func(_ context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
			require.Equal(t, "refresh-1", token.RefreshToken)
			return &model.OAuthToken{AccessToken: "fresh", ExpiresAt: &later}, nil
		},
	}
	store := newTestTokenStore(repo, map[model.Platform]repository.IPlatformClient{
		model.PlatformTwitter: client,
	})

	token, err := store.GetToken(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	require.Equal(t, "fresh", token.AccessToken)
	// Provider omitted the refresh token; the stored one survives.
	require.Equal(t, "refresh-1", token.RefreshToken)
	require.Equal(t, later, *token.ExpiresAt)

	persisted, err := repo.Get(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	require.Equal(t, "fresh", persisted.AccessToken)
	require.Equal(t, "refresh-1", persisted.RefreshToken)
}

func TestTokenStore_GetToken_RefreshFailureReturnsStaleToken(t *testing.T) {
	repo := newFakeTokenRepo()
	soon := fixedNow().Add(2 * time.Minute)
	require.NoError(t, repo.Upsert(context.Background(), &model.OAuthToken{
		UserID:       "u1",
		Platform:     model.PlatformLinkedIn,
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    &soon,
	}))

	client := &fakeClient{
		platform: model.PlatformLinkedIn,
		refreshFn: func(_ context.Context, _ *model.OAuthToken) (*model.OAuthToken, error) {
			return nil, errors.New("token endpoint down")
		},
	}
	store := newTestTokenStore(repo, map[model.Platform]repository.IPlatformClient{
		model.PlatformLinkedIn: client,
	})

	token, err := store.GetToken(context.Background(), "u1", model.PlatformLinkedIn)
	require.NoError(t, err)
	require.Equal(t, "stale", token.AccessToken)
}

func TestTokenStore_GetToken_SkipsRefreshWithoutRefreshToken(t *testing.T) {
	repo := newFakeTokenRepo()
	soon := fixedNow().Add(2 * time.Minute)
	require.NoError(t, repo.Upsert(context.Background(), &model.OAuthToken{
		UserID:      "u1",
		Platform:    model.PlatformPinterest,
		AccessToken: "only-access",
		ExpiresAt:   &soon,
	}))

	refreshed := false
	client := &fakeClient{
		platform: model.PlatformPinterest,
		refreshFn: func(_ context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
			refreshed = true
			return token, nil
		},
	}
	store := newTestTokenStore(repo, map[model.Platform]repository.IPlatformClient{
		model.PlatformPinterest: client,
	})

	token, err := store.GetToken(context.Background(), "u1", model.PlatformPinterest)
	require.NoError(t, err)
	require.Equal(t, "only-access", token.AccessToken)
	require.False(t, refreshed)
}

func TestTokenStore_SaveToken_PreservesRefreshToken(t *testing.T) {
	repo := newFakeTokenRepo()
	store := newTestTokenStore(repo, nil)

	require.NoError(t, store.SaveToken(context.Background(), &model.OAuthToken{
		UserID:       "u1",
		Platform:     model.PlatformTikTok,
		AccessToken:  "first",
		RefreshToken: "keep-me",
	}))
	require.NoError(t, store.SaveToken(context.Background(), &model.OAuthToken{
		UserID:      "u1",
		Platform:    model.PlatformTikTok,
		AccessToken: "second",
	}))

	token, err := repo.Get(context.Background(), "u1", model.PlatformTikTok)
	require.NoError(t, err)
	require.Equal(t, "second", token.AccessToken)
	require.Equal(t, "keep-me", token.RefreshToken)
}

func TestTokenStore_RevokeIsIdempotent(t *testing.T) {
	repo := newFakeTokenRepo()
	store := newTestTokenStore(repo, nil)

	require.NoError(t, store.SaveToken(context.Background(), &model.OAuthToken{
		UserID:      "u1",
		Platform:    model.PlatformReddit,
		AccessToken: "a",
	}))
	require.NoError(t, store.RevokeToken(context.Background(), "u1", model.PlatformReddit))
	require.NoError(t, store.RevokeToken(context.Background(), "u1", model.PlatformReddit))

	token, err := store.GetToken(context.Background(), "u1", model.PlatformReddit)
	require.NoError(t, err)
	require.Nil(t, token)
}

func TestTokenStore_HasValidToken(t *testing.T) {
	repo := newFakeTokenRepo()
	store := newTestTokenStore(repo, nil)
	ctx := context.Background()

	ok, err := store.HasValidToken(ctx, "u1", model.PlatformYouTube)
	require.NoError(t, err)
	require.False(t, ok)

	past := fixedNow().Add(-time.Minute)
	require.NoError(t, repo.Upsert(ctx, &model.OAuthToken{
		UserID: "u1", Platform: model.PlatformYouTube, AccessToken: "x", ExpiresAt: &past,
	}))
	ok, err = store.HasValidToken(ctx, "u1", model.PlatformYouTube)
	require.NoError(t, err)
	require.False(t, ok)

	future := fixedNow().Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, &model.OAuthToken{
		UserID: "u1", Platform: model.PlatformYouTube, AccessToken: "x", ExpiresAt: &future,
	}))
	ok, err = store.HasValidToken(ctx, "u1", model.PlatformYouTube)
	require.NoError(t, err)
	require.True(t, ok)
}
