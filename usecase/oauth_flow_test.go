package usecase

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/cache"
)

func newTestFlow(clients map[model.Platform]repository.IPlatformClient, states repository.IStateStore, repo *fakeTokenRepo) *oauthFlow {
	tokens := newTestTokenStore(repo, clients)
	flow := NewOAuthFlow(clients, states, tokens).(*oauthFlow)
	flow.now = fixedNow
	return flow
}

func TestOAuthFlow_AuthorizationURL_OpaqueState(t *testing.T) {
	states := cache.NewMemoryStateStore()
	clients := map[model.Platform]repository.IPlatformClient{
		model.PlatformLinkedIn: &fakeClient{platform: model.PlatformLinkedIn},
	}
	flow := newTestFlow(clients, states, newFakeTokenRepo())

	res, err := flow.AuthorizationURL(context.Background(), "u1", model.PlatformLinkedIn)
	require.NoError(t, err)
	require.NotEmpty(t, res.State)
	require.Contains(t, res.AuthURL, "state="+res.State)

	// The state is an opaque nonce; no caller data leaks through it.
	decoded, err := url.QueryUnescape(res.State)
	require.NoError(t, err)
	require.NotContains(t, decoded, "u1")
	require.NotContains(t, decoded, "linkedin")

	record, err := states.Take(context.Background(), res.State)
	require.NoError(t, err)
	require.Equal(t, "u1", record.UserID)
	require.Equal(t, model.PlatformLinkedIn, record.Platform)
	require.Empty(t, record.Verifier)
}

func TestOAuthFlow_AuthorizationURL_PKCE(t *testing.T) {
	states := cache.NewMemoryStateStore()
	var gotChallenge string
	clients := map[model.Platform]repository.IPlatformClient{
		model.PlatformTwitter: &fakeClient{
			platform: model.PlatformTwitter,
			pkce:     true,
			authURLFn: func(state, challenge string) string {
				gotChallenge = challenge
				return "https://twitter.example/authorize?state=" + state
			},
		},
	}
	flow := newTestFlow(clients, states, newFakeTokenRepo())

	res, err := flow.AuthorizationURL(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	require.NotEmpty(t, gotChallenge)

	record, err := states.Take(context.Background(), res.State)
	require.NoError(t, err)
	require.NotEmpty(t, record.Verifier)
	require.NotEqual(t, record.Verifier, gotChallenge)
}

func TestOAuthFlow_AuthorizationURL_UnknownPlatform(t *testing.T) {
	flow := newTestFlow(nil, cache.NewMemoryStateStore(), newFakeTokenRepo())

	_, err := flow.AuthorizationURL(context.Background(), "u1", model.PlatformTikTok)
	require.Error(t, err)
	require.Equal(t, model.ErrKindConfiguration, model.KindOf(err))
}

func TestOAuthFlow_HandleCallback_PersistsTokenWithProfile(t *testing.T) {
	states := cache.NewMemoryStateStore()
	repo := newFakeTokenRepo()
	expires := fixedNow().Add(time.Hour)
	clients := map[model.Platform]repository.IPlatformClient{
		model.PlatformTwitter: &fakeClient{
			platform: model.PlatformTwitter,
			pkce:     true,
			exchangeFn: func(_ context.Context, code, verifier string) (*model.OAuthToken, *model.PlatformProfile, error) {
				require.Equal(t, "the-code", code)
				require.Equal(t, "the-verifier", verifier)
				return &model.OAuthToken{AccessToken: "at", RefreshToken: "rt", ExpiresAt: &expires},
					&model.PlatformProfile{UserID: "tw-123", Username: "birdie"}, nil
			},
		},
	}
	flow := newTestFlow(clients, states, repo)

	require.NoError(t, states.Save(context.Background(), "state-1", &model.OAuthState{
		UserID:   "u1",
		Platform: model.PlatformTwitter,
		Verifier: "the-verifier",
		IssuedAt: fixedNow().Add(-4 * time.Minute),
	}, model.StateTTL))

	token, err := flow.HandleCallback(context.Background(), "the-code", "state-1")
	require.NoError(t, err)
	require.Equal(t, "u1", token.UserID)
	require.Equal(t, model.PlatformTwitter, token.Platform)
	require.Equal(t, "tw-123", *token.PlatformUserID)
	require.Equal(t, "birdie", *token.PlatformUsername)

	persisted, err := repo.Get(context.Background(), "u1", model.PlatformTwitter)
	require.NoError(t, err)
	require.Equal(t, "at", persisted.AccessToken)
}

func TestOAuthFlow_HandleCallback_UnknownState(t *testing.T) {
	flow := newTestFlow(nil, cache.NewMemoryStateStore(), newFakeTokenRepo())

	_, err := flow.HandleCallback(context.Background(), "code", "never-issued")
	require.Error(t, err)
	require.Equal(t, model.ErrKindValidation, model.KindOf(err))
}

func TestOAuthFlow_HandleCallback_StateIsSingleUse(t *testing.T) {
	states := cache.NewMemoryStateStore()
	repo := newFakeTokenRepo()
	clients := map[model.Platform]repository.IPlatformClient{
		model.PlatformReddit: &fakeClient{platform: model.PlatformReddit},
	}
	flow := newTestFlow(clients, states, repo)

	require.NoError(t, states.Save(context.Background(), "state-1", &model.OAuthState{
		UserID:   "u1",
		Platform: model.PlatformReddit,
		IssuedAt: fixedNow(),
	}, model.StateTTL))

	_, err := flow.HandleCallback(context.Background(), "code", "state-1")
	require.NoError(t, err)

	_, err = flow.HandleCallback(context.Background(), "code", "state-1")
	require.Error(t, err)
}

func TestOAuthFlow_HandleCallback_ExpiredState(t *testing.T) {
	states := cache.NewMemoryStateStore()
	flow := newTestFlow(map[model.Platform]repository.IPlatformClient{
		model.PlatformReddit: &fakeClient{platform: model.PlatformReddit},
	}, states, newFakeTokenRepo())

	require.NoError(t, states.Save(context.Background(), "state-old", &model.OAuthState{
		UserID:   "u1",
		Platform: model.PlatformReddit,
		IssuedAt: fixedNow().Add(-6 * time.Minute),
	}, time.Hour))

	_, err := flow.HandleCallback(context.Background(), "code", "state-old")
	require.Error(t, err)
	require.Equal(t, model.ErrKindValidation, model.KindOf(err))
}

func TestOAuthFlow_HandleCallback_ExchangeFailureStoresNothing(t *testing.T) {
	states := cache.NewMemoryStateStore()
	repo := newFakeTokenRepo()
	clients := map[model.Platform]repository.IPlatformClient{
		model.PlatformInstagram: &fakeClient{
			platform: model.PlatformInstagram,
			exchangeFn: func(_ context.Context, _, _ string) (*model.OAuthToken, *model.PlatformProfile, error) {
				return nil, nil, errors.New("exchange rejected")
			},
		},
	}
	flow := newTestFlow(clients, states, repo)

	require.NoError(t, states.Save(context.Background(), "state-1", &model.OAuthState{
		UserID:   "u1",
		Platform: model.PlatformInstagram,
		IssuedAt: fixedNow(),
	}, model.StateTTL))

	_, err := flow.HandleCallback(context.Background(), "code", "state-1")
	require.Error(t, err)

	token, err := repo.Get(context.Background(), "u1", model.PlatformInstagram)
	require.NoError(t, err)
	require.Nil(t, token)
}

func TestOAuthFlow_ConnectionStatus(t *testing.T) {
	repo := newFakeTokenRepo()
	flow := newTestFlow(nil, cache.NewMemoryStateStore(), repo)
	ctx := context.Background()

	status, err := flow.ConnectionStatus(ctx, "u1", model.PlatformLinkedIn)
	require.NoError(t, err)
	require.False(t, status.Connected)

	pid, puser := "li-1", "pro"
	expires := fixedNow().Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, &model.OAuthToken{
		UserID:           "u1",
		Platform:         model.PlatformLinkedIn,
		AccessToken:      "at",
		ExpiresAt:        &expires,
		Scopes:           []string{"w_member_social"},
		PlatformUserID:   &pid,
		PlatformUsername: &puser,
	}))

	status, err = flow.ConnectionStatus(ctx, "u1", model.PlatformLinkedIn)
	require.NoError(t, err)
	require.True(t, status.Connected)
	require.Equal(t, "li-1", status.PlatformUserID)
	require.Equal(t, "pro", status.PlatformUsername)
	require.Equal(t, []string{"w_member_social"}, status.Scopes)
}
