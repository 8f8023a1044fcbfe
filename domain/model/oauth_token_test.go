package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOAuthToken_IsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		expected  bool
	}{
		{"no expiry never expires", nil, false},
		{"past expiry", &past, true},
		{"future expiry", &future, false},
		{"exact expiry is not yet expired", &now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &OAuthToken{ExpiresAt: tt.expiresAt}
			require.Equal(t, tt.expected, token.IsExpired(now))
		})
	}
}

func TestOAuthToken_NeedsRefresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	within := now.Add(4 * time.Minute)
	beyond := now.Add(6 * time.Minute)
	past := now.Add(-time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		expected  bool
	}{
		{"no expiry never refreshes", nil, false},
		{"inside the skew window", &within, true},
		{"outside the skew window", &beyond, false},
		{"already expired", &past, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &OAuthToken{ExpiresAt: tt.expiresAt}
			require.Equal(t, tt.expected, token.NeedsRefresh(now))
		})
	}
}

func TestPlatformError_Retryable(t *testing.T) {
	require.True(t, NewRateLimitError(PlatformTwitter, "slow down").Retryable())
	require.True(t, NewTransientNetworkError(PlatformTwitter, nil, "connection reset").Retryable())
	require.False(t, NewValidationError(PlatformTwitter, "too long").Retryable())
	require.False(t, NewUpstreamAPIError(PlatformTwitter, "bad request").Retryable())
	require.False(t, NewTimeoutError(PlatformTwitter, "wall clock").Retryable())
}

func TestIsRetryable_UnknownErrorsAreTerminal(t *testing.T) {
	require.False(t, IsRetryable(nil))
	require.False(t, IsRetryable(errTest))
	require.Equal(t, ErrKindUpstreamAPI, KindOf(errTest))
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "boom" }
