package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"social-hub/domain/model"
	"social-hub/infrastructure/clients/uploader"
	"social-hub/infrastructure/configuration"
)

// Client wraps the YouTube Data API through the official SDK. The SDK owns
// the resumable upload protocol, so UploadMedia is a passthrough and the
// video bytes go up inside Videos.Insert.
type Client struct {
	oauthConfig *oauth2.Config
	transfer    *uploader.Client
	httpClient  *http.Client
}

func NewClient(cfg configuration.OAuthClient, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{
			youtube.YoutubeScope,
			youtube.YoutubeUploadScope,
			youtube.YoutubeForceSslScope,
		}
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
	return &Client{
		oauthConfig: oauthConfig,
		transfer:    uploader.NewClient(model.PlatformYouTube, httpClient),
		httpClient:  httpClient,
	}
}

func (c *Client) Platform() model.Platform { return model.PlatformYouTube }

func (c *Client) RequiresPKCE() bool { return false }

func (c *Client) AuthorizationURL(state, _ string) string {
	return c.oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

func (c *Client) ExchangeCode(ctx context.Context, code, _ string) (*model.OAuthToken, *model.PlatformProfile, error) {
	tok, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, nil, classifyGoogleErr(err)
	}
	token := c.buildToken(tok)

	service, err := c.newService(ctx, tok)
	if err != nil {
		return nil, nil, err
	}
	channels, err := service.Channels.List([]string{"id", "snippet"}).Mine(true).Do()
	if err != nil {
		return nil, nil, classifyGoogleErr(err)
	}
	if len(channels.Items) == 0 {
		return nil, nil, model.NewUpstreamAPIError(model.PlatformYouTube, "account has no channel")
	}
	channel := channels.Items[0]
	return token, &model.PlatformProfile{UserID: channel.Id, Username: channel.Snippet.Title}, nil
}

func (c *Client) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, model.NewReauthorizationRequired(model.PlatformYouTube, "no refresh token stored")
	}
	source := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken})
	fresh, err := source.Token()
	if err != nil {
		return nil, classifyGoogleErr(err)
	}
	return c.buildToken(fresh), nil
}

func (c *Client) buildToken(tok *oauth2.Token) *model.OAuthToken {
	token := &model.OAuthToken{
		Platform:     model.PlatformYouTube,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       c.oauthConfig.Scopes,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		token.ExpiresAt = &exp
	}
	return token
}

// UploadMedia is a passthrough; the SDK uploads inside Videos.Insert.
func (c *Client) UploadMedia(_ context.Context, _ *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	refs := make([]string, 0, len(media))
	for _, item := range media {
		refs = append(refs, item.URL)
	}
	return refs, nil
}

func (c *Client) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error) {
	videos := payload.Content.Videos()
	if len(videos) != 1 {
		return nil, model.NewValidationError(model.PlatformYouTube, "exactly one video required, got %d", len(videos))
	}
	data, _, err := c.transfer.Download(ctx, videos[0].URL)
	if err != nil {
		return nil, err
	}

	expiry := time.Now().Add(-time.Minute)
	if token.ExpiresAt != nil {
		expiry = *token.ExpiresAt
	}
	service, err := c.newService(ctx, &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	})
	if err != nil {
		return nil, err
	}

	title := payload.Content.Title
	if title == "" {
		title = payload.Content.Text
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: payload.Content.Text,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "public"},
	}
	inserted, err := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyGoogleErr(err)
	}
	return &model.PublishResult{
		PlatformPostID: inserted.Id,
		URL:            fmt.Sprintf("https://www.youtube.com/watch?v=%s", inserted.Id),
	}, nil
}

func (c *Client) newService(ctx context.Context, tok *oauth2.Token) (*youtube.Service, error) {
	service, err := youtube.NewService(ctx, option.WithHTTPClient(c.oauthConfig.Client(ctx, tok)))
	if err != nil {
		return nil, model.NewConfigurationError(model.PlatformYouTube, "failed to create YouTube service: %v", err)
	}
	return service, nil
}

func classifyGoogleErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return model.NewRateLimitError(model.PlatformYouTube, "rate limited: %s", apiErr.Message)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return model.NewAuthenticationError(model.PlatformYouTube, "provider rejected credentials (%d): %s", apiErr.Code, apiErr.Message)
		case apiErr.Code >= 500:
			return model.NewTransientNetworkError(model.PlatformYouTube, err, "provider returned %d", apiErr.Code)
		default:
			return model.NewUpstreamAPIError(model.PlatformYouTube, "provider returned %d: %s", apiErr.Code, apiErr.Message)
		}
	}
	return model.NewTransientNetworkError(model.PlatformYouTube, err, "google api call failed")
}
