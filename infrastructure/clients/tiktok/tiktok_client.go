package tiktok

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-hub/domain/model"
	"social-hub/infrastructure/clients/uploader"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
)

// Config holds TikTok OAuth credentials plus base URLs overridable in tests.
type Config struct {
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthBaseURL  string // default https://www.tiktok.com
	APIBaseURL   string // default https://open.tiktokapis.com
}

// Client wraps the TikTok content-posting API. TikTok entangles upload and
// publish: the init call already carries the caption, returns the upload URL
// and the publish id, and the video goes up in Content-Range chunks against
// that URL. The whole protocol therefore runs inside CreatePost.
type Client struct {
	cfg        Config
	httpClient *http.Client
	transfer   *uploader.Client
}

func NewClient(cfg configuration.OAuthClient, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"user.info.basic", "video.publish"}
	}
	return &Client{
		cfg: Config{
			ClientKey:    cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       scopes,
			AuthBaseURL:  "https://www.tiktok.com",
			APIBaseURL:   "https://open.tiktokapis.com",
		},
		httpClient: httpClient,
		transfer:   uploader.NewClient(model.PlatformTikTok, httpClient),
	}
}

func NewClientWithConfig(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: httpClient, transfer: uploader.NewClient(model.PlatformTikTok, httpClient)}
}

func (c *Client) Platform() model.Platform { return model.PlatformTikTok }

func (c *Client) RequiresPKCE() bool { return true }

func (c *Client) AuthorizationURL(state, challenge string) string {
	q := url.Values{}
	q.Set("client_key", c.cfg.ClientKey)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("scope", strings.Join(c.cfg.Scopes, ","))
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	return c.cfg.AuthBaseURL + "/v2/auth/authorize/?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	OpenID       string `json:"open_id"`
	Scope        string `json:"scope"`
}

func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*model.OAuthToken, *model.PlatformProfile, error) {
	form := url.Values{}
	form.Set("client_key", c.cfg.ClientKey)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code_verifier", verifier)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformTikTok,
		c.cfg.APIBaseURL+"/v2/oauth/token/", form, "", "", nil, &tr); err != nil {
		return nil, nil, err
	}
	token := c.buildToken(&tr)

	var info struct {
		Data struct {
			User struct {
				OpenID      string `json:"open_id"`
				DisplayName string `json:"display_name"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformTikTok, http.MethodGet,
		c.cfg.APIBaseURL+"/v2/user/info/?fields=open_id,display_name", token.AccessToken, nil, nil, &info); err != nil {
		return nil, nil, err
	}
	profile := &model.PlatformProfile{UserID: info.Data.User.OpenID, Username: info.Data.User.DisplayName}
	if profile.UserID == "" {
		profile.UserID = tr.OpenID
	}
	return token, profile, nil
}

func (c *Client) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, model.NewReauthorizationRequired(model.PlatformTikTok, "no refresh token stored")
	}
	form := url.Values{}
	form.Set("client_key", c.cfg.ClientKey)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformTikTok,
		c.cfg.APIBaseURL+"/v2/oauth/token/", form, "", "", nil, &tr); err != nil {
		return nil, err
	}
	return c.buildToken(&tr), nil
}

func (c *Client) buildToken(tr *tokenResponse) *model.OAuthToken {
	token := &model.OAuthToken{
		Platform:     model.PlatformTikTok,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
		token.ExpiresAt = &exp
	}
	if tr.Scope != "" {
		token.Scopes = strings.Split(tr.Scope, ",")
	}
	return token
}

// UploadMedia is a passthrough; the init call that starts the transfer needs
// the caption, so the chunked upload runs inside CreatePost.
func (c *Client) UploadMedia(_ context.Context, _ *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	refs := make([]string, 0, len(media))
	for _, item := range media {
		refs = append(refs, item.URL)
	}
	return refs, nil
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
}

func (c *Client) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error) {
	videos := payload.Content.Videos()
	if len(videos) != 1 {
		return nil, model.NewValidationError(model.PlatformTikTok, "exactly one video required, got %d", len(videos))
	}
	data, contentType, err := c.transfer.Download(ctx, videos[0].URL)
	if err != nil {
		return nil, err
	}
	fileSize := int64(len(data))
	chunkSize, totalChunks := uploader.CalculateChunks(fileSize)

	initBody := map[string]interface{}{
		"post_info": map[string]interface{}{
			"title":         payload.Content.Text,
			"privacy_level": "PUBLIC_TO_EVERYONE",
		},
		"source_info": map[string]interface{}{
			"source":            "FILE_UPLOAD",
			"video_size":        fileSize,
			"chunk_size":        chunkSize,
			"total_chunk_count": totalChunks,
		},
	}
	var init initResponse
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformTikTok, http.MethodPost,
		c.cfg.APIBaseURL+"/v2/post/publish/video/init/", token.AccessToken, nil, initBody, &init); err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("publish_id", init.Data.PublishID).
		WithField("chunks", totalChunks).
		Info("TikTok upload initialized")

	if contentType == "" {
		contentType = "video/mp4"
	}
	if err := c.transfer.PutChunked(ctx, init.Data.UploadURL, data, chunkSize, contentType, nil); err != nil {
		return nil, err
	}

	var status struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	statusBody := map[string]string{"publish_id": init.Data.PublishID}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformTikTok, http.MethodPost,
		c.cfg.APIBaseURL+"/v2/post/publish/status/fetch/", token.AccessToken, nil, statusBody, &status); err != nil {
		return nil, err
	}
	if status.Data.Status == "FAILED" {
		return nil, model.NewUpstreamAPIError(model.PlatformTikTok, "publish %s reported FAILED", init.Data.PublishID)
	}
	return &model.PublishResult{PlatformPostID: init.Data.PublishID}, nil
}
