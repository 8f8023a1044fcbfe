package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-hub/domain/model"
	"social-hub/infrastructure/clients/uploader"
	"social-hub/infrastructure/configuration"
)

// Config holds Twitter OAuth2 credentials plus base URLs overridable in tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthBaseURL  string // default https://twitter.com
	APIBaseURL   string // default https://api.twitter.com
}

// Client wraps the Twitter v2 API. The code flow uses PKCE; media goes up
// through an init + pre-signed PUT pair before the tweet is created.
type Client struct {
	cfg        Config
	httpClient *http.Client
	transfer   *uploader.Client
}

func NewClient(cfg configuration.OAuthClient, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}
	}
	return &Client{
		cfg: Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       scopes,
			AuthBaseURL:  "https://twitter.com",
			APIBaseURL:   "https://api.twitter.com",
		},
		httpClient: httpClient,
		transfer:   uploader.NewClient(model.PlatformTwitter, httpClient),
	}
}

func NewClientWithConfig(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: httpClient, transfer: uploader.NewClient(model.PlatformTwitter, httpClient)}
}

func (c *Client) Platform() model.Platform { return model.PlatformTwitter }

func (c *Client) RequiresPKCE() bool { return true }

func (c *Client) AuthorizationURL(state, challenge string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("scope", strings.Join(c.cfg.Scopes, " "))
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	return c.cfg.AuthBaseURL + "/i/oauth2/authorize?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*model.OAuthToken, *model.PlatformProfile, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("code_verifier", verifier)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformTwitter,
		c.cfg.APIBaseURL+"/2/oauth2/token", form, c.cfg.ClientID, c.cfg.ClientSecret, nil, &tr); err != nil {
		return nil, nil, err
	}
	token := c.buildToken(&tr)

	var me struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformTwitter, http.MethodGet,
		c.cfg.APIBaseURL+"/2/users/me", token.AccessToken, nil, nil, &me); err != nil {
		return nil, nil, err
	}
	return token, &model.PlatformProfile{UserID: me.Data.ID, Username: me.Data.Username}, nil
}

func (c *Client) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, model.NewReauthorizationRequired(model.PlatformTwitter, "no refresh token stored")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)
	form.Set("client_id", c.cfg.ClientID)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformTwitter,
		c.cfg.APIBaseURL+"/2/oauth2/token", form, c.cfg.ClientID, c.cfg.ClientSecret, nil, &tr); err != nil {
		return nil, err
	}
	return c.buildToken(&tr), nil
}

func (c *Client) buildToken(tr *tokenResponse) *model.OAuthToken {
	token := &model.OAuthToken{
		Platform:     model.PlatformTwitter,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
		token.ExpiresAt = &exp
	}
	if tr.Scope != "" {
		token.Scopes = strings.Fields(tr.Scope)
	}
	return token
}

// UploadMedia initializes an upload per item and PUTs the binary to the
// returned pre-signed URL. Refs are the provider media ids.
func (c *Client) UploadMedia(ctx context.Context, token *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	var refs []string
	for _, item := range media {
		data, contentType, err := c.transfer.Download(ctx, item.URL)
		if err != nil {
			return nil, err
		}
		if contentType == "" {
			contentType = item.MimeType
		}
		var init struct {
			MediaID   string `json:"media_id"`
			UploadURL string `json:"upload_url"`
		}
		body := map[string]interface{}{
			"media_type":  contentType,
			"total_bytes": len(data),
		}
		if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformTwitter, http.MethodPost,
			c.cfg.APIBaseURL+"/2/media/upload/initialize", token.AccessToken, nil, body, &init); err != nil {
			return nil, err
		}
		if err := c.transfer.Put(ctx, init.UploadURL, data, contentType, nil); err != nil {
			return nil, err
		}
		refs = append(refs, init.MediaID)
	}
	return refs, nil
}

func (c *Client) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error) {
	body := map[string]interface{}{"text": payload.Content.Text}
	if payload.Content.Link != "" {
		body["text"] = payload.Content.Text + " " + payload.Content.Link
	}
	if len(mediaRefs) > 0 {
		body["media"] = map[string]interface{}{"media_ids": mediaRefs}
	}
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformTwitter, http.MethodPost,
		c.cfg.APIBaseURL+"/2/tweets", token.AccessToken, nil, body, &created); err != nil {
		return nil, err
	}
	return &model.PublishResult{
		PlatformPostID: created.Data.ID,
		URL:            fmt.Sprintf("https://twitter.com/i/web/status/%s", created.Data.ID),
	}, nil
}
