package pinterest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"social-hub/domain/model"
	"social-hub/infrastructure/clients/uploader"
	"social-hub/infrastructure/configuration"
)

// Config holds Pinterest OAuth credentials plus base URLs overridable in tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthBaseURL  string // default https://www.pinterest.com
	APIBaseURL   string // default https://api.pinterest.com
}

// Client wraps the Pinterest v5 API. Pins reference image URLs directly, so
// there is no upload step.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg configuration.OAuthClient, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"boards:read", "pins:read", "pins:write", "user_accounts:read"}
	}
	return &Client{
		cfg: Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       scopes,
			AuthBaseURL:  "https://www.pinterest.com",
			APIBaseURL:   "https://api.pinterest.com",
		},
		httpClient: httpClient,
	}
}

func NewClientWithConfig(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

func (c *Client) Platform() model.Platform { return model.PlatformPinterest }

func (c *Client) RequiresPKCE() bool { return false }

type authorizeParams struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	ResponseType string `url:"response_type"`
	State        string `url:"state"`
	Scope        string `url:"scope"`
}

func (c *Client) AuthorizationURL(state, _ string) string {
	v, _ := query.Values(authorizeParams{
		ClientID:     c.cfg.ClientID,
		RedirectURI:  c.cfg.RedirectURI,
		ResponseType: "code",
		State:        state,
		Scope:        strings.Join(c.cfg.Scopes, ","),
	})
	return c.cfg.AuthBaseURL + "/oauth/?" + v.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

func (c *Client) ExchangeCode(ctx context.Context, code, _ string) (*model.OAuthToken, *model.PlatformProfile, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformPinterest,
		c.cfg.APIBaseURL+"/v5/oauth/token", form, c.cfg.ClientID, c.cfg.ClientSecret, nil, &tr); err != nil {
		return nil, nil, err
	}
	token := c.buildToken(&tr)

	var account struct {
		Username string `json:"username"`
		ID       string `json:"id"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformPinterest, http.MethodGet,
		c.cfg.APIBaseURL+"/v5/user_account", token.AccessToken, nil, nil, &account); err != nil {
		return nil, nil, err
	}
	userID := account.ID
	if userID == "" {
		userID = account.Username
	}
	return token, &model.PlatformProfile{UserID: userID, Username: account.Username}, nil
}

func (c *Client) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, model.NewReauthorizationRequired(model.PlatformPinterest, "no refresh token stored")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformPinterest,
		c.cfg.APIBaseURL+"/v5/oauth/token", form, c.cfg.ClientID, c.cfg.ClientSecret, nil, &tr); err != nil {
		return nil, err
	}
	return c.buildToken(&tr), nil
}

func (c *Client) buildToken(tr *tokenResponse) *model.OAuthToken {
	token := &model.OAuthToken{
		Platform:     model.PlatformPinterest,
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

// UploadMedia attaches by reference; pins carry the source image URL.
func (c *Client) UploadMedia(_ context.Context, _ *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	refs := make([]string, 0, len(media))
	for _, item := range media {
		refs = append(refs, item.URL)
	}
	return refs, nil
}

func (c *Client) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error) {
	if payload.Content.BoardID == "" {
		return nil, model.NewValidationError(model.PlatformPinterest, "board_id is required")
	}
	if len(mediaRefs) == 0 {
		return nil, model.NewValidationError(model.PlatformPinterest, "a pin requires one image")
	}
	body := map[string]interface{}{
		"board_id":    payload.Content.BoardID,
		"title":       payload.Content.Title,
		"description": payload.Content.Text,
		"media_source": map[string]string{
			"source_type": "image_url",
			"url":         mediaRefs[0],
		},
	}
	if payload.Content.Link != "" {
		body["link"] = payload.Content.Link
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformPinterest, http.MethodPost,
		c.cfg.APIBaseURL+"/v5/pins", token.AccessToken, nil, body, &created); err != nil {
		return nil, err
	}
	return &model.PublishResult{
		PlatformPostID: created.ID,
		URL:            fmt.Sprintf("https://www.pinterest.com/pin/%s/", created.ID),
	}, nil
}
