package reddit

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"social-hub/domain/model"
	"social-hub/infrastructure/clients/uploader"
	"social-hub/infrastructure/configuration"
)

const userAgent = "social-hub/1.0"

// Config holds Reddit OAuth credentials plus base URLs overridable in tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthBaseURL  string // default https://www.reddit.com
	APIBaseURL   string // default https://oauth.reddit.com
}

// Client wraps the Reddit API. Submissions attach media by reference (link
// posts), so there is no upload step. Reddit requires a User-Agent on every
// call and HTTP basic auth at the token endpoint.
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
		scopes = []string{"identity", "submit"}
	}
	return &Client{
		cfg: Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       scopes,
			AuthBaseURL:  "https://www.reddit.com",
			APIBaseURL:   "https://oauth.reddit.com",
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

func (c *Client) Platform() model.Platform { return model.PlatformReddit }

func (c *Client) RequiresPKCE() bool { return false }

func (c *Client) AuthorizationURL(state, _ string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("state", state)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("duration", "permanent")
	q.Set("scope", strings.Join(c.cfg.Scopes, " "))
	return c.cfg.AuthBaseURL + "/api/v1/authorize?" + q.Encode()
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
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformReddit,
		c.cfg.AuthBaseURL+"/api/v1/access_token", form, c.cfg.ClientID, c.cfg.ClientSecret,
		map[string]string{"User-Agent": userAgent}, &tr); err != nil {
		return nil, nil, err
	}
	token := c.buildToken(&tr)

	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformReddit, http.MethodGet,
		c.cfg.APIBaseURL+"/api/v1/me", token.AccessToken,
		map[string]string{"User-Agent": userAgent}, nil, &me); err != nil {
		return nil, nil, err
	}
	return token, &model.PlatformProfile{UserID: me.ID, Username: me.Name}, nil
}

func (c *Client) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, model.NewReauthorizationRequired(model.PlatformReddit, "no refresh token stored")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformReddit,
		c.cfg.AuthBaseURL+"/api/v1/access_token", form, c.cfg.ClientID, c.cfg.ClientSecret,
		map[string]string{"User-Agent": userAgent}, &tr); err != nil {
		return nil, err
	}
	return c.buildToken(&tr), nil
}

func (c *Client) buildToken(tr *tokenResponse) *model.OAuthToken {
	token := &model.OAuthToken{
		Platform:     model.PlatformReddit,
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

// UploadMedia attaches by reference; image submissions carry the source URL.
func (c *Client) UploadMedia(_ context.Context, _ *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	refs := make([]string, 0, len(media))
	for _, item := range media {
		refs = append(refs, item.URL)
	}
	return refs, nil
}

type submitParams struct {
	Subreddit string `url:"sr"`
	Kind      string `url:"kind"`
	Title     string `url:"title"`
	Text      string `url:"text,omitempty"`
	URL       string `url:"url,omitempty"`
	APIType   string `url:"api_type"`
	Resubmit  bool   `url:"resubmit"`
}

func (c *Client) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error) {
	if payload.Content.Subreddit == "" {
		return nil, model.NewValidationError(model.PlatformReddit, "subreddit is required")
	}
	params := submitParams{
		Subreddit: payload.Content.Subreddit,
		Title:     payload.Content.Title,
		APIType:   "json",
		Resubmit:  true,
	}
	switch {
	case len(mediaRefs) > 0:
		params.Kind = "link"
		params.URL = mediaRefs[0]
	case payload.Content.Link != "":
		params.Kind = "link"
		params.URL = payload.Content.Link
	default:
		params.Kind = "self"
		params.Text = payload.Content.Text
	}
	form, err := query.Values(params)
	if err != nil {
		return nil, model.NewUpstreamAPIError(model.PlatformReddit, "encoding submit params: %v", err)
	}
	var submitted struct {
		JSON struct {
			Errors [][]interface{} `json:"errors"`
			Data   struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				URL  string `json:"url"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformReddit,
		c.cfg.APIBaseURL+"/api/submit", form, "", "",
		map[string]string{"User-Agent": userAgent, "Authorization": "Bearer " + token.AccessToken}, &submitted); err != nil {
		return nil, err
	}
	if len(submitted.JSON.Errors) > 0 {
		return nil, model.NewUpstreamAPIError(model.PlatformReddit, "submit rejected: %v", submitted.JSON.Errors)
	}
	return &model.PublishResult{
		PlatformPostID: submitted.JSON.Data.ID,
		URL:            submitted.JSON.Data.URL,
	}, nil
}
