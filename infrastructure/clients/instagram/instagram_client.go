package instagram

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

const graphVersion = "v19.0"

// MetaIGUserID is the token metadata key carrying the Instagram business
// account id resolved at connect time. Publishing is impossible without it.
const MetaIGUserID = "ig_user_id"

// Config holds Meta app credentials plus base URLs overridable in tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthBaseURL  string // default https://www.facebook.com
	APIBaseURL   string // default https://graph.facebook.com
}

// Client wraps the Instagram Graph API. Content publishing runs through the
// container flow: create a media container per item (carousel when several),
// then publish the container. Media is attached by source URL.
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
		scopes = []string{"instagram_basic", "instagram_content_publish", "pages_show_list", "business_management"}
	}
	return &Client{
		cfg: Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       scopes,
			AuthBaseURL:  "https://www.facebook.com",
			APIBaseURL:   "https://graph.facebook.com",
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

func (c *Client) Platform() model.Platform { return model.PlatformInstagram }

func (c *Client) RequiresPKCE() bool { return false }

func (c *Client) AuthorizationURL(state, _ string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("response_type", "code")
	// Meta expects a raw comma-separated scope list.
	q.Set("scope", strings.Join(c.cfg.Scopes, ","))
	return c.cfg.AuthBaseURL + "/" + graphVersion + "/dialog/oauth?" + q.Encode()
}

type graphToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ExchangeCode trades the code for a short-lived token, upgrades it to a
// long-lived one and resolves the Instagram business account behind the
// user's first page. The account id travels in the token metadata.
func (c *Client) ExchangeCode(ctx context.Context, code, _ string) (*model.OAuthToken, *model.PlatformProfile, error) {
	exchangeURL := fmt.Sprintf("%s/%s/oauth/access_token?client_id=%s&redirect_uri=%s&client_secret=%s&code=%s",
		c.cfg.APIBaseURL, graphVersion,
		url.QueryEscape(c.cfg.ClientID), url.QueryEscape(c.cfg.RedirectURI),
		url.QueryEscape(c.cfg.ClientSecret), url.QueryEscape(code))
	var short graphToken
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformInstagram, http.MethodGet, exchangeURL, "", nil, nil, &short); err != nil {
		return nil, nil, err
	}

	longLived, err := c.exchangeLongLived(ctx, short.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	igUserID, username, err := c.resolveBusinessAccount(ctx, longLived.AccessToken)
	if err != nil {
		return nil, nil, err
	}

	token := &model.OAuthToken{
		Platform:    model.PlatformInstagram,
		AccessToken: longLived.AccessToken,
		Scopes:      c.cfg.Scopes,
		Metadata:    map[string]string{MetaIGUserID: igUserID},
	}
	if longLived.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(longLived.ExpiresIn) * time.Second).UTC()
		token.ExpiresAt = &exp
	}
	return token, &model.PlatformProfile{UserID: igUserID, Username: username}, nil
}

// Refresh re-runs the long-lived exchange against the current token. Meta has
// no refresh-token grant; an expired long-lived token forces reauthorization.
func (c *Client) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if token.IsExpired(time.Now()) {
		return nil, model.NewReauthorizationRequired(model.PlatformInstagram, "long-lived token expired")
	}
	refreshed, err := c.exchangeLongLived(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	out := &model.OAuthToken{
		Platform:    model.PlatformInstagram,
		AccessToken: refreshed.AccessToken,
		Scopes:      token.Scopes,
		Metadata:    token.Metadata,
	}
	if refreshed.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second).UTC()
		out.ExpiresAt = &exp
	}
	return out, nil
}

func (c *Client) exchangeLongLived(ctx context.Context, accessToken string) (*graphToken, error) {
	llURL := fmt.Sprintf("%s/%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		c.cfg.APIBaseURL, graphVersion,
		url.QueryEscape(c.cfg.ClientID), url.QueryEscape(c.cfg.ClientSecret), url.QueryEscape(accessToken))
	var tok graphToken
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformInstagram, http.MethodGet, llURL, "", nil, nil, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *Client) resolveBusinessAccount(ctx context.Context, accessToken string) (string, string, error) {
	pagesURL := fmt.Sprintf("%s/%s/me/accounts?fields=instagram_business_account{id,username}&access_token=%s",
		c.cfg.APIBaseURL, graphVersion, url.QueryEscape(accessToken))
	var pages struct {
		Data []struct {
			InstagramBusinessAccount *struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformInstagram, http.MethodGet, pagesURL, "", nil, nil, &pages); err != nil {
		return "", "", err
	}
	for _, page := range pages.Data {
		if page.InstagramBusinessAccount != nil {
			return page.InstagramBusinessAccount.ID, page.InstagramBusinessAccount.Username, nil
		}
	}
	return "", "", model.NewConfigurationError(model.PlatformInstagram, "no Instagram business account linked to any page")
}

// UploadMedia attaches by reference; containers are created from the source
// URLs inside CreatePost because they carry the caption.
func (c *Client) UploadMedia(_ context.Context, _ *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	refs := make([]string, 0, len(media))
	for _, item := range media {
		refs = append(refs, item.URL)
	}
	return refs, nil
}

func (c *Client) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error) {
	igUserID := token.Meta(MetaIGUserID)
	if igUserID == "" {
		return nil, model.NewConfigurationError(model.PlatformInstagram, "token is missing the business account id")
	}
	media := payload.Content.Media
	if len(media) == 0 {
		return nil, model.NewValidationError(model.PlatformInstagram, "a post requires media")
	}

	var creationID string
	if len(media) == 1 {
		id, err := c.createContainer(ctx, token, igUserID, media[0], payload.Content.Text, false)
		if err != nil {
			return nil, err
		}
		creationID = id
	} else {
		children := make([]string, 0, len(media))
		for _, item := range media {
			id, err := c.createContainer(ctx, token, igUserID, item, "", true)
			if err != nil {
				return nil, err
			}
			children = append(children, id)
		}
		var carousel struct {
			ID string `json:"id"`
		}
		body := map[string]interface{}{
			"media_type": "CAROUSEL",
			"caption":    payload.Content.Text,
			"children":   strings.Join(children, ","),
		}
		if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformInstagram, http.MethodPost,
			fmt.Sprintf("%s/%s/%s/media", c.cfg.APIBaseURL, graphVersion, igUserID),
			token.AccessToken, nil, body, &carousel); err != nil {
			return nil, err
		}
		creationID = carousel.ID
	}

	var published struct {
		ID string `json:"id"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformInstagram, http.MethodPost,
		fmt.Sprintf("%s/%s/%s/media_publish", c.cfg.APIBaseURL, graphVersion, igUserID),
		token.AccessToken, nil, map[string]string{"creation_id": creationID}, &published); err != nil {
		return nil, err
	}

	result := &model.PublishResult{PlatformPostID: published.ID}
	var detail struct {
		Permalink string `json:"permalink"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformInstagram, http.MethodGet,
		fmt.Sprintf("%s/%s/%s?fields=permalink", c.cfg.APIBaseURL, graphVersion, published.ID),
		token.AccessToken, nil, nil, &detail); err == nil {
		result.URL = detail.Permalink
	}
	return result, nil
}

func (c *Client) createContainer(ctx context.Context, token *model.OAuthToken, igUserID string, item model.MediaItem, caption string, carouselItem bool) (string, error) {
	body := map[string]interface{}{}
	if item.Type == model.MediaVideo {
		body["media_type"] = "REELS"
		body["video_url"] = item.URL
	} else {
		body["image_url"] = item.URL
	}
	if caption != "" {
		body["caption"] = caption
	}
	if carouselItem {
		body["is_carousel_item"] = true
	}
	var container struct {
		ID string `json:"id"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformInstagram, http.MethodPost,
		fmt.Sprintf("%s/%s/%s/media", c.cfg.APIBaseURL, graphVersion, igUserID),
		token.AccessToken, nil, body, &container); err != nil {
		return "", err
	}
	return container.ID, nil
}
