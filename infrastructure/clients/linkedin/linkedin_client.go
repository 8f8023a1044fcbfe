package linkedin

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
	"social-hub/infrastructure/logger"
)

// Config holds LinkedIn OAuth credentials plus base URLs overridable in tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthBaseURL  string // default https://www.linkedin.com
	APIBaseURL   string // default https://api.linkedin.com
}

// Client wraps the LinkedIn REST API. Media goes up through the two-step
// registerUpload + binary PUT protocol; posts are created as ugcPosts.
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
		scopes = []string{"openid", "profile", "w_member_social"}
	}
	return &Client{
		cfg: Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURI:  cfg.RedirectURI,
			Scopes:       scopes,
			AuthBaseURL:  "https://www.linkedin.com",
			APIBaseURL:   "https://api.linkedin.com",
		},
		httpClient: httpClient,
		transfer:   uploader.NewClient(model.PlatformLinkedIn, httpClient),
	}
}

// NewClientWithConfig is the test seam; it accepts explicit base URLs.
func NewClientWithConfig(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: httpClient, transfer: uploader.NewClient(model.PlatformLinkedIn, httpClient)}
}

func (c *Client) Platform() model.Platform { return model.PlatformLinkedIn }

func (c *Client) RequiresPKCE() bool { return false }

func (c *Client) AuthorizationURL(state, _ string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("scope", strings.Join(c.cfg.Scopes, " "))
	return c.cfg.AuthBaseURL + "/oauth/v2/authorization?" + q.Encode()
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
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformLinkedIn,
		c.cfg.AuthBaseURL+"/oauth/v2/accessToken", form, "", "", nil, &tr); err != nil {
		return nil, nil, err
	}
	token := c.buildToken(&tr)

	var info struct {
		Sub  string `json:"sub"`
		Name string `json:"name"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformLinkedIn, http.MethodGet,
		c.cfg.APIBaseURL+"/v2/userinfo", token.AccessToken, nil, nil, &info); err != nil {
		return nil, nil, err
	}
	return token, &model.PlatformProfile{UserID: info.Sub, Username: info.Name}, nil
}

func (c *Client) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, model.NewReauthorizationRequired(model.PlatformLinkedIn, "no refresh token stored")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	var tr tokenResponse
	if err := uploader.PostForm(ctx, c.httpClient, model.PlatformLinkedIn,
		c.cfg.AuthBaseURL+"/oauth/v2/accessToken", form, "", "", nil, &tr); err != nil {
		return nil, err
	}
	return c.buildToken(&tr), nil
}

func (c *Client) buildToken(tr *tokenResponse) *model.OAuthToken {
	token := &model.OAuthToken{
		Platform:     model.PlatformLinkedIn,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
		token.ExpiresAt = &exp
	}
	if tr.Scope != "" {
		token.Scopes = strings.Fields(strings.ReplaceAll(tr.Scope, ",", " "))
	}
	return token
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism struct {
			MediaUploadHTTPRequest struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

// UploadMedia registers each item, downloads the source bytes and PUTs them to
// the pre-signed URL. The returned refs are asset URNs.
func (c *Client) UploadMedia(ctx context.Context, token *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	owner := "urn:li:person:" + derefOr(token.PlatformUserID, "")
	var refs []string
	for _, item := range media {
		recipe := "urn:li:digitalmediaRecipe:feedshare-image"
		if item.Type == model.MediaVideo {
			recipe = "urn:li:digitalmediaRecipe:feedshare-video"
		}
		body := map[string]interface{}{
			"registerUploadRequest": map[string]interface{}{
				"recipes": []string{recipe},
				"owner":   owner,
				"serviceRelationships": []map[string]string{
					{"relationshipType": "OWNER", "identifier": "urn:li:userGeneratedContent"},
				},
			},
		}
		var reg registerUploadResponse
		if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformLinkedIn, http.MethodPost,
			c.cfg.APIBaseURL+"/v2/assets?action=registerUpload", token.AccessToken, nil, body, &reg); err != nil {
			return nil, err
		}
		data, contentType, err := c.transfer.Download(ctx, item.URL)
		if err != nil {
			return nil, err
		}
		if err := c.transfer.Put(ctx, reg.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL, data, contentType,
			map[string]string{"Authorization": "Bearer " + token.AccessToken}); err != nil {
			return nil, err
		}
		refs = append(refs, reg.Value.Asset)
		logger.GetLogger().WithField("asset", reg.Value.Asset).Debug("LinkedIn media uploaded")
	}
	return refs, nil
}

func (c *Client) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, mediaRefs []string) (*model.PublishResult, error) {
	author := "urn:li:person:" + derefOr(token.PlatformUserID, "")
	category := "NONE"
	var mediaList []map[string]interface{}
	if len(mediaRefs) > 0 {
		category = "IMAGE"
		if len(payload.Content.Videos()) > 0 {
			category = "VIDEO"
		}
		for _, ref := range mediaRefs {
			mediaList = append(mediaList, map[string]interface{}{"status": "READY", "media": ref})
		}
	} else if payload.Content.Link != "" {
		category = "ARTICLE"
		mediaList = append(mediaList, map[string]interface{}{
			"status":      "READY",
			"originalUrl": payload.Content.Link,
		})
	}
	body := map[string]interface{}{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": payload.Content.Text},
				"shareMediaCategory": category,
				"media":              mediaList,
			},
		},
		"visibility": map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := uploader.DoJSON(ctx, c.httpClient, model.PlatformLinkedIn, http.MethodPost,
		c.cfg.APIBaseURL+"/v2/ugcPosts", token.AccessToken,
		map[string]string{"X-Restli-Protocol-Version": "2.0.0"}, body, &created); err != nil {
		return nil, err
	}
	return &model.PublishResult{
		PlatformPostID: created.ID,
		URL:            fmt.Sprintf("https://www.linkedin.com/feed/update/%s", created.ID),
	}, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
