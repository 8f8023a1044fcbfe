package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"social-hub/domain/model"
)

// DoJSON sends a JSON request to a provider endpoint, classifies the response
// status and decodes the body into out when out is non-nil.
func DoJSON(ctx context.Context, httpClient *http.Client, platform model.Platform, method, endpoint, accessToken string,
	headers map[string]string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return model.NewUpstreamAPIError(platform, "invalid request %s %s: %v", method, endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return model.NewTransientNetworkError(platform, err, "%s %s failed", method, endpoint)
	}
	defer resp.Body.Close()
	if err := ClassifyStatus(platform, resp); err != nil {
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.NewUpstreamAPIError(platform, "decoding %s response: %v", endpoint, err)
	}
	return nil
}

// PostForm sends a form-encoded request. basicUser/basicPass set HTTP basic
// auth when non-empty; several token endpoints require it.
func PostForm(ctx context.Context, httpClient *http.Client, platform model.Platform, endpoint string,
	form url.Values, basicUser, basicPass string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return model.NewUpstreamAPIError(platform, "invalid request POST %s: %v", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicUser != "" {
		req.SetBasicAuth(basicUser, basicPass)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return model.NewTransientNetworkError(platform, err, "POST %s failed", endpoint)
	}
	defer resp.Body.Close()
	if err := ClassifyStatus(platform, resp); err != nil {
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.NewUpstreamAPIError(platform, "decoding %s response: %v", endpoint, err)
	}
	return nil
}
