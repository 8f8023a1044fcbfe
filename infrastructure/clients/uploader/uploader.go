package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

// Client moves media bytes between source URLs and provider upload endpoints.
// It is shared by every platform client that needs a binary transfer.
type Client struct {
	httpClient *http.Client
	platform   model.Platform
}

func NewClient(platform model.Platform, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{httpClient: httpClient, platform: platform}
}

// Download fetches the source media bytes and reports the content type.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", model.NewValidationError(c.platform, "invalid media url %q: %v", url, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", model.NewTransientNetworkError(c.platform, err, "media download failed: %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", model.NewTransientNetworkError(c.platform, nil, "media download returned %d: %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", model.NewTransientNetworkError(c.platform, err, "media download read failed: %s", url)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// Put uploads the whole payload to a provider upload URL in one request.
func (c *Client) Put(ctx context.Context, url string, data []byte, contentType string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return model.NewUpstreamAPIError(c.platform, "invalid upload url %q: %v", url, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewTransientNetworkError(c.platform, err, "media upload failed")
	}
	defer resp.Body.Close()
	if err := ClassifyStatus(c.platform, resp); err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// PutChunked uploads the payload in Content-Range chunks. The upload fails
// atomically; there is no resume from a partially uploaded chunk.
func (c *Client) PutChunked(ctx context.Context, url string, data []byte, chunkSize int64, contentType string, headers map[string]string) error {
	fileSize := int64(len(data))
	total := int((fileSize + chunkSize - 1) / chunkSize)
	for i := 0; i < total; i++ {
		start := int64(i) * chunkSize
		end := start + chunkSize
		if end > fileSize {
			end = fileSize
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data[start:end]))
		if err != nil {
			return model.NewUpstreamAPIError(c.platform, "invalid upload url %q: %v", url, err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, fileSize))
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return model.NewTransientNetworkError(c.platform, err, "chunk %d/%d upload failed", i+1, total)
		}
		if err := ClassifyStatus(c.platform, resp); err != nil {
			resp.Body.Close()
			return err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		logger.GetLogger().
			WithField("platform", c.platform).
			WithField("chunk", i+1).
			WithField("total", total).
			Debug("Chunk uploaded")
	}
	return nil
}

// ClassifyStatus maps a provider HTTP status to the failure taxonomy.
// 2xx is success, 429 and 5xx consume a retry attempt, 401/403 demand
// reauthorization, and any other 4xx passes the provider message through as a
// terminal upstream error.
func ClassifyStatus(platform model.Platform, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return model.NewRateLimitError(platform, "rate limited: %s", string(body))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.NewAuthenticationError(platform, "provider rejected credentials (%d): %s", resp.StatusCode, string(body))
	case resp.StatusCode >= 500:
		return model.NewTransientNetworkError(platform, nil, "provider returned %d: %s", resp.StatusCode, string(body))
	default:
		return model.NewUpstreamAPIError(platform, "provider returned %d: %s", resp.StatusCode, string(body))
	}
}
