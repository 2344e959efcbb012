package blobstore

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/suteetoe/perftrack/pkg/config"
	"go.uber.org/zap"
)

// Client talks to the blob storage provider. Uploads return an opaque URL;
// the provider owns object lifecycle beyond that.
type Client struct {
	BaseURL    string
	APIKey     string
	Bucket     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a new blob storage client
func NewClient(cfg *config.BlobConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Bucket:     cfg.Bucket,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}
}

// Upload stores the object under the given key and returns the URL the
// provider assigned to it
func (c *Client) Upload(key, contentType string, body io.Reader) (string, error) {
	endpoint := fmt.Sprintf("%s/buckets/%s/objects/%s", c.BaseURL, url.PathEscape(c.Bucket), url.PathEscape(key))

	req, err := http.NewRequest(http.MethodPut, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("blob provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode blob provider response: %w", err)
	}

	c.Logger.Info("Blob uploaded",
		zap.String("bucket", c.Bucket),
		zap.String("key", key))
	return result.URL, nil
}
