// Package imagestore provides a client for the image CDN that hosts pandal photos.
package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pandalpath/pandalpath/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the image CDN API.
	DefaultBaseURL = "https://images.pandalpath.in"

	// ProviderName identifies this provider.
	ProviderName = "imagecdn"

	// MaxUploadBytes is the largest accepted image payload.
	MaxUploadBytes = 5 << 20
)

// Predefined client errors.
var (
	// ErrUnsupportedImageType is returned for content types the CDN rejects.
	ErrUnsupportedImageType = errors.New("unsupported image content type")

	// ErrImageTooLarge is returned when the payload exceeds MaxUploadBytes.
	ErrImageTooLarge = errors.New("image exceeds maximum upload size")
)

// ClientConfig holds configuration for the image CDN client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is sent as a bearer token on upload requests.
	APIKey string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 30s, uploads are slow).
	Timeout time.Duration

	// Registry receives the default resilient client for health reporting.
	Registry *resilience.Registry
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an image CDN API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a new image CDN client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Registry:        cfg.Registry,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// allowedContentTypes are the image formats the CDN accepts.
var allowedContentTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Upload sends an image to the CDN under the given pandal and returns its
// public URL. The payload is buffered in memory so the request can be retried.
func (c *Client) Upload(ctx context.Context, pandalID, contentType string, image io.Reader) (string, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", ErrUnsupportedImageType
	}

	payload, err := io.ReadAll(io.LimitReader(image, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(payload) > MaxUploadBytes {
		return "", ErrImageTooLarge
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", pandalID+"."+ext)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	url := fmt.Sprintf("%s/v1/pandals/%s/images", c.baseURL, pandalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d from upload endpoint", resp.StatusCode)
	}

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}

	return result.URL, nil
}

// Delete removes a previously uploaded image from the CDN. Missing images are
// treated as already deleted.
func (c *Client) Delete(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, imageURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status %d from delete endpoint", resp.StatusCode)
	}

	return nil
}
