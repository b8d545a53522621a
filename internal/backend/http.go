package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/log"
)

const (
	generationsPath = "/api/generations"
	templatesPath   = "/api/templates"
)

// HTTPClientConfig is the configuration for the HTTP backend client.
type HTTPClientConfig struct {
	// BaseURL is the base URL of the generation service.
	BaseURL string
	// Client is the HTTP client used for all requests. It must not set a
	// client-wide timeout, generation streams are long-lived and are
	// cancelled through their context instead.
	Client *http.Client
	Logger log.Logger
}

func (c *HTTPClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Client == nil {
		c.Client = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.HTTPClient"})

	return nil
}

// HTTPClient is the HTTP implementation of Client, speaking to the real
// generation service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewHTTPClient creates a new HTTP backend client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HTTPClient{
		baseURL: cfg.BaseURL,
		client:  cfg.Client,
		logger:  cfg.Logger,
	}, nil
}

// Generate opens the streaming generation request.
func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generationsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("could not open generation stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		// Best effort read of the error body for context.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generation request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	c.logger.Debugf("Opened generation stream for template %s", req.TemplateID)
	return resp.Body, nil
}

// TemplateExists reports whether the template resource exists on the backend.
func (c *HTTPClient) TemplateExists(ctx context.Context, id string) (bool, error) {
	u := c.baseURL + templatesPath + "/" + url.PathEscape(id)
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("could not create request: %w", err)
	}
	r.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(r)
	if err != nil {
		return false, fmt.Errorf("could not query template: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("template query failed with status %d", resp.StatusCode)
	}
}
