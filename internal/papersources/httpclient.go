package papersources

import (
	"fmt"
	"net/http"
	"time"
)

// Timeouts observed to bound worst-case latency on outbound calls. There is
// deliberately no retry or backoff here; the one fallback the system performs
// (the OSF 400 simplification) lives in the OSF adapter itself.
const (
	// ExistenceCheckTimeout bounds HEAD existence probes.
	ExistenceCheckTimeout = 10 * time.Second

	// RequestTimeout bounds metadata and search calls.
	RequestTimeout = 30 * time.Second

	// DownloadTimeout bounds PDF downloads.
	DownloadTimeout = 60 * time.Second
)

// DefaultUserAgent identifies the gateway to upstream APIs.
const DefaultUserAgent = "paper-gateway/1.0"

// HTTPClientConfig configures the shared HTTP client.
type HTTPClientConfig struct {
	// Timeout is the per-request timeout. Defaults to RequestTimeout.
	Timeout time.Duration

	// UserAgent is sent with every request. Defaults to DefaultUserAgent.
	UserAgent string
}

// HTTPClient wraps http.Client with the gateway's default headers and
// timeout. It is safe for concurrent use; adapters share one instance.
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = RequestTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &HTTPClient{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Do executes an HTTP request with the configured User-Agent. The caller owns
// the response body.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}
