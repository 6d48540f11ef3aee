// SPDX-License-Identifier: MPL-2.0

// Package agentver resolves the latest published version of the agent runtime
// installed into every image. Resolution is best-effort: network trouble must
// never block a build, so every failure degrades to the "latest" sentinel and
// the install script inside the image picks whatever is current.
package agentver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// FallbackVersion is returned whenever the release endpoint cannot be
// consulted.
const FallbackVersion = "latest"

// DefaultEndpoint is the release bucket publishing the current version string.
const DefaultEndpoint = "https://storage.googleapis.com/claude-code-dist-86c565f3-f756-42ad-8dfa-d59b1c096819/claude-code-releases"

const requestTimeout = 5 * time.Second

// Client fetches version strings from a release endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the release endpoint. Used by tests and air-gapped
// mirrors.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a release endpoint client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: requestTimeout},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestVersion returns the current published version string, or
// FallbackVersion when the endpoint is unreachable, slow, or returns anything
// other than a plausible version body.
func (c *Client) LatestVersion(ctx context.Context) string {
	url := c.endpoint + "/latest"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Debug("version lookup request could not be built", "err", err)
		return FallbackVersion
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("version lookup failed, using fallback", "err", err)
		return FallbackVersion
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("version lookup returned non-OK status, using fallback",
			"status", resp.Status)
		return FallbackVersion
	}

	// The body is a bare version string; anything longer is not it.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 128))
	if err != nil {
		c.logger.Debug("version lookup body unreadable, using fallback", "err", err)
		return FallbackVersion
	}

	version := strings.TrimSpace(string(body))
	if version == "" {
		return FallbackVersion
	}
	return version
}

// String identifies the client for log output.
func (c *Client) String() string {
	return fmt.Sprintf("agentver(%s)", c.endpoint)
}
