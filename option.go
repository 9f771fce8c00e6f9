package protocolbanks

import (
	"time"

	"github.com/protocolbanks/protocolbanks-go/logger"
	"github.com/protocolbanks/protocolbanks-go/metrics"
	"github.com/protocolbanks/protocolbanks-go/types"
)

// Option customizes a Client at construction time.
type Option func(*Client)

// WithLogger routes SDK logging through l instead of the logger derived
// from Config.LogLevel.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics routes SDK metrics through r instead of the recorder
// derived from Config.EnableMetrics.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.rec = r
	}
}

// WithBackend injects the transport used for backend calls. Without a
// backend the SDK still handles everything that works locally: link
// generation and verification, webhook verification, validation, and
// authorization creation.
func WithBackend(b types.Backend) Option {
	return func(c *Client) {
		c.backend = b
	}
}

// WithLinkBaseURL overrides the base URL embedded in generated payment
// links.
func WithLinkBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.LinkBaseURL = baseURL
	}
}

// WithTimeout sets the per-call timeout hint recorded in the client
// configuration for backend implementations to honor.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = t
	}
}
