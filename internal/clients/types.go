package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/models"
)

// ModelClient defines the interface for gateway transports
type ModelClient interface {
	// Complete sends a completion request and returns the decoded response.
	// Failures are *models.APIError values.
	Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error)
}

// ModelClientConfig contains configuration for model clients
type ModelClientConfig struct {
	APIBase        string
	APIKey         string
	Timeout        time.Duration
	DisabledParams []string
	HTTPClient     *http.Client // optional, overrides Timeout
}

// New returns the transport named by transport
func New(transport string, cfg ModelClientConfig) (ModelClient, error) {
	switch transport {
	case "", config.TransportHTTP:
		return NewHTTPClient(cfg), nil
	case config.TransportOpenAI:
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request ID that transports forward as X-Request-ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID from the context, if any
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func normalizeBase(base string) string {
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/")
}

func (c ModelClientConfig) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.Timeout}
}
