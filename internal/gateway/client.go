// Package gateway is the client facade for the Edgee LLM gateway. A Client
// turns a model name and an Input into a single request, sends it, and hands
// back a Response whose Usage and Compression fields are nil when the gateway
// did not report them.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sleepstars/edgee-go/internal/clients"
	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/modelbridge"
	"github.com/sleepstars/edgee-go/internal/models"
)

// Client sends requests to the gateway. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	apiKey string
	config *config.GatewayConfig
	logger *logger.Logger

	mu     sync.RWMutex
	bridge *modelbridge.ModelBridge
}

// NewClient creates a client for apiKey. A nil cfg uses config.DefaultConfig.
// The key is only checked when sending.
func NewClient(apiKey string, cfg *config.GatewayConfig) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.GetLogger().WithComponent("gateway_client")

	transport, err := clients.New(cfg.Transport, clients.ModelClientConfig{
		APIBase:        cfg.APIBase,
		APIKey:         apiKey,
		Timeout:        cfg.Timeout,
		DisabledParams: cfg.DisabledParams,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Client created: api_base=%s transport=%s", cfg.APIBase, cfg.Transport)

	return &Client{
		apiKey: apiKey,
		config: cfg,
		logger: log,
		bridge: modelbridge.NewModelBridge(transport, cfg.Retry, cfg.RateLimit),
	}, nil
}

// SetBridge replaces the model bridge, mainly for tests
func (c *Client) SetBridge(bridge *modelbridge.ModelBridge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bridge = bridge
}

// Send issues one request for model with input. Errors are *models.APIError
// values: authentication, invalid request, or provider failures.
func (c *Client) Send(ctx context.Context, model string, input models.Input) (*models.Response, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, models.NewAuthenticationError("api key is required", nil)
	}

	c.mu.RLock()
	bridge := c.bridge
	c.mu.RUnlock()

	payload := &Payload{
		RequestID: uuid.NewString(),
		Model:     model,
		Input:     input,
	}
	ctx = clients.WithRequestID(ctx, payload.RequestID)

	c.logger.Info("Sending request id: %s, model: %s", payload.RequestID, model)

	pipeline := NewPipeline(c.logger,
		InputNormalizer{},
		RequestValidator{},
		newCompressionPlanner(c.config.Compression),
		&Dispatcher{bridge: bridge},
		newResponseBuilder(),
	)
	if err := pipeline.Execute(ctx, payload); err != nil {
		c.logger.WithError(err).Error("Request id: %s failed", payload.RequestID)
		return nil, asAPIError(err)
	}

	resp := payload.Response
	if resp.Usage != nil {
		c.logger.Info("Request id: %s completed: prompt_tokens=%d completion_tokens=%d",
			payload.RequestID, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	if resp.Compression != nil {
		c.logger.Info("Request id: %s compression: input_tokens=%d saved_tokens=%d rate=%.2f",
			payload.RequestID, resp.Compression.InputTokens, resp.Compression.SavedTokens, resp.Compression.Rate)
	}
	return resp, nil
}

// asAPIError strips stage wrapping so callers always get the typed error
func asAPIError(err error) *models.APIError {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return models.NewProviderError(models.ErrCodeProvider, "request failed", err)
}
