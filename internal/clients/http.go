package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/sleepstars/edgee-go/internal/models"
)

const (
	completionsPath = "/v1/chat/completions"
	maxErrorBody    = 4096
)

// HTTPClient implements ModelClient against the gateway's JSON API. It is the
// only transport that carries compression directives.
type HTTPClient struct {
	config ModelClientConfig
	client *http.Client
	url    string
}

// NewHTTPClient creates a new gateway HTTP client
func NewHTTPClient(config ModelClientConfig) *HTTPClient {
	return &HTTPClient{
		config: config,
		client: config.httpClient(),
		url:    normalizeBase(config.APIBase) + completionsPath,
	}
}

// EncodeRequest returns the exact body Complete sends for req. Equal requests
// encode to equal bytes.
func (c *HTTPClient) EncodeRequest(req *models.ChatCompletionRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if len(c.config.DisabledParams) == 0 {
		return body, nil
	}

	// Remove disabled parameters. Map keys marshal sorted, so the
	// output stays deterministic.
	reqMap := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &reqMap); err != nil {
		return nil, fmt.Errorf("filter params: %w", err)
	}
	for _, param := range c.config.DisabledParams {
		delete(reqMap, param)
	}
	return json.Marshal(reqMap)
}

func (c *HTTPClient) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	// Prepare request body
	body, err := c.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	// Create HTTP request
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	// Send request
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, resp.Header, errBody)
	}

	// Parse response
	var result models.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, models.NewProviderError(models.ErrCodeProvider, "decode response", err)
	}

	return &result, nil
}
