package clients

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sleepstars/edgee-go/internal/models"
)

// OpenAIClient implements ModelClient for plain OpenAI-compatible endpoints.
// The wire format has no room for compression directives, so they are dropped
// and responses never carry compression metrics.
type OpenAIClient struct {
	config ModelClientConfig
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(config ModelClientConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = normalizeBase(config.APIBase) + "/v1"
	clientConfig.HTTPClient = config.httpClient()

	return &OpenAIClient{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	// Call OpenAI API
	resp, err := c.client.CreateChatCompletion(ctx, c.toOpenAIRequest(req))
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	// Convert response back to our format
	out := &models.ChatCompletionResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Choices: make([]models.ChatCompletionChoice, 0, len(resp.Choices)),
	}
	// go-openai decodes a missing usage block as zeros
	if u := resp.Usage; u.PromptTokens != 0 || u.CompletionTokens != 0 || u.TotalTokens != 0 {
		out.Usage = &models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	for _, choice := range resp.Choices {
		out.Choices = append(out.Choices, models.ChatCompletionChoice{
			Index:        choice.Index,
			Message:      fromOpenAIMessage(choice.Message),
			FinishReason: string(choice.FinishReason),
		})
	}
	return out, nil
}

func (c *OpenAIClient) toOpenAIRequest(req *models.ChatCompletionRequest) openai.ChatCompletionRequest {
	openaiReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: make([]openai.ChatCompletionMessage, len(req.Messages)),
	}

	// Convert messages
	for i, msg := range req.Messages {
		openaiReq.Messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		for _, call := range msg.ToolCalls {
			openaiReq.Messages[i].ToolCalls = append(openaiReq.Messages[i].ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolType(call.Type),
				Function: openai.FunctionCall{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			})
		}
	}

	if !c.disabled("tools") {
		for _, tool := range req.Tools {
			openaiReq.Tools = append(openaiReq.Tools, openai.Tool{
				Type: openai.ToolType(tool.Type),
				Function: &openai.FunctionDefinition{
					Name:        tool.Function.Name,
					Description: tool.Function.Description,
					Parameters:  tool.Function.Parameters,
				},
			})
		}
	}
	if req.ToolChoice != "" && !c.disabled("tool_choice") {
		openaiReq.ToolChoice = req.ToolChoice
	}
	return openaiReq
}

func (c *OpenAIClient) disabled(param string) bool {
	for _, p := range c.config.DisabledParams {
		if p == param {
			return true
		}
	}
	return false
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage) models.Message {
	out := models.Message{
		Role:    models.Role(msg.Role),
		Content: msg.Content,
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:   call.ID,
			Type: string(call.Type),
			Function: models.ToolFunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return out
}

// classify maps go-openai errors onto the shared taxonomy
func (c *OpenAIClient) classify(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &models.APIError{
			Code:       codeForStatus(apiErr.HTTPStatusCode),
			Message:    fmt.Sprintf("gateway returned %d: %s", apiErr.HTTPStatusCode, apiErr.Message),
			StatusCode: apiErr.HTTPStatusCode,
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &models.APIError{
			Code:       codeForStatus(reqErr.HTTPStatusCode),
			Message:    fmt.Sprintf("gateway returned %d", reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}
	return transportError(ctx, err)
}
