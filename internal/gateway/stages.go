package gateway

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/modelbridge"
	"github.com/sleepstars/edgee-go/internal/models"
)

// InputNormalizer turns the caller's Input into a wire request
type InputNormalizer struct{}

func (InputNormalizer) Name() string {
	return "input_normalizer"
}

func (InputNormalizer) Execute(ctx context.Context, data *Payload) error {
	req := &models.ChatCompletionRequest{Model: data.Model}

	switch in := data.Input.(type) {
	case models.StringPrompt:
		req.Messages = []models.Message{models.UserMessage(string(in))}
	case models.StructuredInput:
		fillStructured(req, in)
	case *models.StructuredInput:
		if in == nil {
			return models.NewInvalidRequestError("input is required")
		}
		fillStructured(req, *in)
	case nil:
		return models.NewInvalidRequestError("input is required")
	default:
		return models.NewInvalidRequestError(fmt.Sprintf("unsupported input type %T", in))
	}

	data.Request = req
	return nil
}

// fillStructured copies in so later stages never write to caller memory
func fillStructured(req *models.ChatCompletionRequest, in models.StructuredInput) {
	req.Messages = append([]models.Message(nil), in.Messages...)
	req.Tools = append([]models.ToolDefinition(nil), in.Tools...)
	req.ToolChoice = in.ToolChoice
	req.EnableCompression = in.EnableCompression
	if in.CompressionRate != nil {
		rate := *in.CompressionRate
		req.CompressionRate = &rate
	}
}

// RequestValidator rejects malformed requests before any network call
type RequestValidator struct{}

func (RequestValidator) Name() string {
	return "request_validator"
}

func (RequestValidator) Execute(ctx context.Context, data *Payload) error {
	req := data.Request
	if strings.TrimSpace(req.Model) == "" {
		return models.NewInvalidRequestError("model is required")
	}
	if len(req.Messages) == 0 {
		return models.NewInvalidRequestError("messages must not be empty")
	}
	for i, msg := range req.Messages {
		if !msg.Role.Valid() {
			return models.NewInvalidRequestError(fmt.Sprintf("messages[%d]: unsupported role %q", i, msg.Role))
		}
	}
	if r := req.CompressionRate; r != nil && !(*r >= 0 && *r <= 1) {
		return models.NewInvalidRequestError(fmt.Sprintf("compression_rate %v is outside [0,1]", *r))
	}
	for i, tool := range req.Tools {
		if tool.Type != "function" {
			return models.NewInvalidRequestError(fmt.Sprintf("tools[%d]: unsupported type %q", i, tool.Type))
		}
		if tool.Function.Name == "" {
			return models.NewInvalidRequestError(fmt.Sprintf("tools[%d]: function name is required", i))
		}
	}
	return nil
}

// CompressionPlanner decides which compression directives go out. Only user
// content is ever eligible; the gateway does the compressing.
type CompressionPlanner struct {
	config config.CompressionConfig
	logger *logger.Logger
}

func newCompressionPlanner(cfg config.CompressionConfig) *CompressionPlanner {
	return &CompressionPlanner{
		config: cfg,
		logger: logger.GetLogger().WithComponent("compression_planner"),
	}
}

func (p *CompressionPlanner) Name() string {
	return "compression_planner"
}

func (p *CompressionPlanner) Execute(ctx context.Context, data *Payload) error {
	req := data.Request
	data.Eligible = hasEligibleContent(req.Messages)

	if !req.EnableCompression {
		req.CompressionRate = nil
		return nil
	}
	if !p.config.Supported() {
		p.logger.Debug("Compression requested but disabled for this account; sending without it")
		req.EnableCompression = false
		req.CompressionRate = nil
		return nil
	}
	if req.CompressionRate == nil && p.config.DefaultRate != nil {
		rate := *p.config.DefaultRate
		req.CompressionRate = &rate
	}
	if !data.Eligible {
		p.logger.Debug("Compression requested but no user content is eligible")
	}
	data.CompressionSent = true
	return nil
}

func hasEligibleContent(messages []models.Message) bool {
	for _, msg := range messages {
		if msg.Role == models.RoleUser && strings.TrimSpace(msg.Content) != "" {
			return true
		}
	}
	return false
}

// Dispatcher hands the request to the model bridge
type Dispatcher struct {
	bridge *modelbridge.ModelBridge
}

func (d *Dispatcher) Name() string {
	return "dispatcher"
}

func (d *Dispatcher) Execute(ctx context.Context, data *Payload) error {
	resp, err := d.bridge.Call(ctx, data.Request)
	if err != nil {
		return fmt.Errorf("model call: %w", err)
	}
	data.Completion = resp
	return nil
}

// ResponseBuilder creates the caller-facing Response and enforces the usage
// and compression invariants regardless of what the gateway reported
type ResponseBuilder struct {
	logger *logger.Logger
}

func newResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{logger: logger.GetLogger().WithComponent("response_builder")}
}

func (b *ResponseBuilder) Name() string {
	return "response_builder"
}

func (b *ResponseBuilder) Execute(ctx context.Context, data *Payload) error {
	c := data.Completion
	if c == nil || len(c.Choices) == 0 {
		return models.NewProviderError(models.ErrCodeProvider, "no choices in response", nil)
	}

	resp := &models.Response{
		ID:      c.ID,
		Model:   c.Model,
		Text:    c.Choices[0].Message.Content,
		Choices: c.Choices,
	}
	if resp.Model == "" {
		resp.Model = data.Request.Model
	}

	if c.Usage != nil {
		usage := *c.Usage
		if !usage.Consistent() {
			b.logger.Warn("Gateway reported total_tokens=%d for %d+%d tokens; using the sum",
				usage.TotalTokens, usage.PromptTokens, usage.CompletionTokens)
			usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		}
		resp.Usage = &usage
	}

	if c.Compression != nil && data.CompressionSent {
		comp := *c.Compression
		if comp.InputTokens < 0 {
			comp.InputTokens = 0
		}
		switch {
		case !data.Eligible, comp.SavedTokens < 0:
			comp.SavedTokens = 0
		case comp.SavedTokens > comp.InputTokens:
			comp.SavedTokens = comp.InputTokens
		}
		switch {
		case math.IsNaN(comp.Rate), comp.Rate < 0:
			comp.Rate = 0
		case comp.Rate > 1:
			comp.Rate = 1
		}
		resp.Compression = &comp
	}

	data.Response = resp
	return nil
}
