package models

import "encoding/json"

// Role identifies the author of a message in the conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles the gateway accepts
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a message in the chat
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolDefinition describes a function the model may ask the caller to run
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is the function part of a tool definition. Parameters is
// a JSON-schema-like object and is never inspected.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a model-initiated request to run one of the offered tools
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"`
	Function ToolFunctionCall `json:"function"`
}

// ToolFunctionCall carries the function name and its JSON-encoded arguments
type ToolFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatCompletionRequest is the payload sent to the gateway
type ChatCompletionRequest struct {
	Model             string           `json:"model"`
	Messages          []Message        `json:"messages"`
	Tools             []ToolDefinition `json:"tools,omitempty"`
	ToolChoice        string           `json:"tool_choice,omitempty"`
	EnableCompression bool             `json:"enable_compression,omitempty"`
	CompressionRate   *float64         `json:"compression_rate,omitempty"`
}

// Clone returns a deep enough copy that the clone's slices can be modified
// without touching r
func (r *ChatCompletionRequest) Clone() *ChatCompletionRequest {
	out := *r
	out.Messages = append([]Message(nil), r.Messages...)
	out.Tools = append([]ToolDefinition(nil), r.Tools...)
	if r.CompressionRate != nil {
		rate := *r.CompressionRate
		out.CompressionRate = &rate
	}
	return &out
}

// Usage reports the tokens processed for a request
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Consistent reports whether TotalTokens equals prompt plus completion tokens
func (u Usage) Consistent() bool {
	return u.TotalTokens == u.PromptTokens+u.CompletionTokens
}

// Compression reports the savings of token compression on a request.
// Rate is the requested ratio, not necessarily the achieved one.
type Compression struct {
	InputTokens int     `json:"input_tokens"`
	SavedTokens int     `json:"saved_tokens"`
	Rate        float64 `json:"rate"`
}

// Valid reports whether 0 <= SavedTokens <= InputTokens
func (c Compression) Valid() bool {
	return c.SavedTokens >= 0 && c.SavedTokens <= c.InputTokens
}

// ChatCompletionChoice represents a completion choice
type ChatCompletionChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatCompletionResponse represents the response from the gateway
type ChatCompletionResponse struct {
	ID          string                 `json:"id"`
	Object      string                 `json:"object"`
	Created     int64                  `json:"created"`
	Model       string                 `json:"model"`
	Choices     []ChatCompletionChoice `json:"choices"`
	Usage       *Usage                 `json:"usage,omitempty"`
	Compression *Compression           `json:"compression,omitempty"`
}

// Response is what Send returns to callers. Usage and Compression are nil
// when the gateway did not report them.
type Response struct {
	ID          string                 `json:"id"`
	Model       string                 `json:"model"`
	Text        string                 `json:"text"`
	Choices     []ChatCompletionChoice `json:"choices"`
	Usage       *Usage                 `json:"usage,omitempty"`
	Compression *Compression           `json:"compression,omitempty"`
}

// ErrorBody is the OpenAI-style error envelope used by the gateway
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the inner part of ErrorBody
type ErrorDetail struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code,omitempty"`
}
