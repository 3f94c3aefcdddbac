package models

// Input is the second argument to Send. It is either a StringPrompt or a
// StructuredInput; the unexported method keeps the set closed.
type Input interface {
	isInput()
}

// StringPrompt is a bare prompt, sent as a single user message
type StringPrompt string

func (StringPrompt) isInput() {}

// StructuredInput carries a full conversation plus optional tools and
// compression directives
type StructuredInput struct {
	Messages          []Message        `json:"messages"`
	Tools             []ToolDefinition `json:"tools,omitempty"`
	ToolChoice        string           `json:"tool_choice,omitempty"`
	EnableCompression bool             `json:"enable_compression,omitempty"`
	CompressionRate   *float64         `json:"compression_rate,omitempty"`
}

func (StructuredInput) isInput() {}

// Rate returns a pointer to r, for filling CompressionRate
func Rate(r float64) *float64 {
	return &r
}

// UserMessage builds a user-role message
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage builds a system-role message
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AssistantMessage builds an assistant-role message
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FunctionTool builds a function tool definition
func FunctionTool(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
