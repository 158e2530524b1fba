package api

import (
	"github.com/go-deepseek/deepseek/request"

	"github.com/notexe/med-reminder/internal/config"
)

// Conversation roles.
const (
	RoleSystem    = request.RoleSystem
	RoleUser      = request.RoleUser
	RoleAssistant = request.RoleAssistant
)

// Message is one turn of the conversation with the assistant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is a function call requested by the model. Arguments is a JSON
// object encoded as a string.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Exchange is a single completion request: the conversation so far, the
// instructions and the tools the model may call.
type Exchange struct {
	Messages []Message
	System   string
	Model    config.ModelSettings
	Tools    []request.Tool
}

// Answer is what the model replied.
type Answer struct {
	Content      string
	FinishReason string
	Usage        Usage
	ToolCalls    []ToolCall
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}
