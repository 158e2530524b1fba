package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-deepseek/deepseek/request"

	"github.com/notexe/med-reminder/internal/config"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements Provider for local Ollama models.
type OllamaProvider struct {
	client  *http.Client
	baseURL string
}

// NewOllamaProvider creates an Ollama provider.
func NewOllamaProvider(cfg config.OllamaConfig) (*OllamaProvider, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	return &OllamaProvider{
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
		baseURL: baseURL,
	}, nil
}

// ollamaChatRequest is the /api/chat body. Ollama accepts the same
// function-tool schema as DeepSeek.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Tools    []request.Tool  `json:"tools,omitempty"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// errToolsUnsupported is returned by Ollama for models without tool support.
var errToolsUnsupported = errors.New("model does not support tools")

// Complete implements Provider. Models that cannot call tools are asked
// again without them, so they still answer health questions.
func (p *OllamaProvider) Complete(ctx context.Context, ex Exchange) (*Answer, error) {
	resp, err := p.chat(ctx, ollamaRequest(ex))
	if errors.Is(err, errToolsUnsupported) && len(ex.Tools) > 0 {
		log.Printf("[api] %s cannot call tools, retrying without them", ex.Model.Name)
		ex.Tools = nil
		resp, err = p.chat(ctx, ollamaRequest(ex))
	}
	if err != nil {
		return nil, err
	}
	return resp.answer(), nil
}

func ollamaRequest(ex Exchange) ollamaChatRequest {
	messages := make([]ollamaMessage, 0, len(ex.Messages)+1)
	if ex.System != "" {
		messages = append(messages, ollamaMessage{Role: RoleSystem, Content: ex.System})
	}
	for _, m := range ex.Messages {
		messages = append(messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	return ollamaChatRequest{
		Model:    ex.Model.Name,
		Messages: messages,
		Tools:    ex.Tools,
		Options: ollamaOptions{
			Temperature: ex.Model.Temperature,
			NumPredict:  ex.Model.MaxTokens,
		},
	}
}

func (p *OllamaProvider) chat(ctx context.Context, body ollamaChatRequest) (*ollamaChatResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Ollama API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(msg), "does not support tools") {
			return nil, errToolsUnsupported
		}
		return nil, fmt.Errorf("Ollama API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode Ollama response: %w", err)
	}
	return &out, nil
}

func (r *ollamaChatResponse) answer() *Answer {
	answer := &Answer{
		Content:      r.Message.Content,
		FinishReason: r.DoneReason,
		Usage: Usage{
			InputTokens:  r.PromptEvalCount,
			OutputTokens: r.EvalCount,
		},
	}
	for i, tc := range r.Message.ToolCalls {
		answer.ToolCalls = append(answer.ToolCalls, ToolCall{
			ID:        fmt.Sprintf("ollama-%d", i),
			Name:      tc.Function.Name,
			Arguments: toolArguments(tc.Function.Arguments),
		})
	}
	return answer
}

// toolArguments returns the arguments as a JSON object string. Ollama sends
// an object; some models put an already encoded string there instead.
func toolArguments(raw json.RawMessage) string {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return encoded
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "{}"
	}
	return string(raw)
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) Close() error {
	return nil
}
