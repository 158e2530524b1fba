package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-deepseek/deepseek"
	"github.com/go-deepseek/deepseek/request"
	"github.com/go-deepseek/deepseek/response"

	"github.com/notexe/med-reminder/internal/config"
)

// deepSeekReasoner is served by a separate endpoint and takes no tools.
const deepSeekReasoner = "deepseek-reasoner"

// chatClient is the part of deepseek.Client the provider uses.
type chatClient interface {
	CallChatCompletionsChat(ctx context.Context, req *request.ChatCompletionsRequest) (*response.ChatCompletionsResponse, error)
	CallChatCompletionsReasoner(ctx context.Context, req *request.ChatCompletionsRequest) (*response.ChatCompletionsResponse, error)
}

// DeepSeekProvider implements Provider for the DeepSeek API.
type DeepSeekProvider struct {
	client chatClient
}

// NewDeepSeekProvider creates a DeepSeek provider.
func NewDeepSeekProvider(cfg config.DeepSeekConfig) (*DeepSeekProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("DeepSeek API key is required")
	}

	clientCfg := deepseek.NewConfigWithDefaults()
	clientCfg.ApiKey = cfg.APIKey
	if cfg.Timeout > 0 {
		clientCfg.TimeoutSeconds = cfg.Timeout
	}

	client, err := deepseek.NewClientWithConfig(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create DeepSeek client: %w", err)
	}
	return &DeepSeekProvider{client: client}, nil
}

// Complete implements Provider.
func (p *DeepSeekProvider) Complete(ctx context.Context, ex Exchange) (*Answer, error) {
	req := deepSeekRequest(ex)

	call := p.client.CallChatCompletionsChat
	if ex.Model.Name == deepSeekReasoner {
		call = p.client.CallChatCompletionsReasoner
		req.Tools = nil
	}

	resp, err := call(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("DeepSeek API request failed: %w", err)
	}
	return deepSeekAnswer(resp)
}

func deepSeekRequest(ex Exchange) *request.ChatCompletionsRequest {
	messages := make([]*request.Message, 0, len(ex.Messages)+1)
	if ex.System != "" {
		messages = append(messages, &request.Message{Role: RoleSystem, Content: ex.System})
	}
	for _, m := range ex.Messages {
		messages = append(messages, &request.Message{Role: m.Role, Content: m.Content})
	}

	req := &request.ChatCompletionsRequest{
		Model:     ex.Model.Name,
		Messages:  messages,
		MaxTokens: ex.Model.MaxTokens,
	}
	if ex.Model.Temperature > 0 {
		req.Temperature = request.ToPtr(float32(ex.Model.Temperature))
	}
	if len(ex.Tools) > 0 {
		tools := ex.Tools
		req.Tools = &tools
	}
	return req
}

func deepSeekAnswer(resp *response.ChatCompletionsResponse) (*Answer, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil || resp.Choices[0].Message == nil {
		return nil, ErrNoAnswer
	}

	choice := resp.Choices[0]
	answer := &Answer{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}
	if resp.Usage != nil {
		answer.Usage = Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc == nil {
			continue
		}
		answer.ToolCalls = append(answer.ToolCalls, ToolCall{
			ID:        tc.Id,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return answer, nil
}

func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

func (p *DeepSeekProvider) Close() error {
	return nil
}
