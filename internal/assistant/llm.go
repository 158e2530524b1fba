package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-deepseek/deepseek/request"

	"github.com/notexe/med-reminder/internal/api"
	"github.com/notexe/med-reminder/internal/config"
)

// LLMResponder answers with a chat-completion provider. Reminder requests
// arrive as add_reminder tool calls. Provider failures fall back to the
// keyword responder.
type LLMResponder struct {
	provider api.Provider
	model    config.ModelSettings
	tools    []request.Tool
	fallback Responder

	mu      sync.Mutex
	history *History
}

// NewLLMResponder creates a responder backed by provider.
func NewLLMResponder(provider api.Provider, model config.ModelSettings, maxHistory int, fallback Responder) *LLMResponder {
	return &LLMResponder{
		provider: provider,
		model:    model,
		tools:    api.ReminderTools(),
		fallback: fallback,
		history:  NewHistory(maxHistory),
	}
}

// Ask implements Responder.
func (l *LLMResponder) Ask(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if target := DetectNavigation(text); target != "" {
		return navigationReply(target), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	messages := append(l.history.GetAll(), api.Message{Role: api.RoleUser, Content: text})
	resp, err := l.provider.Complete(ctx, api.Exchange{
		Messages: messages,
		System:   api.SystemPrompt(),
		Model:    l.model,
		Tools:    l.tools,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[assistant] %s failed, using offline answers: %v", l.provider.Name(), err)
		if l.fallback == nil {
			return nil, err
		}
		return l.fallback.Ask(ctx, text)
	}

	reply := &Reply{Text: strings.TrimSpace(resp.Content)}
	if call := resp.ReminderCall(); call != nil {
		req := requestFromCall(call)
		reply.Request = &req
		if reply.Text == "" {
			reply.Text = fmt.Sprintf("I've created a reminder for you to take %s.", req.describe())
		}
	}
	if reply.Text == "" {
		reply.Text = "Sorry, I don't have an answer for that."
	}

	l.history.Add(api.Message{Role: api.RoleUser, Content: text})
	l.history.Add(api.Message{Role: api.RoleAssistant, Content: reply.Text})
	return reply, nil
}

// Reset clears the conversation history.
func (l *LLMResponder) Reset() {
	l.mu.Lock()
	l.history.Clear()
	l.mu.Unlock()
}

func requestFromCall(call *api.ReminderCall) ReminderRequest {
	return ReminderRequest{
		Medication: call.MedicationName,
		Dosage:     call.Dosage,
		Frequency:  call.Frequency,
		Duration:   call.Duration,
		Notes:      call.Notes,
	}
}
