package assistant

import (
	"github.com/notexe/med-reminder/internal/api"
)

// History is a bounded conversation log; the oldest messages are dropped
// first.
type History struct {
	messages []api.Message
	maxSize  int
}

func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &History{
		messages: make([]api.Message, 0),
		maxSize:  maxSize,
	}
}

func (h *History) Add(msg api.Message) {
	h.messages = append(h.messages, msg)

	for len(h.messages) > h.maxSize {
		h.messages = h.messages[1:]
	}

	// Never open with an assistant turn whose question was trimmed away.
	for len(h.messages) > 0 && h.messages[0].Role == "assistant" {
		h.messages = h.messages[1:]
	}
}

func (h *History) GetAll() []api.Message {
	out := make([]api.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Clear() {
	h.messages = make([]api.Message, 0)
}

func (h *History) Size() int {
	return len(h.messages)
}
