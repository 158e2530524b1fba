package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notexe/med-reminder/internal/config"
	"github.com/notexe/med-reminder/internal/reminder"
)

var testModel = config.ModelSettings{Name: "llama3.1", MaxTokens: 256, Temperature: 0.3}

func testExchange() Exchange {
	return Exchange{
		Messages: []Message{{Role: RoleUser, Content: "remind me to take amoxicillin"}},
		System:   SystemPrompt(),
		Model:    testModel,
		Tools:    ReminderTools(),
	}
}

// ollamaServer serves /api/chat with the given handlers in order and
// records the decoded request bodies.
func ollamaServer(t *testing.T, handlers ...func(w http.ResponseWriter)) (*OllamaProvider, *[]map[string]any) {
	t.Helper()
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(data, &body))
		bodies = append(bodies, body)

		i := len(bodies) - 1
		if i >= len(handlers) {
			t.Errorf("unexpected request #%d", i+1)
			w.WriteHeader(http.StatusTeapot)
			return
		}
		handlers[i](w)
	}))
	t.Cleanup(srv.Close)

	p, err := NewOllamaProvider(config.OllamaConfig{BaseURL: srv.URL + "/", Timeout: 5})
	require.NoError(t, err)
	return p, &bodies
}

func reply(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestOllamaSendsConversation(t *testing.T) {
	p, bodies := ollamaServer(t, reply(http.StatusOK, `{
		"model": "llama3.1",
		"message": {"role": "assistant", "content": "How often do you take it?"},
		"done": true,
		"done_reason": "stop",
		"prompt_eval_count": 42,
		"eval_count": 7
	}`))

	answer, err := p.Complete(context.Background(), testExchange())
	require.NoError(t, err)
	assert.Equal(t, "How often do you take it?", answer.Content)
	assert.Equal(t, "stop", answer.FinishReason)
	assert.Equal(t, Usage{InputTokens: 42, OutputTokens: 7}, answer.Usage)
	assert.Empty(t, answer.ToolCalls)
	assert.Nil(t, answer.ReminderCall())

	require.Len(t, *bodies, 1)
	body := (*bodies)[0]
	assert.Equal(t, "llama3.1", body["model"])
	assert.Equal(t, false, body["stream"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, RoleSystem, messages[0].(map[string]any)["role"])
	assert.Equal(t, "remind me to take amoxicillin", messages[1].(map[string]any)["content"])

	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, ToolAddReminder, fn["name"])

	options := body["options"].(map[string]any)
	assert.Equal(t, float64(256), options["num_predict"])
	assert.Equal(t, 0.3, options["temperature"])
}

func TestOllamaToolCallBecomesReminderCall(t *testing.T) {
	p, _ := ollamaServer(t, reply(http.StatusOK, `{
		"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{
				"function": {
					"name": "add_reminder",
					"arguments": {"medication_name": "Amoxicillin", "dosage": "500mg", "frequency": "twice a day", "duration": 7}
				}
			}]
		},
		"done": true
	}`))

	answer, err := p.Complete(context.Background(), testExchange())
	require.NoError(t, err)
	require.Len(t, answer.ToolCalls, 1)

	tc := answer.ToolCalls[0]
	assert.Equal(t, "ollama-0", tc.ID)
	assert.Equal(t, ToolAddReminder, tc.Name)
	assert.JSONEq(t, `{"medication_name": "Amoxicillin", "dosage": "500mg", "frequency": "twice a day", "duration": 7}`, tc.Arguments)

	call := answer.ReminderCall()
	require.NotNil(t, call)
	assert.Equal(t, ReminderCall{
		MedicationName: "Amoxicillin",
		Dosage:         "500mg",
		Frequency:      reminder.FrequencyTwiceDaily,
		Duration:       7,
	}, *call)
}

func TestOllamaEncodedStringArguments(t *testing.T) {
	p, _ := ollamaServer(t, reply(http.StatusOK, `{
		"message": {
			"role": "assistant",
			"tool_calls": [{"function": {"name": "add_reminder", "arguments": "{\"medication_name\":\"Ibuprofen\",\"dosage\":\"200mg\",\"frequency\":\"Every 8 hours\"}"}}]
		},
		"done": true
	}`))

	answer, err := p.Complete(context.Background(), testExchange())
	require.NoError(t, err)
	call := answer.ReminderCall()
	require.NotNil(t, call)
	assert.Equal(t, "Ibuprofen", call.MedicationName)
	assert.Equal(t, reminder.FrequencyEvery8Hours, call.Frequency)
}

func TestOllamaRetriesWithoutTools(t *testing.T) {
	p, bodies := ollamaServer(t,
		reply(http.StatusBadRequest, `{"error":"registry.ollama.ai/library/gemma:2b does not support tools"}`),
		reply(http.StatusOK, `{"message": {"role": "assistant", "content": "Stay hydrated."}, "done": true}`),
	)

	answer, err := p.Complete(context.Background(), testExchange())
	require.NoError(t, err)
	assert.Equal(t, "Stay hydrated.", answer.Content)

	require.Len(t, *bodies, 2)
	assert.Contains(t, (*bodies)[0], "tools")
	assert.NotContains(t, (*bodies)[1], "tools")
}

func TestOllamaErrorStatus(t *testing.T) {
	p, bodies := ollamaServer(t, reply(http.StatusInternalServerError, `{"error":"model not found"}`))

	_, err := p.Complete(context.Background(), testExchange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model not found")
	assert.Len(t, *bodies, 1)
}

func TestOllamaBadBody(t *testing.T) {
	p, _ := ollamaServer(t, reply(http.StatusOK, `not json`))

	_, err := p.Complete(context.Background(), testExchange())
	assert.ErrorContains(t, err, "decode")
}

func TestNewOllamaProviderDefaults(t *testing.T) {
	p, err := NewOllamaProvider(config.OllamaConfig{})
	require.NoError(t, err)
	assert.Equal(t, defaultOllamaURL, p.baseURL)
	assert.Equal(t, "ollama", p.Name())
	assert.NoError(t, p.Close())
}
