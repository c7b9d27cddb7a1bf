package intent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klokku/planner/internal/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeModel(t *testing.T, status int, content string) (*httptest.Server, *atomic.Int32) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-1",
			Object: "chat.completion",
			Model:  "test-model",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testIntentConfig(url string) config.Intent {
	return config.Intent{
		Enabled:           true,
		ApiKey:            "test",
		BaseUrl:           url + "/v1",
		Model:             "test-model",
		TimeoutSeconds:    5,
		RequestsPerSecond: 100,
	}
}

func TestLLMParser_Parse(t *testing.T) {
	now := referenceNow(t)

	t.Run("should use model reply", func(t *testing.T) {
		srv, _ := fakeModel(t, http.StatusOK, "```json\n"+`{"action":"create","title":"Design review",
			"start_time":"2025-03-13T10:00:00+01:00","end_time":"2025-03-13T11:30:00+01:00",
			"attendees":["ana@example.com"],"priority":"High","duration_minutes":90}`+"\n```")
		parser := NewLLMParser(testIntentConfig(srv.URL), NewRuleParser(60))

		in, err := parser.Parse(context.Background(), "design review tomorrow 10 to 11:30 with ana", now)

		require.NoError(t, err)
		assert.Equal(t, "Design review", in.Title)
		assert.Equal(t, "high", in.Priority)
		assert.Equal(t, []string{"ana@example.com"}, in.Attendees)
		require.NotNil(t, in.StartTime)
		assert.True(t, time.Date(2025, time.March, 13, 10, 0, 0, 0, now.Location()).Equal(*in.StartTime))
		assert.Equal(t, 90*time.Minute, in.Duration())
	})

	t.Run("should read timestamps without offset in reference location", func(t *testing.T) {
		srv, _ := fakeModel(t, http.StatusOK, `{"title":"Standup","start_time":"2025-03-13T09:15:00"}`)
		parser := NewLLMParser(testIntentConfig(srv.URL), NewRuleParser(60))

		in, err := parser.Parse(context.Background(), "standup tomorrow 9:15", now)

		require.NoError(t, err)
		assert.Equal(t, ActionCreate, in.Action)
		assert.Equal(t, DefaultPriority, in.Priority)
		assert.True(t, time.Date(2025, time.March, 13, 9, 15, 0, 0, now.Location()).Equal(*in.StartTime))
		assert.Equal(t, 60*time.Minute, in.EndTime.Sub(*in.StartTime))
	})

	t.Run("should fall back when model fails", func(t *testing.T) {
		srv, _ := fakeModel(t, http.StatusInternalServerError, "")
		parser := NewLLMParser(testIntentConfig(srv.URL), NewRuleParser(60))

		in, err := parser.Parse(context.Background(), "Lunch tomorrow at 1pm", now)

		require.NoError(t, err)
		assert.Equal(t, "Lunch", in.Title)
		assert.True(t, time.Date(2025, time.March, 13, 13, 0, 0, 0, now.Location()).Equal(*in.StartTime))
	})

	t.Run("should fall back on reply without title", func(t *testing.T) {
		srv, _ := fakeModel(t, http.StatusOK, `{"action":"create"}`)
		parser := NewLLMParser(testIntentConfig(srv.URL), NewRuleParser(60))

		in, err := parser.Parse(context.Background(), "Gym at 7am", now)

		require.NoError(t, err)
		assert.Equal(t, "Gym", in.Title)
	})

	t.Run("should fall back without calling model when rate limited", func(t *testing.T) {
		srv, calls := fakeModel(t, http.StatusOK, `{"title":"From model"}`)
		cfg := testIntentConfig(srv.URL)
		cfg.RequestsPerSecond = 0.001
		parser := NewLLMParser(cfg, NewRuleParser(60))

		first, err := parser.Parse(context.Background(), "From rules at 9am", now)
		require.NoError(t, err)
		second, err := parser.Parse(context.Background(), "From rules at 9am", now)
		require.NoError(t, err)

		assert.Equal(t, "From model", first.Title)
		assert.Equal(t, "From rules", second.Title)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestNewParser(t *testing.T) {
	cfg := config.Defaults()
	assert.IsType(t, &RuleParser{}, NewParser(cfg))

	cfg.Intent.Enabled = true
	assert.IsType(t, &LLMParser{}, NewParser(cfg))
}
