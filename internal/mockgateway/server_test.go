package mockgateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger(logger.INFO, "test")
}

const tenWords = "one two three four five six seven eight nine ten"

func newTestServer() *Server {
	cfg := config.DefaultMockGatewayConfig()
	cfg.APIKeys = append(cfg.APIKeys, config.APIKeyConfig{Key: "plain-key"})
	cfg.Reply = "pong"
	return New(cfg)
}

func post(t *testing.T, s *Server, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) *models.ChatCompletionResponse {
	t.Helper()
	var resp models.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func TestServer_Authentication(t *testing.T) {
	s := newTestServer()
	body := models.ChatCompletionRequest{Model: "gpt-4o", Messages: []models.Message{models.UserMessage("hi")}}

	for _, key := range []string{"", "unknown"} {
		w := post(t, s, key, body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var errBody models.ErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
		assert.Equal(t, models.ErrCodeAuthentication, errBody.Error.Type)
	}
}

func TestServer_Validation(t *testing.T) {
	s := newTestServer()

	testCases := []struct {
		name string
		body any
	}{
		{name: "missing model", body: models.ChatCompletionRequest{Messages: []models.Message{models.UserMessage("hi")}}},
		{name: "no messages", body: models.ChatCompletionRequest{Model: "gpt-4o"}},
		{name: "bad rate", body: models.ChatCompletionRequest{
			Model:           "gpt-4o",
			Messages:        []models.Message{models.UserMessage("hi")},
			CompressionRate: models.Rate(2),
		}},
		{name: "bad role", body: models.ChatCompletionRequest{
			Model:    "gpt-4o",
			Messages: []models.Message{{Role: "robot", Content: "hi"}},
		}},
		{name: "not json", body: "just a string"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, s, "test-key", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var errBody models.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
			assert.Equal(t, models.ErrCodeInvalidRequest, errBody.Error.Type)
			assert.NotEmpty(t, errBody.Error.Message)
		})
	}
}

func TestServer_ChatCompletions(t *testing.T) {
	s := newTestServer()

	w := post(t, s, "test-key", models.ChatCompletionRequest{
		Model: "gpt-4o",
		Messages: []models.Message{
			models.SystemMessage("be brief"),
			models.UserMessage("Say hello!"),
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Equal(t, "chat.completion", resp.Object)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "pong", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)

	require.NotNil(t, resp.Usage)
	assert.Equal(t, 4, resp.Usage.PromptTokens)
	assert.Equal(t, 1, resp.Usage.CompletionTokens)
	assert.True(t, resp.Usage.Consistent())
	assert.Nil(t, resp.Compression)
}

func TestServer_Compression(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		req      models.ChatCompletionRequest
		want     *models.Compression
		wantUsed int
	}{
		{
			name: "enabled with rate",
			key:  "test-key",
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.UserMessage(tenWords)},
				EnableCompression: true,
				CompressionRate:   models.Rate(0.3),
			},
			want:     &models.Compression{InputTokens: 10, SavedTokens: 3, Rate: 0.3},
			wantUsed: 7,
		},
		{
			name: "default rate",
			key:  "test-key",
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.UserMessage(tenWords)},
				EnableCompression: true,
			},
			want:     &models.Compression{InputTokens: 10, SavedTokens: 5, Rate: 0.5},
			wantUsed: 5,
		},
		{
			name: "not requested",
			key:  "test-key",
			req: models.ChatCompletionRequest{
				Messages: []models.Message{models.UserMessage(tenWords)},
			},
			wantUsed: 10,
		},
		{
			name: "account without compression",
			key:  "plain-key",
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.UserMessage(tenWords)},
				EnableCompression: true,
			},
			wantUsed: 10,
		},
		{
			name: "short input",
			key:  "test-key",
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.UserMessage("too short")},
				EnableCompression: true,
			},
			wantUsed: 2,
		},
		{
			name: "system messages untouched",
			key:  "test-key",
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.SystemMessage(tenWords)},
				EnableCompression: true,
			},
			wantUsed: 10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer()
			tc.req.Model = "gpt-4o"

			w := post(t, s, tc.key, tc.req)
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode(t, w)
			assert.Equal(t, tc.want, resp.Compression)
			require.NotNil(t, resp.Usage)
			assert.Equal(t, tc.wantUsed, resp.Usage.PromptTokens)
		})
	}
}

func TestServer_ToolCalls(t *testing.T) {
	s := newTestServer()
	tools := []models.ToolDefinition{models.FunctionTool("get_weather", "Get the weather", nil)}

	w := post(t, s, "test-key", models.ChatCompletionRequest{
		Model:      "gpt-4o",
		Messages:   []models.Message{models.UserMessage("What is the weather in Paris?")},
		Tools:      tools,
		ToolChoice: "auto",
	})
	require.Equal(t, http.StatusOK, w.Code)

	choice := decode(t, w).Choices[0]
	assert.Equal(t, "tool_calls", choice.FinishReason)
	require.Len(t, choice.Message.ToolCalls, 1)
	call := choice.Message.ToolCalls[0]
	assert.True(t, strings.HasPrefix(call.ID, "call_"))
	assert.Equal(t, "function", call.Type)
	assert.Equal(t, "get_weather", call.Function.Name)
	assert.Equal(t, "{}", call.Function.Arguments)

	w = post(t, s, "test-key", models.ChatCompletionRequest{
		Model:      "gpt-4o",
		Messages:   []models.Message{models.UserMessage("What is the weather in Paris?")},
		Tools:      tools,
		ToolChoice: "none",
	})
	require.Equal(t, http.StatusOK, w.Code)
	choice = decode(t, w).Choices[0]
	assert.Empty(t, choice.Message.ToolCalls)
	assert.Equal(t, "pong", choice.Message.Content)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer()
	post(t, s, "unknown", models.ChatCompletionRequest{})
	post(t, s, "test-key", models.ChatCompletionRequest{
		Model:             "gpt-4o",
		Messages:          []models.Message{models.UserMessage(tenWords)},
		EnableCompression: true,
	})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `edgee_mock_requests_total{status="200"} 1`)
	assert.Contains(t, body, `edgee_mock_requests_total{status="401"} 1`)
	assert.Contains(t, body, "edgee_mock_compression_input_tokens_total 10")
	assert.Contains(t, body, "edgee_mock_compression_saved_tokens_total 5")
}
