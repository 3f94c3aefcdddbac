package gateway

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/mocks"
	"github.com/sleepstars/edgee-go/internal/modelbridge"
	"github.com/sleepstars/edgee-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputNormalizer_Execute(t *testing.T) {
	t.Run("string prompt", func(t *testing.T) {
		payload := &Payload{Model: "gpt-4o", Input: models.StringPrompt("hello")}
		require.NoError(t, InputNormalizer{}.Execute(context.Background(), payload))

		assert.Equal(t, "gpt-4o", payload.Request.Model)
		assert.Equal(t, []models.Message{{Role: models.RoleUser, Content: "hello"}}, payload.Request.Messages)
		assert.Empty(t, payload.Request.Tools)
	})

	t.Run("structured input by pointer", func(t *testing.T) {
		in := &models.StructuredInput{
			Messages:          []models.Message{models.SystemMessage("sys"), models.UserMessage("hi")},
			Tools:             []models.ToolDefinition{models.FunctionTool("get_weather", "", nil)},
			ToolChoice:        "auto",
			EnableCompression: true,
			CompressionRate:   models.Rate(0.4),
		}
		payload := &Payload{Model: "gpt-4o", Input: in}
		require.NoError(t, InputNormalizer{}.Execute(context.Background(), payload))

		req := payload.Request
		assert.Equal(t, in.Messages, req.Messages)
		assert.Equal(t, in.Tools, req.Tools)
		assert.Equal(t, "auto", req.ToolChoice)
		assert.True(t, req.EnableCompression)
		assert.Equal(t, 0.4, *req.CompressionRate)
		assert.NotSame(t, in.CompressionRate, req.CompressionRate)

		req.Messages[0].Content = "changed"
		assert.Equal(t, "sys", in.Messages[0].Content)
	})

	t.Run("nil input", func(t *testing.T) {
		err := InputNormalizer{}.Execute(context.Background(), &Payload{Model: "gpt-4o"})
		assert.True(t, models.IsInvalidRequestError(err))
	})
}

func TestRequestValidator_Execute(t *testing.T) {
	valid := func() *models.ChatCompletionRequest {
		return &models.ChatCompletionRequest{
			Model:    "gpt-4o",
			Messages: []models.Message{models.UserMessage("hi")},
		}
	}

	testCases := []struct {
		name      string
		mutate    func(*models.ChatCompletionRequest)
		expectErr string
	}{
		{name: "valid", mutate: func(r *models.ChatCompletionRequest) {}},
		{name: "rate zero", mutate: func(r *models.ChatCompletionRequest) { r.CompressionRate = models.Rate(0) }},
		{name: "rate one", mutate: func(r *models.ChatCompletionRequest) { r.CompressionRate = models.Rate(1) }},
		{
			name:      "blank model",
			mutate:    func(r *models.ChatCompletionRequest) { r.Model = "" },
			expectErr: "invalid_request_error: model is required",
		},
		{
			name:      "no messages",
			mutate:    func(r *models.ChatCompletionRequest) { r.Messages = nil },
			expectErr: "invalid_request_error: messages must not be empty",
		},
		{
			name:      "bad role",
			mutate:    func(r *models.ChatCompletionRequest) { r.Messages[0].Role = "robot" },
			expectErr: `invalid_request_error: messages[0]: unsupported role "robot"`,
		},
		{
			name:      "rate out of range",
			mutate:    func(r *models.ChatCompletionRequest) { r.CompressionRate = models.Rate(1.5) },
			expectErr: "invalid_request_error: compression_rate 1.5 is outside [0,1]",
		},
		{
			name: "tool type",
			mutate: func(r *models.ChatCompletionRequest) {
				r.Tools = []models.ToolDefinition{{Type: "retrieval"}}
			},
			expectErr: `invalid_request_error: tools[0]: unsupported type "retrieval"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(req)

			err := RequestValidator{}.Execute(context.Background(), &Payload{Request: req})
			if tc.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.expectErr)
		})
	}
}

func TestCompressionPlanner_Execute(t *testing.T) {
	disabled := false

	testCases := []struct {
		name         string
		cfg          config.CompressionConfig
		req          models.ChatCompletionRequest
		wantEligible bool
		wantSent     bool
		wantRate     *float64
	}{
		{
			name: "not requested clears rate",
			req: models.ChatCompletionRequest{
				Messages:        []models.Message{models.UserMessage("hi")},
				CompressionRate: models.Rate(0.5),
			},
			wantEligible: true,
		},
		{
			name: "requested",
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.UserMessage("hi")},
				EnableCompression: true,
				CompressionRate:   models.Rate(0.5),
			},
			wantEligible: true,
			wantSent:     true,
			wantRate:     models.Rate(0.5),
		},
		{
			name: "explicit rate wins over default",
			cfg:  config.CompressionConfig{DefaultRate: models.Rate(0.2)},
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.UserMessage("hi")},
				EnableCompression: true,
				CompressionRate:   models.Rate(0.7),
			},
			wantEligible: true,
			wantSent:     true,
			wantRate:     models.Rate(0.7),
		},
		{
			name: "unsupported account",
			cfg:  config.CompressionConfig{Enabled: &disabled, DefaultRate: models.Rate(0.2)},
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.UserMessage("hi")},
				EnableCompression: true,
				CompressionRate:   models.Rate(0.7),
			},
			wantEligible: true,
		},
		{
			name: "blank user content is not eligible",
			req: models.ChatCompletionRequest{
				Messages:          []models.Message{models.SystemMessage("sys"), models.UserMessage("  ")},
				EnableCompression: true,
			},
			wantSent: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			payload := &Payload{Request: &req}

			require.NoError(t, newCompressionPlanner(tc.cfg).Execute(context.Background(), payload))
			assert.Equal(t, tc.wantEligible, payload.Eligible)
			assert.Equal(t, tc.wantSent, payload.CompressionSent)
			assert.Equal(t, tc.wantSent, req.EnableCompression)
			assert.Equal(t, tc.wantRate, req.CompressionRate)
		})
	}
}

func TestDispatcher_Execute(t *testing.T) {
	mock := &mocks.MockModelClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			assert.Equal(t, "gpt-4o", req.Model)
			return reply("dispatched"), nil
		},
	}
	d := &Dispatcher{bridge: &modelbridge.ModelBridge{
		Client: mock,
		Logger: logger.GetLogger().WithComponent("test_bridge"),
	}}

	payload := &Payload{Request: &models.ChatCompletionRequest{Model: "gpt-4o"}}
	require.NoError(t, d.Execute(context.Background(), payload))
	assert.Equal(t, "dispatched", payload.Completion.Choices[0].Message.Content)

	mock.CompleteFunc = func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
		return nil, errors.New("down")
	}
	assert.EqualError(t, d.Execute(context.Background(), payload), "model call: down")
}

func TestResponseBuilder_Execute(t *testing.T) {
	t.Run("tool calls and model fallback", func(t *testing.T) {
		completion := &models.ChatCompletionResponse{
			Choices: []models.ChatCompletionChoice{{
				Message: models.Message{
					Role: models.RoleAssistant,
					ToolCalls: []models.ToolCall{{
						ID:       "call_1",
						Type:     "function",
						Function: models.ToolFunctionCall{Name: "get_weather", Arguments: `{"location":"Paris"}`},
					}},
				},
				FinishReason: "tool_calls",
			}},
		}
		payload := &Payload{
			Request:    &models.ChatCompletionRequest{Model: "gpt-4o"},
			Completion: completion,
		}

		require.NoError(t, newResponseBuilder().Execute(context.Background(), payload))
		resp := payload.Response
		assert.Equal(t, "gpt-4o", resp.Model)
		assert.Empty(t, resp.Text)
		require.Len(t, resp.Choices, 1)
		assert.Equal(t, "get_weather", resp.Choices[0].Message.ToolCalls[0].Function.Name)
		assert.Nil(t, resp.Usage)
		assert.Nil(t, resp.Compression)
	})

	t.Run("reported rate is kept within bounds", func(t *testing.T) {
		for _, tc := range []struct {
			reported float64
			want     float64
		}{
			{reported: 0.4, want: 0.4},
			{reported: 1.7, want: 1},
			{reported: -0.2, want: 0},
			{reported: math.NaN(), want: 0},
		} {
			completion := reply("ok")
			completion.Compression = &models.Compression{InputTokens: 10, SavedTokens: 4, Rate: tc.reported}
			payload := &Payload{
				Request:         &models.ChatCompletionRequest{Model: "gpt-4o"},
				Completion:      completion,
				Eligible:        true,
				CompressionSent: true,
			}

			require.NoError(t, newResponseBuilder().Execute(context.Background(), payload))
			require.NotNil(t, payload.Response.Compression)
			assert.Equal(t, tc.want, payload.Response.Compression.Rate)
		}
	})

	t.Run("negative metrics are zeroed", func(t *testing.T) {
		completion := reply("ok")
		completion.Compression = &models.Compression{InputTokens: -3, SavedTokens: -1, Rate: 0.5}
		payload := &Payload{
			Request:         &models.ChatCompletionRequest{Model: "gpt-4o"},
			Completion:      completion,
			Eligible:        true,
			CompressionSent: true,
		}

		require.NoError(t, newResponseBuilder().Execute(context.Background(), payload))
		assert.Equal(t, &models.Compression{Rate: 0.5}, payload.Response.Compression)
		assert.Equal(t, -3, completion.Compression.InputTokens)
	})
}
