// Package mockgateway is a local stand-in for the Edgee gateway. It speaks the
// same wire format, checks bearer keys, and simulates token compression over
// user messages so the client can be exercised without the hosted service.
package mockgateway

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/models"
)

const defaultReply = "This is a response from the mock gateway."

// Server serves the mock gateway API
type Server struct {
	config  *config.MockGatewayConfig
	metrics *Metrics
	logger  *logger.Logger
	router  *gin.Engine
}

// New builds a server for cfg. A nil cfg uses config.DefaultMockGatewayConfig.
func New(cfg *config.MockGatewayConfig) *Server {
	if cfg == nil {
		cfg = config.DefaultMockGatewayConfig()
	}
	s := &Server{
		config:  cfg,
		metrics: NewMetrics(),
		logger:  logger.GetLogger().WithComponent("mock_gateway"),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := r.Group("/v1", s.authenticate)
	v1.POST("/chat/completions", s.chatCompletions)

	s.router = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run listens on addr until the listener fails
func (s *Server) Run(addr string) error {
	s.logger.Info("Mock gateway listening on %s", addr)
	return s.router.Run(addr)
}

const accountKey = "account"

// authenticate checks the bearer key against the configured accounts
func (s *Server) authenticate(c *gin.Context) {
	key := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	account, ok := s.config.Lookup(key)
	if key == "" || !ok {
		s.fail(c, http.StatusUnauthorized, models.ErrCodeAuthentication, "invalid api key")
		return
	}
	c.Set(accountKey, account)
	c.Next()
}

func (s *Server) chatCompletions(c *gin.Context) {
	var req models.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, err.Error())
		return
	}
	if msg := validate(&req); msg != "" {
		s.fail(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, msg)
		return
	}

	account := c.MustGet(accountKey).(config.APIKeyConfig)

	messages := req.Messages
	var compression *models.Compression
	if req.EnableCompression && account.Compression {
		messages, compression = Compress(req.Messages, rateOrDefault(req.CompressionRate), s.config.MinCompressibleTokens)
		if compression != nil {
			s.metrics.CompressionInput.Add(float64(compression.InputTokens))
			s.metrics.CompressionSaved.Add(float64(compression.SavedTokens))
		}
	}

	reply := s.config.Reply
	if reply == "" {
		reply = defaultReply
	}

	choice := models.ChatCompletionChoice{
		Message:      models.Message{Role: models.RoleAssistant, Content: reply},
		FinishReason: "stop",
	}
	if len(req.Tools) > 0 && req.ToolChoice != "none" {
		choice.Message.Content = ""
		choice.Message.ToolCalls = []models.ToolCall{{
			ID:   "call_" + uuid.NewString(),
			Type: "function",
			Function: models.ToolFunctionCall{
				Name:      req.Tools[0].Function.Name,
				Arguments: "{}",
			},
		}}
		choice.FinishReason = "tool_calls"
	}

	prompt := 0
	for _, m := range messages {
		prompt += CountTokens(m.Content)
	}
	completion := CountTokens(choice.Message.Content)

	resp := &models.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []models.ChatCompletionChoice{choice},
		Usage: &models.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
		Compression: compression,
	}

	s.metrics.Requests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	s.logger.Debug("Served model=%s messages=%d compression=%v", req.Model, len(req.Messages), compression != nil)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) fail(c *gin.Context, status int, code, message string) {
	s.metrics.Requests.WithLabelValues(strconv.Itoa(status)).Inc()
	c.AbortWithStatusJSON(status, models.ErrorBody{
		Error: models.ErrorDetail{Message: message, Type: code},
	})
}

func validate(req *models.ChatCompletionRequest) string {
	switch {
	case strings.TrimSpace(req.Model) == "":
		return "model is required"
	case len(req.Messages) == 0:
		return "messages must not be empty"
	case req.CompressionRate != nil && (*req.CompressionRate < 0 || *req.CompressionRate > 1):
		return "compression_rate must be within [0,1]"
	}
	for _, m := range req.Messages {
		if !m.Role.Valid() {
			return "unsupported role " + string(m.Role)
		}
	}
	return ""
}
