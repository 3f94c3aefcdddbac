package gateway

import (
	"context"
	"fmt"

	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/models"
)

// Payload represents the data passed between pipeline stages
type Payload struct {
	RequestID string
	Model     string
	Input     models.Input

	// Filled in by the stages, in order
	Request         *models.ChatCompletionRequest
	Eligible        bool // some user message has content to compress
	CompressionSent bool // compression directives went out with the request
	Completion      *models.ChatCompletionResponse
	Response        *models.Response
}

// PipelineStage defines the interface for a stage in the send pipeline
type PipelineStage interface {
	Execute(ctx context.Context, data *Payload) error
	Name() string
}

// Pipeline runs stages in sequence, stopping at the first failure
type Pipeline struct {
	stages []PipelineStage
	logger *logger.Logger
}

// NewPipeline creates a pipeline from stages
func NewPipeline(log *logger.Logger, stages ...PipelineStage) *Pipeline {
	return &Pipeline{stages: stages, logger: log}
}

// Execute runs the pipeline stages in sequence
func (p *Pipeline) Execute(ctx context.Context, payload *Payload) error {
	for _, stage := range p.stages {
		stageName := stage.Name()
		p.logger.Debug("Executing stage %s for request id: %s", stageName, payload.RequestID)

		select {
		case <-ctx.Done():
			p.logger.Warn("Send cancelled for request id: %s", payload.RequestID)
			return models.NewProviderError(models.ErrCodeProvider, "request aborted", ctx.Err())
		default:
			if err := stage.Execute(ctx, payload); err != nil {
				p.logger.WithError(err).Debug("Stage %s failed for request id: %s", stageName, payload.RequestID)
				return fmt.Errorf("stage %s failed: %w", stageName, err)
			}
		}
	}
	return nil
}
