package modelbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sleepstars/edgee-go/internal/clients"
	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/models"
	"golang.org/x/time/rate"
)

// ModelBridge wraps a transport with the retry policy and rate limiter
type ModelBridge struct {
	Client  clients.ModelClient
	Logger  *logger.Logger
	Retry   config.RetryConfig
	Limiter *rate.Limiter // nil means unlimited

	// sleep waits between attempts; tests replace it
	sleep func(ctx context.Context, d time.Duration) error
	mu    sync.RWMutex
}

// NewModelBridge creates a new model bridge instance
func NewModelBridge(client clients.ModelClient, retry config.RetryConfig, limit config.RateLimitConfig) *ModelBridge {
	log := logger.GetLogger().WithComponent("model_bridge")
	log.Debug("Creating new model bridge: max_retries=%d, rps=%v", retry.MaxRetries, limit.RequestsPerSecond)

	var limiter *rate.Limiter
	if limit.RequestsPerSecond > 0 {
		burst := limit.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(limit.RequestsPerSecond), burst)
	}

	return &ModelBridge{
		Client:  client,
		Logger:  log,
		Retry:   retry,
		Limiter: limiter,
	}
}

// SetClient swaps the transport
func (b *ModelBridge) SetClient(client clients.ModelClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Client = client
}

// Call sends req, retrying retryable failures. When retries are exhausted the
// last failure is wrapped in a terminal provider error.
func (b *ModelBridge) Call(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	b.mu.RLock()
	client := b.Client
	b.mu.RUnlock()

	attempts := b.Retry.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if b.Limiter != nil {
			if err := b.Limiter.Wait(ctx); err != nil {
				return nil, models.NewProviderError(models.ErrCodeProvider, "rate limiter", err)
			}
		}

		b.Logger.Debug("Calling gateway (attempt %d/%d) with %d messages", attempt, attempts, len(req.Messages))
		resp, err := client.Complete(ctx, req)
		if err == nil {
			b.Logger.Debug("Gateway call completed successfully")
			return resp, nil
		}
		lastErr = err

		if !models.IsRetryable(err) {
			b.Logger.WithError(err).Error("Gateway call failed")
			return nil, err
		}
		if attempt == attempts {
			break
		}

		wait := b.backoff(attempt, err)
		b.Logger.WithError(err).Warn("Gateway call failed, retrying in %s", wait)
		if err := b.wait(ctx, wait); err != nil {
			return nil, models.NewProviderError(models.ErrCodeProvider, "retry aborted", err)
		}
	}

	b.Logger.WithError(lastErr).Error("Gateway call failed after %d attempts", attempts)
	return nil, models.NewProviderError(models.ErrCodeProvider, fmt.Sprintf("gave up after %d attempts", attempts), lastErr)
}

// backoff doubles the initial delay per attempt, capped at MaxBackoff. A
// Retry-After hint from the gateway takes precedence when it is longer.
func (b *ModelBridge) backoff(attempt int, err error) time.Duration {
	d := b.Retry.InitialBackoff
	for i := 1; i < attempt && (b.Retry.MaxBackoff <= 0 || d < b.Retry.MaxBackoff); i++ {
		d *= 2
	}
	if b.Retry.MaxBackoff > 0 && d > b.Retry.MaxBackoff {
		d = b.Retry.MaxBackoff
	}
	var apiErr *models.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > d {
		d = apiErr.RetryAfter
	}
	return d
}

func (b *ModelBridge) wait(ctx context.Context, d time.Duration) error {
	if b.sleep != nil {
		return b.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
