package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sleepstars/edgee-go/internal/models"
)

// statusError maps an HTTP status and the gateway's error body to an APIError
func statusError(status int, header http.Header, body []byte) *models.APIError {
	message := strings.TrimSpace(string(body))
	var envelope models.ErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	apiErr := &models.APIError{
		Code:       codeForStatus(status),
		Message:    fmt.Sprintf("gateway returned %d: %s", status, message),
		StatusCode: status,
	}
	if status == http.StatusTooManyRequests && header != nil {
		apiErr.RetryAfter = parseRetryAfter(header.Get("Retry-After"))
	}
	return apiErr
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.ErrCodeAuthentication
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		return models.ErrCodeInvalidRequest
	case status == http.StatusTooManyRequests:
		return models.ErrCodeRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return models.ErrCodeTimeout
	case status >= 500:
		return models.ErrCodeServerError
	default:
		return models.ErrCodeProvider
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// transportError classifies a failure that happened before a response arrived
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return models.NewProviderError(models.ErrCodeProvider, "request aborted", ctx.Err())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.NewProviderError(models.ErrCodeTimeout, "request timed out", err)
	}
	return models.NewProviderError(models.ErrCodeConnection, "send request", err)
}
