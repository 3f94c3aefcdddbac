package mockgateway

import (
	"strings"

	"github.com/sleepstars/edgee-go/internal/models"
)

// defaultRate is used when a request enables compression without a rate
const defaultRate = 0.5

// CountTokens approximates tokens as whitespace-separated words
func CountTokens(s string) int {
	return len(strings.Fields(s))
}

func rateOrDefault(rate *float64) float64 {
	if rate == nil {
		return defaultRate
	}
	return *rate
}

// Compress drops the trailing rate share of words from each user message
// holding at least minTokens words. System and assistant messages pass
// through untouched. It returns nil metrics when nothing was long enough to
// compress. The reported rate is the requested one.
func Compress(messages []models.Message, rate float64, minTokens int) ([]models.Message, *models.Compression) {
	out := make([]models.Message, len(messages))
	copy(out, messages)

	input, saved, compressed := 0, 0, false
	for i, msg := range out {
		if msg.Role != models.RoleUser {
			continue
		}
		words := strings.Fields(msg.Content)
		input += len(words)
		if len(words) == 0 || len(words) < minTokens {
			continue
		}

		drop := int(float64(len(words)) * rate)
		out[i].Content = strings.Join(words[:len(words)-drop], " ")
		saved += drop
		compressed = true
	}

	if !compressed {
		return out, nil
	}
	return out, &models.Compression{
		InputTokens: input,
		SavedTokens: saved,
		Rate:        rate,
	}
}
