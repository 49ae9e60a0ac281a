package retry

import (
	"math"
	"time"
)

// Backoff holds exponential backoff configuration
type Backoff struct {
	InitialDelay time.Duration // Delay for retry count 0
	MaxDelay     time.Duration // Upper bound for any delay
	Multiplier   float64       // Exponential backoff multiplier (typically 2.0)
}

// ReconnectBackoff returns the backoff used by both reconnection tracks:
// 2s, 4s, 8s, 16s, then 32s for every further attempt.
func ReconnectBackoff() Backoff {
	return Backoff{
		InitialDelay: 2 * time.Second,
		MaxDelay:     32 * time.Second,
		Multiplier:   2.0,
	}
}

// Delay maps a retry count to a wait duration: initialDelay * (multiplier ^ retryCount), capped at maxDelay.
func (b Backoff) Delay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}

	delay := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(retryCount))
	if delay > float64(b.MaxDelay) || math.IsInf(delay, 0) {
		return b.MaxDelay
	}
	return time.Duration(delay)
}
