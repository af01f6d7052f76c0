package log

import (
	"github.com/go-kit/log"
	"golang.org/x/time/rate"
)

// RateLimitedLogger drops log lines beyond a token-bucket budget of
// maxLinesPerSecond, so a broker stuck in a fast connect/fail loop cannot
// flood the log.
type RateLimitedLogger struct {
	next    log.Logger
	limiter *rate.Limiter
}

// NewRateLimitedLogger wraps next so that calls to Log pass through at a
// sustained rate of maxLinesPerSecond, with bursts of up to
// int(maxLinesPerSecond)+1; the rest are silently dropped.
func NewRateLimitedLogger(maxLinesPerSecond float64, next log.Logger) *RateLimitedLogger {
	return &RateLimitedLogger{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(maxLinesPerSecond), int(maxLinesPerSecond)+1),
	}
}

// Log implements go-kit/log.Logger.
func (l *RateLimitedLogger) Log(keyvals ...interface{}) error {
	if !l.limiter.Allow() {
		return nil
	}
	return l.next.Log(keyvals...)
}
