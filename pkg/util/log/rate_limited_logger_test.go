package log

import (
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitedLogger(t *testing.T) {
	logger := NewRateLimitedLogger(10, level.Error(Logger))
	assert.NotNil(t, logger)

	assert.NoError(t, logger.Log("test"))
}

func TestRateLimitedLogger_DropsExcess(t *testing.T) {
	var calls int
	counting := logFunc(func(keyvals ...interface{}) error {
		calls++
		return nil
	})

	logger := NewRateLimitedLogger(1, counting)
	for i := 0; i < 10; i++ {
		_ = logger.Log("msg", "spam")
	}

	assert.Less(t, calls, 10)
}

type logFunc func(keyvals ...interface{}) error

func (f logFunc) Log(keyvals ...interface{}) error { return f(keyvals...) }
