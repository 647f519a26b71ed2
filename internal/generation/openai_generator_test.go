package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("rate limit exceeded")))
	assert.True(t, isRateLimitError(errors.New("Too Many Requests")))
	assert.False(t, isRateLimitError(errors.New("400 Bad Request")))
	assert.False(t, isRateLimitError(nil))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, isServerError(errors.New("500 Internal Server Error")))
	assert.True(t, isServerError(errors.New(`{"error":{"type":"server_error"}}`)))
	assert.False(t, isServerError(errors.New("401 Unauthorized")))
	assert.False(t, isServerError(nil))
}

func TestSleepContext_CompletesWhenShort(t *testing.T) {
	err := sleepContext(context.Background(), time.Millisecond)
	assert.NoError(t, err)
}

func TestSleepContext_AbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, 10*time.Second)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
