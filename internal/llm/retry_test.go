package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.New("googleai: rate limit exceeded"), true},
		{"http 429", errors.New("unexpected status 429"), true},
		{"server error", errors.New("503 Service Unavailable"), true},
		{"timeout", errors.New("context deadline exceeded: timeout"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"invalid request", errors.New("400 invalid argument"), false},
		{"auth failure", errors.New("401 unauthorized"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryableError(tt.err))
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Less(t, cfg.InitialInterval, cfg.MaxInterval)
}

func TestClientCompleteNotConfigured(t *testing.T) {
	c := NewClient(nil, ClientConfig{ModelName: "gemini-2.5-flash"}, nil)
	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
