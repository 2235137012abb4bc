// Package llm wraps the language-model provider behind a small completion
// interface so the query-time pipeline can be tested without a live model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/arlo-ai/arlo/internal/log"
)

// ErrNotConfigured indicates the client was built without a model provider.
var ErrNotConfigured = errors.New("language model is not configured")

// completionTimeout bounds one completion round-trip.
const completionTimeout = 60 * time.Second

// Request describes one completion call.
type Request struct {
	System   string
	Messages []*ai.Message

	// Tools offered to the model for this call. When set together with
	// ReturnToolRequests, tool calls come back unexecuted for the caller
	// to dispatch.
	Tools              []ai.ToolRef
	ReturnToolRequests bool

	// Temperature and MaxTokens override the client defaults when > 0.
	Temperature float64
	MaxTokens   int
}

// Response is the model's reply to one Request.
type Response struct {
	Text         string
	Message      *ai.Message // full model message, for continuing the thread
	ToolRequests []*ai.ToolRequest
}

// Completer issues completion calls. Implemented by Client; faked in tests.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ClientConfig holds the model defaults for a Client.
type ClientConfig struct {
	ModelName   string
	Temperature float64
	MaxTokens   int

	// Limiter throttles completion calls. Nil gets the default of
	// 10 requests/sec sustained with a burst of 30.
	Limiter *rate.Limiter

	// Retry overrides the transient-error retry policy. The zero value
	// gets DefaultRetryConfig.
	Retry RetryConfig
}

// Client is the genkit-backed Completer.
type Client struct {
	g       *genkit.Genkit
	cfg     ClientConfig
	limiter *rate.Limiter
	logger  log.Logger
}

// NewClient creates a Client. The genkit instance must have the model
// provider plugin initialized.
func NewClient(g *genkit.Genkit, cfg ClientConfig, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	return &Client{g: g, cfg: cfg, limiter: limiter, logger: logger}
}

// Complete runs one completion call against the configured model.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.g == nil {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(c.cfg.ModelName),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(temperature)),
			MaxOutputTokens: int32(maxTokens),
		}),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if len(req.Messages) > 0 {
		opts = append(opts, ai.WithMessages(req.Messages...))
	}
	if len(req.Tools) > 0 {
		opts = append(opts, ai.WithTools(req.Tools...))
		if req.ReturnToolRequests {
			opts = append(opts, ai.WithReturnToolRequests(true))
		}
	}

	start := time.Now()
	resp, err := c.generateWithRetry(ctx, c.cfg.Retry, opts)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	c.logger.Debug("completion finished",
		"model", c.cfg.ModelName,
		"tool_requests", len(resp.ToolRequests()),
		"duration", time.Since(start),
	)

	return &Response{
		Text:         resp.Text(),
		Message:      resp.Message,
		ToolRequests: resp.ToolRequests(),
	}, nil
}
