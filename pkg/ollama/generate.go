package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/RolodexAI/rolodex-mvp/engine/domain"
	"github.com/RolodexAI/rolodex-mvp/pkg/fn"
	"github.com/RolodexAI/rolodex-mvp/pkg/resilience"
)

// GenerateOpts configures the generation client.
type GenerateOpts struct {
	// AttemptTimeout bounds a single request to the runtime.
	AttemptTimeout time.Duration
	// Rate throttles outbound requests across goroutines.
	Rate  rate.Limit
	Burst int
	Retry fn.RetryOpts
}

// DefaultGenerateOpts are tuned for a single local Ollama instance.
var DefaultGenerateOpts = GenerateOpts{
	AttemptTimeout: 60 * time.Second,
	Rate:           rate.Every(200 * time.Millisecond),
	Burst:          2,
	Retry:          fn.DefaultRetry,
}

// GenerateClient calls Ollama's /api/generate endpoint. Requests are rate
// limited, retried with backoff, and guarded by a circuit breaker so a dead
// runtime fails fast instead of piling up timeouts.
type GenerateClient struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	opts    GenerateOpts
}

// NewGenerateClient creates a generation client for the given model.
func NewGenerateClient(baseURL, model string, opts GenerateOpts) *GenerateClient {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultGenerateOpts.AttemptTimeout
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultGenerateOpts.Rate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultGenerateOpts.Burst
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultGenerateOpts.Retry
	}
	return &GenerateClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
		limiter: rate.NewLimiter(opts.Rate, opts.Burst),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		opts:    opts,
	}
}

type generateReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResp struct {
	Response string `json:"response"`
}

// errBadPayload marks a response the runtime delivered but we could not parse.
var errBadPayload = errors.New("undecodable payload")

// Generate sends a prompt to the runtime and returns its raw completion.
// Transport failures and 5xx statuses are retried; a response that arrives but
// cannot be decoded is not, since resending the same prompt would not fix it.
func (c *GenerateClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", domain.Fail("model", domain.ErrModelUnavailable, "rate limit wait: %v", err)
	}

	out, err := fn.Retry(ctx, c.opts.Retry, func(ctx context.Context) (string, error) {
		var text string
		callErr := c.breaker.Call(ctx, func(ctx context.Context) error {
			var err error
			text, err = c.generateOnce(ctx, prompt)
			return err
		})
		return text, callErr
	})
	if err != nil {
		if errors.Is(err, errBadPayload) {
			return "", domain.Fail("model", domain.ErrMalformedResponse, "ollama generate: %v", err)
		}
		return "", domain.Fail("model", domain.ErrModelUnavailable, "ollama generate: %v", err)
	}
	return out, nil
}

func (c *GenerateClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.AttemptTimeout)
	defer cancel()

	body, _ := json.Marshal(generateReq{Model: c.model, Prompt: prompt, Stream: false})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", fn.Permanent(fmt.Errorf("ollama generate: status %d", resp.StatusCode))
		}
		return "", fmt.Errorf("ollama generate: status %d", resp.StatusCode)
	}

	var result generateResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fn.Permanent(fmt.Errorf("%w: %v", errBadPayload, err))
	}
	// An empty completion is still a delivered response. Grounding checks
	// downstream decide what to do with it.
	return result.Response, nil
}

// Ping reports whether the runtime answers at all. Used by health checks.
func (c *GenerateClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("ollama ping: status %d", resp.StatusCode)
	}
	return nil
}
