// Package predictor calls the model-serving endpoint hosting the yield and
// cost regression pipelines.
package predictor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/metrics"
)

// Config configures the prediction service client
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	RateLimit        float64 // requests per second
	Burst            int
	MaxRetries       uint64
	RetryInterval    time.Duration // first backoff interval
	BreakerFailures  uint32        // consecutive failures that open the breaker
	BreakerOpenDelay time.Duration // time the breaker stays open
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 20
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 200 * time.Millisecond
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerOpenDelay <= 0 {
		c.BreakerOpenDelay = 30 * time.Second
	}
}

// Client handles communication with the model-serving endpoint
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	maxRetries  uint64
	retryDelay  time.Duration
	logger      zerolog.Logger
}

type predictRequest struct {
	Instances []domain.Features `json:"instances"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}

// statusError is a non-200 answer from the endpoint
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// clientSide reports 4xx answers, which are neither retried nor counted
// against the breaker
func (e *statusError) clientSide() bool {
	return e.code >= 400 && e.code < 500 && e.code != http.StatusTooManyRequests
}

// NewClient creates a prediction service client. It returns
// domain.ErrPredictorDisabled when no base URL is configured.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, domain.ErrPredictorDisabled
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid predictor base URL: %w", err)
	}
	cfg.applyDefaults()

	logger := logging.Component("predictor")
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "predictor",
			Timeout: cfg.BreakerOpenDelay,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			IsSuccessful: func(err error) bool {
				var se *statusError
				return err == nil || (errors.As(err, &se) && se.clientSide())
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		}),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryInterval,
		logger:     logger,
	}, nil
}

// Predict runs one model on a feature row and returns its single output
func (c *Client) Predict(ctx context.Context, model string, features domain.Features) (float64, error) {
	start := time.Now()
	value, err := c.predict(ctx, model, features)
	metrics.RecordPrediction(model, err, time.Since(start))
	if err != nil {
		c.logger.Debug().Err(err).Str("model", model).Msg("Prediction failed")
		return 0, err
	}
	return value, nil
}

func (c *Client) predict(ctx context.Context, model string, features domain.Features) (float64, error) {
	body, err := json.Marshal(predictRequest{Instances: []domain.Features{features}})
	if err != nil {
		return 0, fmt.Errorf("%w: encode features: %v", domain.ErrPredictorFailure, err)
	}
	endpoint := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, url.PathEscape(model))

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postWithRetry(ctx, endpoint, body)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: model %s: %w", domain.ErrPredictorFailure, model, err)
	}

	resp := result.(*predictResponse)
	if len(resp.Predictions) == 0 {
		return 0, fmt.Errorf("%w: model %s returned no predictions", domain.ErrPredictorFailure, model)
	}
	return resp.Predictions[0], nil
}

// postWithRetry sends the request, retrying transient failures with exponential backoff
func (c *Client) postWithRetry(ctx context.Context, endpoint string, body []byte) (*predictResponse, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryDelay

	var out *predictResponse
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		resp, err := c.post(ctx, endpoint, body)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && se.clientSide() {
				return backoff.Permanent(err)
			}
			c.logger.Debug().Err(err).Int("attempt", attempt).Str("endpoint", endpoint).Msg("Retrying prediction request")
			return err
		}
		out = resp
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*predictResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Tumbuh/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	var out predictResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return &out, nil
}
