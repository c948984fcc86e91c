package proposal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ClientConfig configures an HTTPClient.
type ClientConfig struct {
	Endpoint         string        `yaml:"endpoint" toml:"endpoint" json:"endpoint" validate:"omitempty,url"`
	Timeout          time.Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	MaxRequests      uint32        `yaml:"max_requests" toml:"max_requests" json:"maxRequests"`
	Interval         time.Duration `yaml:"interval" toml:"interval" json:"interval"`
	OpenTimeout      time.Duration `yaml:"open_timeout" toml:"open_timeout" json:"openTimeout"`
	FailureThreshold float64       `yaml:"failure_threshold" toml:"failure_threshold" json:"failureThreshold" validate:"gte=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests" toml:"min_requests" json:"minRequests"`
}

// DefaultClientConfig returns a default configuration for the proposal client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:          30 * time.Second,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("proposal service returned %d: %s", e.Code, e.Body)
}

// HTTPClient posts requests to a proposal service. Repeated failures open a
// circuit breaker and further calls fail fast with ErrUnavailable.
type HTTPClient struct {
	cfg      ClientConfig
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHTTPClient creates a client for cfg.Endpoint.
func NewHTTPClient(cfg ClientConfig, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	c := &HTTPClient{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		validate: validator.New(),
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "proposals",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip if we have enough requests to make a decision
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// Client errors say nothing about the service's health.
			var se *StatusError
			if errors.As(err, &se) && se.Code < 500 {
				return true
			}
			return err == nil
		},
	})
	return c
}

// State returns the breaker state.
func (c *HTTPClient) State() gobreaker.State {
	return c.breaker.State()
}

// Propose sends req and decodes the answer.
func (c *HTTPClient) Propose(ctx context.Context, req Request) (*Response, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid proposal request: %w", err)
	}
	if c.cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, req)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		return nil, err
	}
	return out.(*Response), nil
}

func (c *HTTPClient) post(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding proposal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building proposal request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling proposal service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading proposal response: %w", err)
	}
	c.logger.Debug("proposal service answered",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding proposal response: %w", err)
	}
	return &out, nil
}
