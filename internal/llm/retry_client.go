package llm

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first one
	BaseWait    time.Duration // Wait before the second attempt; doubles afterwards
	MaxWait     time.Duration // Maximum wait per attempt

	// Transport overrides the pooled default transport (tests point this at httptest servers)
	Transport http.RoundTripper
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 2,
		BaseWait:    500 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// RetryClient wraps http.Client with retry logic.
// Only transport errors and 5xx responses are retried; 4xx (429 included) is
// returned to the caller on the first attempt.
type RetryClient struct {
	client  *http.Client
	config  *RetryConfig
	onRetry func(attempt int, reason string)
}

// NewRetryClient creates a new retry client
func NewRetryClient(config *RetryConfig) *RetryClient {
	return NewRetryClientWithTimeout(60*time.Second, config)
}

// NewRetryClientWithTimeout creates a retry client with custom timeout
func NewRetryClientWithTimeout(timeout time.Duration, config *RetryConfig) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	cfg := *config
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultRetryConfig().MaxWait
	}

	transport := cfg.Transport
	if transport == nil {
		transport = newDefaultTransport()
	}

	return &RetryClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		config: &cfg,
	}
}

// newDefaultTransport returns a pooled transport shared by all provider calls
func newDefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// OnRetry registers a callback invoked before every retry
func (rc *RetryClient) OnRetry(fn func(attempt int, reason string)) {
	rc.onRetry = fn
}

// Do executes an HTTP request with retry logic
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	return rc.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with retry logic and context.
// A final 5xx response is returned as-is so the caller can report its status.
func (rc *RetryClient) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < rc.config.MaxAttempts; attempt++ {
		attemptReq, err := rc.prepareAttempt(ctx, req, attempt)
		if err != nil {
			return nil, err
		}

		resp, err := rc.client.Do(attemptReq)
		last := attempt == rc.config.MaxAttempts-1

		var reason string
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			reason = err.Error()
		case resp.StatusCode >= 500:
			if last {
				return resp, nil
			}
			reason = fmt.Sprintf("status %d", resp.StatusCode)
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		default:
			return resp, nil
		}

		if last {
			break
		}

		if rc.onRetry != nil {
			rc.onRetry(attempt+1, reason)
		}

		select {
		case <-time.After(rc.calculateWaitTime(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", rc.config.MaxAttempts, lastErr)
}

// prepareAttempt rebinds the request to ctx and rewinds its body for retries
func (rc *RetryClient) prepareAttempt(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	attemptReq := req.Clone(ctx)
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return attemptReq, nil
	}

	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed for retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	attemptReq.Body = body
	return attemptReq, nil
}

// calculateWaitTime calculates wait time using exponential backoff
func (rc *RetryClient) calculateWaitTime(attempt int) time.Duration {
	wait := rc.config.BaseWait << attempt
	if wait <= 0 || wait > rc.config.MaxWait {
		wait = rc.config.MaxWait
	}
	return wait
}

// SetTimeout updates the client timeout
func (rc *RetryClient) SetTimeout(timeout time.Duration) {
	rc.client.Timeout = timeout
}

// GetTimeout returns the current client timeout
func (rc *RetryClient) GetTimeout() time.Duration {
	return rc.client.Timeout
}
