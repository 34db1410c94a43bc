package gateway

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

// RetryConfig contains transport retry settings
type RetryConfig struct {
	Enabled        bool
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// RetryableHTTPClient wraps http.Client with retry logic for transient
// network failures and retryable status codes. 4xx responses are never
// retried.
type RetryableHTTPClient struct {
	client *http.Client
	config RetryConfig
}

// NewRetryableHTTPClient creates a new retryable HTTP client
func NewRetryableHTTPClient(timeout time.Duration, config RetryConfig) *RetryableHTTPClient {
	return &RetryableHTTPClient{
		client: &http.Client{Timeout: timeout},
		config: config,
	}
}

// Do executes an HTTP request with retry logic
func (r *RetryableHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if !r.config.Enabled {
		return r.client.Do(req)
	}
	return r.do(req, r.config.MaxAttempts)
}

// DoOnce executes an HTTP request without retries. Used for non-idempotent
// calls (thread and run creation), where a blind retry could spawn a
// duplicate remote object.
func (r *RetryableHTTPClient) DoOnce(req *http.Request) (*http.Response, error) {
	return r.client.Do(req)
}

func (r *RetryableHTTPClient) do(req *http.Request, maxAttempts int) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		logger.Debug("HTTP request attempt",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"url", req.URL.String(),
			"method", req.Method)

		reqClone := req.Clone(req.Context())
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", bodyErr)
			}
			reqClone.Body = body
		}

		resp, err := r.client.Do(reqClone)

		if err == nil {
			if !r.isRetryableStatusCode(resp.StatusCode) || attempt >= maxAttempts {
				return resp, nil
			}
			_ = resp.Body.Close()
			logger.Debug("Received retryable status code",
				"status_code", resp.StatusCode,
				"attempt", attempt)
		} else if !r.isRetryableError(err) {
			return nil, err
		} else {
			logger.Debug("Retryable error encountered",
				"error", err.Error(),
				"attempt", attempt)
		}

		lastErr = err

		if attempt < maxAttempts {
			backoff := r.calculateBackoff(attempt)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
			}
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("max retry attempts (%d) exceeded, last error: %w", maxAttempts, lastErr)
	}

	return nil, fmt.Errorf("max retry attempts (%d) exceeded", maxAttempts)
}

// isRetryableError determines if an error should trigger a retry
func (r *RetryableHTTPClient) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if netErr, ok := err.(net.Error); ok {
		if netErr.Timeout() {
			return true
		}
	}

	if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset") ||
		strings.Contains(err.Error(), "no such host") ||
		strings.Contains(err.Error(), "i/o timeout") ||
		strings.Contains(err.Error(), "EOF") {
		return true
	}

	if opErr, ok := err.(*net.OpError); ok {
		if syscallErr, ok := opErr.Err.(*syscall.Errno); ok {
			switch *syscallErr {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	return false
}

// isRetryableStatusCode determines if an HTTP status code should trigger a retry
func (r *RetryableHTTPClient) isRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, // 408
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the linearly increasing backoff for an attempt,
// capped at MaxBackoff
func (r *RetryableHTTPClient) calculateBackoff(attempt int) time.Duration {
	backoff := r.config.InitialBackoff * time.Duration(attempt)
	if backoff > r.config.MaxBackoff {
		backoff = r.config.MaxBackoff
	}
	return backoff
}
