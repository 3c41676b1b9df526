package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// StatusError is a non-2xx reply from a provider. Message carries the
// provider's own explanation when the body had one.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequest executes a single request through the circuit breaker. There are
// no retries. Transport failures, 429 and 5xx count against the breaker;
// other non-2xx replies are the caller's fault and do not.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	provider string,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		// Handle rate limiting and server errors explicitly.
		if resp.StatusCode == http.StatusTooManyRequests {
			statusErr := readStatusError(provider, resp)
			return nil, fmt.Errorf("%w: %v", errRateLimited, statusErr)
		}
		if resp.StatusCode >= 500 {
			statusErr := readStatusError(provider, resp)
			return nil, fmt.Errorf("%w: %v", errServerError, statusErr)
		}
		return resp, nil
	})
	if err != nil {
		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readStatusError(provider, resp)
	}
	return resp, nil
}

// readStatusError consumes and closes resp.Body.
func readStatusError(provider string, resp *http.Response) *StatusError {
	defer resp.Body.Close()

	statusErr := &StatusError{Provider: provider, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return statusErr
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		statusErr.Message = payload.Message
	} else {
		statusErr.Message = strings.TrimSpace(string(body))
	}
	return statusErr
}
