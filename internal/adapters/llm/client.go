package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxRetryDelay caps the backoff between attempts.
const maxRetryDelay = 5 * time.Second

// statusError is a non-2xx answer from a backend.
type statusError struct {
	backend    string
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	body := strings.TrimSpace(e.body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s returned status %d: %s", e.backend, e.code, body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func newStatusError(backend string, resp *http.Response, body []byte) *statusError {
	e := &statusError{backend: backend, code: resp.StatusCode, body: string(body)}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
			e.retryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}

// caller runs one generation with a deadline, retries and observation.
type caller struct {
	backend    string
	model      string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	observer   Observer
}

func newCaller(backend string, cfg Config, observer Observer) caller {
	return caller{
		backend:    backend,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		observer:   observer,
	}
}

func (c caller) do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	attempts := 0
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 && !c.wait(ctx, i-1, lastErr) {
			break
		}
		attempts++

		text, err := fn(ctx)
		if err == nil {
			text = strings.TrimSpace(text)
			if text != "" {
				c.observe(start, attempts, nil)
				return text, nil
			}
			err = ErrEmptyReply
		}
		lastErr = err

		// Don't retry on context cancellation/timeout
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	err := c.classify(ctx, lastErr, attempts)
	c.observe(start, attempts, err)
	return "", err
}

// wait sleeps before retry number attempt+1. It returns false if ctx ends first.
func (c caller) wait(ctx context.Context, attempt int, lastErr error) bool {
	d := retryDelay(c.backoff, attempt)
	var se *statusError
	if errors.As(lastErr, &se) && se.retryAfter > 0 {
		d = min(se.retryAfter, maxRetryDelay)
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c caller) classify(ctx context.Context, err error, attempts int) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, ErrEmptyReply):
		return err
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case attempts > 1:
		return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
	default:
		return err
	}
}

func (c caller) observe(start time.Time, attempts int, err error) {
	c.observer.OnCallComplete(CallEvent{
		Backend:   c.backend,
		Model:     c.model,
		Attempts:  attempts,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
}

func retryable(err error) bool {
	if errors.Is(err, ErrEmptyReply) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return true
}

// retryDelay is exponential backoff from base, capped at maxRetryDelay.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 16 {
		return maxRetryDelay
	}
	d := base << attempt
	if d > maxRetryDelay || d <= 0 {
		d = maxRetryDelay
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	var se *statusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrEmptyReply):
		return "EMPTY"
	case errors.As(err, &se):
		return "HTTP_" + strconv.Itoa(se.code)
	case errors.Is(err, ErrRetryExhausted):
		return "RETRY_EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}
