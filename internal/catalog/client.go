package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/agenthands/flowlink/internal/config"
	"github.com/agenthands/flowlink/internal/core/model"
)

// Client wraps the remote flow search capability with bounded retries.
// The underlying connection pool is held for the client's lifetime and
// released by Close.
type Client struct {
	endpoint     string
	httpc        *http.Client
	maxAttempts  int
	backoff      time.Duration
	maxBackoff   time.Duration
	timeout      time.Duration
	contextLimit int
	normalizer   *Normalizer

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

func NewClient(cfg config.CatalogConfig, normalizer *Normalizer) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	if normalizer == nil {
		normalizer = NewNormalizer("en")
	}
	return &Client{
		endpoint:     cfg.Endpoint,
		httpc:        &http.Client{Timeout: timeout},
		maxAttempts:  cfg.MaxAttempts,
		backoff:      time.Duration(cfg.BackoffSeconds * float64(time.Second)),
		maxBackoff:   time.Duration(cfg.MaxBackoffSecs * float64(time.Second)),
		timeout:      timeout,
		contextLimit: cfg.ContextCharLimit,
		normalizer:   normalizer,
		sleep:        time.Sleep,
	}
}

// Close releases the client's idle connections. Safe to call more than once.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}

// Search executes the remote flow search and returns normalized candidates.
// On payload-too-large or 5xx failures for a context-enriched query, it
// retries exactly once more with the context stripped before giving up.
func (c *Client) Search(ctx context.Context, query model.Query) ([]model.Candidate, error) {
	includeContext := query.Context != ""
	raw, err := c.callWithRetry(ctx, c.composeQuery(query, includeContext))
	if err != nil {
		var unavailable *UnavailableError
		if includeContext && errors.As(err, &unavailable) && unavailable.contentSized() {
			log.Printf("catalog: stripping context for %q after status %d", query.Name, unavailable.StatusCode)
			raw, err = c.callWithRetry(ctx, c.composeQuery(query, false))
		}
		if err != nil {
			return nil, err
		}
	}

	candidates := c.normalizer.NormalizeAll(raw)
	if len(candidates) == 0 && (query.Description != "" || query.ProcessName != "") {
		// An enriched query can over-constrain the search; fall back to the bare name once.
		log.Printf("catalog: no candidates for %q, retrying with minimal query", query.Name)
		raw, err = c.callWithRetry(ctx, query.Name)
		if err != nil {
			return nil, err
		}
		candidates = c.normalizer.NormalizeAll(raw)
	}
	return candidates, nil
}

// composeQuery joins the query fields into the free-text search string the
// catalog expects. Context is capped to keep the request body bounded.
func (c *Client) composeQuery(query model.Query, includeContext bool) string {
	var parts []string
	if query.Name != "" {
		parts = append(parts, "exchange: "+query.Name)
	}
	if query.ProcessName != "" {
		parts = append(parts, "process: "+query.ProcessName)
	}
	if query.Description != "" {
		parts = append(parts, "description: "+query.Description)
	}
	if includeContext && query.Context != "" && c.contextLimit > 0 {
		snippet := query.Context
		if len(snippet) > c.contextLimit {
			snippet = snippet[:c.contextLimit]
		}
		parts = append(parts, "context: "+snippet)
	}
	joined := strings.Join(parts, " \n")
	if joined == "" {
		return query.Name
	}
	return joined
}

func (c *Client) callWithRetry(ctx context.Context, queryText string) (any, error) {
	attempts := 0
	delay := c.backoff
	var lastErr error

	for attempts < c.maxAttempts {
		attempts++
		raw, err := c.call(ctx, queryText)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		var status *statusError
		if errors.As(err, &status) {
			if status.code == 413 {
				// Content-size problem; retrying the same body cannot help.
				return nil, &UnavailableError{StatusCode: status.code, Attempts: attempts}
			}
			if status.code < 500 {
				return nil, fmt.Errorf("flow search rejected request: %w", err)
			}
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Timeouts, 5xx, and connection-level failures (refused, reset, DNS)
		// are all retried; the batch caller gets a typed error on exhaustion.

		if attempts < c.maxAttempts {
			c.sleep(delay)
			delay *= 2
			if delay > c.maxBackoff {
				delay = c.maxBackoff
			}
		}
	}

	var status *statusError
	if errors.As(lastErr, &status) {
		return nil, &UnavailableError{StatusCode: status.code, Attempts: attempts}
	}
	if isTimeout(lastErr) {
		log.Printf("catalog: search timed out after %d attempts (timeout=%s)", attempts, c.timeout)
		return nil, &TimeoutError{Attempts: attempts, Timeout: c.timeout}
	}
	log.Printf("catalog: search unreachable after %d attempts: %v", attempts, lastErr)
	return nil, &UnavailableError{Attempts: attempts, Err: lastErr}
}

func (c *Client) call(ctx context.Context, queryText string) (any, error) {
	body, err := json.Marshal(map[string]string{"query": queryText})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search payload: %w", err)
	}
	return payload, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
