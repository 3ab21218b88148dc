package inference

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"docstruct/internal/port"
)

// circuitState tracks rate-limit backoff for a single backend.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackInference tries backends in order, skipping those with open
// circuits. It implements port.PageInference.
type FallbackInference struct {
	backends []port.PageInference
	circuits []*circuitState
	names    []string
}

// NewFallbackInference creates a FallbackInference from an ordered list of
// backends and their names.
func NewFallbackInference(backends []port.PageInference, names []string) *FallbackInference {
	circuits := make([]*circuitState, len(backends))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackInference{
		backends: backends,
		circuits: circuits,
		names:    names,
	}
}

func (f *FallbackInference) Infer(ctx context.Context, input port.InferInput) (*port.InferOutput, error) {
	now := time.Now()
	var lastErr error
	var earliestReset time.Time

	for i, backend := range f.backends {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("inference.FallbackInference: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := backend.Infer(ctx, input)
		if err == nil {
			return out, nil
		}

		log.Printf("inference.FallbackInference: %s failed: %v", f.names[i], err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		}
	}

	if lastErr == nil {
		// All backends were skipped due to open circuits.
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all model backends rate limited"), int(retryAfter.Seconds()))
	}
	return nil, fmt.Errorf("all model backends failed: %w", lastErr)
}
