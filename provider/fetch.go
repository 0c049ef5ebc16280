package provider

import (
	"context"
	"log"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 700 * time.Millisecond
)

// Source is one fetch attempt against the questions API. Implemented by
// Client; tests substitute their own.
type Source interface {
	Fetch(ctx context.Context, count int, topic string) ([]byte, error)
}

// Fetcher wraps a Source with bounded retries and exponential backoff.
type Fetcher struct {
	source      Source
	maxAttempts int
	backoffBase time.Duration
}

// NewFetcher creates a Fetcher. Non-positive knobs fall back to defaults.
func NewFetcher(source Source, maxAttempts int, backoffBase time.Duration) *Fetcher {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	return &Fetcher{
		source:      source,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// FetchWithRetry attempts the fetch up to maxAttempts times, sleeping
// backoffBase * 2^(attempt-1) between failures. A nil result means the
// provider is unavailable; callers must treat that as an expected outcome,
// not an error to branch on.
func (f *Fetcher) FetchWithRetry(ctx context.Context, count int, topic string) []byte {
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		raw, err := f.source.Fetch(ctx, count, topic)
		if err == nil {
			return raw
		}

		log.Printf("Questions API attempt %d/%d failed: %v", attempt, f.maxAttempts, err)
		if attempt == f.maxAttempts {
			break
		}

		wait := f.backoffBase * time.Duration(1<<(attempt-1))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
	return nil
}
