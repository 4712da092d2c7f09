package main

import (
	"context"
	"log"
	"sync"
)

// Aggregator fans out one goroutine per registered source, each wrapped
// by its own RetryPolicy, and joins once every source has settled.
// Partial failure is normal: a source exhausting its retries becomes a
// Failed result and never cancels or delays a sibling beyond its own
// backoff.
type Aggregator struct {
	sources  []Source
	policies []RetryPolicy
}

// Register appends a source with its retry policy. Registration order
// determines result order.
func (a *Aggregator) Register(src Source, policy RetryPolicy) {
	a.sources = append(a.sources, src)
	a.policies = append(a.policies, policy)
}

// Run fetches every registered source concurrently and returns once all
// have succeeded or exhausted retries. Each goroutine writes only its
// own slot, so no locking is needed during fan-out.
func (a *Aggregator) Run(ctx context.Context) []SourceResult {
	results := make([]SourceResult, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source, policy RetryPolicy) {
			defer wg.Done()
			results[i] = fetchOne(ctx, src, policy)
		}(i, src, a.policies[i])
	}
	wg.Wait()

	return results
}

func fetchOne(ctx context.Context, src Source, policy RetryPolicy) SourceResult {
	var fields Fields
	attempts, err := policy.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		fields, fetchErr = src.Fetch(ctx)
		return fetchErr
	})

	result := SourceResult{
		SourceID:   src.ID(),
		FieldNames: src.Fields(),
		Attempts:   attempts,
	}
	if err != nil {
		log.Printf("✗ Source %s failed after %d attempts: %v", src.ID(), attempts, err)
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	log.Printf("✓ Source %s fetched (%d attempts)", src.ID(), attempts)
	result.Status = StatusOK
	result.Fields = fields
	return result
}
