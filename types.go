package main

import (
	"context"
	"time"
)

// Unavailable is the marker rendered for any field whose source failed.
const Unavailable = "(data unavailable)"

// Fields maps template field names to their rendered values.
type Fields map[string]string

// Source is a single independently-fallible data provider queried once
// per run. Fetch must be idempotent: the aggregator retries it.
type Source interface {
	// ID identifies the source in results and logs.
	ID() string
	// Fields lists every template field this source is responsible for.
	// Failed sources get each of these set to the Unavailable marker.
	Fields() []string
	// Fetch gathers the source's fields. The remote call is the only
	// permitted side effect.
	Fetch(ctx context.Context) (Fields, error)
}

// SourceStatus is the outcome of one source in one run.
type SourceStatus string

const (
	StatusOK     SourceStatus = "ok"
	StatusFailed SourceStatus = "failed"
)

// SourceResult records the outcome of a single source fetch, including
// retries. Immutable once the aggregator returns it.
type SourceResult struct {
	SourceID   string
	Status     SourceStatus
	Fields     Fields
	FieldNames []string
	Err        error // set iff Status == StatusFailed
	Attempts   int
}

// RunSnapshot is the merged result of one pipeline execution. Order
// preserves source registration order regardless of completion order.
type RunSnapshot struct {
	Timestamp  time.Time
	Order      []string
	Results    map[string]SourceResult
	CycleAfter CycleState
}

// Context flattens the snapshot into a template context. Fields of
// failed sources are substituted with the Unavailable marker, which
// takes precedence over any partial fields the adapter returned.
func (s *RunSnapshot) Context() Fields {
	ctx := Fields{}
	for _, id := range s.Order {
		result := s.Results[id]
		if result.Status == StatusFailed {
			for _, field := range result.FieldNames {
				ctx[field] = Unavailable
			}
			continue
		}
		for k, v := range result.Fields {
			ctx[k] = v
		}
	}
	return ctx
}

// Failed returns the IDs of sources that exhausted their retries.
func (s *RunSnapshot) Failed() []string {
	var failed []string
	for _, id := range s.Order {
		if s.Results[id].Status == StatusFailed {
			failed = append(failed, id)
		}
	}
	return failed
}
