package main

import (
	"context"
	"log"
	"time"
)

// SourceBuilder constructs the run's source set once the post-advance
// cycle state is known, wiring repeat-avoidance selectors against the
// shared history.
type SourceBuilder func(cycle CycleState, category string, history *SelectionHistory) *Aggregator

// Assembler orchestrates one pipeline run: load durable state, advance
// and persist the cycle, fan out all sources, persist selection history,
// and merge everything into one immutable RunSnapshot.
type Assembler struct {
	store   StateStore
	cycle   *CycleEngine
	build   SourceBuilder
	now     func() time.Time
}

// NewAssembler creates an assembler over the given store handle. The
// store is passed in explicitly so tests can run against an in-memory
// implementation.
func NewAssembler(store StateStore, cycle *CycleEngine, build SourceBuilder) *Assembler {
	return &Assembler{store: store, cycle: cycle, build: build, now: time.Now}
}

// Assemble executes one run. Partial source failure never produces an
// error here; only state-store failures are fatal, and they abort the
// run before any advancement or fetch side effect.
func (a *Assembler) Assemble(ctx context.Context) (*RunSnapshot, error) {
	// Durable state is loaded up front so storage failures abort before
	// the cycle is touched.
	history, err := LoadSelectionHistory(a.store)
	if err != nil {
		return nil, err
	}

	// The cycle advances exactly once per run and is persisted before
	// any network I/O.
	state, err := a.cycle.Advance(a.now())
	if err != nil {
		return nil, err
	}

	agg := a.build(state, a.cycle.Category(state), history)
	results := agg.Run(ctx)

	if err := history.Persist(); err != nil {
		return nil, err
	}

	snapshot := &RunSnapshot{
		Timestamp:  a.now(),
		Order:      make([]string, 0, len(results)),
		Results:    make(map[string]SourceResult, len(results)),
		CycleAfter: state,
	}
	for _, result := range results {
		snapshot.Order = append(snapshot.Order, result.SourceID)
		snapshot.Results[result.SourceID] = result
	}

	if failed := snapshot.Failed(); len(failed) > 0 {
		log.Printf("Run completed with %d/%d sources failed: %v", len(failed), len(results), failed)
	} else {
		log.Printf("Run completed: all %d sources fetched", len(results))
	}

	return snapshot, nil
}
