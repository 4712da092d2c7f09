package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// failingStore simulates a broken durable store.
type failingStore struct {
	loadErr error
	saveErr error
	values  map[string][]byte
}

func (s *failingStore) Load(key string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, &StateStoreError{Op: "load", Key: key, Err: s.loadErr}
	}
	return s.values[key], nil
}

func (s *failingStore) Save(key string, value []byte) error {
	if s.saveErr != nil {
		return &StateStoreError{Op: "save", Key: key, Err: s.saveErr}
	}
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = value
	return nil
}

func (s *failingStore) Close() error { return nil }

func TestAssembleFullRun(t *testing.T) {
	store := NewMemStore()
	engine := NewCycleEngine(store, USStates, 1980)
	if err := engine.Reset(CycleState{Year: 1980, CategoryIndex: 4, DaysLeft: 1}); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	ok := &fakeSource{id: "s1", fields: []string{"F1"}, result: Fields{"F1": "one"}}
	failing := &fakeSource{id: "s2", fields: []string{"F2"}, failures: 99}

	var builderCycle CycleState
	var builderCategory string
	build := func(cycle CycleState, category string, history *SelectionHistory) *Aggregator {
		builderCycle = cycle
		builderCategory = category
		history.Record("codebase", "repo-x")

		agg := &Aggregator{}
		agg.Register(ok, fastPolicy())
		agg.Register(failing, RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond})
		return agg
	}

	assembler := NewAssembler(store, engine, build)
	assembler.now = func() time.Time { return time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC) }

	snapshot, err := assembler.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	// Rollover day: year and category advance, days reset.
	want := CycleState{Year: 1981, CategoryIndex: 5, DaysLeft: 3}
	if snapshot.CycleAfter.Year != want.Year ||
		snapshot.CycleAfter.CategoryIndex != want.CategoryIndex ||
		snapshot.CycleAfter.DaysLeft != want.DaysLeft {
		t.Errorf("CycleAfter = %+v, want %+v", snapshot.CycleAfter, want)
	}
	if builderCycle != snapshot.CycleAfter {
		t.Errorf("builder saw cycle %+v, want post-advance %+v", builderCycle, snapshot.CycleAfter)
	}
	if builderCategory != "Colorado" {
		t.Errorf("builder category = %q, want %q", builderCategory, "Colorado")
	}

	if len(snapshot.Order) != 2 || snapshot.Order[0] != "s1" || snapshot.Order[1] != "s2" {
		t.Errorf("Order = %v, want [s1 s2]", snapshot.Order)
	}
	ctx := snapshot.Context()
	if ctx["F1"] != "one" {
		t.Errorf("F1 = %q, want %q", ctx["F1"], "one")
	}
	if ctx["F2"] != Unavailable {
		t.Errorf("F2 = %q, want unavailable marker", ctx["F2"])
	}

	// Staged selection picks must be durable after the run.
	history, err := LoadSelectionHistory(store)
	if err != nil {
		t.Fatalf("LoadSelectionHistory() error = %v", err)
	}
	if got := history.Last("codebase"); got != "repo-x" {
		t.Errorf("persisted codebase pick = %q, want %q", got, "repo-x")
	}
}

func TestAssembleAdvancePersistedBeforeFetch(t *testing.T) {
	store := NewMemStore()
	engine := NewCycleEngine(store, USStates, 1980)

	var persistedDuringBuild CycleState
	build := func(cycle CycleState, category string, history *SelectionHistory) *Aggregator {
		// By the time sources are built, the advance must already be
		// durable. A crash here must not replay the day.
		data, err := store.Load("cycle_state")
		if err != nil || data == nil {
			t.Fatalf("cycle state not persisted before build: %v", err)
		}
		if err := json.Unmarshal(data, &persistedDuringBuild); err != nil {
			t.Fatalf("decoding persisted state: %v", err)
		}
		return &Aggregator{}
	}

	snapshot, err := NewAssembler(store, engine, build).Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if persistedDuringBuild.DaysLeft != snapshot.CycleAfter.DaysLeft {
		t.Errorf("persisted DaysLeft = %d, want %d", persistedDuringBuild.DaysLeft, snapshot.CycleAfter.DaysLeft)
	}
}

func TestAssembleStoreFailureIsFatal(t *testing.T) {
	store := &failingStore{loadErr: errors.New("disk error")}
	engine := NewCycleEngine(store, USStates, 1980)

	built := false
	build := func(cycle CycleState, category string, history *SelectionHistory) *Aggregator {
		built = true
		return &Aggregator{}
	}

	_, err := NewAssembler(store, engine, build).Assemble(context.Background())
	if err == nil {
		t.Fatal("Assemble() error = nil, want state store failure")
	}

	var storeErr *StateStoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("Assemble() error = %T, want *StateStoreError", err)
	}
	if built {
		t.Error("sources were built despite store failure; no fetch may run")
	}
}

func TestAssembleSaveFailureIsFatal(t *testing.T) {
	store := &failingStore{saveErr: errors.New("disk full")}
	engine := NewCycleEngine(store, USStates, 1980)

	build := func(cycle CycleState, category string, history *SelectionHistory) *Aggregator {
		t.Fatal("build called; advance persistence failed so no fetch may run")
		return nil
	}

	_, err := NewAssembler(store, engine, build).Assemble(context.Background())
	if err == nil {
		t.Fatal("Assemble() error = nil, want save failure")
	}
	var storeErr *StateStoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("Assemble() error = %T, want *StateStoreError", err)
	}
}
