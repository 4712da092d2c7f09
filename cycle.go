package main

import (
	"encoding/json"
	"log"
	"time"
)

const cycleStateKey = "cycle_state"

// DefaultSeedYear is the study year used when no cycle state has been
// persisted yet.
const DefaultSeedYear = 1980

// USStates is the default category list, in alphabetical order.
var USStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado",
	"Connecticut", "Delaware", "Florida", "Georgia", "Hawaii", "Idaho",
	"Illinois", "Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana",
	"Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota",
	"Mississippi", "Missouri", "Montana", "Nebraska", "Nevada",
	"New Hampshire", "New Jersey", "New Mexico", "New York",
	"North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon",
	"Pennsylvania", "Rhode Island", "South Carolina", "South Dakota",
	"Tennessee", "Texas", "Utah", "Vermont", "Virginia", "Washington",
	"West Virginia", "Wisconsin", "Wyoming",
}

// CycleState is the sole durable state of the core pipeline: a repeating
// 3-day counter driving study-year and study-state selection.
// DaysLeft is always in {1,2,3}.
type CycleState struct {
	Year          int       `json:"year"`
	CategoryIndex int       `json:"category_index"`
	DaysLeft      int       `json:"days_left"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Advance returns the deterministic successor state. DaysLeft counts
// 3,2,1 and on rollover the year increments by one and the category
// index steps forward, wrapping modulo categoryCount. The category list
// may shrink between runs; the wrap uses the count supplied now.
func (s CycleState) Advance(categoryCount int) CycleState {
	next := s
	if s.DaysLeft > 1 {
		next.DaysLeft--
		return next
	}
	next.DaysLeft = 3
	next.Year++
	next.CategoryIndex = (s.CategoryIndex + 1) % categoryCount
	return next
}

// CycleEngine persists CycleState through a StateStore and applies the
// transition exactly once per run.
type CycleEngine struct {
	store      StateStore
	categories []string
	seedYear   int
}

// NewCycleEngine creates an engine over the given store and category
// list. seedYear initializes the state when none is persisted.
func NewCycleEngine(store StateStore, categories []string, seedYear int) *CycleEngine {
	return &CycleEngine{store: store, categories: categories, seedYear: seedYear}
}

// Load reads the persisted state, or the seed state if absent.
func (e *CycleEngine) Load() (CycleState, error) {
	data, err := e.store.Load(cycleStateKey)
	if err != nil {
		return CycleState{}, err
	}
	if data == nil {
		return CycleState{Year: e.seedYear, CategoryIndex: 0, DaysLeft: 3}, nil
	}

	var state CycleState
	if err := json.Unmarshal(data, &state); err != nil {
		return CycleState{}, &StateStoreError{Op: "decode", Key: cycleStateKey, Err: err}
	}
	return state, nil
}

// Advance loads the current state, applies the transition once, and
// persists the result before returning it. Persisting happens before
// any fetch is attempted, so a crash mid-run never replays or loses an
// advancement.
func (e *CycleEngine) Advance(now time.Time) (CycleState, error) {
	state, err := e.Load()
	if err != nil {
		return CycleState{}, err
	}

	next := state.Advance(len(e.categories))
	next.LastUpdated = now

	if err := e.save(next); err != nil {
		return CycleState{}, err
	}

	log.Printf("Cycle advanced: year=%d state=%s days_left=%d", next.Year, e.Category(next), next.DaysLeft)
	return next, nil
}

// AdvancedToday reports whether the persisted state was already updated
// on the calendar day of now. The scheduled runner uses this to keep a
// re-triggered day from advancing the cycle twice.
func (e *CycleEngine) AdvancedToday(now time.Time) (bool, CycleState, error) {
	state, err := e.Load()
	if err != nil {
		return false, CycleState{}, err
	}
	if state.LastUpdated.IsZero() {
		return false, state, nil
	}
	sy, sm, sd := state.LastUpdated.Date()
	ny, nm, nd := now.Date()
	return sy == ny && sm == nm && sd == nd, state, nil
}

// Reset overwrites the persisted state. Used by the --reset-cycle flag
// and the legacy-state migration.
func (e *CycleEngine) Reset(state CycleState) error {
	return e.save(state)
}

// Category returns the active category label for state.
func (e *CycleEngine) Category(state CycleState) string {
	if len(e.categories) == 0 {
		return ""
	}
	return e.categories[state.CategoryIndex%len(e.categories)]
}

func (e *CycleEngine) save(state CycleState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return &StateStoreError{Op: "encode", Key: cycleStateKey, Err: err}
	}
	return e.store.Save(cycleStateKey, data)
}
