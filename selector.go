package main

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
)

const selectionHistoryKey = "selection_history"

// ErrEmptyCandidates signals a repeat-avoidance selection over an empty
// candidate set. Callers substitute a fixed fallback value and continue;
// the run is never aborted for it.
var ErrEmptyCandidates = errors.New("empty candidate set")

// SelectionHistory records, per selector ID, the key chosen on the
// previous run. Picks made during a run stay pending in memory and are
// persisted in one batch after aggregation completes, so a failed run
// does not burn a selection.
type SelectionHistory struct {
	store StateStore

	mu      sync.Mutex
	last    map[string]string
	pending map[string]string
}

// LoadSelectionHistory reads the persisted history from store.
func LoadSelectionHistory(store StateStore) (*SelectionHistory, error) {
	h := &SelectionHistory{
		store:   store,
		last:    make(map[string]string),
		pending: make(map[string]string),
	}

	data, err := store.Load(selectionHistoryKey)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := json.Unmarshal(data, &h.last); err != nil {
			return nil, &StateStoreError{Op: "decode", Key: selectionHistoryKey, Err: err}
		}
	}
	return h, nil
}

// Last returns the previously persisted choice for selectorID, or ""
// if none exists.
func (h *SelectionHistory) Last(selectorID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last[selectorID]
}

// Record stages key as the new last choice for selectorID. Durable only
// after Persist.
func (h *SelectionHistory) Record(selectorID, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[selectorID] = key
}

// Persist merges pending choices into the history and saves it.
func (h *SelectionHistory) Persist() error {
	h.mu.Lock()
	for id, key := range h.pending {
		h.last[id] = key
	}
	h.pending = make(map[string]string)
	data, err := json.Marshal(h.last)
	h.mu.Unlock()

	if err != nil {
		return &StateStoreError{Op: "encode", Key: selectionHistoryKey, Err: err}
	}
	return h.store.Save(selectionHistoryKey, data)
}

// Selector chooses one key from a candidate list while avoiding the
// immediately prior choice, unless no alternative exists.
type Selector struct {
	history *SelectionHistory
	id      string
	rng     *rand.Rand
}

// NewSelector creates a selector identified by id over the shared
// history. rng may be nil, in which case the global source is used.
func NewSelector(history *SelectionHistory, id string, rng *rand.Rand) *Selector {
	return &Selector{history: history, id: id, rng: rng}
}

// Pick selects uniformly at random among keys, excluding the previous
// choice when more than one distinct key exists. The pick is staged in
// the history; candidates are not mutated.
func (s *Selector) Pick(keys []string) (string, error) {
	choice, err := pickAvoidingRepeat(s.rng, keys, s.history.Last(s.id))
	if err != nil {
		return "", err
	}
	s.history.Record(s.id, choice)
	return choice, nil
}

func pickAvoidingRepeat(rng *rand.Rand, keys []string, last string) (string, error) {
	if len(keys) == 0 {
		return "", ErrEmptyCandidates
	}

	eligible := make([]string, 0, len(keys))
	for _, key := range keys {
		if key != last {
			eligible = append(eligible, key)
		}
	}
	// Only one distinct key: repetition is unavoidable and accepted.
	if len(eligible) == 0 {
		return keys[0], nil
	}

	if rng != nil {
		return eligible[rng.Intn(len(eligible))], nil
	}
	return eligible[rand.Intn(len(eligible))], nil
}
