// Package clarify stores pending clarification requests keyed by a
// server-generated query_id, backed by the same TTL cache.Store used for
// corpus/LLM responses elsewhere in the system so suspended state expires
// on its own rather than needing an explicit sweep.
package clarify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/sugyasearch/internal/cache"
	"github.com/hyperifyio/sugyasearch/internal/errkind"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

// Stage identifies which pipeline stage a clarification was suspended at.
type Stage string

const (
	StagePostDecipher   Stage = "post-decipher"
	StagePostUnderstand Stage = "post-understand"
	StagePostLocate     Stage = "post-locate"
)

// State is everything needed to resume a query after the user answers a
// clarification prompt.
type State struct {
	QueryID       string                      `json:"query_id"`
	Stage         Stage                       `json:"stage"`
	OriginalQuery string                      `json:"original_query"`
	Options       []types.ClarificationOption `json:"options"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// DefaultTTL matches the spec's ~30 minute clarification window.
const DefaultTTL = 30 * time.Minute

// Store persists clarification State behind a TTL cache.
type Store struct {
	cache *cache.Store
}

// NewStore wraps a cache.Store configured with DefaultTTL (or the caller's
// own TTL, if already set) as a clarification Store.
func NewStore(c *cache.Store) *Store {
	if c != nil && c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	return &Store{cache: c}
}

// Create allocates a new query_id and persists the clarification state.
func (s *Store) Create(stage Stage, originalQuery string, options []types.ClarificationOption, now time.Time) (State, error) {
	state := State{
		QueryID:       uuid.NewString(),
		Stage:         stage,
		OriginalQuery: originalQuery,
		Options:       options,
		CreatedAt:     now,
	}
	if err := s.save(state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Get resolves a query_id to its suspended State. A miss (expired or
// unknown) is reported as errkind.NotFound.
func (s *Store) Get(queryID string) (State, error) {
	raw, ok, err := s.cache.Get(queryID)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, fmt.Errorf("clarify: query_id %s: %w", queryID, errkind.NotFound)
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("clarify: corrupt state for %s: %w", queryID, errkind.Internal)
	}
	return state, nil
}

// Resolve is called once the user has answered. It does not remove the
// stored state: Get keeps returning it until its TTL expires.
func (s *Store) Resolve(queryID string) {
	// cache.Store has no targeted delete; a resolved entry is simply left
	// to expire. Double-answering the same query_id is harmless: callers
	// re-resolve the same options.
	_ = queryID
}

func (s *Store) save(state State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.cache.Set(state.QueryID, b)
}
