package store

import (
	"sort"
	"sync"

	"github.com/drksurvraze/orderbot/internal/config"
	"github.com/drksurvraze/orderbot/internal/models"
)

// GlobalScope is the singleton partition used when scoping is disabled.
const GlobalScope = "global"

// Store is the in-memory table of pending orders. Presence of a record is
// the definition of pending. An order id is unique within its scope: in
// global mode every scope collapses to the singleton partition, so
// uniqueness is process-wide; in channel mode each channel is its own
// partition and the same id can coexist independently in different
// channels.
type Store struct {
	mu     sync.Mutex
	scoped map[string]map[string]models.OrderRecord
	mode   config.ScopeMode
}

func New(mode config.ScopeMode) *Store {
	return &Store{
		scoped: make(map[string]map[string]models.OrderRecord),
		mode:   mode,
	}
}

func (s *Store) scopeKey(scope string) string {
	if s.mode == config.ScopeGlobal {
		return GlobalScope
	}
	return scope
}

// InsertIfAbsent stores rec under its scope unless the order id is already
// present there. Duplicates are never overwritten.
func (s *Store) InsertIfAbsent(scope string, rec models.OrderRecord) bool {
	key := s.scopeKey(scope)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scoped[key][rec.OrderID]; exists {
		return false
	}
	if s.scoped[key] == nil {
		s.scoped[key] = make(map[string]models.OrderRecord)
	}
	s.scoped[key][rec.OrderID] = rec
	return true
}

// Get returns the record for id within scope, if present.
func (s *Store) Get(scope, id string) (models.OrderRecord, bool) {
	key := s.scopeKey(scope)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.scoped[key][id]
	return rec, ok
}

// Claim atomically removes the record for id within scope and returns it.
// Exactly one of any number of concurrent claims for the same record
// succeeds; the rest observe absence. This is the single source of truth
// for terminal transitions.
func (s *Store) Claim(scope, id string) (models.OrderRecord, bool) {
	key := s.scopeKey(scope)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.scoped[key][id]
	if !ok {
		return models.OrderRecord{}, false
	}
	delete(s.scoped[key], id)
	if len(s.scoped[key]) == 0 {
		delete(s.scoped, key)
	}
	return rec, true
}

// List returns the records of one scope, ordered by creation time then id.
func (s *Store) List(scope string) []models.OrderRecord {
	key := s.scopeKey(scope)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.OrderRecord, 0, len(s.scoped[key]))
	for _, rec := range s.scoped[key] {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

// ListAll returns every pending record annotated with its owning scope.
func (s *Store) ListAll() []models.ScopedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ScopedOrder, 0)
	for key, recs := range s.scoped {
		for _, rec := range recs {
			out = append(out, models.ScopedOrder{Scope: key, Order: rec})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Order, out[j].Order
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.OrderID < b.OrderID
	})
	return out
}

// Scopes returns the scopes that currently hold pending orders, sorted.
func (s *Store) Scopes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.scoped))
	for key := range s.scoped {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Len reports the total number of pending orders across all scopes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, recs := range s.scoped {
		n += len(recs)
	}
	return n
}

func sortRecords(recs []models.OrderRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].OrderID < recs[j].OrderID
	})
}
