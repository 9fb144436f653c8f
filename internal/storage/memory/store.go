// Package memory is the volatile fallback used when the device-local
// database cannot be opened. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/storage"
)

type namespace struct {
	actions []models.Action
	entries map[string][]byte

	leaseHolder  string
	leaseExpires time.Time
}

type Store struct {
	mu     sync.Mutex
	nextID int64
	spaces map[string]*namespace
}

var _ storage.Provider = (*Store)(nil)

func NewStore() *Store {
	return &Store{spaces: make(map[string]*namespace)}
}

func (s *Store) space(ns string) *namespace {
	sp, ok := s.spaces[ns]
	if !ok {
		sp = &namespace{entries: make(map[string][]byte)}
		s.spaces[ns] = sp
	}
	return sp
}

func (s *Store) Init() error           { return nil }
func (s *Store) Load() error           { return nil }
func (s *Store) Close() error          { return nil }
func (s *Store) GetConfigPath() string { return ":memory:" }

func (s *Store) AppendAction(_ context.Context, ns string, a models.Action) (models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a.ID = s.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	sp := s.space(ns)
	sp.actions = append(sp.actions, a)
	return a, nil
}

func (s *Store) ListActions(_ context.Context, ns string) ([]models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spaces[ns]
	if !ok || len(sp.actions) == 0 {
		return nil, nil
	}
	return append([]models.Action(nil), sp.actions...), nil
}

func (s *Store) DeleteActionsThrough(_ context.Context, ns string, maxID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spaces[ns]
	if !ok {
		return nil
	}
	kept := sp.actions[:0]
	for _, a := range sp.actions {
		if a.ID > maxID {
			kept = append(kept, a)
		}
	}
	sp.actions = kept
	return nil
}

func (s *Store) ClearActions(_ context.Context, ns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp, ok := s.spaces[ns]; ok {
		sp.actions = nil
	}
	return nil
}

func (s *Store) CountActions(_ context.Context, ns string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp, ok := s.spaces[ns]; ok {
		return len(sp.actions), nil
	}
	return 0, nil
}

func (s *Store) GetEntry(_ context.Context, ns, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spaces[ns]
	if !ok {
		return nil, storage.ErrNotFound
	}
	v, ok := sp.entries[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) PutEntry(_ context.Context, ns, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.space(ns).entries[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, ns, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp, ok := s.spaces[ns]; ok {
		delete(sp.entries, key)
	}
	return nil
}

func (s *Store) ListEntries(_ context.Context, ns, prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]byte)
	sp, ok := s.spaces[ns]
	if !ok {
		return out, nil
	}
	keys := make([]string, 0, len(sp.entries))
	for k := range sp.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = append([]byte(nil), sp.entries[k]...)
	}
	return out, nil
}

func (s *Store) AcquireLease(_ context.Context, ns, holder string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := s.space(ns)
	now := time.Now()
	if sp.leaseHolder != "" && sp.leaseHolder != holder && now.Before(sp.leaseExpires) {
		return false, nil
	}
	sp.leaseHolder = holder
	sp.leaseExpires = now.Add(ttl)
	return true, nil
}

func (s *Store) ReleaseLease(_ context.Context, ns, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp, ok := s.spaces[ns]; ok && sp.leaseHolder == holder {
		sp.leaseHolder = ""
	}
	return nil
}
