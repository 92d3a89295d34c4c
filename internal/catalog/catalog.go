// Package catalog holds the downloadable model registry: where each
// model lives, its expected checksum, and whether it is installed
// locally. Unlike download progress, the catalog survives restarts.
package catalog

import (
	"context"
	"fmt"

	"github.com/continuum-ai/continuum/internal/kv"
	"github.com/continuum-ai/continuum/internal/store"
)

const (
	snapshotKey     = "catalog"
	snapshotVersion = 1
)

// Model is one catalog entry. SHA256 is the expected digest used by the
// verification step after download.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	SHA256        string `json:"sha256"`
	SizeMB        uint64 `json:"size_mb"`
	ContextLength int    `json:"context_length"`
	Installed     bool   `json:"installed"`
}

// State is the observable catalog state; Order preserves insertion
// order for stable listings.
type State struct {
	Models map[string]Model `json:"models"`
	Order  []string         `json:"order"`
}

type Store struct {
	*store.Store[State]
	kv kv.Store // nil means memory-only
}

func NewStore(kvs kv.Store) *Store {
	return &Store{Store: store.New(State{}), kv: kvs}
}

// Put upserts a model by id.
func (s *Store) Put(m Model) {
	s.Update(func(st State) State {
		models := make(map[string]Model, len(st.Models)+1)
		for k, v := range st.Models {
			models[k] = v
		}
		if _, exists := models[m.ID]; !exists {
			st.Order = append(append([]string(nil), st.Order...), m.ID)
		}
		models[m.ID] = m
		st.Models = models
		return st
	})
}

// Lookup returns a model by id.
func (s *Store) Lookup(id string) (Model, bool) {
	m, ok := s.Store.Get().Models[id]
	return m, ok
}

// List returns models in insertion order.
func (s *Store) List() []Model {
	st := s.Store.Get()
	out := make([]Model, 0, len(st.Order))
	for _, id := range st.Order {
		if m, ok := st.Models[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// SetInstalled flags a model as present (or not) on disk. Unknown ids
// are silent no-ops.
func (s *Store) SetInstalled(id string, installed bool) {
	s.Update(func(st State) State {
		m, ok := st.Models[id]
		if !ok {
			return st
		}
		models := make(map[string]Model, len(st.Models))
		for k, v := range st.Models {
			models[k] = v
		}
		m.Installed = installed
		models[id] = m
		st.Models = models
		return st
	})
}

// Load restores the persisted catalog snapshot, if any.
func (s *Store) Load(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	var st State
	ok, err := kv.LoadSnapshot(ctx, s.kv, snapshotKey, snapshotVersion, &st)
	if err != nil {
		return fmt.Errorf("catalog: load snapshot: %w", err)
	}
	if ok {
		s.Set(st)
	}
	return nil
}

// Save persists the catalog through the kv collaborator.
func (s *Store) Save(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	if err := kv.SaveSnapshot(ctx, s.kv, snapshotKey, snapshotVersion, s.Store.Get()); err != nil {
		return fmt.Errorf("catalog: save snapshot: %w", err)
	}
	return nil
}
