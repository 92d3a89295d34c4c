package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/continuum-ai/continuum/internal/kv"
	"github.com/continuum-ai/continuum/internal/store"
)

const (
	snapshotKey     = "sessions"
	snapshotVersion = 1
)

// State is the observable session store state.
type State struct {
	Sessions        []Session `json:"sessions"`
	ActiveSessionID string    `json:"active_session_id"`
	LastSavedAt     time.Time `json:"last_saved_at"`
	IsDirty         bool      `json:"is_dirty"`
	WasRecovered    bool      `json:"was_recovered"`
}

// persistedState is the snapshot subset written through the kv
// collaborator. Transient bookkeeping (dirty/saved/recovered flags) is
// deliberately excluded.
type persistedState struct {
	Sessions        []Session `json:"sessions"`
	ActiveSessionID string    `json:"active_session_id"`
}

// Store owns the session collection, active-session selection, and the
// auto-save/recovery bookkeeping around them.
type Store struct {
	*store.Store[State]

	kv kv.Store // nil means memory-only

	mu               sync.Mutex
	initialized      bool
	recoveredCount   int
	recoveryNotified bool
}

// NewStore creates an empty session store persisting through kvs. A nil
// kvs gives a memory-only store (used by tests and incognito shells).
func NewStore(kvs kv.Store) *Store {
	return &Store{
		Store: store.New(State{}),
		kv:    kvs,
	}
}

// Initialize loads the persisted snapshot at most once per process
// lifetime and flags the state as recovered when prior sessions exist.
// Calling it again is a no-op, so a remounting UI cannot re-trigger
// recovery side effects.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}

	var snap persistedState
	ok, err := kv.LoadSnapshot(ctx, s.kv, snapshotKey, snapshotVersion, &snap)
	if err != nil {
		return fmt.Errorf("session: load snapshot: %w", err)
	}
	if !ok || len(snap.Sessions) == 0 {
		return nil
	}

	s.mu.Lock()
	s.recoveredCount = len(snap.Sessions)
	s.mu.Unlock()

	s.Update(func(st State) State {
		st.Sessions = snap.Sessions
		st.ActiveSessionID = snap.ActiveSessionID
		st.WasRecovered = true
		st.IsDirty = false
		return st
	})
	return nil
}

// ConsumeRecoveryNotice returns the "N session(s) restored" notice the
// first time it is called after a recovery, and never again until Reset.
func (s *Store) ConsumeRecoveryNotice() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recoveryNotified || s.recoveredCount == 0 {
		return "", false
	}
	s.recoveryNotified = true

	plural := ""
	if s.recoveredCount != 1 {
		plural = "s"
	}
	return fmt.Sprintf("%d session%s restored from previous session", s.recoveredCount, plural), true
}

// Save writes the persisted subset through the kv collaborator, clears
// the dirty flag, and stamps LastSavedAt. The periodic trigger lives in
// the caller; this store only does the bookkeeping.
func (s *Store) Save(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	st := s.Get()
	snap := persistedState{
		Sessions:        st.Sessions,
		ActiveSessionID: st.ActiveSessionID,
	}
	if err := kv.SaveSnapshot(ctx, s.kv, snapshotKey, snapshotVersion, snap); err != nil {
		return fmt.Errorf("session: save snapshot: %w", err)
	}
	now := time.Now()
	s.Update(func(st State) State {
		st.IsDirty = false
		st.LastSavedAt = now
		return st
	})
	return nil
}

// CreateSession appends a new empty session, makes it active, and
// returns it. privacyMode records the data-sharing mode the session was
// created under.
func (s *Store) CreateSession(title, privacyMode string) Session {
	now := time.Now()
	sess := Session{
		ID:          NewID(),
		Title:       title,
		PrivacyMode: privacyMode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Update(func(st State) State {
		st.Sessions = append(append([]Session(nil), st.Sessions...), sess)
		st.ActiveSessionID = sess.ID
		st.IsDirty = true
		return st
	})
	return sess
}

// DeleteSession removes a session. Unknown ids are silent no-ops. When
// the active session is deleted the selection clears.
func (s *Store) DeleteSession(id string) {
	s.Update(func(st State) State {
		out := make([]Session, 0, len(st.Sessions))
		found := false
		for _, sess := range st.Sessions {
			if sess.ID == id {
				found = true
				continue
			}
			out = append(out, sess)
		}
		if !found {
			return st
		}
		st.Sessions = out
		if st.ActiveSessionID == id {
			st.ActiveSessionID = ""
		}
		st.IsDirty = true
		return st
	})
}

// SetActiveSession selects a session by id. Unknown ids are silent
// no-ops; an empty id clears the selection.
func (s *Store) SetActiveSession(id string) {
	s.Update(func(st State) State {
		if id != "" {
			if _, ok := findSession(st.Sessions, id); !ok {
				return st
			}
		}
		st.ActiveSessionID = id
		return st
	})
}

// RenameSession retitles a session. Unknown ids are silent no-ops.
func (s *Store) RenameSession(id, title string) {
	s.mutateSession(id, func(sess *Session) {
		sess.Title = title
	})
}

// AppendMessage adds a message to a session's history and returns it.
// The second return is false when the session does not exist.
func (s *Store) AppendMessage(sessionID string, role Role, content string) (Message, bool) {
	msg := Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	ok := s.mutateSession(sessionID, func(sess *Session) {
		sess.Messages = append(append([]Message(nil), sess.Messages...), msg)
	})
	if !ok {
		return Message{}, false
	}
	return msg, true
}

// SummarizeSession replaces every message except the keepRecent newest
// with a single system placeholder, reclaiming context budget. It is a
// no-op unless at least two messages would be condensed.
func (s *Store) SummarizeSession(id string, keepRecent int) bool {
	if keepRecent < 0 {
		keepRecent = 0
	}
	return s.mutateSession(id, func(sess *Session) {
		condensed := len(sess.Messages) - keepRecent
		if condensed < 2 {
			return
		}
		placeholder := Message{
			ID:        NewID(),
			Role:      RoleSystem,
			Content:   fmt.Sprintf("[Summary of %d earlier messages]", condensed),
			Timestamp: time.Now(),
		}
		rest := sess.Messages[len(sess.Messages)-keepRecent:]
		sess.Messages = append([]Message{placeholder}, append([]Message(nil), rest...)...)
	})
}

// ActiveHealth computes context health for the active session. The zero
// record comes back when nothing is selected.
func (s *Store) ActiveHealth(maxContextLength int) ContextHealth {
	st := s.Get()
	idx, ok := findSession(st.Sessions, st.ActiveSessionID)
	if !ok {
		return ComputeHealth(0, maxContextLength, 0)
	}
	sess := st.Sessions[idx]
	return ComputeHealth(EstimateTokens(sess.Messages), maxContextLength, len(sess.Messages))
}

// Reset restores the fresh-process state, including the one-shot
// initialization and recovery-notice flags. Exposed for tests.
func (s *Store) Reset() {
	s.mu.Lock()
	s.initialized = false
	s.recoveredCount = 0
	s.recoveryNotified = false
	s.mu.Unlock()
	s.Store.Reset()
}

// mutateSession copies the session list, applies fn to the matching
// session, and stamps UpdatedAt/IsDirty. Returns false on unknown id.
func (s *Store) mutateSession(id string, fn func(*Session)) bool {
	found := false
	s.Update(func(st State) State {
		idx, ok := findSession(st.Sessions, id)
		if !ok {
			return st
		}
		found = true
		out := append([]Session(nil), st.Sessions...)
		fn(&out[idx])
		out[idx].UpdatedAt = time.Now()
		st.Sessions = out
		st.IsDirty = true
		return st
	})
	return found
}

func findSession(sessions []Session, id string) (int, bool) {
	for i, s := range sessions {
		if s.ID == id {
			return i, true
		}
	}
	return 0, false
}
