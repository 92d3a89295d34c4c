// Package privacy holds the data-sharing mode, the in-memory network
// activity log, and the HTTP guard that enforces the mode. Nothing in
// this package is ever persisted: a fresh process always starts in the
// most restrictive mode with an empty log.
package privacy

import (
	"fmt"
	"time"

	"github.com/continuum-ai/continuum/internal/store"
	"github.com/google/uuid"
)

type Mode string

const (
	ModeLocalOnly      Mode = "local-only"
	ModeTrustedNetwork Mode = "trusted-network"
	ModeCloudEnhanced  Mode = "cloud-enhanced"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeLocalOnly, ModeTrustedNetwork, ModeCloudEnhanced:
		return true
	}
	return false
}

type EntryType string

const (
	EntryFetch       EntryType = "fetch"
	EntryXHR         EntryType = "xhr"
	EntryWebSocket   EntryType = "websocket"
	EntryEventSource EntryType = "eventsource"
)

// LogEntry records one outbound network attempt and whether the current
// mode blocked it.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EntryType `json:"type"`
	URL       string    `json:"url"`
	Blocked   bool      `json:"blocked"`
	Reason    string    `json:"reason,omitempty"`
}

// maxLogEntries caps the network log; the oldest entries are silently
// dropped past this.
const maxLogEntries = 1000

// State is the observable privacy store state. NetworkLog is
// newest-first.
type State struct {
	Mode            Mode       `json:"mode"`
	DerivationKey   string     `json:"derivation_key"`
	NetworkLog      []LogEntry `json:"network_log"`
	IsDashboardOpen bool       `json:"is_dashboard_open"`
}

type Store struct {
	*store.Store[State]
}

// NewStore starts in local-only mode. That default is a policy
// invariant, not a preference: every fresh process begins fully local.
func NewStore() *Store {
	return &Store{Store: store.New(State{
		Mode:          ModeLocalOnly,
		DerivationKey: derivationKey(ModeLocalOnly, time.Now()),
	})}
}

// SetMode overwrites the mode unconditionally and rotates the derivation
// key so mode-scoped subtrees remount.
func (s *Store) SetMode(mode Mode) {
	key := derivationKey(mode, time.Now())
	s.Update(func(st State) State {
		st.Mode = mode
		st.DerivationKey = key
		return st
	})
}

// Mode returns the current data-sharing mode.
func (s *Store) Mode() Mode { return s.Get().Mode }

// LogNetworkAttempt stamps entry with an id and timestamp, prepends it,
// and truncates the log to the newest maxLogEntries.
func (s *Store) LogNetworkAttempt(entry LogEntry) LogEntry {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now()
	s.Update(func(st State) State {
		log := make([]LogEntry, 0, len(st.NetworkLog)+1)
		log = append(log, entry)
		log = append(log, st.NetworkLog...)
		if len(log) > maxLogEntries {
			log = log[:maxLogEntries]
		}
		st.NetworkLog = log
		return st
	})
	return entry
}

// ClearNetworkLog empties the log.
func (s *Store) ClearNetworkLog() {
	s.Update(func(st State) State {
		st.NetworkLog = nil
		return st
	})
}

func (s *Store) OpenDashboard() {
	s.Update(func(st State) State {
		st.IsDashboardOpen = true
		return st
	})
}

func (s *Store) CloseDashboard() {
	s.Update(func(st State) State {
		st.IsDashboardOpen = false
		return st
	})
}

func (s *Store) ToggleDashboard() {
	s.Update(func(st State) State {
		st.IsDashboardOpen = !st.IsDashboardOpen
		return st
	})
}

func derivationKey(mode Mode, at time.Time) string {
	return fmt.Sprintf("%s-%d", mode, at.UnixNano())
}
