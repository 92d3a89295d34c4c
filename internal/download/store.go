package download

import (
	"slices"

	"github.com/continuum-ai/continuum/internal/store"
)

// State is the observable download store state. Order preserves record
// insertion order; Queue is the ordered, duplicate-free set of model ids
// waiting to start.
type State struct {
	Downloads map[string]Progress `json:"downloads"`
	Order     []string            `json:"order"`
	Queue     []string            `json:"queue"`
}

type Store struct {
	*store.Store[State]
}

func NewStore() *Store {
	return &Store{Store: store.New(State{})}
}

// UpdateProgress upserts the record keyed by DownloadID. The stored
// record is replaced wholesale; the reporter owns every field.
func (s *Store) UpdateProgress(p Progress) {
	s.Update(func(st State) State {
		downloads := copyDownloads(st.Downloads)
		if _, exists := downloads[p.DownloadID]; !exists {
			st.Order = append(append([]string(nil), st.Order...), p.DownloadID)
		}
		downloads[p.DownloadID] = p
		st.Downloads = downloads
		return st
	})
}

// SetStatus transitions an existing record. Unknown ids and transitions
// out of a terminal state are silent no-ops: a user cancelling a
// download that just completed must not crash anything.
func (s *Store) SetStatus(downloadID string, status Status) {
	s.Update(func(st State) State {
		p, ok := st.Downloads[downloadID]
		if !ok || p.Status.Terminal() {
			return st
		}
		downloads := copyDownloads(st.Downloads)
		p.Status = status
		downloads[downloadID] = p
		st.Downloads = downloads
		return st
	})
}

// Remove deletes a record outright. Unknown ids are silent no-ops.
func (s *Store) Remove(downloadID string) {
	s.Update(func(st State) State {
		if _, ok := st.Downloads[downloadID]; !ok {
			return st
		}
		downloads := copyDownloads(st.Downloads)
		delete(downloads, downloadID)
		st.Downloads = downloads
		order := make([]string, 0, len(st.Order))
		for _, id := range st.Order {
			if id != downloadID {
				order = append(order, id)
			}
		}
		st.Order = order
		return st
	})
}

// QueueModel appends modelID to the waiting queue; re-queueing an
// already-queued id is a no-op.
func (s *Store) QueueModel(modelID string) {
	s.Update(func(st State) State {
		if slices.Contains(st.Queue, modelID) {
			return st
		}
		st.Queue = append(append([]string(nil), st.Queue...), modelID)
		return st
	})
}

// DequeueModel removes modelID from the waiting queue if present.
func (s *Store) DequeueModel(modelID string) {
	s.Update(func(st State) State {
		if !slices.Contains(st.Queue, modelID) {
			return st
		}
		queue := make([]string, 0, len(st.Queue)-1)
		for _, id := range st.Queue {
			if id != modelID {
				queue = append(queue, id)
			}
		}
		st.Queue = queue
		return st
	})
}

// ClearFinished drops every record in a terminal state and keeps the
// rest untouched.
func (s *Store) ClearFinished() {
	s.Update(func(st State) State {
		downloads := make(map[string]Progress, len(st.Downloads))
		order := make([]string, 0, len(st.Order))
		for _, id := range st.Order {
			p := st.Downloads[id]
			if p.Status.Terminal() {
				continue
			}
			downloads[id] = p
			order = append(order, id)
		}
		st.Downloads = downloads
		st.Order = order
		return st
	})
}

// GetDownload returns the record for a download id.
func (s *Store) GetDownload(downloadID string) (Progress, bool) {
	p, ok := s.Get().Downloads[downloadID]
	return p, ok
}

// GetByModelID returns the first record for modelID in insertion order.
// Duplicate model ids are possible; the oldest record wins.
func (s *Store) GetByModelID(modelID string) (Progress, bool) {
	st := s.Get()
	for _, id := range st.Order {
		if p, ok := st.Downloads[id]; ok && p.ModelID == modelID {
			return p, true
		}
	}
	return Progress{}, false
}

// ActiveDownloads returns non-terminal records in insertion order.
func (s *Store) ActiveDownloads() []Progress {
	st := s.Get()
	var out []Progress
	for _, id := range st.Order {
		if p, ok := st.Downloads[id]; ok && !p.Status.Terminal() {
			out = append(out, p)
		}
	}
	return out
}

// IsModelDownloading reports whether modelID has a record that is
// downloading or queued. Paused and finished records do not count.
func (s *Store) IsModelDownloading(modelID string) bool {
	st := s.Get()
	for _, p := range st.Downloads {
		if p.ModelID == modelID && (p.Status == StatusDownloading || p.Status == StatusQueued) {
			return true
		}
	}
	return false
}

func copyDownloads(in map[string]Progress) map[string]Progress {
	out := make(map[string]Progress, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
