// Package download tracks model downloads through their lifecycle and
// runs the resumable transfers that feed it.
//
// Lifecycle: queued -> downloading -> {completed | failed | cancelled},
// with downloading <-> paused while active. The three end states are
// terminal. Progress state is memory-only and does not survive a
// restart; partial transfer data lives in .part files instead.
package download

import "time"

type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Progress is the full reported state of one download. Updates replace
// the whole record (last write wins, no field merge).
type Progress struct {
	DownloadID      string    `json:"download_id"`
	ModelID         string    `json:"model_id"`
	URL             string    `json:"url,omitempty"`
	Status          Status    `json:"status"`
	BytesDownloaded uint64    `json:"bytes_downloaded"`
	TotalBytes      uint64    `json:"total_bytes"`
	SpeedBPS        uint64    `json:"speed_bps"`
	ETASeconds      uint64    `json:"eta_seconds"`
	StartedAt       time.Time `json:"started_at"`
}

// StorageCheck reports whether the models volume can hold a download.
type StorageCheck struct {
	HasSpace    bool   `json:"has_space"`
	AvailableMB uint64 `json:"available_mb"`
	RequiredMB  uint64 `json:"required_mb"`
	ShortfallMB uint64 `json:"shortfall_mb"`
}
