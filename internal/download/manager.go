package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/continuum-ai/continuum/internal/notify"
	"github.com/google/uuid"
)

// progressInterval is how often a running transfer reports into the
// store.
const progressInterval = 100 * time.Millisecond

var (
	ErrNotFound  = errors.New("download: not found")
	ErrNotPaused = errors.New("download: not paused")
	ErrBusy      = errors.New("download: concurrency limit reached")
)

// Manager executes resumable model downloads and reports their state
// into the Store. Transfers stream into <model>.gguf.part files and are
// renamed into place on completion, so a paused or crashed download
// resumes from the bytes already on disk via an HTTP Range request.
type Manager struct {
	store     *Store
	client    *http.Client
	notifier  notify.Notifier
	modelsDir string

	mu            sync.Mutex
	active        map[string]*task
	maxConcurrent int // 0 means unlimited
}

// task tracks a running transfer. stopAs records the user's intent
// (paused or cancelled) before the context is cancelled, so the transfer
// goroutine knows which end state to report.
type task struct {
	cancel context.CancelFunc
	stopAs Status
}

// NewManager creates a manager writing into modelsDir. client is
// typically built from the privacy guard so transfers obey the current
// data-sharing mode; nil falls back to a plain client.
func NewManager(s *Store, client *http.Client, notifier notify.Notifier, modelsDir string) (*Manager, error) {
	if client == nil {
		client = &http.Client{}
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("download: create models dir: %w", err)
	}
	return &Manager{
		store:     s,
		client:    client,
		notifier:  notifier,
		modelsDir: modelsDir,
		active:    make(map[string]*task),
	}, nil
}

// ModelsDir returns the directory completed models land in.
func (m *Manager) ModelsDir() string { return m.modelsDir }

// ModelPath returns where a completed model file lives on disk.
func (m *Manager) ModelPath(modelID string) string { return m.finalPath(modelID) }

// SetConcurrency caps simultaneous transfers. 0 means unlimited.
func (m *Manager) SetConcurrency(n int) {
	m.mu.Lock()
	m.maxConcurrent = n
	m.mu.Unlock()
}

// Start begins (or resumes, when a .part file exists) a download and
// returns its id. The transfer runs in the background and reports
// through the store; Start itself only fails on pre-flight problems
// (size probe, storage).
func (m *Manager) Start(ctx context.Context, modelID, url string) (string, error) {
	m.mu.Lock()
	atCapacity := m.maxConcurrent > 0 && len(m.active) >= m.maxConcurrent
	m.mu.Unlock()
	if atCapacity {
		// hold the intent; the shell starts queued models as slots free up
		m.store.QueueModel(modelID)
		return "", ErrBusy
	}

	downloadID := uuid.NewString()

	partPath := m.partPath(modelID)
	finalPath := m.finalPath(modelID)

	var resumeFrom uint64
	if fi, err := os.Stat(partPath); err == nil {
		resumeFrom = uint64(fi.Size())
		log.Printf("download: resuming %s from %d bytes", modelID, resumeFrom)
	}

	totalBytes, err := m.contentLength(ctx, url)
	if err != nil {
		return "", err
	}

	if totalBytes > resumeFrom {
		requiredMB := (totalBytes - resumeFrom) / (1024 * 1024)
		if check := m.CheckStorage(requiredMB); !check.HasSpace {
			body := fmt.Sprintf("%s needs %d MB more free space", modelID, check.ShortfallMB)
			if nerr := m.notifier.Notify(ctx, "Insufficient storage", body); nerr != nil {
				log.Printf("download: notify: %v", nerr)
			}
			return "", fmt.Errorf("download: insufficient storage for %s (short %d MB)", modelID, check.ShortfallMB)
		}
	}

	p := Progress{
		DownloadID:      downloadID,
		ModelID:         modelID,
		URL:             url,
		Status:          StatusDownloading,
		BytesDownloaded: resumeFrom,
		TotalBytes:      totalBytes,
		StartedAt:       time.Now(),
	}
	m.store.UpdateProgress(p)
	m.store.DequeueModel(modelID)

	// transfer outlives the caller's request context
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.mu.Lock()
	m.active[downloadID] = &task{cancel: cancel}
	m.mu.Unlock()

	go m.run(dctx, p, partPath, finalPath)

	return downloadID, nil
}

// Pause stops the transfer but keeps the .part file for a later resume.
func (m *Manager) Pause(downloadID string) error {
	return m.stop(downloadID, StatusPaused)
}

// Cancel stops the transfer and deletes any partial data. Cancelling a
// paused (not running) download works too.
func (m *Manager) Cancel(downloadID string) error {
	if err := m.stop(downloadID, StatusCancelled); err == nil {
		return nil
	}
	// no running task: maybe it is paused
	p, ok := m.store.GetDownload(downloadID)
	if !ok || p.Status.Terminal() {
		return ErrNotFound
	}
	m.removePart(p.ModelID)
	p.Status = StatusCancelled
	p.SpeedBPS = 0
	p.ETASeconds = 0
	m.store.UpdateProgress(p)
	return nil
}

// Resume restarts a paused download from its .part file. The old record
// is dropped and a new download id is issued, matching a fresh Start.
func (m *Manager) Resume(ctx context.Context, downloadID string) (string, error) {
	p, ok := m.store.GetDownload(downloadID)
	if !ok {
		return "", ErrNotFound
	}
	if p.Status != StatusPaused {
		return "", ErrNotPaused
	}
	m.store.Remove(downloadID)
	return m.Start(ctx, p.ModelID, p.URL)
}

// CheckStorage compares requiredMB against free space on the models
// volume.
func (m *Manager) CheckStorage(requiredMB uint64) StorageCheck {
	var fs syscall.Statfs_t
	availableMB := uint64(0)
	if err := syscall.Statfs(m.modelsDir, &fs); err != nil {
		log.Printf("download: statfs %s: %v", m.modelsDir, err)
	} else {
		availableMB = uint64(fs.Bavail) * uint64(fs.Bsize) / (1024 * 1024)
	}

	check := StorageCheck{
		AvailableMB: availableMB,
		RequiredMB:  requiredMB,
		HasSpace:    availableMB >= requiredMB,
	}
	if !check.HasSpace {
		check.ShortfallMB = requiredMB - availableMB
	}
	return check
}

func (m *Manager) stop(downloadID string, as Status) error {
	m.mu.Lock()
	t, ok := m.active[downloadID]
	if ok {
		t.stopAs = as
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	t.cancel()
	return nil
}

// run performs the transfer. It is the only writer for this download's
// record while running.
func (m *Manager) run(ctx context.Context, p Progress, partPath, finalPath string) {
	defer func() {
		m.mu.Lock()
		delete(m.active, p.DownloadID)
		m.mu.Unlock()
	}()

	err := m.transfer(ctx, &p, partPath, finalPath)
	if err == nil {
		p.Status = StatusCompleted
		p.BytesDownloaded = p.TotalBytes
		p.SpeedBPS = 0
		p.ETASeconds = 0
		m.store.UpdateProgress(p)
		log.Printf("download: completed %s", p.ModelID)
		if nerr := m.notifier.Notify(ctx, "Download complete", p.ModelID+" is ready to use"); nerr != nil {
			log.Printf("download: notify: %v", nerr)
		}
		return
	}

	p.SpeedBPS = 0
	p.ETASeconds = 0

	if ctx.Err() != nil {
		// user-initiated stop; the intent was recorded before cancel
		var as Status
		m.mu.Lock()
		if t := m.active[p.DownloadID]; t != nil {
			as = t.stopAs
		}
		m.mu.Unlock()
		if as == StatusCancelled {
			m.removePart(p.ModelID)
			log.Printf("download: cancelled %s", p.ModelID)
		} else {
			as = StatusPaused
			log.Printf("download: paused %s at %d bytes", p.ModelID, p.BytesDownloaded)
		}
		p.Status = as
		m.store.UpdateProgress(p)
		return
	}

	log.Printf("download: failed %s: %v", p.ModelID, err)
	p.Status = StatusFailed
	m.store.UpdateProgress(p)
	if nerr := m.notifier.Notify(ctx, "Download failed", fmt.Sprintf("%s: %v", p.ModelID, err)); nerr != nil {
		log.Printf("download: notify: %v", nerr)
	}
}

func (m *Manager) transfer(ctx context.Context, p *Progress, partPath, finalPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}
	if p.BytesDownloaded > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", p.BytesDownloaded))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("http status %d", resp.StatusCode)
	}
	// server ignored the range request: start the file over
	if p.BytesDownloaded > 0 && resp.StatusCode == http.StatusOK {
		p.BytesDownloaded = 0
		if err := os.Remove(partPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	f, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	startBytes := p.BytesDownloaded
	lastReport := time.Now()
	buf := make([]byte, 64*1024)

	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return werr
			}
			p.BytesDownloaded += uint64(n)

			if time.Since(lastReport) >= progressInterval {
				m.report(p, start, startBytes)
				lastReport = time.Now()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}

	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(partPath, finalPath)
}

func (m *Manager) report(p *Progress, start time.Time, startBytes uint64) {
	elapsed := time.Since(start).Seconds()
	if elapsed > 0 {
		p.SpeedBPS = uint64(float64(p.BytesDownloaded-startBytes) / elapsed)
	}
	if p.SpeedBPS > 0 && p.TotalBytes > p.BytesDownloaded {
		p.ETASeconds = (p.TotalBytes - p.BytesDownloaded) / p.SpeedBPS
	} else {
		p.ETASeconds = 0
	}
	m.store.UpdateProgress(*p)
}

func (m *Manager) contentLength(ctx context.Context, url string) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: size probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength < 0 {
		return 0, errors.New("download: could not determine file size")
	}
	return uint64(resp.ContentLength), nil
}

func (m *Manager) partPath(modelID string) string {
	return filepath.Join(m.modelsDir, sanitizeModelID(modelID)+".gguf.part")
}

func (m *Manager) finalPath(modelID string) string {
	return filepath.Join(m.modelsDir, sanitizeModelID(modelID)+".gguf")
}

func (m *Manager) removePart(modelID string) {
	if err := os.Remove(m.partPath(modelID)); err != nil && !os.IsNotExist(err) {
		log.Printf("download: remove part file: %v", err)
	}
}

// sanitizeModelID makes a model id safe as a file name component.
func sanitizeModelID(modelID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, modelID)
}
