// Package hardware probes system capability (RAM, CPU, storage, GPU)
// and caches the answers so UI polling doesn't re-run detection on
// every call.
package hardware

import (
	"sync"
	"time"
)

// SystemInfo describes the host the app runs on.
type SystemInfo struct {
	RAMMB              uint64 `json:"ram_mb"`
	CPUCores           int    `json:"cpu_cores"`
	StorageAvailableMB uint64 `json:"storage_available_mb"`
}

// GPUInfo describes a detected GPU. A nil *GPUInfo means no GPU.
type GPUInfo struct {
	Name           string `json:"name"`
	VRAMMB         uint64 `json:"vram_mb"`
	ComputeCapable bool   `json:"compute_capable"`
}

// Prober performs the actual detection. GPU returns (nil, nil) when no
// GPU is present; that answer is cached like any other.
type Prober interface {
	System() (SystemInfo, error)
	GPU() (*GPUInfo, error)
}

// cacheTTL keeps answers fresher than the UI's 60s polling interval.
const cacheTTL = 30 * time.Second

type cached[T any] struct {
	data T
	at   time.Time
	ok   bool
}

func (c *cached[T]) get(ttl time.Duration) (T, bool) {
	if !c.ok || time.Since(c.at) >= ttl {
		var zero T
		return zero, false
	}
	return c.data, true
}

func (c *cached[T]) set(data T) {
	c.data = data
	c.at = time.Now()
	c.ok = true
}

// Detector caches prober answers with a TTL. An expired GPU cache entry
// is distinct from a cached "no GPU" answer.
type Detector struct {
	prober Prober
	ttl    time.Duration

	mu  sync.Mutex
	sys cached[SystemInfo]
	gpu cached[*GPUInfo]
}

// Option configures a Detector.
type Option func(*Detector)

// WithTTL overrides the cache lifetime (tests use tiny values).
func WithTTL(ttl time.Duration) Option {
	return func(d *Detector) { d.ttl = ttl }
}

// NewDetector wraps prober (the platform prober when nil).
func NewDetector(prober Prober, opts ...Option) *Detector {
	if prober == nil {
		prober = platformProber{}
	}
	d := &Detector{prober: prober, ttl: cacheTTL}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// System returns cached system info, probing on miss.
func (d *Detector) System() (SystemInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if info, ok := d.sys.get(d.ttl); ok {
		return info, nil
	}
	info, err := d.prober.System()
	if err != nil {
		return SystemInfo{}, err
	}
	d.sys.set(info)
	return info, nil
}

// GPU returns cached GPU info, probing on miss. nil means no GPU.
func (d *Detector) GPU() (*GPUInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if info, ok := d.gpu.get(d.ttl); ok {
		return info, nil
	}
	info, err := d.prober.GPU()
	if err != nil {
		return nil, err
	}
	d.gpu.set(info)
	return info, nil
}

// Invalidate drops both cache entries, forcing fresh probes.
func (d *Detector) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sys.ok = false
	d.gpu.ok = false
}
