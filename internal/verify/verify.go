// Package verify computes and checks SHA-256 integrity of downloaded
// model files. Hashing streams in fixed-size chunks so multi-gigabyte
// files never load into memory.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// chunkSize balances syscall overhead against memory for 2-10GB
	// model files.
	chunkSize = 8 * 1024 * 1024

	// progressThreshold: files smaller than this hash fast enough that
	// progress reporting is noise.
	progressThreshold = 500 * 1024 * 1024
)

const (
	KindFileNotFound     = "file_not_found"
	KindPermissionDenied = "permission_denied"
	KindIOError          = "io_error"
)

// Error wraps an I/O failure with a stable kind the UI can key messages
// on.
type Error struct {
	Kind string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("verify: %s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(path string, err error) *Error {
	kind := KindIOError
	switch {
	case os.IsNotExist(err):
		kind = KindFileNotFound
	case os.IsPermission(err):
		kind = KindPermissionDenied
	}
	return &Error{Kind: kind, Path: path, Err: err}
}

// Progress reports hashing progress for large files.
type Progress struct {
	BytesProcessed uint64  `json:"bytes_processed"`
	TotalBytes     uint64  `json:"total_bytes"`
	Percentage     float64 `json:"percentage"`
}

// Result is the outcome of an integrity check.
type Result struct {
	Verified     bool   `json:"verified"`
	ComputedHash string `json:"computed_hash"`
	ExpectedHash string `json:"expected_hash"`
	FileSize     int64  `json:"file_size"`
}

// Checksum returns the lowercase hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	return ChecksumWithProgress(path, nil)
}

// ChecksumWithProgress hashes the file, invoking report roughly every 5%
// for files over 500MB. report may be nil.
func ChecksumWithProgress(path string, report func(Progress)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", wrapErr(path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", wrapErr(path, err)
	}
	total := uint64(fi.Size())
	shouldReport := report != nil && total > progressThreshold

	h := sha256.New()
	buf := make([]byte, chunkSize)
	var processed uint64
	var lastPct float64

	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			processed += uint64(n)

			if shouldReport {
				pct := float64(processed) / float64(total) * 100
				if pct-lastPct >= 5 {
					report(Progress{
						BytesProcessed: processed,
						TotalBytes:     total,
						Percentage:     pct,
					})
					lastPct = pct
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", wrapErr(path, rerr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Integrity checks the file against expectedHash (hex, any case).
func Integrity(path, expectedHash string) (Result, error) {
	return IntegrityWithProgress(path, expectedHash, nil)
}

// IntegrityWithProgress is Integrity with hashing progress reporting.
func IntegrityWithProgress(path, expectedHash string, report func(Progress)) (Result, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Result{}, wrapErr(path, err)
	}

	computed, err := ChecksumWithProgress(path, report)
	if err != nil {
		return Result{}, err
	}

	expected := strings.ToLower(strings.TrimSpace(expectedHash))
	return Result{
		Verified:     computed == expected,
		ComputedHash: computed,
		ExpectedHash: expected,
		FileSize:     fi.Size(),
	}, nil
}

// Quarantine moves a corrupt file into dir and returns its new path,
// keeping the evidence around instead of deleting it.
func Quarantine(path, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", wrapErr(dir, err)
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", wrapErr(path, err)
	}
	return dest, nil
}
