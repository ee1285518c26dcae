// Package download handles parallel file downloads with progress tracking.
// Every destination is written via a write-.part/fsync/rename sequence so
// no partial file is ever visible under its final name.
package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
)

// ErrHashMismatch is wrapped into FetchOne's returned error when the
// downloaded bytes don't match the expected SHA1, so callers that need to
// treat a tamper failure differently from a network failure (client jar
// acquisition in particular) can detect it with errors.Is.
var ErrHashMismatch = errors.New("hash mismatch")

// Item represents a single download item
type Item struct {
	URL      string
	Path     string // Local destination path
	SHA1     string // Expected SHA1 hash (optional)
	Size     int64  // Expected size in bytes
	Priority int    // Higher = download first
}

// Progress tracks download progress
type Progress struct {
	TotalBytes      int64
	DownloadedBytes int64
	TotalItems      int
	CompletedItems  int
	CurrentItem     string
	Speed           float64 // bytes per second
}

// Manager handles parallel downloads, bounded to workerCount concurrent
// fetches via a buffered-channel token (the teacher's worker-pool idiom),
// with per-item errors aggregated through errgroup instead of a manually
// guarded slice.
type Manager struct {
	httpClient     *http.Client
	workerCount    int
	requestTimeout time.Duration

	mu              sync.RWMutex
	progress        Progress
	downloadedBytes int64
}

// NewManager creates a new download manager with the teacher's default
// retry policy: 3 attempts, linear backoff, silenced logging.
func NewManager(workerCount int) *Manager {
	if workerCount <= 0 {
		workerCount = 4
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2 // 3 attempts in total
	retryClient.Backoff = retryablehttp.LinearJitterBackoff
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	retryClient.HTTPClient.Transport = &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	retryClient.HTTPClient.Timeout = 5 * time.Minute

	return &Manager{
		httpClient:     retryClient.StandardClient(),
		workerCount:    workerCount,
		requestTimeout: 60 * time.Second,
	}
}

// WithRequestTimeout overrides the timeout applied to each item's fetch (60
// seconds for asset objects; other stages use this same knob with their own
// value). One timeout covers all retry attempts of an item and the copy of
// its body; attempts do not get a timeout of their own.
func (m *Manager) WithRequestTimeout(d time.Duration) *Manager {
	m.requestTimeout = d
	return m
}

// Result contains the outcome of a download batch
type Result struct {
	Completed int
	Failed    int
	Errors    []error
}

// Download downloads all items and returns progress on the channel
func (m *Manager) Download(ctx context.Context, items []Item, progressChan chan<- Progress) (*Result, error) {
	if len(items) == 0 {
		return &Result{}, nil
	}

	var totalSize int64
	for _, item := range items {
		totalSize += item.Size
	}

	m.mu.Lock()
	m.progress = Progress{TotalBytes: totalSize, TotalItems: len(items)}
	m.downloadedBytes = 0
	m.mu.Unlock()

	var (
		completed int64
		failed    int64
		errMu     sync.Mutex
		errs      []error
	)

	progressDone := make(chan struct{})
	stopProgress := make(chan struct{})
	if progressChan != nil {
		go func() {
			defer close(progressDone)
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()

			var lastBytes int64
			lastTime := time.Now()

			for {
				select {
				case <-ctx.Done():
					return
				case <-stopProgress:
					return
				case <-ticker.C:
					m.mu.RLock()
					p := m.progress
					m.mu.RUnlock()
					currentBytes := atomic.LoadInt64(&m.downloadedBytes)

					now := time.Now()
					if elapsed := now.Sub(lastTime).Seconds(); elapsed > 0 {
						p.Speed = float64(currentBytes-lastBytes) / elapsed
						lastBytes = currentBytes
						lastTime = now
					}
					p.DownloadedBytes = currentBytes
					p.CompletedItems = int(atomic.LoadInt64(&completed))

					select {
					case progressChan <- p:
					default:
					}
				}
			}
		}()
	} else {
		close(progressDone)
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, m.workerCount)

	for _, item := range items {
		item := item
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()

			select {
			case <-gctx.Done():
				return nil
			default:
			}

			m.mu.Lock()
			m.progress.CurrentItem = filepath.Base(item.Path)
			m.mu.Unlock()

			if err := m.FetchOne(gctx, item); err != nil {
				atomic.AddInt64(&failed, 1)
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", item.URL, err))
				errMu.Unlock()
				return nil // collect every failure; don't short-circuit the batch
			}
			atomic.AddInt64(&completed, 1)
			return nil
		})
	}

	_ = g.Wait()
	close(stopProgress)
	<-progressDone

	return &Result{
		Completed: int(completed),
		Failed:    int(failed),
		Errors:    errs,
	}, nil
}

// FetchOne fetches a single item to its destination via a write-.part,
// fsync, rename sequence. A pre-existing file whose sha1 already matches is
// counted as complete without a network call.
func (m *Manager) FetchOne(ctx context.Context, item Item) error {
	if item.SHA1 != "" {
		if hash, err := hashFile(item.Path); err == nil && strings.EqualFold(hash, item.SHA1) {
			atomic.AddInt64(&m.downloadedBytes, item.Size)
			return nil
		}
	} else if _, err := os.Stat(item.Path); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(item.Path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if m.requestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, m.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, item.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	partPath := item.Path + ".part"
	f, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	hasher := sha1.New()
	writer := io.MultiWriter(f, hasher)

	n, err := io.Copy(writer, resp.Body)
	if err != nil {
		f.Close()
		os.Remove(partPath)
		return fmt.Errorf("writing file: %w", err)
	}
	atomic.AddInt64(&m.downloadedBytes, n)

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(partPath)
		return fmt.Errorf("syncing file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if item.SHA1 != "" {
		hash := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(hash, item.SHA1) {
			os.Remove(partPath)
			return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, item.SHA1, hash)
		}
	}

	if err := os.Rename(partPath, item.Path); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}

// hashFile computes SHA1 of a file
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// FormatSpeed formats download speed for display
func FormatSpeed(bytesPerSec float64) string {
	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}
