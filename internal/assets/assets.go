// Package assets downloads the asset index and the asset objects it
// references, fanned out with bounded parallelism.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/quasar/mctui/internal/download"
)

// BaseURL is the Mojang resources CDN asset objects are fetched from.
const BaseURL = "https://resources.download.minecraft.net"

// Parallelism is the bounded concurrent-request cap for the asset object
// fan-out.
const Parallelism = 8

// requestTimeout is the per-request timeout for each object fetch.
const requestTimeout = 60 * time.Second

// progressEvery and logEvery are the coarse-grained emission cadences: a
// progress update every 50 completions (and always on the final one), and a
// log line every 500.
const (
	progressEvery = 50
	logEvery      = 500
)

// Index is the asset index JSON: a logical path to {hash}.
type Index struct {
	Objects map[string]struct {
		Hash string `json:"hash"`
		Size int64  `json:"size"`
	} `json:"objects"`
}

// ParseIndex decodes a downloaded asset index document.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing asset index: %w", err)
	}
	return &idx, nil
}

// ObjectsDir is the content-addressed object root under an assets
// directory: objects/<hash[0..2]>/<hash>.
func ObjectsDir(assetsDir string) string {
	return filepath.Join(assetsDir, "objects")
}

// BuildItems enumerates unique (url, dest) pairs for every object in the
// index, deduplicated by destination since multiple logical paths can share
// a hash.
func BuildItems(idx *Index, baseURL, assetsDir string) []download.Item {
	objectsDir := ObjectsDir(assetsDir)
	seen := make(map[string]bool)
	var items []download.Item

	for _, obj := range idx.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		prefix := obj.Hash[:2]
		dest := filepath.Join(objectsDir, prefix, obj.Hash)
		if seen[dest] {
			continue
		}
		seen[dest] = true

		items = append(items, download.Item{
			URL:  fmt.Sprintf("%s/%s/%s", baseURL, prefix, obj.Hash),
			Path: dest,
			Size: obj.Size,
		})
	}

	return items
}

// ProgressFunc receives (completed, total) at the cadence described above.
type ProgressFunc func(completed, total int)

// Fetch downloads every item with Parallelism-bounded fan-out, up to 3
// attempts per object (the manager's default retry policy) and a 60-second
// timeout per object spanning its attempts, reporting progress via onProgress
// each time another 50
// completions are reached and always on the last one, and a log line each
// time another 500 are reached.
func Fetch(ctx context.Context, items []download.Item, onProgress ProgressFunc) *download.Result {
	if len(items) == 0 {
		return &download.Result{}
	}

	mgr := download.NewManager(Parallelism).WithRequestTimeout(requestTimeout)

	progressChan := make(chan download.Progress, 32)
	done := make(chan struct{})
	total := len(items)

	go func() {
		defer close(done)
		lastReported := -1
		for p := range progressChan {
			if p.CompletedItems == lastReported {
				continue
			}
			prev := lastReported
			lastReported = p.CompletedItems

			// Progress is sampled, so compare buckets rather than testing
			// for an exact multiple that a sample may skip over.
			if onProgress != nil && (p.CompletedItems/progressEvery > prev/progressEvery || p.CompletedItems == total) {
				onProgress(p.CompletedItems, total)
			}
			if p.CompletedItems/logEvery > prev/logEvery {
				log.Printf("assets: %d/%d objects fetched", p.CompletedItems, total)
			}
		}
	}()

	result, _ := mgr.Download(ctx, items, progressChan)
	close(progressChan)
	<-done

	if onProgress != nil {
		onProgress(result.Completed, total)
	}

	return result
}
