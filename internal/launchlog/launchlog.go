// Package launchlog writes the per-instance launcher log: every stage
// transition and every line of game stdout/stderr, timestamped and appended
// across runs rather than truncated.
package launchlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the log file name within the directory passed to Open.
const FileName = "last_launch.log"

// Writer appends timestamped lines to an instance's launcher log. Safe for
// concurrent use by the stdout and stderr streaming goroutines.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if needed) the launcher log under dir, positioned at
// end-of-file so successive launches accumulate rather than overwrite.
func Open(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening launcher log: %w", err)
	}

	return &Writer{file: f}, nil
}

// Line appends a single timestamped line.
func (w *Writer) Line(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.file, "[%s] %s\n", time.Now().Format(time.RFC3339), line)
}

// Stagef appends a timestamped stage-transition marker.
func (w *Writer) Stagef(format string, args ...interface{}) {
	w.Line("=== " + fmt.Sprintf(format, args...) + " ===")
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
