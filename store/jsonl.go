// Package store persists collection increments to an append-only JSONL file.
// Append-only semantics are the crash-safety contract: a fault mid-write can
// at worst corrupt the final line, never previously written increments.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"

	"github.com/use-agent/pricepivot/models"
)

// JSONLLog appends ProductRecords to a newline-delimited JSON file.
// It is safe for concurrent use.
type JSONLLog struct {
	path string
	mu   sync.Mutex
}

// NewJSONLLog creates the log's parent directory and returns a log handle.
// The file itself is created lazily on first append.
func NewJSONLLog(path string) (*JSONLLog, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory %q: %w", dir, err)
		}
	}
	return &JSONLLog{path: path}, nil
}

// Filename builds the canonical increment log filename for a category/source
// pair.
func Filename(category string, source models.Source) string {
	return fmt.Sprintf("%s_%s.jsonl", sanitize(category), sanitize(string(source)))
}

// DefaultPath resolves the per-run increment log location under the user
// data directory.
func DefaultPath(category string, source models.Source) (string, error) {
	path, err := xdg.DataFile(filepath.Join("pricepivot", Filename(category, source)))
	if err != nil {
		return "", fmt.Errorf("store: resolve data path: %w", err)
	}
	return path, nil
}

// Path returns the backing file path.
func (l *JSONLLog) Path() string {
	return l.path
}

// Append writes the records as one increment. Each record is one JSON line;
// the file is synced before returning so a crash immediately after Append
// cannot lose the increment.
func (l *JSONLLog) Append(records []*models.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", l.path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("store: encode record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("store: flush %s: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("store: sync %s: %w", l.path, err)
	}
	return nil
}

// ReadAll loads every persisted record in append order. A torn final line
// (crash mid-write) is skipped with a warning rather than failing the whole
// recovery.
func (l *JSONLLog) ReadAll() ([]*models.ProductRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: open %s: %w", l.path, err)
	}
	defer f.Close()

	var records []*models.ProductRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec models.ProductRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			slog.Warn("store: skipping malformed log line",
				"path", l.path, "line", line, "error", err)
			continue
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("store: read %s: %w", l.path, err)
	}
	return records, nil
}

// Clear removes the backing file. Used when starting a fresh run over a path
// that may hold a previous run's increments.
func (l *JSONLLog) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: remove %s: %w", l.path, err)
	}
	return nil
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r >= 'а' && r <= 'я':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
