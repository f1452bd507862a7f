package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrison/actuator/internal/filelock"
	"github.com/harrison/actuator/internal/models"
)

// FileStore keeps the history as JSON Lines, one record per line.
//
// Appends take an exclusive lock on "<path>.lock"; reads take a shared lock
// and only consume complete lines past the last offset, so records written
// by other processes are picked up incrementally.
type FileStore struct {
	path string

	mu      sync.Mutex
	offset  int64
	records []models.ExecutionRecord
	index   map[string]time.Time
	skipped int
	closed  bool
}

// OpenFile opens (creating if needed) the JSON Lines history at path.
// A legacy history stored as a single JSON array is converted in place.
func OpenFile(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	if err := migrateLegacy(path); err != nil {
		return nil, fmt.Errorf("migrate legacy history: %w", err)
	}

	s := &FileStore{
		path:  path,
		index: make(map[string]time.Time),
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the history file path.
func (s *FileStore) Path() string {
	return s.path
}

// Skipped returns how many unparseable lines have been ignored.
func (s *FileStore) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, rec models.ExecutionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prepare(&rec)
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal execution record: %w", err)
	}
	if err := filelock.AppendLine(s.path, line); err != nil {
		return fmt.Errorf("append execution record: %w", err)
	}

	return s.refreshLocked()
}

// Records implements Store.
func (s *FileStore) Records(ctx context.Context) ([]models.ExecutionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.refreshLocked(); err != nil {
		return nil, err
	}

	out := make([]models.ExecutionRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// RecentlyCompleted implements Store.
func (s *FileStore) RecentlyCompleted(since time.Time) (map[string]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.refreshLocked(); err != nil {
		return nil, err
	}

	out := make(map[string]time.Time)
	for summary, ts := range s.index {
		if !ts.Before(since) {
			out[summary] = ts
		}
	}
	return out, nil
}

// Close implements Store. Further calls return ErrClosed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = nil
	s.index = nil
	return nil
}

func (s *FileStore) refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked()
}

// refreshLocked consumes complete lines appended since the last read.
// Callers hold s.mu.
func (s *FileStore) refreshLocked() error {
	lock := filelock.NewFileLock(filelock.LockPath(s.path))
	if err := lock.RLock(); err != nil {
		return err
	}
	defer lock.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}
	if info.Size() < s.offset {
		// Truncated or replaced underneath us; start over.
		s.offset = 0
		s.records = nil
		s.index = make(map[string]time.Time)
		s.skipped = 0
	}
	if info.Size() == s.offset {
		return nil
	}

	if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek history: %w", err)
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// A trailing fragment without newline is an append in flight.
			return nil
		}
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		s.offset += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec models.ExecutionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			s.skipped++
			continue
		}
		s.add(rec)
	}
}

func (s *FileStore) add(rec models.ExecutionRecord) {
	s.records = append(s.records, rec)
	if !rec.Completed() || rec.InsightSummary == "" {
		return
	}
	if prev, ok := s.index[rec.InsightSummary]; !ok || rec.Timestamp.After(prev) {
		s.index[rec.InsightSummary] = rec.Timestamp
	}
}
