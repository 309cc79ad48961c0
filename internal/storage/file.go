package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "autoflow/pkg/logx"
)

// fileStore is a dependency-free persistence backend: an append-only JSON
// Lines file, one run per line.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
	f    *os.File
}

type runRecord struct {
	At      time.Time `json:"at"`
	JobID   string    `json:"job_id"`
	Name    string    `json:"name"`
	JobType string    `json:"job_type,omitempty"`
	TookMS  int64     `json:"took_ms"`
	OK      bool      `json:"ok"`
	Error   string    `json:"err,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path, f: f}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) AppendRun(ctx context.Context, e RunEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b, err := json.Marshal(runRecord{
		At:      e.At,
		JobID:   e.JobID,
		Name:    e.Name,
		JobType: e.JobType,
		TookMS:  e.TookMS,
		OK:      e.OK,
		Error:   e.Error,
	})
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ErrDisabled
	}
	_, err = s.f.Write(b)
	return err
}

// RecentRuns re-reads the journal file. The journal is append-only and small
// relative to its retention, so a full scan is acceptable here.
func (s *fileStore) RecentRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	path := s.path
	closed := s.f == nil
	s.mu.Unlock()
	if closed {
		return nil, ErrDisabled
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var all []RunEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var r runRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			// Skip torn/corrupt lines rather than failing the read.
			continue
		}
		all = append(all, RunEntry{
			At:      r.At,
			JobID:   r.JobID,
			Name:    r.Name,
			JobType: r.JobType,
			TookMS:  r.TookMS,
			OK:      r.OK,
			Error:   r.Error,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	// Newest first, like the sqlite driver.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
