// Package visitlog records which portals visitors walk through.
package visitlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nise/internal/proximity"
)

// Visit is one portal entry.
type Visit struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Kind      proximity.Kind `json:"kind"`
	ID        string         `json:"id"`
	Client    string         `json:"client"`
}

// Store persists visits.
type Store interface {
	Record(v Visit) error
	// Recent returns up to n visits, newest first.
	Recent(n int) ([]Visit, error)
	Close() error
}

// FileStore appends visits as JSON lines.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store writing to path. The parent directory is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the JSONL file location.
func (s *FileStore) Path() string { return s.path }

// Record appends v as a single JSON line.
func (s *FileStore) Record(v Visit) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal visit: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create visit log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open visit log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write visit: %w", err)
	}
	return nil
}

// Recent reads the whole file and returns the last n entries, newest first.
// Lines that fail to decode are skipped.
func (s *FileStore) Recent(n int) ([]Visit, error) {
	if n <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open visit log: %w", err)
	}
	defer f.Close()

	var all []Visit
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var v Visit
		if json.Unmarshal(sc.Bytes(), &v) == nil {
			all = append(all, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read visit log: %w", err)
	}
	out := make([]Visit, 0, min(n, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Close is a no-op; the file is opened per write.
func (s *FileStore) Close() error { return nil }

// DataDir returns $XDG_DATA_HOME/nise, defaulting to ~/.local/share/nise.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "nise"), nil
}

// DefaultPath is visits.jsonl under DataDir.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "visits.jsonl"), nil
}

// FromEnv selects a store the way the servers are configured: DB_TYPE=postgres
// uses DATABASE_URL, anything else the JSONL file at VISITS_FILE or
// DefaultPath.
func FromEnv() (Store, error) {
	if os.Getenv("DB_TYPE") == "postgres" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			dsn = DefaultDSN
		}
		s, err := NewPostgresStore(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	path := os.Getenv("VISITS_FILE")
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("visit log path: %w", err)
		}
		path = p
	}
	return NewFileStore(path), nil
}

// Recorder turns proximity events into visits. Only portal events are kept.
// Store failures are logged and never interrupt the caller.
type Recorder struct {
	Store  Store
	Level  string
	Client string
	Log    *slog.Logger
	Now    func() time.Time
}

// Observe records ev if it is a portal entry. It has the signature of a
// scene proximity listener.
func (r *Recorder) Observe(ev proximity.Event) {
	if r == nil || r.Store == nil || ev.Kind != proximity.KindPortal {
		return
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	v := Visit{Timestamp: now().UTC(), Level: r.Level, Kind: ev.Kind, ID: ev.ID, Client: r.Client}
	if err := r.Store.Record(v); err != nil {
		log := r.Log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("visit log: record failed", "id", ev.ID, "error", err)
	}
}
