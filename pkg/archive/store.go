// Package archive keeps a record of finished sessions: the turns taken, what
// the user said and how each intent was routed.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("archive: session not found")

// Turn is one detected intent and its routing result.
type Turn struct {
	At         time.Time `json:"at"`
	Scene      int       `json:"scene"`
	Intent     string    `json:"intent,omitempty"`
	Confidence string    `json:"confidence,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Matched    bool      `json:"matched"`
	Actions    int       `json:"actions"`
}

// Record is one archived session.
type Record struct {
	SessionID     string    `json:"session_id"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	FinalScene    int       `json:"final_scene"`
	Terminated    bool      `json:"terminated"`
	Error         string    `json:"error,omitempty"`
	FailedActions int       `json:"failed_actions"`
	Turns         []Turn    `json:"turns"`
}

// Duration returns how long the session ran.
func (r *Record) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Store persists session records.
type Store interface {
	// Save creates or replaces the record with the same session ID.
	Save(r *Record) error

	// Get returns a record by session ID or a unique ID prefix.
	Get(id string) (*Record, error)

	// List returns all records, newest first.
	List() ([]*Record, error)

	Count() int
}

// JSONStore implements Store using a JSON file.
type JSONStore struct {
	path    string
	records map[string]*Record
	mu      sync.RWMutex
}

type storeData struct {
	Version   int       `json:"version"`
	UpdatedAt string    `json:"updated_at"`
	Sessions  []*Record `json:"sessions"`
}

const currentVersion = 1

// NewJSONStore opens the store at path. The file is created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:    path,
		records: make(map[string]*Record),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("archive: create directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("archive: read %s: %w", s.path, err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("archive: parse %s: %w", s.path, err)
	}
	for _, r := range stored.Sessions {
		s.records[r.SessionID] = r
	}
	return nil
}

// save writes the whole store through a temp file and rename.
func (s *JSONStore) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  s.sorted(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("archive: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("archive: write: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *JSONStore) Save(r *Record) error {
	if r.SessionID == "" {
		return errors.New("archive: record has no session ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.SessionID] = r
	return s.save()
}

// Get implements Store.
func (s *JSONStore) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[id]; ok {
		return r, nil
	}

	var match *Record
	for sid, r := range s.records {
		if id == "" || !strings.HasPrefix(sid, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("archive: ambiguous session prefix %q", id)
		}
		match = r
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// List implements Store.
func (s *JSONStore) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

// Count implements Store.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// sorted returns the records newest first. Callers hold the lock.
func (s *JSONStore) sorted() []*Record {
	records := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records
}

var _ Store = (*JSONStore)(nil)
