package store

import (
	"errors"
	"log"
	"sync"
	"time"

	"RentScope/internal/model"
)

// ErrNoDataset is returned before the first successful load.
var ErrNoDataset = errors.New("no dataset loaded")

// Manager holds the current dataset snapshot with concurrency safety.
// Snapshots are immutable; a refresh swaps the pointer.
type Manager struct {
	mu       sync.RWMutex
	current  *model.Dataset
	state    *State
	filePath string
}

// NewManager creates a Manager, loading refresh history from disk.
// An empty filePath disables persistence.
func NewManager(filePath string) (*Manager, error) {
	state := &State{}
	if filePath != "" {
		var err error
		state, err = LoadState(filePath)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// Current returns the active dataset.
func (m *Manager) Current() (*model.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, ErrNoDataset
	}
	return m.current, nil
}

// Replace installs a freshly loaded dataset.
func (m *Manager) Replace(ds *model.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = ds
	info := ds.Info()
	m.state.Current = &info
	m.state.LastError = ""
	m.state.LastAttemptAt = time.Now()
	m.state.RefreshCount++

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save dataset state: %v", err)
	}
}

// RecordFailure notes a failed refresh. The current dataset stays active.
func (m *Manager) RecordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastError = err.Error()
	m.state.LastAttemptAt = time.Now()
	m.state.FailedRefreshes++

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save dataset state: %v", err)
	}
}

// GetState returns a copy of the refresh state.
func (m *Manager) GetState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := *m.state
	if s.Current != nil {
		info := *s.Current
		s.Current = &info
	}
	return s
}

// save persists state. Caller must hold mu.
func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
