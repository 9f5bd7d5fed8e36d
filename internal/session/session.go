package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TabState stores a single tab
type TabState struct {
	Title  string `json:"title"`
	Path   string `json:"path,omitempty"`
	Pinned bool   `json:"pinned,omitempty"`
	Group  int    `json:"group,omitempty"` // index into WindowState.Groups plus one; 0 is ungrouped
	Active bool   `json:"active,omitempty"`
}

// GroupState stores display attributes of a group
type GroupState struct {
	Title     string `json:"title,omitempty"`
	Color     string `json:"color,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty"`
}

// WindowState stores one window's strip in order
type WindowState struct {
	Tabs    []TabState   `json:"tabs"`
	Groups  []GroupState `json:"groups,omitempty"`
	Focused bool         `json:"focused,omitempty"`
}

// State is the persisted arrangement of all windows
type State struct {
	Windows []WindowState `json:"windows"`
	Recent  []string      `json:"recent,omitempty"` // MRU paths, most recent first
}

// Session stores the complete session
type Session struct {
	State     State     `json:"state"`
	LastSaved time.Time `json:"last_saved"`
}

// Manager handles session persistence
type Manager struct {
	mu       sync.RWMutex
	session  Session
	path     string
	dirty    bool
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager backed by the default state file
func NewManager() (*Manager, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	return Open(path, 15*time.Second), nil
}

// Open loads the session at path and starts autosaving every interval.
func Open(path string, interval time.Duration) *Manager {
	m := &Manager{
		path:     path,
		interval: interval,
		stopChan: make(chan struct{}),
	}
	m.load()
	go m.autosaveLoop()
	return m
}

func sessionPath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateDir, "tabshift")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return // No existing session, start fresh
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return
	}
	m.session = session
}

// Path returns the backing file
func (m *Manager) Path() string {
	return m.path
}

// Save persists the session to disk if it changed
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	m.session.LastSaved = time.Now()
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return err
	}

	m.dirty = false
	return nil
}

// ForceSave saves even if not dirty
func (m *Manager) ForceSave() error {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
	return m.Save()
}

// State returns the last stored arrangement
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.State
}

// SetState replaces the stored arrangement
func (m *Manager) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.State = s
	m.dirty = true
}

func (m *Manager) autosaveLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Save()
		case <-m.stopChan:
			return
		}
	}
}

// Stop stops the autosave loop and saves final state
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.stopChan) })
	return m.ForceSave()
}
