// Package session persists the operator's session across runs: the
// bearer token and the identity of the last opened chat. This file is
// deliberately the only durable client-side state; conversations and
// the inbox are never cached to disk.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const currentVersion = 1

// State is the on-disk session payload.
type State struct {
	Version    int       `json:"version"`
	Token      string    `json:"token,omitempty"`
	LastChatID string    `json:"last_chat_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Manager owns the session file. All mutating calls rewrite the file
// atomically (temp file + rename) so a crash never leaves a torn write.
type Manager struct {
	path string

	mu    sync.Mutex
	state State
}

// New creates a manager for the given path. The file may not exist yet.
func New(path string) *Manager {
	return &Manager{
		path:  strings.TrimSpace(path),
		state: State{Version: currentVersion},
	}
}

// Path returns the session file path.
func (m *Manager) Path() string { return m.path }

// Load reads the session file. A missing file is not an error; the
// manager falls back to an empty session.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var loaded State
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	if loaded.Version == 0 {
		loaded.Version = currentVersion
	}
	m.state = loaded
	return nil
}

// Token returns the stored bearer token, or empty when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.TrimSpace(m.state.Token)
}

// SetToken stores the bearer token and persists immediately.
func (m *Manager) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Token = strings.TrimSpace(token)
	return m.saveLocked()
}

// ClearToken signs the operator out.
func (m *Manager) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Token = ""
	return m.saveLocked()
}

// LastChatID returns the chat that was open when the console last ran.
func (m *Manager) LastChatID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.TrimSpace(m.state.LastChatID)
}

// SetLastChatID records the currently open chat.
func (m *Manager) SetLastChatID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastChatID = strings.TrimSpace(id)
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if m.path == "" {
		return nil
	}
	m.state.Version = currentVersion
	m.state.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}
