package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// CredentialStore holds the tokens of one logged-in session. Implementations
// must be safe for concurrent use.
type CredentialStore interface {
	AccessToken() string
	RefreshToken() string
	Set(accessToken string, refreshToken string)
	Clear()
}

type MemoryCredentials struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{}
}

func (c *MemoryCredentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access
}

func (c *MemoryCredentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

func (c *MemoryCredentials) Set(accessToken string, refreshToken string) {
	c.mu.Lock()
	c.access = accessToken
	c.refresh = refreshToken
	c.mu.Unlock()
}

func (c *MemoryCredentials) Clear() {
	c.Set("", "")
}

type credentialFile struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// FileCredentials persists tokens as JSON so separate CLI invocations share
// one session.
type FileCredentials struct {
	mem  MemoryCredentials
	path string
}

// LoadFileCredentials reads path if it exists. A missing file is an empty
// session.
func LoadFileCredentials(path string) (*FileCredentials, error) {
	c := &FileCredentials{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var stored credentialFile
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	c.mem.Set(stored.AccessToken, stored.RefreshToken)
	return c, nil
}

func (c *FileCredentials) AccessToken() string  { return c.mem.AccessToken() }
func (c *FileCredentials) RefreshToken() string { return c.mem.RefreshToken() }

func (c *FileCredentials) Set(accessToken string, refreshToken string) {
	c.mem.Set(accessToken, refreshToken)
	if err := c.save(); err != nil {
		slog.Warn("failed to persist credentials", "path", c.path, "error", err)
	}
}

func (c *FileCredentials) Clear() {
	c.mem.Clear()
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove credentials", "path", c.path, "error", err)
	}
}

func (c *FileCredentials) save() error {
	c.mem.mu.RLock()
	raw, err := json.Marshal(credentialFile{AccessToken: c.mem.access, RefreshToken: c.mem.refresh})
	c.mem.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}
