// Package tokenstore persists the bearer token of a session.
//
// The session store is the only caller: no other component reads or writes a
// Store directly.
package tokenstore

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when no token is persisted.
var ErrNotFound = errors.New("no token stored")

// Store defines the interface for token storage operations.
// This allows us to swap the keyring for memory or cookies.
type Store interface {
	Save(token string) error
	Load() (string, error)
	Delete() error
}

// Memory keeps the token in process memory.
type Memory struct {
	mu    sync.Mutex
	token string
}

func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNotFound
	}
	return m.token, nil
}

func (m *Memory) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
