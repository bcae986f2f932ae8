package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/project"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*SavedSession
	locks     map[uuid.UUID]mockLock
	projects  map[string]*project.Project
	pingError error
	saveError error
}

type mockLock struct {
	owner   string
	expires time.Time
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*SavedSession),
		locks:    make(map[uuid.UUID]mockLock),
		projects: make(map[string]*project.Project),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveSession
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSession mocks saving a session
func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, s *SavedSession) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	cp := *s
	m.sessions[id] = &cp
	return nil
}

// LoadSession mocks loading a session
func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*SavedSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.sessions[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	cp := *s
	return &cp, nil
}

// DeleteSession mocks deleting a session
func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// LockSession mocks taking the session lock
func (m *MockStorage) LockSession(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, held := m.locks[id]; held && time.Now().Before(l.expires) {
		return false, nil
	}
	m.locks[id] = mockLock{owner: owner, expires: time.Now().Add(ttl)}
	return true, nil
}

// UnlockSession mocks releasing the session lock
func (m *MockStorage) UnlockSession(ctx context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, held := m.locks[id]; held && l.owner == owner {
		delete(m.locks, id)
	}
	return nil
}

// ListProjects mocks listing projects
func (m *MockStorage) ListProjects(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string)
	for filename, p := range m.projects {
		result[p.Title] = filename
	}
	return result, nil
}

// GetProject mocks getting a project by filename
func (m *MockStorage) GetProject(ctx context.Context, filename string) (*project.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.projects[filename]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, filename)
	}
	return p, nil
}

// AddProject adds a project to the mock storage (for testing)
func (m *MockStorage) AddProject(filename string, p *project.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[filename] = p
}
