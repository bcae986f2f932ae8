package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/project"
)

// ErrProjectNotFound is returned when a project file does not exist.
var ErrProjectNotFound = errors.New("project not found")

// ErrSessionBusy is returned when another request holds the session lock.
var ErrSessionBusy = errors.New("session is busy with another action")

// Storage defines a unified interface for all storage operations
// This interface combines session persistence (Redis) with project loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed). LoadSession returns nil, nil when
	// the session does not exist or has expired.
	SaveSession(ctx context.Context, id uuid.UUID, s *SavedSession) error
	LoadSession(ctx context.Context, id uuid.UUID) (*SavedSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// LockSession takes the session's action lock for owner and reports
	// false when someone else holds it. The lock expires after ttl.
	// UnlockSession releases it only if owner still holds it.
	LockSession(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)
	UnlockSession(ctx context.Context, id uuid.UUID, owner string) error

	// Project operations (filesystem-backed). ListProjects maps titles to
	// filenames. GetProject returns a normalized project.
	ListProjects(ctx context.Context) (map[string]string, error)
	GetProject(ctx context.Context, filename string) (*project.Project, error)
}
