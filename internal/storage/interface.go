package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/calorix/internal/models"
)

var (
	// ErrStorageUnavailable marks failures of the device-local medium itself
	// (missing directory, locked or corrupt file). Callers degrade to memory.
	ErrStorageUnavailable = errors.New("local storage unavailable")
	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("entry not found")
)

// ActionStore persists pending actions per namespace in insertion order.
type ActionStore interface {
	// AppendAction stores a and returns it with its assigned id.
	AppendAction(ctx context.Context, namespace string, a models.Action) (models.Action, error)
	// ListActions returns all pending actions ordered by id.
	ListActions(ctx context.Context, namespace string) ([]models.Action, error)
	// DeleteActionsThrough removes actions with id <= maxID.
	DeleteActionsThrough(ctx context.Context, namespace string, maxID int64) error
	// ClearActions removes every pending action.
	ClearActions(ctx context.Context, namespace string) error
	CountActions(ctx context.Context, namespace string) (int, error)
}

// EntryStore persists opaque JSON documents by key per namespace.
type EntryStore interface {
	GetEntry(ctx context.Context, namespace, key string) ([]byte, error)
	PutEntry(ctx context.Context, namespace, key string, value []byte) error
	DeleteEntry(ctx context.Context, namespace, key string) error
	// ListEntries returns every entry whose key starts with prefix.
	ListEntries(ctx context.Context, namespace, prefix string) (map[string][]byte, error)
}

// LeaseStore grants one holder at a time the right to reconcile a
// namespace, across every process sharing the store.
type LeaseStore interface {
	// AcquireLease takes or renews the lease for holder. It reports false
	// when another holder owns an unexpired lease.
	AcquireLease(ctx context.Context, namespace, holder string, ttl time.Duration) (bool, error)
	// ReleaseLease drops the lease if holder still owns it.
	ReleaseLease(ctx context.Context, namespace, holder string) error
}

// Provider is a device-local store.
type Provider interface {
	ActionStore
	EntryStore
	LeaseStore

	Init() error
	Load() error
	Close() error
	GetConfigPath() string
}
