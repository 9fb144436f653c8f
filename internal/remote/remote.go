// Package remote defines the document store the reconciler commits to and
// the community feed is read from.
package remote

import (
	"context"
	"errors"

	"github.com/julianstephens/calorix/internal/models"
)

// ErrRemoteUnavailable marks failures reaching the remote store. A reconcile
// cycle that hits it leaves the queue untouched.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// ErrNotFound is returned for documents that do not exist remotely.
var ErrNotFound = errors.New("remote document not found")

// Store is a per-user document store with a shared community feed.
type Store interface {
	// GetDailyLog returns the stored log for date; ok is false when none exists.
	GetDailyLog(ctx context.Context, uid, date string) (log models.DailyLog, ok bool, err error)
	// CommitDailyLogs writes every log in a single atomic batch. Top-level
	// fields of each stored document are merged, not replaced.
	CommitDailyLogs(ctx context.Context, uid string, logs map[string]models.DailyLog) error
	ListDailyLogs(ctx context.Context, uid string) (map[string]models.DailyLog, error)

	GetProfile(ctx context.Context, uid string) (models.UserProfile, error)
	// GetRawProfile returns the stored profile document undecoded so older
	// versions can be migrated.
	GetRawProfile(ctx context.Context, uid string) ([]byte, error)
	SaveProfile(ctx context.Context, p models.UserProfile) error

	ListPosts(ctx context.Context, limit int) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, p models.Post) error
	UpdatePost(ctx context.Context, p models.Post) error

	ListNotifications(ctx context.Context, uid string) ([]models.Notification, error)
	CreateNotification(ctx context.Context, uid string, n models.Notification) error
	MarkAllNotificationsRead(ctx context.Context, uid string) error

	Ping(ctx context.Context) error
	Close() error
}
