package remote

import (
	"context"
	"fmt"

	"github.com/julianstephens/calorix/internal/models"
)

// Disabled is used when no remote connection is configured. Every call
// fails with ErrRemoteUnavailable so pending actions stay queued.
type Disabled struct{}

var _ Store = Disabled{}

func errDisabled() error {
	return fmt.Errorf("%w: no remote connection configured", ErrRemoteUnavailable)
}

func (Disabled) GetDailyLog(context.Context, string, string) (models.DailyLog, bool, error) {
	return models.DailyLog{}, false, errDisabled()
}

func (Disabled) CommitDailyLogs(context.Context, string, map[string]models.DailyLog) error {
	return errDisabled()
}

func (Disabled) ListDailyLogs(context.Context, string) (map[string]models.DailyLog, error) {
	return nil, errDisabled()
}

func (Disabled) GetProfile(context.Context, string) (models.UserProfile, error) {
	return models.UserProfile{}, errDisabled()
}

func (Disabled) GetRawProfile(context.Context, string) ([]byte, error) {
	return nil, errDisabled()
}

func (Disabled) SaveProfile(context.Context, models.UserProfile) error { return errDisabled() }

func (Disabled) ListPosts(context.Context, int) ([]models.Post, error) { return nil, errDisabled() }

func (Disabled) GetPost(context.Context, string) (models.Post, error) {
	return models.Post{}, errDisabled()
}

func (Disabled) CreatePost(context.Context, models.Post) error { return errDisabled() }
func (Disabled) UpdatePost(context.Context, models.Post) error { return errDisabled() }

func (Disabled) ListNotifications(context.Context, string) ([]models.Notification, error) {
	return nil, errDisabled()
}

func (Disabled) CreateNotification(context.Context, string, models.Notification) error {
	return errDisabled()
}

func (Disabled) MarkAllNotificationsRead(context.Context, string) error { return errDisabled() }

func (Disabled) Ping(context.Context) error { return errDisabled() }
func (Disabled) Close() error               { return nil }
