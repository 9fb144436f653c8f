// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/remote"
)

// Fake stores documents as JSON and merges top-level fields on write, the
// same way the PostgreSQL store does.
type Fake struct {
	mu sync.Mutex

	logs          map[string]map[string][]byte
	profiles      map[string][]byte
	posts         map[string]models.Post
	notifications map[string][]models.Notification

	// FailGet, FailCommit and FailAll make the matching calls return an
	// error wrapping remote.ErrRemoteUnavailable.
	FailGet    bool
	FailCommit bool
	FailAll    bool

	Commits int
	// BeforeCommit runs inside CommitDailyLogs before anything is written.
	BeforeCommit func()
}

var _ remote.Store = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		logs:          make(map[string]map[string][]byte),
		profiles:      make(map[string][]byte),
		posts:         make(map[string]models.Post),
		notifications: make(map[string][]models.Notification),
	}
}

func failure(op string) error {
	return fmt.Errorf("%w: %s: injected failure", remote.ErrRemoteUnavailable, op)
}

func merge(existing, doc []byte) ([]byte, error) {
	if existing == nil {
		return doc, nil
	}
	var base, patch map[string]json.RawMessage
	if err := json.Unmarshal(existing, &base); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, &patch); err != nil {
		return nil, err
	}
	for k, v := range patch {
		base[k] = v
	}
	return json.Marshal(base)
}

// SetDailyLog seeds a stored log.
func (f *Fake) SetDailyLog(uid, date string, log models.DailyLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, _ := json.Marshal(log)
	if f.logs[uid] == nil {
		f.logs[uid] = make(map[string][]byte)
	}
	f.logs[uid][date] = doc
}

// SetRawProfile seeds a stored profile document.
func (f *Fake) SetRawProfile(uid string, raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[uid] = append([]byte(nil), raw...)
}

func (f *Fake) GetDailyLog(_ context.Context, uid, date string) (models.DailyLog, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGet || f.FailAll {
		return models.DailyLog{}, false, failure("get daily log")
	}
	raw, ok := f.logs[uid][date]
	if !ok {
		return models.EmptyLog(), false, nil
	}
	log := models.EmptyLog()
	if err := json.Unmarshal(raw, &log); err != nil {
		return models.DailyLog{}, false, err
	}
	return log, true, nil
}

func (f *Fake) ListDailyLogs(_ context.Context, uid string) (map[string]models.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return nil, failure("list daily logs")
	}
	out := make(map[string]models.DailyLog)
	for date, raw := range f.logs[uid] {
		log := models.EmptyLog()
		if err := json.Unmarshal(raw, &log); err != nil {
			return nil, err
		}
		out[date] = log
	}
	return out, nil
}

func (f *Fake) CommitDailyLogs(_ context.Context, uid string, logs map[string]models.DailyLog) error {
	if f.BeforeCommit != nil {
		f.BeforeCommit()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCommit || f.FailAll {
		return failure("commit daily logs")
	}

	staged := make(map[string][]byte, len(logs))
	for date, log := range logs {
		doc, err := json.Marshal(log)
		if err != nil {
			return err
		}
		merged, err := merge(f.logs[uid][date], doc)
		if err != nil {
			return err
		}
		staged[date] = merged
	}
	if f.logs[uid] == nil {
		f.logs[uid] = make(map[string][]byte)
	}
	for date, doc := range staged {
		f.logs[uid][date] = doc
	}
	f.Commits++
	return nil
}

func (f *Fake) GetRawProfile(_ context.Context, uid string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGet || f.FailAll {
		return nil, failure("get profile")
	}
	raw, ok := f.profiles[uid]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (f *Fake) GetProfile(ctx context.Context, uid string) (models.UserProfile, error) {
	raw, err := f.GetRawProfile(ctx, uid)
	if err != nil {
		return models.UserProfile{}, err
	}
	var p models.UserProfile
	err = json.Unmarshal(raw, &p)
	return p, err
}

func (f *Fake) SaveProfile(_ context.Context, p models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return failure("save profile")
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	merged, err := merge(f.profiles[p.UID], doc)
	if err != nil {
		return err
	}
	f.profiles[p.UID] = merged
	return nil
}

func (f *Fake) ListPosts(_ context.Context, limit int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return nil, failure("list posts")
	}
	posts := make([]models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Timestamp > posts[j].Timestamp })
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *Fake) GetPost(_ context.Context, id string) (models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return models.Post{}, failure("get post")
	}
	p, ok := f.posts[id]
	if !ok {
		return models.Post{}, remote.ErrNotFound
	}
	return p, nil
}

func (f *Fake) CreatePost(_ context.Context, p models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return failure("create post")
	}
	f.posts[p.ID] = p
	return nil
}

func (f *Fake) UpdatePost(_ context.Context, p models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return failure("update post")
	}
	if _, ok := f.posts[p.ID]; !ok {
		return remote.ErrNotFound
	}
	f.posts[p.ID] = p
	return nil
}

func (f *Fake) ListNotifications(_ context.Context, uid string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return nil, failure("list notifications")
	}
	out := append([]models.Notification(nil), f.notifications[uid]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (f *Fake) CreateNotification(_ context.Context, uid string, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return failure("create notification")
	}
	f.notifications[uid] = append(f.notifications[uid], n)
	return nil
}

func (f *Fake) MarkAllNotificationsRead(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return failure("mark notifications read")
	}
	for i := range f.notifications[uid] {
		f.notifications[uid][i].Read = true
	}
	return nil
}

func (f *Fake) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll {
		return failure("ping")
	}
	return nil
}

func (f *Fake) Close() error { return nil }
