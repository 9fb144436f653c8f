// Package session ties one logged-in user to the device-local store, the
// action queue, the projection and the remote store. A Session is created
// on login and closed on logout; nothing about the user lives in globals.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/calorix/internal/advisor"
	"github.com/julianstephens/calorix/internal/community"
	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/logger"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
	"github.com/julianstephens/calorix/internal/projection"
	"github.com/julianstephens/calorix/internal/queue"
	"github.com/julianstephens/calorix/internal/reconcile"
	"github.com/julianstephens/calorix/internal/remote"
	"github.com/julianstephens/calorix/internal/scheduler"
	"github.com/julianstephens/calorix/internal/storage"
	"github.com/julianstephens/calorix/internal/storage/memory"
	"github.com/julianstephens/calorix/internal/storage/postgres"
	"github.com/julianstephens/calorix/internal/storage/sqlite"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNoProfile   = errors.New("profile has not been created")
	ErrClosed      = errors.New("session is closed")
)

// Notifier delivers a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, string, string) error { return nil }

type Options struct {
	Local    storage.Provider
	Remote   remote.Store
	Notifier Notifier
	Advisor  *advisor.Advisor
	Now      func() time.Time
}

type Session struct {
	id       profile.Identity
	local    storage.Provider
	remote   remote.Store
	queue    *queue.Queue
	proj     *projection.Projection
	rec      *reconcile.Reconciler
	feed     *community.Service
	notifier Notifier
	advisor  *advisor.Advisor
	now      func() time.Time
	log      *log.Logger

	// mu guards the profile and fasting state and orders projection
	// mutations against the post-sync rebase.
	mu         sync.Mutex
	profile    *models.UserProfile
	profileRev int
	fasting    models.FastingState
	sched      *scheduler.Scheduler
	closed     bool

	pushMu sync.Mutex
}

// OpenLocal opens the device database at path, creating it when needed. When
// the medium is unusable it falls back to an in-memory store and reports
// degraded = true; nothing written will survive the process.
func OpenLocal(path string) (store storage.Provider, degraded bool) {
	s := sqlite.NewStore(path)
	if err := s.Init(); err != nil {
		logger.Warn("Local storage unavailable, keeping data in memory", "path", path, "error", err)
		return memory.NewStore(), true
	}
	return s, false
}

// OpenRemote returns the remote store for dsn, or remote.Disabled when dsn is
// empty. A store that cannot be reached yet is still returned; Sync keeps
// retrying the connection.
func OpenRemote(dsn string) (remote.Store, error) {
	if dsn == "" {
		return remote.Disabled{}, nil
	}
	if _, err := postgres.ValidateConnString(dsn); err != nil {
		return nil, err
	}
	s := postgres.New(dsn)
	if err := s.Load(); err != nil {
		logger.Warn("Remote store unreachable, working offline", "error", err)
	}
	return s, nil
}

// Open starts a session for id. The profile and projection are read from the
// local store only; call Pull to hydrate a fresh device from the remote.
func Open(ctx context.Context, id profile.Identity, opts Options) (*Session, error) {
	if id.UID == "" {
		return nil, ErrNotLoggedIn
	}
	if opts.Local == nil {
		return nil, errors.New("local store is required")
	}
	if opts.Remote == nil {
		opts.Remote = remote.Disabled{}
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Advisor == nil {
		opts.Advisor = advisor.New(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	q := queue.New(opts.Local, id.UID)
	s := &Session{
		id:       id,
		local:    opts.Local,
		remote:   opts.Remote,
		queue:    q,
		proj:     projection.New(opts.Local, id.UID),
		rec:      reconcile.New(q, opts.Local, opts.Remote, id.UID),
		notifier: opts.Notifier,
		advisor:  opts.Advisor,
		now:      opts.Now,
		log:      logger.Component("session").With("uid", id.UID),
	}

	if err := s.proj.Load(ctx); err != nil {
		return nil, err
	}
	if err := s.loadProfile(ctx); err != nil {
		return nil, err
	}
	if err := s.getJSON(ctx, constants.EntryFastingState, &s.fasting); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load fasting state: %w", err)
	}
	return s, nil
}

// Close stops the scheduler the session was registered on, waiting a bounded
// time for running jobs, then releases both stores. Results of remote calls
// that finish after Close has begun are dropped.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sched := s.sched
	s.mu.Unlock()

	if sched != nil {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := sched.Stop(ctx); err != nil {
			s.log.Warn("Scheduled jobs still running at close", "error", err)
		}
	}
	return errors.Join(s.remote.Close(), s.local.Close())
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Identity() profile.Identity { return s.id }

func (s *Session) Advisor() *advisor.Advisor { return s.advisor }

// LocalPath identifies the local store, ":memory:" when degraded.
func (s *Session) LocalPath() string { return s.local.GetConfigPath() }

// Community returns the feed service acting as the session's user.
func (s *Session) Community() *community.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feed == nil {
		author := models.Author{UID: s.id.UID, Name: s.id.Name, Email: s.id.Email}
		if s.profile != nil {
			author.Name = s.profile.Name
			author.Avatar = s.profile.Avatar
		}
		s.feed = community.New(s.remote, author)
	}
	return s.feed
}

// Today is the current date in the local time zone.
func (s *Session) Today() string {
	return s.now().Format(constants.DateFormat)
}

func (s *Session) getJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := s.local.GetEntry(ctx, s.id.UID, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *Session) putJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.local.PutEntry(ctx, s.id.UID, key, raw)
}

// ensureRemote reconnects a remote store that was unreachable at startup.
func (s *Session) ensureRemote() error {
	if l, ok := s.remote.(interface{ Load() error }); ok {
		return l.Load()
	}
	return nil
}
