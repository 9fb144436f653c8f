package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/calorix/internal/advisor"
	"github.com/julianstephens/calorix/internal/backup"
	"github.com/julianstephens/calorix/internal/config"
	"github.com/julianstephens/calorix/internal/constants"
	apperrors "github.com/julianstephens/calorix/internal/errors"
	"github.com/julianstephens/calorix/internal/logger"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/notifier"
	"github.com/julianstephens/calorix/internal/profile"
	"github.com/julianstephens/calorix/internal/remote"
	"github.com/julianstephens/calorix/internal/scheduler"
	"github.com/julianstephens/calorix/internal/session"
)

type Context struct {
	// Ctx is cancelled when the process is interrupted.
	Ctx        context.Context
	Config     config.Config
	ConfigPath string
	Out        io.Writer
	Scheduler  *scheduler.Scheduler
	Now        func() time.Time
	// Remote replaces the configured remote store when set.
	Remote     remote.Store

	session *session.Session
}

func NewContext(cfg config.Config, configPath string) *Context {
	return &Context{
		Ctx:        context.Background(),
		Config:     cfg,
		ConfigPath: configPath,
		Out:        os.Stdout,
		Scheduler:  scheduler.New(),
		Now:        time.Now,
	}
}

// Session opens the logged-in user's session on first use.
func (c *Context) Session(ctx context.Context) (*session.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	if !c.Config.Account.LoggedIn() {
		return nil, apperrors.WithHint(session.ErrNotLoggedIn, "run 'calorix login' first")
	}

	local, degraded := session.OpenLocal(c.Config.DBPath())
	if degraded {
		fmt.Fprintln(os.Stderr, "⚠️  Local storage is unavailable; changes will not survive this run.")
	}

	rem := c.Remote
	if rem == nil {
		dsn, err := c.Config.RemoteConnection()
		if err != nil {
			logger.Warn("Could not read remote connection from keyring", "error", err)
		}
		if rem, err = session.OpenRemote(dsn); err != nil {
			local.Close()
			return nil, err
		}
	}

	s, err := session.Open(ctx, c.Identity(), session.Options{
		Local:    local,
		Remote:   rem,
		Notifier: notifier.New(c.Out),
		Advisor:  c.Advisor(),
		Now:      c.Now,
	})
	if err != nil {
		rem.Close()
		local.Close()
		return nil, err
	}
	c.session = s
	return s, nil
}

// Profile opens the session and returns the profile, failing before onboarding.
func (c *Context) Profile(ctx context.Context) (*session.Session, models.UserProfile, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return nil, models.UserProfile{}, err
	}
	p, ok := s.Profile()
	if !ok {
		return nil, models.UserProfile{}, apperrors.WithHint(session.ErrNoProfile, "run 'calorix profile create' first")
	}
	return s, p, nil
}

func (c *Context) Identity() profile.Identity {
	a := c.Config.Account
	return profile.Identity{UID: a.UID, Email: a.Email, Name: a.Name}
}

// Advisor returns a suggestion client, disabled when no API key is configured.
func (c *Context) Advisor() *advisor.Advisor {
	key, err := c.Config.AIKey()
	if err != nil {
		logger.Warn("Could not read AI key from keyring", "error", err)
	}
	if key == "" {
		return advisor.New(nil)
	}
	return advisor.New(advisor.NewAnthropic(key, c.Config.AI.Model, c.Config.AI.MaxTokens))
}

// SaveConfig writes the current configuration back to the config file.
func (c *Context) SaveConfig() error {
	return config.Save(c.ConfigPath, c.Config)
}

func (c *Context) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, err := backup.NewManager(c.Config.DBPath()).Create(); err != nil && !errors.Is(err, backup.ErrNoDatabase) {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ResolveDate accepts "", "today", "yesterday" or a YYYY-MM-DD date.
func ResolveDate(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return now.Format(constants.DateFormat), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(constants.DateFormat), nil
	}
	d, err := time.ParseInLocation(constants.DateFormat, s, now.Location())
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d.Format(constants.DateFormat), nil
}

// ParseClock parses an HH:MM time on the given day.
func ParseClock(s string, day time.Time) (time.Time, error) {
	t, err := time.ParseInLocation(constants.TimeFormat, s, day.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
