package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/calorix/internal/backup"
	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/keyring"
	"github.com/julianstephens/calorix/internal/storage/postgres"
	"github.com/julianstephens/calorix/internal/storage/sqlite"
)

type DoctorCmd struct {
	Timeout time.Duration `help:"Timeout for the remote store check." default:"5s"`
}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(context.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	store := sqlite.NewStore(ctx.Config.DBPath())
	defer store.Close()

	checks := []check{
		{name: "Database reachable", run: func(context.Context) error { return checkDBReachable(store) }},
		{name: "Schema version", needsDB: true, run: func(context.Context) error { return checkSchemaVersion(store) }},
		{name: "Pending actions", needsDB: true, warnOnly: true, run: func(c context.Context) error { return checkQueue(c, ctx, store) }},
		{name: "Backups present", warnOnly: true, run: func(context.Context) error { return checkBackupsPresent(ctx) }},
		{name: "OS keyring", warnOnly: true, run: func(context.Context) error { return checkKeyring() }},
		{name: "Remote store", run: func(c context.Context) error { return checkRemote(c, ctx, cmd.Timeout) }},
		{name: "Clock/timezone", run: func(context.Context) error { return checkClockTimezone(ctx.Now()) }},
	}

	hasError := false
	dbReachable := false
	for i, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(context.Background())
		var skip skipError
		switch {
		case errors.As(err, &skip):
			fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (%s)\n", c.name, string(skip))
		case err != nil && c.warnOnly:
			fmt.Fprintf(ctx.Out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(ctx.Out, "   %v\n", err)
		case err != nil:
			fmt.Fprintf(ctx.Out, "❌ %s: FAIL\n", c.name)
			fmt.Fprintf(ctx.Out, "   Error: %v\n", err)
			hasError = true
		default:
			fmt.Fprintf(ctx.Out, "✓ %s: OK\n", c.name)
			if i == 0 {
				dbReachable = true
			}
		}
	}

	fmt.Fprintln(ctx.Out)
	if hasError {
		fmt.Fprintln(ctx.Out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Fprintln(ctx.Out, "All diagnostics passed!")
	return nil
}

// skipError marks a check that does not apply to this setup.
type skipError string

func (e skipError) Error() string { return "skipped: " + string(e) }

func skipped(reason string) error { return skipError(reason) }

func checkDBReachable(store *sqlite.Store) error {
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	db := store.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(store *sqlite.Store) error {
	current, latest, err := store.SchemaStatus()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("database schema is at version %d, latest is %d. Run 'calorix migrate'", current, latest)
	}
	if current > latest {
		return fmt.Errorf("database schema version %d is newer than this binary supports (%d)", current, latest)
	}
	return nil
}

func checkQueue(c context.Context, ctx *cli.Context, store *sqlite.Store) error {
	uid := ctx.Config.Account.UID
	if uid == "" {
		return skipped("not logged in")
	}
	n, err := store.CountActions(c, uid)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%d action(s) waiting to sync. Run 'calorix sync'", n)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	snaps, err := backup.NewManager(ctx.Config.DBPath()).List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no backups found. Run 'calorix backup create'")
	}
	if age := ctx.Now().Sub(snaps[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkRemote(c context.Context, ctx *cli.Context, timeout time.Duration) error {
	dsn, err := ctx.Config.RemoteConnection()
	if err != nil {
		return err
	}
	if dsn == "" {
		return skipped("no remote store configured")
	}
	if _, err := postgres.ValidateConnString(dsn); err != nil {
		return err
	}

	c, cancel := context.WithTimeout(c, timeout)
	defer cancel()
	remote := postgres.New(dsn)
	defer remote.Close()
	if err := remote.Load(); err != nil {
		return err
	}
	return remote.Ping(c)
}

func checkClockTimezone(now time.Time) error {
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if now.Location() == nil {
		return fmt.Errorf("no local timezone configured")
	}
	if _, err := time.LoadLocation(now.Location().String()); err != nil {
		return fmt.Errorf("timezone %q cannot be loaded: %w", now.Location(), err)
	}
	return nil
}
