package views

import (
	"errors"
	"fmt"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/reconcile"
	"github.com/julianstephens/calorix/internal/remote"
)

// SyncCmd pushes queued actions to the remote store.
type SyncCmd struct{}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	res, err := s.Sync(ctx.Ctx)
	if errors.Is(err, reconcile.ErrCycleInProgress) {
		fmt.Fprintln(ctx.Out, "ℹ Another sync is running (is the daemon active?). Queued changes will go out with it or the next one.")
		return nil
	}
	if err != nil {
		pending, _ := s.Pending(ctx.Ctx)
		if errors.Is(err, remote.ErrRemoteUnavailable) {
			return fmt.Errorf("remote store unavailable, %d action(s) kept for later: %w", pending, err)
		}
		return fmt.Errorf("sync failed, %d action(s) kept for later: %w", pending, err)
	}
	if res.Actions == 0 {
		fmt.Fprintln(ctx.Out, "✓ Nothing to sync")
		return nil
	}
	fmt.Fprintf(ctx.Out, "✓ Synced %d action(s) across %d day(s)\n", res.Actions, len(res.Dates))
	if res.Skipped > 0 {
		fmt.Fprintf(ctx.Out, "ℹ %d action(s) had no effect on the remote copy\n", res.Skipped)
	}
	return nil
}

// PullCmd replaces the local view with the remote copy, keeping queued changes.
type PullCmd struct{}

func (c *PullCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	n, err := s.Pull(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Pulled %d daily log(s)\n", n)
	return nil
}
