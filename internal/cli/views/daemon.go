package views

import (
	"context"
	"fmt"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/logger"
	"github.com/julianstephens/calorix/internal/session"
)

// DaemonCmd runs reminders, goal alerts and periodic sync until interrupted.
type DaemonCmd struct {
	Once bool `help:"Run one reminder tick and one sync, then exit."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}

	if c.Once {
		return runOnce(ctx, s)
	}

	ctx.PerformAutomaticBackup()
	if err := s.Schedule(ctx.Scheduler, ctx.Config.Sync.Interval.Duration); err != nil {
		return fmt.Errorf("failed to schedule jobs: %w", err)
	}
	if err := ctx.Scheduler.Add("backup", "@daily", func(context.Context) {
		ctx.PerformAutomaticBackup()
	}); err != nil {
		return fmt.Errorf("failed to schedule jobs: %w", err)
	}

	if err := runOnce(ctx, s); err != nil {
		logger.Warn("Initial run failed", "error", err)
	}

	ctx.Scheduler.Start()
	fmt.Fprintf(ctx.Out, "calorix daemon running (sync every %s). Press Ctrl+C to stop.\n", ctx.Config.Sync.Interval.Duration)
	<-ctx.Ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := ctx.Scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	fmt.Fprintln(ctx.Out, "Stopped.")
	return nil
}

func runOnce(ctx *cli.Context, s *session.Session) error {
	report, err := s.Tick(ctx.Ctx)
	if err != nil {
		return err
	}
	for _, n := range report.Sent {
		logger.Debug("Notification sent", "key", n.Key)
	}
	if report.Completed != "" {
		fmt.Fprintf(ctx.Out, "🏅 Challenge completed: %s\n", report.Completed)
	}

	res, err := s.Sync(ctx.Ctx)
	if err != nil {
		logger.Warn("Sync failed, actions stay queued", "error", err)
		return nil
	}
	if res.Actions > 0 {
		fmt.Fprintf(ctx.Out, "✓ Synced %d action(s)\n", res.Actions)
	}
	return nil
}
