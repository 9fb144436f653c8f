package logging

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/session"
)

type FastingStartCmd struct {
	Hours float64 `arg:"" optional:"" help:"Fast duration in hours." default:"16"`
}

func (c *FastingStartCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	f, err := s.StartFast(ctx.Ctx, c.Hours)
	if errors.Is(err, session.ErrAlreadyFasting) {
		return fmt.Errorf("%w. Use 'calorix fasting stop' first", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Started a %g h fast, ends at %s\n", f.DurationHours, formatMillis(f.EndTime))
	return nil
}

type FastingStopCmd struct{}

func (c *FastingStopCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	running := s.Fasting()
	if _, err := s.StopFast(ctx.Ctx); err != nil {
		return err
	}
	if running.StartTime != nil {
		elapsed := ctx.Now().Sub(time.UnixMilli(*running.StartTime))
		fmt.Fprintf(ctx.Out, "✓ Fast stopped after %s\n", elapsed.Round(time.Minute))
	} else {
		fmt.Fprintln(ctx.Out, "✓ Fast stopped")
	}
	return nil
}

// FastingEditCmd moves the start or end of the running fast. Times are
// HH:MM today or RFC 3339.
type FastingEditCmd struct {
	Start string `help:"New start time."`
	End   string `help:"New end time."`
}

func (c *FastingEditCmd) Validate() error {
	if c.Start == "" && c.End == "" {
		return errors.New("provide --start and/or --end")
	}
	return nil
}

func parseWhen(s string, now time.Time) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := cli.ParseClock(s, now)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *FastingEditCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	now := ctx.Now()
	start, err := parseWhen(c.Start, now)
	if err != nil {
		return err
	}
	end, err := parseWhen(c.End, now)
	if err != nil {
		return err
	}
	f, err := s.EditFast(ctx.Ctx, start, end)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Fast now runs %s → %s (%g h)\n", formatMillis(f.StartTime), formatMillis(f.EndTime), f.DurationHours)
	return nil
}

type FastingStatusCmd struct{}

func (c *FastingStatusCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	printFasting(ctx, s.Fasting())
	return nil
}

func printFasting(ctx *cli.Context, f models.FastingState) {
	if !f.IsFasting || f.StartTime == nil || f.EndTime == nil {
		fmt.Fprintln(ctx.Out, "Not fasting.")
		return
	}
	now := ctx.Now()
	end := time.UnixMilli(*f.EndTime)
	fmt.Fprintf(ctx.Out, "Fasting since %s (%g h goal)\n", formatMillis(f.StartTime), f.DurationHours)
	if now.Before(end) {
		fmt.Fprintf(ctx.Out, "  %s remaining, ends at %s\n", end.Sub(now).Round(time.Minute), formatMillis(f.EndTime))
	} else {
		fmt.Fprintf(ctx.Out, "  Goal reached at %s\n", formatMillis(f.EndTime))
	}
}

func formatMillis(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return time.UnixMilli(*ms).Format(constants.DateFormat + " " + constants.TimeFormat)
}
