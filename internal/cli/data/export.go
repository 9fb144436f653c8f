package data

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/export"
)

// openOutput returns the writer for dir/name, or ctx.Out when dir is "-".
func openOutput(ctx *cli.Context, dir, name string) (io.Writer, func() error, string, error) {
	if dir == "-" {
		return ctx.Out, func() error { return nil }, "", nil
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to create export file: %w", err)
	}
	return f, f.Close, path, nil
}

// ExportCSVCmd writes one day's log with totals against goals.
type ExportCSVCmd struct {
	Date string `arg:"" optional:"" help:"Date (YYYY-MM-DD, today, yesterday)." default:"today"`
	Dir  string `short:"o" help:"Output directory, or - for stdout." default:"."`
}

func (c *ExportCSVCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	date, err := cli.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}

	w, closeFn, path, err := openOutput(ctx, c.Dir, export.CSVFileName(date))
	if err != nil {
		return err
	}
	if err := export.DayCSV(w, s.Log(date), p.Goals); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if path != "" {
		fmt.Fprintf(ctx.Out, "✓ Exported %s to %s\n", date, path)
	}
	return nil
}

// ExportJSONCmd writes the profile and every daily log known on this device.
type ExportJSONCmd struct {
	Dir string `short:"o" help:"Output directory, or - for stdout." default:"."`
}

func (c *ExportJSONCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}

	w, closeFn, path, err := openOutput(ctx, c.Dir, export.JSONFileName(ctx.Now()))
	if err != nil {
		return err
	}
	logs := s.Logs()
	if err := export.JSON(w, p, logs); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if path != "" {
		fmt.Fprintf(ctx.Out, "✓ Exported profile and %d daily log(s) to %s\n", len(logs), path)
	}
	return nil
}
