package system

import (
	"fmt"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/storage/sqlite"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	store := sqlite.NewStore(ctx.Config.DBPath())
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	defer store.Close()

	ctx.PerformAutomaticBackup()

	count, err := store.Migrate(func(msg string) {
		fmt.Fprintln(ctx.Out, msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Fprintln(ctx.Out, "No migrations to apply. Database is up to date.")
	} else {
		fmt.Fprintf(ctx.Out, "\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
