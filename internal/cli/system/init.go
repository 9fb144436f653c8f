package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/storage/postgres"
	"github.com/julianstephens/calorix/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool `help:"Force reset by deleting the existing local database before initialization."`
	Remote bool `help:"Also create the schema on the configured remote store." default:"true" negatable:""`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	dbPath := ctx.Config.DBPath()

	if c.Force {
		if err := ctx.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if _, err := os.Stat(dbPath); err == nil {
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Fprintf(ctx.Out, "Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	local := sqlite.NewStore(dbPath)
	if err := local.Init(); err != nil {
		return err
	}
	defer local.Close()
	fmt.Fprintf(ctx.Out, "Initialized calorix storage at: %s\n", dbPath)

	if !c.Remote {
		return nil
	}
	dsn, err := ctx.Config.RemoteConnection()
	if err != nil {
		return err
	}
	if dsn == "" {
		fmt.Fprintln(ctx.Out, "No remote store configured; working offline.")
		return nil
	}
	if _, err := postgres.ValidateConnString(dsn); err != nil {
		if errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("remote connection string contains embedded credentials. Use 'calorix keyring set' or .pgpass instead")
		}
		return err
	}

	remote := postgres.New(dsn)
	if err := remote.Init(); err != nil {
		return fmt.Errorf("failed to initialize remote store: %w", err)
	}
	defer remote.Close()
	fmt.Fprintln(ctx.Out, "Initialized remote store schema.")
	return nil
}
