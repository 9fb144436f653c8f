package account

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/config"
	"github.com/julianstephens/calorix/internal/remote"
)

// LoginCmd records the account on this device and hydrates it from the remote.
type LoginCmd struct {
	UID   string `arg:"" help:"Account id issued by the identity provider."`
	Email string `required:"" help:"Account email address."`
	Name  string `help:"Display name."`
}

func (c *LoginCmd) Validate() error {
	if strings.TrimSpace(c.UID) == "" {
		return errors.New("account id cannot be empty")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("invalid email %q", c.Email)
	}
	return nil
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	current := ctx.Config.Account
	if current.LoggedIn() && current.UID != c.UID {
		return fmt.Errorf("already logged in as %s. Run 'calorix logout' first", current.Email)
	}

	name := c.Name
	if name == "" {
		name = strings.SplitN(c.Email, "@", 2)[0]
	}
	ctx.Config.Account = config.Account{UID: c.UID, Email: c.Email, Name: name}
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s, err := ctx.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Logged in as %s\n", c.Email)

	n, err := s.Pull(ctx.Ctx)
	switch {
	case errors.Is(err, remote.ErrRemoteUnavailable):
		fmt.Fprintln(ctx.Out, "ℹ Remote store unavailable; working offline.")
	case err != nil:
		fmt.Fprintf(ctx.Out, "⚠️  Could not pull remote data: %v\n", err)
	case n > 0:
		fmt.Fprintf(ctx.Out, "✓ Pulled %d daily log(s)\n", n)
	}

	if _, ok := s.Profile(); !ok {
		fmt.Fprintln(ctx.Out, "ℹ No profile yet. Run 'calorix profile create' to finish setup.")
	}
	return nil
}

// LogoutCmd syncs pending work, closes the session and forgets the account.
type LogoutCmd struct {
	Force bool `help:"Log out even if queued actions could not be synced."`
}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if !ctx.Config.Account.LoggedIn() {
		fmt.Fprintln(ctx.Out, "Not logged in.")
		return nil
	}

	s, err := ctx.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	if _, err := s.Sync(ctx.Ctx); err != nil {
		pending, _ := s.Pending(ctx.Ctx)
		if pending > 0 && !c.Force {
			return fmt.Errorf("%d action(s) could not be synced (%v). Use --force to log out anyway", pending, err)
		}
		fmt.Fprintf(ctx.Out, "⚠️  Sync failed: %v. Queued actions stay on this device.\n", err)
	}

	email := ctx.Config.Account.Email
	if err := ctx.Close(); err != nil {
		return err
	}
	ctx.Config.Account = config.Account{}
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Logged out %s\n", email)
	return nil
}
