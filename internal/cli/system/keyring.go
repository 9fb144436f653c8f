package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/keyring"
	"github.com/julianstephens/calorix/internal/storage/postgres"
)

// KeyringSetCmd stores a secret in the OS keyring
type KeyringSetCmd struct {
	Secret string `arg:"" help:"PostgreSQL connection string, or the API key with --ai."`
	AI     bool   `help:"Store the suggestion service API key instead of the connection string."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	if cmd.AI {
		if err := keyring.SetAIKey(strings.TrimSpace(cmd.Secret)); err != nil {
			return err
		}
		fmt.Fprintln(ctx.Out, "✓ API key stored successfully in OS keyring")
		return nil
	}

	connStr := cmd.Secret
	if !strings.HasPrefix(connStr, "postgres://") &&
		!strings.HasPrefix(connStr, "postgresql://") &&
		!strings.Contains(connStr, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if _, err := postgres.ValidateConnString(connStr); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so an embedded password is tolerated here.
		fmt.Fprintln(ctx.Out, "⚠️  Warning: Connection string contains embedded credentials.")
		fmt.Fprintln(ctx.Out, "   It will be stored as-is in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(connStr); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "✓ Connection string stored successfully in OS keyring")
	return nil
}

// KeyringGetCmd shows the stored secret with its sensitive part masked
type KeyringGetCmd struct {
	AI bool `help:"Show the API key instead of the connection string."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	get, what := keyring.GetConnectionString, "connection string"
	if cmd.AI {
		get, what = keyring.GetAIKey, "API key"
	}
	secret, err := get()
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("no %s found in keyring. Use 'calorix keyring set' to store one", what)
	}
	if err != nil {
		return err
	}

	if cmd.AI {
		fmt.Fprintln(ctx.Out, maskKey(secret))
	} else {
		fmt.Fprintln(ctx.Out, maskPassword(secret))
	}
	return nil
}

type KeyringDeleteCmd struct {
	AI bool `help:"Delete the API key instead of the connection string."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	del, what := keyring.DeleteConnectionString, "connection string"
	if cmd.AI {
		del, what = keyring.DeleteAIKey, "API key"
	}
	if err := del(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", what)
		}
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ %s deleted from OS keyring\n", strings.ToUpper(what[:1])+what[1:])
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Fprintln(ctx.Out, "❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	fmt.Fprintln(ctx.Out, "✓ OS keyring is available")
	for _, s := range []struct {
		what string
		get  func() (string, error)
	}{
		{"Connection string", keyring.GetConnectionString},
		{"API key", keyring.GetAIKey},
	} {
		if _, err := s.get(); err == nil {
			fmt.Fprintf(ctx.Out, "✓ %s is stored in keyring\n", s.what)
		} else {
			fmt.Fprintf(ctx.Out, "ℹ No %s stored in keyring\n", strings.ToLower(s.what))
		}
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		idx := strings.Index(connStr, "://")
		rest := connStr[idx+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return connStr[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}

// maskKey keeps only the last four characters of an API key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
