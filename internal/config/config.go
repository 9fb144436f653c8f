// Package config resolves runtime settings. Sources are applied in order:
// built-in defaults, the TOML config file, a .env file, then CALORIX_*
// environment variables. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/keyring"
)

const envPrefix = "CALORIX_"

// Duration is a time.Duration written as "5m" in the config file.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Account is the identity the device is logged in as.
type Account struct {
	UID   string `toml:"uid"`
	Email string `toml:"email"`
	Name  string `toml:"name"`
}

func (a Account) LoggedIn() bool { return a.UID != "" }

type AI struct {
	APIKey    string `toml:"api_key,omitempty"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

type Sync struct {
	Interval Duration `toml:"interval"`
}

type Log struct {
	Debug bool   `toml:"debug"`
	Level string `toml:"level"`
}

type Config struct {
	DataDir   string  `toml:"data_dir"`
	RemoteDSN string  `toml:"remote_dsn,omitempty"`
	Account   Account `toml:"account"`
	AI        AI      `toml:"ai"`
	Sync      Sync    `toml:"sync"`
	Log       Log     `toml:"log"`
}

func Default() Config {
	return Config{
		DataDir: constants.DefaultDataDir,
		AI: AI{
			Model:     constants.DefaultAIModel,
			MaxTokens: constants.DefaultAIMaxTokens,
		},
		Sync: Sync{Interval: Duration{constants.DefaultSyncInterval}},
		Log:  Log{Level: "warn"},
	}
}

// DefaultPath returns ~/.config/calorix/config.toml.
func DefaultPath() string {
	return filepath.Join(ExpandHome(constants.DefaultDataDir), constants.ConfigFileName)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Load reads the config file at path (a missing file is not an error), then
// the .env file at envFile when non-empty, then the environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.DataDir = ExpandHome(cfg.DataDir)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("DATA_DIR", &c.DataDir)
	str("REMOTE_DSN", &c.RemoteDSN)
	str("AI_MODEL", &c.AI.Model)
	str("LOG_LEVEL", &c.Log.Level)
	str("UID", &c.Account.UID)
	str("EMAIL", &c.Account.Email)
	if v, ok := lookup("ANTHROPIC_API_KEY"); ok && v != "" {
		c.AI.APIKey = v
	}
	str("AI_API_KEY", &c.AI.APIKey)

	if v, ok := lookup(envPrefix + "AI_MAX_TOKENS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %sAI_MAX_TOKENS %q", envPrefix, v)
		}
		c.AI.MaxTokens = n
	}
	if v, ok := lookup(envPrefix + "SYNC_INTERVAL"); ok && v != "" {
		if err := c.Sync.Interval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %sSYNC_INTERVAL %q: %w", envPrefix, v, err)
		}
	}
	if v, ok := lookup(envPrefix + "DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG %q", envPrefix, v)
		}
		c.Log.Debug = b
	}
	return nil
}

// Save writes cfg to path, creating the directory when needed. Secrets that
// came from the environment are written too, so callers should clear them
// first when they belong in the keyring.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// DBPath is the device-local database file.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, constants.DefaultDBFile)
}

// Validate checks values no source is allowed to leave unusable.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory cannot be empty")
	}
	if c.Sync.Interval.Duration < time.Second {
		return fmt.Errorf("sync interval %s is too short", c.Sync.Interval)
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("invalid AI max tokens %d", c.AI.MaxTokens)
	}
	return nil
}

// RemoteConnection returns the configured DSN, falling back to the keyring.
// An empty string with a nil error means no remote is configured.
func (c Config) RemoteConnection() (string, error) {
	if c.RemoteDSN != "" {
		return c.RemoteDSN, nil
	}
	return secret(keyring.GetConnectionString)
}

// AIKey returns the configured API key, falling back to the keyring.
func (c Config) AIKey() (string, error) {
	if c.AI.APIKey != "" {
		return c.AI.APIKey, nil
	}
	return secret(keyring.GetAIKey)
}

func secret(get func() (string, error)) (string, error) {
	v, err := get()
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
