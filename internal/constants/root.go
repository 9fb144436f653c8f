package constants

import "time"

const (
	AppName            = "calorix"
	DefaultKeyringUser = "remote-connection"
	KeyringAIUser      = "ai-api-key"
	DefaultDataDir     = "~/.config/calorix"
	DefaultDBFile      = "calorix.db"
	ConfigFileName     = "config.toml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "calorix-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "calorix-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.calorix"
	TrayExecutablePrefix   = "calorix-tray"

	// Timer constants
	TickSpec                = "@every 1m"
	DefaultSyncInterval     = 5 * time.Minute
	IntegrationSyncInterval = 2 * time.Hour
	SyncLeaseTTL            = 2 * time.Minute
	ShutdownTimeout         = 10 * time.Second

	// AI constants
	DefaultAIModel     = "claude-sonnet-4-5"
	DefaultAIMaxTokens = 2048
)
