package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/cli/account"
	"github.com/julianstephens/calorix/internal/cli/backups"
	"github.com/julianstephens/calorix/internal/cli/coach"
	"github.com/julianstephens/calorix/internal/cli/data"
	"github.com/julianstephens/calorix/internal/cli/logging"
	"github.com/julianstephens/calorix/internal/cli/social"
	"github.com/julianstephens/calorix/internal/cli/system"
	"github.com/julianstephens/calorix/internal/cli/views"
	"github.com/julianstephens/calorix/internal/config"
	"github.com/julianstephens/calorix/internal/constants"
	apperrors "github.com/julianstephens/calorix/internal/errors"
	"github.com/julianstephens/calorix/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"${config_path}"`
	DataDir string `help:"Override the data directory." type:"path"`
	EnvFile string `help:"Load environment variables from this file." type:"path" default:".env"`
	Debug   bool   `help:"Mirror logs to stderr at debug level."`

	Init    system.InitCmd    `cmd:"" help:"Initialize local and remote storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the remote connection string or AI key."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored secret, masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a stored secret."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show which secrets are stored." default:"1"`
	} `cmd:"" help:"Manage secrets in the OS keyring."`

	Login   account.LoginCmd  `cmd:"" help:"Sign in on this device."`
	Logout  account.LogoutCmd `cmd:"" help:"Sign out, syncing pending changes first."`
	Profile struct {
		Show   account.ProfileShowCmd   `cmd:"" help:"Show the profile and daily goals." default:"1"`
		Create account.ProfileCreateCmd `cmd:"" help:"Create the profile (onboarding)."`
		Set    account.ProfileSetCmd    `cmd:"" help:"Update profile fields and goals."`
	} `cmd:"" help:"Manage your profile."`

	Day  views.DayCmd  `cmd:"" help:"Show a day's log." default:"1"`
	Food struct {
		Add    logging.FoodAddCmd    `cmd:"" help:"Log foods to a meal."`
		Delete logging.FoodDeleteCmd `cmd:"" help:"Remove a logged food."`
	} `cmd:"" help:"Log foods."`
	Water   logging.WaterCmd   `cmd:"" help:"Set or add water intake."`
	Workout logging.WorkoutCmd `cmd:"" help:"Log a workout."`
	Fasting struct {
		Start  logging.FastingStartCmd  `cmd:"" help:"Start a fast."`
		Stop   logging.FastingStopCmd   `cmd:"" help:"Stop the running fast."`
		Edit   logging.FastingEditCmd   `cmd:"" help:"Move the start or end of the running fast."`
		Status logging.FastingStatusCmd `cmd:"" help:"Show the running fast." default:"1"`
	} `cmd:"" help:"Intermittent fasting."`

	Sync   views.SyncCmd   `cmd:"" help:"Push queued changes to the remote store."`
	Pull   views.PullCmd   `cmd:"" help:"Replace local logs with the remote copy."`
	Daemon views.DaemonCmd `cmd:"" help:"Run reminders, sync and backups in the foreground."`

	Suggest struct {
		Meals   coach.SuggestMealsCmd   `cmd:"" help:"Suggest meals for the rest of the day."`
		Recipes coach.SuggestRecipesCmd `cmd:"" help:"Suggest recipes."`
		Workout coach.SuggestWorkoutCmd `cmd:"" help:"Generate a workout."`
	} `cmd:"" help:"AI suggestions."`
	Challenge struct {
		List    coach.ChallengeListCmd    `cmd:"" help:"List challenges and medals." default:"1"`
		Select  coach.ChallengeSelectCmd  `cmd:"" help:"Join a catalog challenge."`
		Custom  coach.ChallengeCustomCmd  `cmd:"" help:"Create and join a custom challenge."`
		Disable coach.ChallengeDisableCmd `cmd:"" help:"Leave the active challenge."`
	} `cmd:"" help:"Weekly challenges."`
	Reminders struct {
		List  coach.RemindersListCmd  `cmd:"" help:"List reminders." default:"1"`
		Set   coach.RemindersSetCmd   `cmd:"" help:"Create or change a reminder."`
		Reset coach.RemindersResetCmd `cmd:"" help:"Restore the default reminders."`
	} `cmd:"" help:"Manage reminders."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Export struct {
		CSV  data.ExportCSVCmd  `cmd:"" name:"csv" help:"Export one day as CSV."`
		JSON data.ExportJSONCmd `cmd:"" name:"json" help:"Export all data as JSON."`
	} `cmd:"" help:"Export your data."`

	Feed          social.FeedCmd          `cmd:"" help:"Show the community feed."`
	Post          social.PostCmd          `cmd:"" help:"Publish a post."`
	React         social.ReactCmd         `cmd:"" help:"Toggle a reaction on a post."`
	Comment       social.CommentCmd       `cmd:"" help:"Comment on a post."`
	Follow        social.FollowCmd        `cmd:"" help:"Follow or unfollow a user."`
	Save          social.SaveCmd          `cmd:"" help:"Save or unsave a post."`
	Notifications social.NotificationsCmd `cmd:"" help:"Show community notifications."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Nutrition, hydration and fitness tracker with offline-first sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": config.DefaultPath(),
		},
	)

	cfg, err := config.Load(CLI.Config, CLI.EnvFile)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.DataDir != "" {
		cfg.DataDir = CLI.DataDir
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		apperrors.Fatal(fmt.Errorf("invalid configuration: %w", err))
	}
	if err := logger.Init(logger.Config{Debug: cfg.Log.Debug, Level: cfg.Log.Level, DataDir: cfg.DataDir}); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to initialize logging: %v\n", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := cli.NewContext(cfg, CLI.Config)
	appCtx.Ctx = sigCtx

	err = ctx.Run(appCtx)
	if cerr := appCtx.Close(); cerr != nil {
		logger.Warn("Failed to close session", "error", cerr)
	}
	if err != nil {
		stop()
		apperrors.Fatal(err)
	}
}
