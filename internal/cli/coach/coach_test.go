package coach

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/config"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
	"github.com/julianstephens/calorix/internal/session"
)

var testNow = time.Date(2024, 5, 16, 9, 0, 0, 0, time.Local)

func setupTestSession(t *testing.T) (*cli.Context, *session.Session, *bytes.Buffer) {
	t.Helper()
	gokeyring.MockInit()

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Account = config.Account{UID: "u1", Email: "ana@example.com", Name: "Ana"}

	out := &bytes.Buffer{}
	ctx := cli.NewContext(cfg, filepath.Join(cfg.DataDir, "config.toml"))
	ctx.Out = out
	ctx.Now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = ctx.Close() })

	s, err := ctx.Session(ctx.Ctx)
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if _, err := s.CreateProfile(ctx.Ctx, profile.Onboarding{
		Age: 30, Sex: models.SexFemale, Weight: 60, Height: 165,
		ActivityLevel: models.ActivityModerate, Goal: models.GoalMaintain,
	}); err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return ctx, s, out
}

func TestSuggestWithoutAssistant(t *testing.T) {
	ctx, _, _ := setupTestSession(t)

	cmds := map[string]interface{ Run(*cli.Context) error }{
		"meals":   &SuggestMealsCmd{},
		"recipes": &SuggestRecipesCmd{Preferences: "vegetarian"},
		"workout": &SuggestWorkoutCmd{Minutes: 20, Log: true},
	}
	for name, cmd := range cmds {
		t.Run(name, func(t *testing.T) {
			err := cmd.Run(ctx)
			if !errors.Is(err, errNoSuggestions) {
				t.Errorf("Run() error = %v, want errNoSuggestions", err)
			}
		})
	}

	s, _ := ctx.Session(ctx.Ctx)
	if got := len(s.Log(s.Today()).Workouts); got != 0 {
		t.Errorf("workouts logged = %d, want 0", got)
	}
}

func TestSuggestWorkoutValidate(t *testing.T) {
	if err := (&SuggestWorkoutCmd{Minutes: 0}).Validate(); err == nil {
		t.Error("Validate() should reject zero minutes")
	}
	if err := (&SuggestWorkoutCmd{Minutes: 30}).Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestChallengeSelectListDisable(t *testing.T) {
	ctx, s, out := setupTestSession(t)

	if err := (&ChallengeSelectCmd{ID: "nope"}).Run(ctx); !errors.Is(err, profile.ErrUnknownChallenge) {
		t.Fatalf("Select(nope) error = %v, want ErrUnknownChallenge", err)
	}

	if err := (&ChallengeSelectCmd{ID: "water_2l_7d"}).Run(ctx); err != nil {
		t.Fatalf("ChallengeSelectCmd.Run() failed: %v", err)
	}
	p, _ := s.Profile()
	if p.ChallengeProgress == nil || p.ChallengeProgress.ChallengeID != "water_2l_7d" {
		t.Fatalf("ChallengeProgress = %+v, want water_2l_7d", p.ChallengeProgress)
	}
	if p.ChallengeProgress.StartDate != "2024-05-13" {
		t.Errorf("StartDate = %q, want Monday 2024-05-13", p.ChallengeProgress.StartDate)
	}

	out.Reset()
	if err := (&ChallengeListCmd{}).Run(ctx); err != nil {
		t.Fatalf("ChallengeListCmd.Run() failed: %v", err)
	}
	for _, want := range []string{"Week 20 challenges:", "▶ water_2l_7d", "Active: Hidratação Total, 0/7"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q:\n%s", want, out.String())
		}
	}

	if err := (&ChallengeDisableCmd{}).Run(ctx); err != nil {
		t.Fatalf("ChallengeDisableCmd.Run() failed: %v", err)
	}
	p, _ = s.Profile()
	if p.ChallengeProgress != nil {
		t.Errorf("ChallengeProgress = %+v, want nil", p.ChallengeProgress)
	}

	out.Reset()
	if err := (&ChallengeDisableCmd{}).Run(ctx); err != nil {
		t.Fatalf("second disable failed: %v", err)
	}
	if !strings.Contains(out.String(), "No active challenge") {
		t.Errorf("output = %q", out.String())
	}
}

func TestChallengeCustom(t *testing.T) {
	ctx, s, out := setupTestSession(t)

	cmd := &ChallengeCustomCmd{Title: "Sem açúcar", Type: "log_streak", Goal: 3, Days: 5, Start: "today"}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("ChallengeCustomCmd.Run() failed: %v", err)
	}
	if !strings.Contains(out.String(), "2024-05-16 → 2024-05-20") {
		t.Errorf("output = %q, want date range", out.String())
	}

	p, _ := s.Profile()
	if len(p.CustomChallenges) != 1 {
		t.Fatalf("CustomChallenges = %d, want 1", len(p.CustomChallenges))
	}
	if p.ChallengeProgress == nil || p.ChallengeProgress.ChallengeID != p.CustomChallenges[0].ID {
		t.Errorf("ChallengeProgress = %+v, want custom challenge", p.ChallengeProgress)
	}

	tests := []struct {
		name string
		cmd  ChallengeCustomCmd
	}{
		{"zero days", ChallengeCustomCmd{Goal: 1, Days: 0}},
		{"goal over days", ChallengeCustomCmd{Goal: 8, Days: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestRemindersSet(t *testing.T) {
	ctx, s, out := setupTestSession(t)

	at := "12:30"
	if err := (&RemindersSetCmd{ID: "logLunch", Enable: true, Time: &at}).Run(ctx); err != nil {
		t.Fatalf("RemindersSetCmd.Run() failed: %v", err)
	}
	p, _ := s.Profile()
	lunch := p.Reminders[1]
	if lunch.ID != "logLunch" || !lunch.Enabled || lunch.Time != "12:30" {
		t.Errorf("logLunch = %+v", lunch)
	}

	if err := (&RemindersSetCmd{ID: "stretch"}).Run(ctx); err == nil {
		t.Error("unknown reminder without --label should fail")
	}

	label, when, every := "Alongar", "10:00", 3
	if err := (&RemindersSetCmd{ID: "stretch", Label: &label, Time: &when, Interval: &every}).Run(ctx); err != nil {
		t.Fatalf("create reminder failed: %v", err)
	}
	bad := "25:99"
	if err := (&RemindersSetCmd{ID: "stretch", Time: &bad}).Run(ctx); !errors.Is(err, profile.ErrInvalidReminder) {
		t.Errorf("bad time error = %v, want ErrInvalidReminder", err)
	}

	out.Reset()
	if err := (&RemindersListCmd{}).Run(ctx); err != nil {
		t.Fatalf("RemindersListCmd.Run() failed: %v", err)
	}
	if !strings.Contains(out.String(), "10:00, every 3h") || !strings.Contains(out.String(), "on  logLunch") {
		t.Errorf("list output:\n%s", out.String())
	}

	if err := (&RemindersSetCmd{ID: "stretch", Delete: true}).Run(ctx); err != nil {
		t.Fatalf("delete reminder failed: %v", err)
	}
	if err := (&RemindersResetCmd{}).Run(ctx); err != nil {
		t.Fatalf("RemindersResetCmd.Run() failed: %v", err)
	}
	p, _ = s.Profile()
	if len(p.Reminders) != 5 || p.Reminders[1].Enabled {
		t.Errorf("Reminders after reset = %+v", p.Reminders)
	}
}
