package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/calorix/internal/models"
)

func newTestProfile() models.UserProfile {
	return Create(
		Identity{UID: "u1", Email: "ana@example.com", Name: "Ana"},
		Onboarding{Age: 30, Sex: models.SexMale, Weight: 80, Height: 180, ActivityLevel: models.ActivityModerate, Goal: models.GoalMaintain},
	)
}

func TestCreate(t *testing.T) {
	p := newTestProfile()

	if p.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", p.SchemaVersion, CurrentSchemaVersion)
	}
	if p.Goals.Calories != 2873 || p.Goals.Water != 2800 {
		t.Errorf("Goals = %+v, want computed calories 2873 and water 2800", p.Goals)
	}
	if len(p.Reminders) != 5 || p.Reminders[0].ID != "logBreakfast" {
		t.Errorf("Reminders = %+v, want defaults", p.Reminders)
	}
	if len(p.Integrations) != len(IntegrationNames) {
		t.Errorf("Integrations has %d entries, want %d", len(p.Integrations), len(IntegrationNames))
	}
	if p.Coach.ID != "leo" || p.Coach.Name != "Leo" || p.Coach.Avatar == "" {
		t.Errorf("Coach = %+v, want default coach", p.Coach)
	}
	if p.Units != "metric" || p.HasAllergies || p.IsPremium || p.HasCompletedTutorial {
		t.Errorf("flags = units %q allergies %v premium %v tutorial %v", p.Units, p.HasAllergies, p.IsPremium, p.HasCompletedTutorial)
	}
	if len(p.MealCategories) != 4 {
		t.Errorf("MealCategories = %+v, want 4 defaults", p.MealCategories)
	}
}

func TestMigrateBackfillsLegacyDocument(t *testing.T) {
	raw := []byte(`{
		"uid": "u1",
		"name": "Ana",
		"age": 60,
		"sex": "female",
		"goals": {"calories": 1800, "protein": 90, "carbs": 200, "fat": 60, "water": 2000},
		"coach": {"name": "Bia"},
		"following": ["x@example.com"]
	}`)

	p, err := Migrate(raw)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if p.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", p.SchemaVersion, CurrentSchemaVersion)
	}
	if len(p.Following) != 1 {
		t.Errorf("Following = %v, existing value should be kept", p.Following)
	}
	if p.SavedPosts == nil || p.CompletedChallenges == nil || p.CustomChallenges == nil || p.Allergies == nil {
		t.Error("list fields not backfilled")
	}
	if p.Coach.Name != "Bia" || p.Coach.ID != "leo" || p.Coach.Avatar != defaultCoachAvatar {
		t.Errorf("Coach = %+v, want custom name kept and defaults filled", p.Coach)
	}
	if got := p.Goals.Micronutrients[models.Calcium].Amount; got != 1200 {
		t.Errorf("calcium goal = %v, want senior female 1200", got)
	}
	if p.Goals.Calories != 1800 {
		t.Errorf("Calories = %v, migration must not recompute macros", p.Goals.Calories)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	p := newTestProfile()
	p.Reminders[0].Enabled = true

	again := Upgrade(p)
	if !again.Reminders[0].Enabled {
		t.Error("Upgrade() reapplied defaults to a current profile")
	}
	if NeedsUpgrade(again) {
		t.Error("NeedsUpgrade() = true for a current profile")
	}
}

func TestMigrateRejectsNewerVersion(t *testing.T) {
	if _, err := Migrate([]byte(`{"schemaVersion": 99}`)); err == nil {
		t.Fatal("Migrate() should reject a newer schema version")
	}
	if _, err := Migrate([]byte(`not json`)); err == nil {
		t.Fatal("Migrate() should reject invalid JSON")
	}
}

func TestSaveRecalculates(t *testing.T) {
	p := newTestProfile()

	name := "Ana Maria"
	renamed := Save(p, Update{Name: &name})
	if renamed.Goals.Calories != p.Goals.Calories {
		t.Error("renaming changed goals")
	}

	weight := 70.0
	lighter := Save(p, Update{Weight: &weight})
	if lighter.Goals.Calories >= p.Goals.Calories {
		t.Errorf("Calories = %v after losing weight, want < %v", lighter.Goals.Calories, p.Goals.Calories)
	}
	if lighter.Goals.Water != 2450 {
		t.Errorf("Water = %v, want 2450", lighter.Goals.Water)
	}

	protein := 200.0
	water := 3500.0
	custom := Save(lighter, Update{CustomGoals: &models.CustomGoals{Protein: &protein}, CustomWaterGoal: &water})
	if custom.Goals.Protein != 200 || custom.Goals.Water != 3500 {
		t.Errorf("Goals = %+v, want custom protein and water", custom.Goals)
	}
	if custom.Goals.Calories != lighter.Goals.Calories {
		t.Errorf("Calories = %v, want computed %v", custom.Goals.Calories, lighter.Goals.Calories)
	}

	age := 31
	older := Save(custom, Update{Age: &age})
	if older.Goals.Protein != 200 || older.Goals.Water != 3500 {
		t.Errorf("custom goals lost on recalculation: %+v", older.Goals)
	}

	cleared := ClearCustomGoals(older)
	if cleared.CustomGoals != nil || cleared.Goals.Water != 2450 {
		t.Errorf("ClearCustomGoals() = %+v", cleared.Goals)
	}
}

func TestUpdateGoal(t *testing.T) {
	p := newTestProfile()
	lose := UpdateGoal(p, models.GoalLose)
	if lose.Goal != models.GoalLose || lose.Goals.Calories != p.Goals.Calories-500 {
		t.Errorf("UpdateGoal(lose) calories = %v, want %v", lose.Goals.Calories, p.Goals.Calories-500)
	}
}

func TestSetReminders(t *testing.T) {
	p := newTestProfile()

	tests := []struct {
		name      string
		reminders []models.Reminder
		wantErr   bool
	}{
		{"valid", []models.Reminder{{ID: "a", Label: "Registrar Almoço", Time: "12:30", Enabled: true}}, false},
		{"no time", []models.Reminder{{ID: "a", Label: "x"}}, false},
		{"bad time", []models.Reminder{{ID: "a", Time: "25:00"}}, true},
		{"missing id", []models.Reminder{{Time: "10:00"}}, true},
		{"negative interval", []models.Reminder{{ID: "a", Interval: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SetReminders(p, tt.reminders)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReminder) {
					t.Fatalf("SetReminders() = %v, want ErrInvalidReminder", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetReminders() failed: %v", err)
			}
			if len(got.Reminders) != len(tt.reminders) {
				t.Errorf("Reminders = %+v", got.Reminders)
			}
		})
	}
}

func TestToggles(t *testing.T) {
	p := newTestProfile()

	p, following := ToggleFollow(p, "bia@example.com")
	if !following || len(p.Following) != 1 {
		t.Fatalf("first ToggleFollow() = (%v, %v)", p.Following, following)
	}
	before := p
	p, following = ToggleFollow(p, "bia@example.com")
	if following || len(p.Following) != 0 {
		t.Fatalf("second ToggleFollow() = (%v, %v)", p.Following, following)
	}
	if len(before.Following) != 1 {
		t.Error("ToggleFollow() mutated the previous profile")
	}

	p, saved := ToggleSavedPost(p, "post-1")
	if !saved || len(p.SavedPosts) != 1 {
		t.Fatalf("ToggleSavedPost() = (%v, %v)", p.SavedPosts, saved)
	}
	p, saved = ToggleSavedPost(p, "post-1")
	if saved || len(p.SavedPosts) != 0 {
		t.Fatalf("ToggleSavedPost() = (%v, %v)", p.SavedPosts, saved)
	}
}

func TestSelectChallenge(t *testing.T) {
	p := newTestProfile()
	thursday := time.Date(2024, 5, 16, 15, 0, 0, 0, time.Local)

	p, c, err := SelectChallenge(p, "water_2l_7d", thursday)
	if err != nil {
		t.Fatalf("SelectChallenge() failed: %v", err)
	}
	if c.Title != "Hidratação Total" {
		t.Errorf("challenge = %+v", c)
	}
	cp := p.ChallengeProgress
	if cp == nil || cp.StartDate != "2024-05-13" || len(cp.Progress) != 7 || cp.Completed {
		t.Errorf("ChallengeProgress = %+v, want week starting 2024-05-13 with 7 empty days", cp)
	}

	if _, _, err := SelectChallenge(p, "nope", thursday); !errors.Is(err, ErrUnknownChallenge) {
		t.Errorf("SelectChallenge(nope) = %v, want ErrUnknownChallenge", err)
	}

	p = DisableChallenge(p)
	if p.ChallengeProgress != nil {
		t.Error("DisableChallenge() kept progress")
	}
}

func TestCreateCustomChallenge(t *testing.T) {
	p := newTestProfile()

	p, c, err := CreateCustomChallenge(p, CustomChallenge{
		Title:        "Sem açúcar",
		Type:         models.ChallengeLowCarb,
		GoalValue:    4,
		DurationDays: 5,
		DailyTarget:  100,
		StartDate:    "2024-05-01",
		EndDate:      "2024-05-05",
	})
	if err != nil {
		t.Fatalf("CreateCustomChallenge() failed: %v", err)
	}
	if c.ID == "" || !c.IsCustom {
		t.Errorf("challenge = %+v, want generated id and custom flag", c)
	}
	if len(p.CustomChallenges) != 1 || p.ChallengeProgress.ChallengeID != c.ID || p.ChallengeProgress.EndDate != "2024-05-05" {
		t.Errorf("profile not enrolled: %+v", p.ChallengeProgress)
	}

	bad := []CustomChallenge{
		{Title: "", GoalValue: 1, DurationDays: 1, StartDate: "2024-05-01", EndDate: "2024-05-02"},
		{Title: "x", GoalValue: 0, DurationDays: 1, StartDate: "2024-05-01", EndDate: "2024-05-02"},
		{Title: "x", GoalValue: 1, DurationDays: 1, StartDate: "01/05/2024", EndDate: "2024-05-02"},
		{Title: "x", GoalValue: 1, DurationDays: 1, StartDate: "2024-05-03", EndDate: "2024-05-02"},
	}
	for i, in := range bad {
		if _, _, err := CreateCustomChallenge(p, in); err == nil {
			t.Errorf("case %d: CreateCustomChallenge() should fail", i)
		}
	}
}

func TestFlags(t *testing.T) {
	p := newTestProfile()
	if !UpgradePremium(p).IsPremium {
		t.Error("UpgradePremium() did not set IsPremium")
	}
	if !CompleteTutorial(p).HasCompletedTutorial {
		t.Error("CompleteTutorial() did not set HasCompletedTutorial")
	}
}

func TestRefreshIntegrations(t *testing.T) {
	now := time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC)
	p := newTestProfile()

	p, err := SetIntegration(p, "strava", true)
	if err != nil {
		t.Fatalf("SetIntegration() failed: %v", err)
	}
	p, _ = SetIntegration(p, "fitbit", true)
	p.Integrations["fitbit"] = models.Integration{Enabled: true, LastSync: now.Add(-time.Hour).Format(time.RFC3339)}

	if _, err := SetIntegration(p, "myspace", true); !errors.Is(err, ErrUnknownIntegration) {
		t.Errorf("SetIntegration(myspace) = %v, want ErrUnknownIntegration", err)
	}

	refreshed, synced := RefreshIntegrations(p, now)
	if len(synced) != 1 || synced[0] != "strava" {
		t.Fatalf("synced = %v, want [strava]", synced)
	}
	if refreshed.Integrations["strava"].LastSync != "2024-05-16T12:00:00Z" {
		t.Errorf("strava LastSync = %q", refreshed.Integrations["strava"].LastSync)
	}
	if p.Integrations["strava"].LastSync != "" {
		t.Error("RefreshIntegrations() mutated the input map")
	}

	_, synced = RefreshIntegrations(refreshed, now.Add(time.Hour))
	if len(synced) != 0 {
		t.Errorf("synced = %v within the interval, want none", synced)
	}
}
