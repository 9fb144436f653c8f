package profile

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
	"github.com/julianstephens/calorix/internal/reminder"
)

// CurrentSchemaVersion is the profile document version this build writes.
const CurrentSchemaVersion = 2

const (
	defaultCoachID     = "leo"
	defaultCoachName   = "Leo"
	defaultCoachAvatar = "https://images.pexels.com/photos/2220337/pexels-photo-2220337.jpeg?auto=compress&cs=tinysrgb&w=400"
	defaultUnits       = "metric"
)

// IntegrationNames lists the supported health integrations.
var IntegrationNames = []string{
	"googleFit", "appleHealth", "fitbit", "samsungHealth",
	"garmin", "strava", "xiaomi", "appleWatch",
}

type migrationStep struct {
	version int
	name    string
	apply   func(*models.UserProfile)
}

// steps run in order; each runs once for documents older than its version.
var steps = []migrationStep{
	{1, "backfill defaults", backfillDefaults},
	{2, "micronutrient goals", backfillMicronutrientGoals},
}

// Migrate decodes a stored profile document and upgrades it to the current
// schema version.
func Migrate(raw []byte) (models.UserProfile, error) {
	var p models.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	if p.SchemaVersion > CurrentSchemaVersion {
		return models.UserProfile{}, fmt.Errorf("profile schema version %d is newer than supported version %d",
			p.SchemaVersion, CurrentSchemaVersion)
	}
	return Upgrade(p), nil
}

// Upgrade applies every pending migration step to p.
func Upgrade(p models.UserProfile) models.UserProfile {
	for _, s := range steps {
		if p.SchemaVersion >= s.version {
			continue
		}
		s.apply(&p)
		p.SchemaVersion = s.version
	}
	return p
}

// NeedsUpgrade reports whether p predates the current schema.
func NeedsUpgrade(p models.UserProfile) bool {
	return p.SchemaVersion < CurrentSchemaVersion
}

func defaultIntegrations() map[string]models.Integration {
	out := make(map[string]models.Integration, len(IntegrationNames))
	for _, name := range IntegrationNames {
		out[name] = models.Integration{}
	}
	return out
}

func backfillDefaults(p *models.UserProfile) {
	if p.Reminders == nil {
		p.Reminders = reminder.Defaults()
	}
	if p.MealCategories == nil {
		p.MealCategories = models.DefaultMealCategories()
	}
	if p.Following == nil {
		p.Following = []string{}
	}
	if p.SavedPosts == nil {
		p.SavedPosts = []string{}
	}
	if p.CompletedChallenges == nil {
		p.CompletedChallenges = []models.CompletedChallenge{}
	}
	if p.CustomChallenges == nil {
		p.CustomChallenges = []models.Challenge{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.Units == "" {
		p.Units = defaultUnits
	}
	if p.Integrations == nil {
		p.Integrations = defaultIntegrations()
	}

	p.Coach.ID = defaultCoachID
	if p.Coach.Name == "" {
		p.Coach.Name = defaultCoachName
	}
	if p.Coach.Avatar == "" {
		p.Coach.Avatar = defaultCoachAvatar
	}
}

func backfillMicronutrientGoals(p *models.UserProfile) {
	if len(p.Goals.Micronutrients) == 0 {
		p.Goals.Micronutrients = nutrition.RDAs(p.Age, p.Sex)
	}
}
