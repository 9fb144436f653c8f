// Package profile implements the read-modify-write operations on a user
// profile. Every function takes a profile by value and returns the updated
// copy; nothing here persists.
package profile

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/calorix/internal/challenge"
	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
)

var (
	ErrUnknownChallenge   = errors.New("unknown challenge")
	ErrUnknownIntegration = errors.New("unknown integration")
	ErrInvalidReminder    = errors.New("invalid reminder")
)

// Identity is supplied by the authentication provider.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Onboarding holds the answers collected when a profile is first created.
type Onboarding struct {
	Avatar          string
	Age             int
	Sex             models.Sex
	Weight          float64
	Height          float64
	ActivityLevel   models.ActivityLevel
	PracticesSports bool
	ActivityType    string
	Goal            models.Goal
	Allergies       []string
}

// Create builds a new profile with computed goals and every default filled in.
func Create(id Identity, o Onboarding) models.UserProfile {
	p := models.UserProfile{
		UID:             id.UID,
		Email:           id.Email,
		Name:            id.Name,
		Avatar:          o.Avatar,
		Age:             o.Age,
		Sex:             o.Sex,
		Weight:          o.Weight,
		Height:          o.Height,
		ActivityLevel:   o.ActivityLevel,
		PracticesSports: o.PracticesSports,
		ActivityType:    o.ActivityType,
		Goal:            o.Goal,
		HasAllergies:    len(o.Allergies) > 0,
		Allergies:       slices.Clone(o.Allergies),
	}
	if !p.PracticesSports {
		p.ActivityType = ""
	}
	p.Goals = nutrition.CalculateGoals(nutrition.AttributesOf(p))
	return Upgrade(p)
}

// Update is a partial profile edit. Nil fields are left unchanged.
type Update struct {
	Name            *string
	Avatar          *string
	Age             *int
	Sex             *models.Sex
	Weight          *float64
	Height          *float64
	ActivityLevel   *models.ActivityLevel
	PracticesSports *bool
	ActivityType    *string
	CustomGoals     *models.CustomGoals
	CustomWaterGoal *float64
	HasAllergies    *bool
	Allergies       []string
	Units           *string
	MealCategories  []models.MealCategory
}

// touchesGoals reports whether u changes an input of the goal equations or
// one of the custom overrides.
func (u Update) touchesGoals() bool {
	return u.Age != nil || u.Sex != nil || u.Weight != nil || u.Height != nil ||
		u.ActivityLevel != nil || u.PracticesSports != nil || u.ActivityType != nil ||
		u.CustomGoals != nil || u.CustomWaterGoal != nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Save applies u and recalculates goals when a physical attribute or a
// custom override was edited. Custom values win over computed ones.
func Save(p models.UserProfile, u Update) models.UserProfile {
	set(&p.Name, u.Name)
	set(&p.Avatar, u.Avatar)
	set(&p.Age, u.Age)
	set(&p.Sex, u.Sex)
	set(&p.Weight, u.Weight)
	set(&p.Height, u.Height)
	set(&p.ActivityLevel, u.ActivityLevel)
	set(&p.PracticesSports, u.PracticesSports)
	set(&p.ActivityType, u.ActivityType)
	set(&p.HasAllergies, u.HasAllergies)
	set(&p.Units, u.Units)
	if u.CustomGoals != nil {
		custom := *u.CustomGoals
		p.CustomGoals = &custom
	}
	if u.CustomWaterGoal != nil {
		water := *u.CustomWaterGoal
		p.CustomWaterGoal = &water
	}
	if u.Allergies != nil {
		p.Allergies = slices.Clone(u.Allergies)
	}
	if u.MealCategories != nil {
		p.MealCategories = slices.Clone(u.MealCategories)
	}

	if u.touchesGoals() {
		p = Recalculate(p)
	}
	return p
}

// Recalculate recomputes goals from the profile's attributes and applies the
// custom overrides.
func Recalculate(p models.UserProfile) models.UserProfile {
	computed := nutrition.CalculateGoals(nutrition.AttributesOf(p))
	p.Goals = nutrition.ApplyOverrides(computed, p.CustomGoals, p.CustomWaterGoal)
	return p
}

// ClearCustomGoals drops every override and recomputes goals.
func ClearCustomGoals(p models.UserProfile) models.UserProfile {
	p.CustomGoals = nil
	p.CustomWaterGoal = nil
	return Recalculate(p)
}

// UpdateGoal switches the weight objective and recomputes targets.
func UpdateGoal(p models.UserProfile, goal models.Goal) models.UserProfile {
	p.Goal = goal
	return Recalculate(p)
}

// SetReminders replaces the reminder list after checking every time is HH:MM.
func SetReminders(p models.UserProfile, reminders []models.Reminder) (models.UserProfile, error) {
	for _, r := range reminders {
		if r.ID == "" {
			return p, fmt.Errorf("%w: missing id", ErrInvalidReminder)
		}
		if r.Interval < 0 {
			return p, fmt.Errorf("%w: %s has negative interval", ErrInvalidReminder, r.ID)
		}
		if r.Time == "" {
			continue
		}
		if _, err := time.Parse(constants.TimeFormat, r.Time); err != nil {
			return p, fmt.Errorf("%w: %s has time %q, expected HH:MM", ErrInvalidReminder, r.ID, r.Time)
		}
	}
	p.Reminders = slices.Clone(reminders)
	return p, nil
}

// toggle removes v from list when present and appends it otherwise. The bool
// reports whether v is in the result.
func toggle(list []string, v string) ([]string, bool) {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1), false
	}
	return append(slices.Clone(list), v), true
}

// ToggleFollow follows or unfollows the author with the given email.
func ToggleFollow(p models.UserProfile, email string) (models.UserProfile, bool) {
	var following bool
	p.Following, following = toggle(p.Following, email)
	return p, following
}

// ToggleSavedPost saves or unsaves a community post.
func ToggleSavedPost(p models.UserProfile, postID string) (models.UserProfile, bool) {
	var saved bool
	p.SavedPosts, saved = toggle(p.SavedPosts, postID)
	return p, saved
}

func newProgress(id, start, end string, days int) *models.ChallengeProgress {
	return &models.ChallengeProgress{
		ChallengeID: id,
		StartDate:   start,
		EndDate:     end,
		Progress:    make([]bool, max(days, 0)),
	}
}

// SelectChallenge enrolls the profile in a catalog challenge for the week
// containing now.
func SelectChallenge(p models.UserProfile, id string, now time.Time) (models.UserProfile, models.Challenge, error) {
	var selected models.Challenge
	found := false
	for _, c := range challenge.Catalog {
		if c.ID == id {
			selected, found = c, true
			break
		}
	}
	if !found {
		return p, models.Challenge{}, fmt.Errorf("%w: %s", ErrUnknownChallenge, id)
	}

	start := challenge.StartOfWeek(now).Format(constants.DateFormat)
	p.ChallengeProgress = newProgress(selected.ID, start, "", selected.DurationDays)
	return p, selected, nil
}

// CustomChallenge describes a user-defined challenge and its date range.
type CustomChallenge struct {
	Title        string
	Description  string
	Type         models.ChallengeType
	GoalValue    int
	DurationDays int
	DailyTarget  float64
	StartDate    string
	EndDate      string
}

// CreateCustomChallenge stores a new custom challenge and enrolls the profile in it.
func CreateCustomChallenge(p models.UserProfile, in CustomChallenge) (models.UserProfile, models.Challenge, error) {
	if in.Title == "" {
		return p, models.Challenge{}, errors.New("challenge title is required")
	}
	if in.GoalValue <= 0 || in.DurationDays <= 0 {
		return p, models.Challenge{}, errors.New("challenge goal and duration must be positive")
	}
	start, err := time.Parse(constants.DateFormat, in.StartDate)
	if err != nil {
		return p, models.Challenge{}, fmt.Errorf("invalid start date %q: %w", in.StartDate, err)
	}
	end, err := time.Parse(constants.DateFormat, in.EndDate)
	if err != nil {
		return p, models.Challenge{}, fmt.Errorf("invalid end date %q: %w", in.EndDate, err)
	}
	if end.Before(start) {
		return p, models.Challenge{}, errors.New("challenge end date is before its start date")
	}

	c := models.Challenge{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Type:         in.Type,
		GoalValue:    in.GoalValue,
		DurationDays: in.DurationDays,
		DailyTarget:  in.DailyTarget,
		IsCustom:     true,
	}
	p.CustomChallenges = append(slices.Clone(p.CustomChallenges), c)
	p.ChallengeProgress = newProgress(c.ID, in.StartDate, in.EndDate, c.DurationDays)
	return p, c, nil
}

// DisableChallenge drops the active challenge. Earned medals are kept.
func DisableChallenge(p models.UserProfile) models.UserProfile {
	p.ChallengeProgress = nil
	return p
}

func UpgradePremium(p models.UserProfile) models.UserProfile {
	p.IsPremium = true
	return p
}

func CompleteTutorial(p models.UserProfile) models.UserProfile {
	p.HasCompletedTutorial = true
	return p
}

// SetIntegration enables or disables a health integration.
func SetIntegration(p models.UserProfile, name string, enabled bool) (models.UserProfile, error) {
	if !slices.Contains(IntegrationNames, name) {
		return p, fmt.Errorf("%w: %s", ErrUnknownIntegration, name)
	}
	integrations := make(map[string]models.Integration, len(p.Integrations)+1)
	for k, v := range p.Integrations {
		integrations[k] = v
	}
	current := integrations[name]
	current.Enabled = enabled
	integrations[name] = current
	p.Integrations = integrations
	return p, nil
}

// RefreshIntegrations stamps every enabled integration whose last sync is
// older than the sync interval. It returns the names it stamped.
func RefreshIntegrations(p models.UserProfile, now time.Time) (models.UserProfile, []string) {
	var synced []string
	var integrations map[string]models.Integration

	for _, name := range sortedKeys(p.Integrations) {
		in := p.Integrations[name]
		if !in.Enabled {
			continue
		}
		last := time.Time{}
		if in.LastSync != "" {
			if t, err := time.Parse(time.RFC3339, in.LastSync); err == nil {
				last = t
			}
		}
		if now.Sub(last) <= constants.IntegrationSyncInterval {
			continue
		}

		if integrations == nil {
			integrations = make(map[string]models.Integration, len(p.Integrations))
			for k, v := range p.Integrations {
				integrations[k] = v
			}
		}
		in.LastSync = now.UTC().Format(time.RFC3339)
		integrations[name] = in
		synced = append(synced, name)
	}

	if integrations != nil {
		p.Integrations = integrations
	}
	return p, synced
}

func sortedKeys(m map[string]models.Integration) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
