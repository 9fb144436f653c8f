// Package challenge holds the weekly challenge catalog and progress rules.
package challenge

import (
	"time"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
)

const defaultWaterTarget = 2000

// Catalog lists the built-in challenges.
var Catalog = []models.Challenge{
	{
		ID:           "water_2l_7d",
		Title:        "Hidratação Total",
		Description:  "Beba pelo menos 2 litros de água por 7 dias.",
		Type:         models.ChallengeWater,
		GoalValue:    7,
		DurationDays: 7,
		DailyTarget:  2000,
	},
	{
		ID:           "deficit_5d",
		Title:        "Foco no Déficit",
		Description:  "Mantenha um déficit calórico por 5 dias nesta semana.",
		Type:         models.ChallengeDeficit,
		GoalValue:    5,
		DurationDays: 5,
	},
	{
		ID:           "protein_goal_3d",
		Title:        "Mestre da Proteína",
		Description:  "Bata sua meta de proteína por 3 dias nesta semana.",
		Type:         models.ChallengeProteinGoal,
		GoalValue:    3,
		DurationDays: 3,
	},
	{
		ID:           "log_streak_7d",
		Title:        "Semana Perfeita",
		Description:  "Registre suas refeições por 7 dias seguidos.",
		Type:         models.ChallengeLogStreak,
		GoalValue:    7,
		DurationDays: 7,
	},
	{
		ID:           "low_carb_3d",
		Title:        "Controle de Carboidratos",
		Description:  "Mantenha a ingestão de carboidratos abaixo de 50g por 3 dias.",
		Type:         models.ChallengeLowCarb,
		GoalValue:    3,
		DurationDays: 3,
		DailyTarget:  50,
	},
}

// Find looks a challenge up in the catalog and then in custom.
func Find(id string, custom []models.Challenge) (models.Challenge, bool) {
	for _, c := range Catalog {
		if c.ID == id {
			return c, true
		}
	}
	for _, c := range custom {
		if c.ID == id {
			return c, true
		}
	}
	return models.Challenge{}, false
}

// Active returns the challenge the profile is currently enrolled in.
func Active(p models.UserProfile) (models.Challenge, bool) {
	if p.ChallengeProgress == nil {
		return models.Challenge{}, false
	}
	return Find(p.ChallengeProgress.ChallengeID, p.CustomChallenges)
}

// ISOWeek returns the ISO 8601 week number of t's calendar date.
func ISOWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// StartOfWeek returns midnight of the Monday on or before t, in t's location.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daySucceeded(c models.Challenge, goals models.Goals, log models.DailyLog) bool {
	totals := nutrition.CalculateTotals(log.Meals)
	switch c.Type {
	case models.ChallengeWater:
		target := c.DailyTarget
		if target == 0 {
			target = defaultWaterTarget
		}
		return log.WaterIntake >= target
	case models.ChallengeDeficit:
		return totals.Calories > 0 && totals.Calories < goals.Calories
	case models.ChallengeProteinGoal:
		return totals.Protein >= goals.Protein
	case models.ChallengeLowCarb:
		return c.DailyTarget > 0 && totals.Carbs < c.DailyTarget
	}
	return false
}

// successfulDays counts the days that satisfy c. A log streak counts
// consecutive days with food ending today; every other type counts
// successful days between the start date and min(today, end date).
func successfulDays(c models.Challenge, progress models.ChallengeProgress, goals models.Goals, logs map[string]models.DailyLog, today time.Time) int {
	today = midnight(today)
	loc := today.Location()

	if c.Type == models.ChallengeLogStreak {
		n := 0
		for i := 0; i < c.GoalValue; i++ {
			date := today.AddDate(0, 0, -i).Format(constants.DateFormat)
			if log, ok := logs[date]; ok && log.HasFood() {
				n++
				continue
			}
			break
		}
		return n
	}

	start, err := time.ParseInLocation(constants.DateFormat, progress.StartDate, loc)
	if err != nil {
		return 0
	}
	end := start.AddDate(0, 0, 6)
	if progress.EndDate != "" {
		if parsed, err := time.ParseInLocation(constants.DateFormat, progress.EndDate, loc); err == nil {
			end = parsed
		}
	}
	if today.Before(end) {
		end = today
	}

	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		log, ok := logs[d.Format(constants.DateFormat)]
		if ok && daySucceeded(c, goals, log) {
			n++
		}
	}
	return n
}

// UpdateProgress recomputes the active challenge's progress from logs. The
// profile is returned unchanged when c is not the active challenge.
func UpdateProgress(p models.UserProfile, logs map[string]models.DailyLog, c models.Challenge, today time.Time) models.UserProfile {
	if p.ChallengeProgress == nil || p.ChallengeProgress.ChallengeID != c.ID {
		return p
	}

	n := successfulDays(c, *p.ChallengeProgress, p.Goals, logs, today)
	progress := make([]bool, max(c.DurationDays, 0))
	for i := range progress {
		progress[i] = i < n
	}

	next := *p.ChallengeProgress
	next.Progress = progress
	next.Completed = n >= c.GoalValue
	p.ChallengeProgress = &next
	return p
}

// Refresh recomputes the active challenge and, when it has just been
// completed, marks it notified and awards its medal once. The returned
// challenge is non-nil only on that first completion.
func Refresh(p models.UserProfile, logs map[string]models.DailyLog, now time.Time) (models.UserProfile, *models.Challenge) {
	c, ok := Active(p)
	if !ok {
		return p, nil
	}

	p = UpdateProgress(p, logs, c, now)
	if !p.ChallengeProgress.Completed || p.ChallengeProgress.CompletionNotified {
		return p, nil
	}

	progress := *p.ChallengeProgress
	progress.CompletionNotified = true
	p.ChallengeProgress = &progress

	if !HasMedal(p, c.ID) {
		medals := make([]models.CompletedChallenge, 0, len(p.CompletedChallenges)+1)
		medals = append(medals, p.CompletedChallenges...)
		p.CompletedChallenges = append(medals, models.CompletedChallenge{
			ChallengeID:   c.ID,
			DateCompleted: now.Format(constants.DateFormat),
		})
	}
	return p, &c
}

// HasMedal reports whether the profile already completed the challenge.
func HasMedal(p models.UserProfile, id string) bool {
	for _, m := range p.CompletedChallenges {
		if m.ChallengeID == id {
			return true
		}
	}
	return false
}
