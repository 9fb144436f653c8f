// Package reminder decides which notifications are due. Everything here is a
// pure function of the clock, the profile and the logs; delivery and the
// dedup bookkeeping belong to the caller.
package reminder

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/julianstephens/calorix/internal/challenge"
	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
)

// Kind identifies which rule produced a notification.
type Kind string

const (
	KindReminder   Kind = "reminder"
	KindMissedMeal Kind = "missed_meal"
	KindSummary    Kind = "summary"
	KindChallenge  Kind = "challenge"
	KindFasting    Kind = "fasting"
)

const (
	summaryTime         = "21:00"
	challengeTime       = "16:00"
	missedMealDelay     = 2 * time.Hour
	missedMealWindow    = time.Minute
	mealLabelPrefix     = "Registrar "
	nearGoalRatio       = 0.9
	coachLookbackInDays = 2
)

// Notification is a due notification. Key is the dedup key recorded in the
// lastNotified entry once the notification has been delivered.
type Notification struct {
	Key   string
	Kind  Kind
	Title string
	Body  string
}

// Evaluate returns every notification due at now that is not already in
// dedup. Dates and clock times are read in now's location.
func Evaluate(now time.Time, p models.UserProfile, logs map[string]models.DailyLog, fasting models.FastingState, dedup map[string]string) []Notification {
	today := now.Format(constants.DateFormat)
	clock := now.Format(constants.TimeFormat)
	todayLog, hasToday := logs[today]

	var out []Notification
	add := func(n Notification) {
		if _, seen := dedup[n.Key]; seen {
			return
		}
		out = append(out, n)
	}

	for _, r := range p.Reminders {
		if !r.Enabled || r.Time == "" {
			continue
		}
		if slot, ok := scheduledSlot(r, clock); ok {
			key := fmt.Sprintf("reminder_%s_%s", r.ID, today)
			if slot != r.Time {
				key += "_" + strings.ReplaceAll(slot, ":", "")
			}
			add(Notification{
				Key:   key,
				Kind:  KindReminder,
				Title: "Lembrete: " + r.Label,
				Body:  fmt.Sprintf("Está na hora de %s.", strings.ToLower(r.Label)),
			})
		}

		if r.Interval > 0 || !missedMealDue(r, now) {
			continue
		}
		meal := strings.TrimPrefix(r.Label, mealLabelPrefix)
		if m, ok := todayLog.Meal(meal); ok && len(m.Items) > 0 {
			continue
		}
		add(Notification{
			Key:   fmt.Sprintf("missed_%s_%s", r.ID, today),
			Kind:  KindMissedMeal,
			Title: "Ops! Esqueceu algo?",
			Body:  fmt.Sprintf("Parece que você ainda não registrou seu %s hoje.", strings.ToLower(meal)),
		})
	}

	if clock == summaryTime && hasToday && (len(todayLog.Meals) > 0 || todayLog.WaterIntake > 0) {
		totals := nutrition.CalculateTotals(todayLog.Meals)
		add(Notification{
			Key:   "summary_" + today,
			Kind:  KindSummary,
			Title: "Seu Resumo Diário do calorix",
			Body: fmt.Sprintf("Resumo do dia: Você consumiu %s de %s kcal. Continue assim!",
				formatAmount(totals.Calories), formatAmount(p.Goals.Calories)),
		})
	}

	if now.Weekday() == time.Thursday && clock == challengeTime {
		if n, ok := challengeReminder(now, p); ok {
			add(n)
		}
	}

	if fasting.Finished(now) && !fasting.CompletionNotified {
		add(Notification{
			Key:   fmt.Sprintf("fasting_%d", *fasting.EndTime),
			Kind:  KindFasting,
			Title: "Jejum concluído!",
			Body:  fmt.Sprintf("Parabéns! Você completou seu jejum de %s horas.", formatAmount(fasting.DurationHours)),
		})
	}

	return out
}

// scheduledSlot reports whether clock is one of r's firing times. Plain
// reminders fire at Time; interval reminders also fire every Interval hours
// after Time until midnight.
func scheduledSlot(r models.Reminder, clock string) (string, bool) {
	if r.Time == clock {
		return clock, true
	}
	if r.Interval <= 0 {
		return "", false
	}
	start, err := time.Parse(constants.TimeFormat, r.Time)
	if err != nil {
		return "", false
	}
	current, err := time.Parse(constants.TimeFormat, clock)
	if err != nil {
		return "", false
	}
	elapsed := current.Sub(start)
	if elapsed <= 0 || elapsed%(time.Duration(r.Interval)*time.Hour) != 0 {
		return "", false
	}
	return clock, true
}

// missedMealDue reports whether now falls in the minute that starts two
// hours after r's time today.
func missedMealDue(r models.Reminder, now time.Time) bool {
	t, err := time.Parse(constants.TimeFormat, r.Time)
	if err != nil {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()).Add(missedMealDelay)
	return !now.Before(at) && now.Before(at.Add(missedMealWindow))
}

func challengeReminder(now time.Time, p models.UserProfile) (Notification, bool) {
	cp := p.ChallengeProgress
	if cp == nil || cp.Completed {
		return Notification{}, false
	}
	c, ok := challenge.Active(p)
	if !ok {
		return Notification{}, false
	}
	needed := c.GoalValue - cp.DaysCompleted()
	if needed <= 0 {
		return Notification{}, false
	}
	return Notification{
		Key:   fmt.Sprintf("challenge_reminder_%s_%d", c.ID, challenge.ISOWeek(now)),
		Kind:  KindChallenge,
		Title: "Lembrete do Desafio!",
		Body: fmt.Sprintf("Faltam 3 dias na semana. Você ainda precisa de %d dia(s) para completar \"%s\". Vamos lá!",
			needed, c.Title),
	}, true
}

// Record returns a copy of dedup with every notification marked as sent at now.
func Record(dedup map[string]string, sent []Notification, now time.Time) map[string]string {
	out := make(map[string]string, len(dedup)+len(sent))
	for k, v := range dedup {
		out[k] = v
	}
	stamp := now.UTC().Format(time.RFC3339)
	for _, n := range sent {
		out[n.Key] = stamp
	}
	return out
}

// GoalAlert is a progress message for one macro or water target.
type GoalAlert struct {
	Key     string
	Message string
}

type goalMessages struct {
	met  string
	near func(consumed, goal float64) string
}

func fixed(msg string) func(float64, float64) string {
	return func(float64, float64) string { return msg }
}

var goalTexts = map[string]goalMessages{
	"calories": {
		met: "Parabéns! Você atingiu sua meta de calorias! 🎉",
		near: func(consumed, goal float64) string {
			return fmt.Sprintf("Você está quase atingindo sua meta de calorias! Faltam %.0f kcal.", math.Round(goal-consumed))
		},
	},
	"protein": {"Meta de proteína batida! 💪", fixed("Continue assim! Você está perto de bater sua meta de proteína. 💪")},
	"carbs":   {"Meta de carboidratos alcançada! ⚡", fixed("Falta pouco para alcançar sua meta de carboidratos! ⚡")},
	"fat":     {"Meta de gordura atingida! 🥑", fixed("Quase lá! Você está perto da sua meta de gordura diária. 🥑")},
	"water":   {"Meta de hidratação alcançada! 💧", fixed("Você está quase lá! Beba mais um pouco de água para atingir sua meta. 💧")},
}

// CheckGoals compares the day's intake with goals. A goal reached yields
// key "<type>"; one within 10% yields "<type>_near". Keys already in
// notified are skipped, so each alert fires once per date.
func CheckGoals(log models.DailyLog, goals models.Goals, notified []string) []GoalAlert {
	totals := nutrition.CalculateTotals(log.Meals)
	checks := []struct {
		kind           string
		consumed, goal float64
	}{
		{"calories", totals.Calories, goals.Calories},
		{"protein", totals.Protein, goals.Protein},
		{"carbs", totals.Carbs, goals.Carbs},
		{"fat", totals.Fat, goals.Fat},
		{"water", log.WaterIntake, goals.Water},
	}

	seen := make(map[string]bool, len(notified))
	for _, k := range notified {
		seen[k] = true
	}

	var alerts []GoalAlert
	for _, c := range checks {
		if c.consumed <= 0 || c.goal <= 0 {
			continue
		}
		texts := goalTexts[c.kind]
		nearKey := c.kind + "_near"
		switch {
		case c.consumed >= c.goal && !seen[c.kind]:
			alerts = append(alerts, GoalAlert{Key: c.kind, Message: texts.met})
		case c.consumed >= c.goal*nearGoalRatio && c.consumed < c.goal && !seen[nearKey]:
			alerts = append(alerts, GoalAlert{Key: nearKey, Message: texts.near(c.consumed, c.goal)})
		}
	}
	return alerts
}

// NeedsCoach reports whether nothing was logged on either of the two days
// before now.
func NeedsCoach(logs map[string]models.DailyLog, now time.Time) bool {
	for i := 1; i <= coachLookbackInDays; i++ {
		date := now.AddDate(0, 0, -i).Format(constants.DateFormat)
		if l, ok := logs[date]; ok && l.HasEntries() {
			return false
		}
	}
	return true
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
