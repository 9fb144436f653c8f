package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/calorix/internal/challenge"
	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
)

// DayCmd prints one day's meals, water, workouts and progress against goals.
type DayCmd struct {
	Date   string `arg:"" optional:"" help:"Date (YYYY-MM-DD, today, yesterday)." default:"today"`
	IDs    bool   `help:"Show food ids (for 'calorix food delete')."`
	Micros bool   `help:"Show micronutrient intake."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	date, err := cli.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, renderDay(date, s.Log(date), p, c.IDs, c.Micros))

	if pending, err := s.Pending(ctx.Ctx); err == nil && pending > 0 {
		fmt.Fprintln(ctx.Out, mutedStyle.Render(fmt.Sprintf("%d change(s) waiting to sync", pending)))
	}
	return nil
}

func progressLine(label string, value, goal float64, unit string) string {
	line := fmt.Sprintf("%-9s %6.0f / %-6.0f %s", label, value, goal, unit)
	switch {
	case goal > 0 && value > goal*1.1:
		return overStyle.Render(line)
	case goal > 0 && value >= goal*0.9:
		return metStyle.Render(line)
	default:
		return line
	}
}

func renderDay(date string, log models.DailyLog, p models.UserProfile, showIDs, showMicros bool) string {
	var b strings.Builder

	totals := nutrition.CalculateTotals(log.Meals)
	burned := nutrition.BurnedCalories(log)
	remaining := nutrition.Remaining(p.Goals, totals)

	summary := []string{
		progressLine("Calories", totals.Calories, p.Goals.Calories, "kcal"),
		progressLine("Protein", totals.Protein, p.Goals.Protein, "g"),
		progressLine("Carbs", totals.Carbs, p.Goals.Carbs, "g"),
		progressLine("Fat", totals.Fat, p.Goals.Fat, "g"),
		progressLine("Water", log.WaterIntake, p.Goals.Water, "ml"),
	}
	if burned > 0 {
		summary = append(summary, fmt.Sprintf("%-9s %6.0f kcal", "Burned", burned))
	}
	summary = append(summary, mutedStyle.Render(fmt.Sprintf("%.0f kcal left today", remaining.Calories)))

	b.WriteString(titleStyle.Render(date))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, summary...)))
	b.WriteString("\n")

	if !log.HasFood() {
		b.WriteString(mutedStyle.Render("No meals logged."))
		b.WriteString("\n")
	}
	for _, m := range log.Meals {
		if len(m.Items) == 0 {
			continue
		}
		mt := nutrition.CalculateTotals([]models.Meal{m})
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%.0f kcal)", m.Name, mt.Calories)))
		b.WriteString("\n")
		for _, f := range m.Items {
			line := fmt.Sprintf("  • %s, %s: %.0f kcal, P %.0fg C %.0fg F %.0fg", f.Name, f.ServingSize, f.Calories, f.Protein, f.Carbs, f.Fat)
			if showIDs {
				line += mutedStyle.Render(" [" + shortID(f.ID) + "]")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(log.Workouts) > 0 {
		b.WriteString(headerStyle.Render("Workouts"))
		b.WriteString("\n")
		for _, w := range log.Workouts {
			fmt.Fprintf(&b, "  • %d min %s", w.DurationMin, w.Intensity)
			if w.CaloriesEstimated > 0 {
				fmt.Fprintf(&b, ", ~%.0f kcal", w.CaloriesEstimated)
			}
			if len(w.Exercises) > 0 {
				names := make([]string, len(w.Exercises))
				for i, e := range w.Exercises {
					names[i] = e.Name
				}
				fmt.Fprintf(&b, " (%s)", strings.Join(names, ", "))
			}
			b.WriteString("\n")
		}
	}

	if showMicros && len(p.Goals.Micronutrients) > 0 {
		intake := nutrition.MicronutrientIntake(log, p.Goals.Micronutrients)
		b.WriteString(headerStyle.Render("Micronutrients"))
		b.WriteString("\n")
		for _, name := range models.Micronutrients {
			goal, ok := p.Goals.Micronutrients[name]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %-12s %7.1f / %-7.1f %s\n", name, intake[name], goal.Amount, goal.Unit)
		}
	}

	if c, ok := challenge.Active(p); ok && p.ChallengeProgress != nil {
		fmt.Fprintf(&b, "%s %s: %d/%d\n", headerStyle.Render("Challenge"), c.Title, p.ChallengeProgress.DaysCompleted(), c.GoalValue)
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
