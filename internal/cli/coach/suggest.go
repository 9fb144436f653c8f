package coach

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/nutrition"
)

var errNoSuggestions = errors.New("no suggestions available. Check that an API key is configured ('calorix keyring set --ai')")

// SuggestMealsCmd proposes foods for the rest of the day.
type SuggestMealsCmd struct{}

func (c *SuggestMealsCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	consumed := nutrition.CalculateTotals(s.Log(s.Today()).Meals)
	suggestions := s.Advisor().MealSuggestions(ctx.Ctx, p, consumed)
	if len(suggestions) == 0 {
		return errNoSuggestions
	}
	for _, sg := range suggestions {
		fmt.Fprintf(ctx.Out, "%s: %s (%s, %.0f kcal)\n", sg.MealCategory, sg.Food.Name, sg.Food.ServingSize, sg.Food.Calories)
		if sg.Reasoning != "" {
			fmt.Fprintf(ctx.Out, "  %s\n", sg.Reasoning)
		}
	}
	return nil
}

type SuggestRecipesCmd struct {
	Preferences string `arg:"" optional:"" help:"Free-text preferences, e.g. \"vegetarian, quick\"."`
	Goal        string `help:"Goal to cook for (defaults to the profile goal)." enum:",lose,maintain,gain" default:""`
}

func (c *SuggestRecipesCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	goal := p.Goal
	if c.Goal != "" {
		goal = models.Goal(c.Goal)
	}
	recipes := s.Advisor().Recipes(ctx.Ctx, goal, c.Preferences, p)
	if len(recipes) == 0 {
		return errNoSuggestions
	}
	for i, r := range recipes {
		if i > 0 {
			fmt.Fprintln(ctx.Out)
		}
		fmt.Fprintf(ctx.Out, "%s (%d min, %.0f kcal)\n", r.Name, r.TimeInMinutes, r.TotalCalories)
		if r.Description != "" {
			fmt.Fprintf(ctx.Out, "  %s\n", r.Description)
		}
		names := make([]string, len(r.Ingredients))
		for j, ing := range r.Ingredients {
			names[j] = fmt.Sprintf("%s (%s)", ing.Name, ing.ServingSize)
		}
		fmt.Fprintf(ctx.Out, "  Ingredients: %s\n", strings.Join(names, ", "))
		for j, step := range r.Instructions {
			fmt.Fprintf(ctx.Out, "  %d. %s\n", j+1, step)
		}
	}
	return nil
}

// SuggestWorkoutCmd generates a workout and optionally logs it for today.
type SuggestWorkoutCmd struct {
	Minutes   int      `help:"Available time in minutes." default:"30"`
	Equipment []string `help:"Available equipment."`
	Log       bool     `help:"Log the generated workout for today."`
}

func (c *SuggestWorkoutCmd) Validate() error {
	if c.Minutes <= 0 {
		return errors.New("--minutes must be positive")
	}
	return nil
}

func (c *SuggestWorkoutCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	w := s.Advisor().GenerateWorkout(ctx.Ctx, p, c.Equipment, c.Minutes)
	if w == nil {
		return errNoSuggestions
	}
	fmt.Fprintf(ctx.Out, "%d min %s workout (~%.0f kcal)\n", w.DurationMin, w.Intensity, w.CaloriesEstimated)
	for _, e := range w.Exercises {
		fmt.Fprintf(ctx.Out, "  • %s: %d x %s, rest %ds\n", e.Name, e.Sets, e.Reps, e.RestSeconds)
	}
	if c.Log {
		w.Date = s.Today()
		if _, err := s.LogWorkout(ctx.Ctx, w.Date, *w); err != nil {
			return fmt.Errorf("failed to log workout: %w", err)
		}
		fmt.Fprintln(ctx.Out, "✓ Logged for today")
	}
	return nil
}
