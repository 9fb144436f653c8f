package logging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/models"
)

type WorkoutCmd struct {
	Duration  int      `help:"Duration in minutes."`
	Intensity string   `help:"Intensity: low, moderate, high." default:"moderate" enum:"low,moderate,high"`
	Calories  float64  `help:"Estimated calories burned."`
	Exercise  []string `help:"Exercise as name or name:sets:reps (repeatable)."`
	Image     string   `help:"Read the workout from a photo of a plan." type:"existingfile"`
	Date      string   `help:"Date (YYYY-MM-DD, today, yesterday)." default:"today"`
}

func (c *WorkoutCmd) Validate() error {
	if c.Image == "" && c.Duration <= 0 {
		return errors.New("--duration must be positive")
	}
	if c.Calories < 0 {
		return errors.New("calories cannot be negative")
	}
	return nil
}

func parseExercise(s string) (models.WorkoutExercise, error) {
	parts := strings.Split(s, ":")
	ex := models.WorkoutExercise{ID: uuid.NewString(), Name: strings.TrimSpace(parts[0]), Type: "strength", Sets: 1}
	if ex.Name == "" {
		return ex, fmt.Errorf("invalid exercise %q", s)
	}
	if len(parts) > 1 {
		if _, err := fmt.Sscanf(parts[1], "%d", &ex.Sets); err != nil || ex.Sets <= 0 {
			return ex, fmt.Errorf("invalid sets in %q", s)
		}
	}
	if len(parts) > 2 {
		ex.Reps = parts[2]
	}
	return ex, nil
}

func (c *WorkoutCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	date, err := cli.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}

	var w models.Workout
	if c.Image != "" {
		img, err := readImage(c.Image)
		if err != nil {
			return err
		}
		parsed := s.Advisor().WorkoutFromImage(ctx.Ctx, img)
		if parsed == nil {
			return errors.New("could not read a workout from the image")
		}
		w = *parsed
	} else {
		w = models.Workout{
			ID:                uuid.NewString(),
			DurationMin:       c.Duration,
			Intensity:         c.Intensity,
			CaloriesEstimated: c.Calories,
		}
		for _, e := range c.Exercise {
			ex, err := parseExercise(e)
			if err != nil {
				return err
			}
			w.Exercises = append(w.Exercises, ex)
		}
	}
	w.Date = date

	if _, err := s.LogWorkout(ctx.Ctx, date, w); err != nil {
		return fmt.Errorf("failed to log workout: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Logged %d min %s workout on %s", w.DurationMin, w.Intensity, date)
	if w.CaloriesEstimated > 0 {
		fmt.Fprintf(ctx.Out, " (~%.0f kcal)", w.CaloriesEstimated)
	}
	fmt.Fprintln(ctx.Out)
	return nil
}
