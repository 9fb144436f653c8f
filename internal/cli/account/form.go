package account

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
)

// onboardingForm holds the text the form edits before it is parsed.
type onboardingForm struct {
	Age             string
	Sex             models.Sex
	Weight          string
	Height          string
	ActivityLevel   models.ActivityLevel
	PracticesSports bool
	ActivityType    string
	Goal            models.Goal
	Allergies       string
}

func positive(kind string, parse func(string) (float64, error)) func(string) error {
	return func(s string) error {
		v, err := parse(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", kind)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive", kind)
		}
		return nil
	}
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseInt(s string) (float64, error) {
	i, err := strconv.Atoi(s)
	return float64(i), err
}

func newOnboardingForm(fm *onboardingForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Age").
				Value(&fm.Age).
				Validate(positive("age", parseInt)),
			huh.NewSelect[models.Sex]().
				Title("Sex").
				Options(
					huh.NewOption("Female", models.SexFemale),
					huh.NewOption("Male", models.SexMale),
					huh.NewOption("Prefer not to say", models.SexPreferNotToSay),
				).
				Value(&fm.Sex),
			huh.NewInput().
				Title("Weight (kg)").
				Value(&fm.Weight).
				Validate(positive("weight", parseFloat)),
			huh.NewInput().
				Title("Height (cm)").
				Value(&fm.Height).
				Validate(positive("height", parseFloat)),
		),
		huh.NewGroup(
			huh.NewSelect[models.ActivityLevel]().
				Title("Activity level").
				Options(
					huh.NewOption("Sedentary", models.ActivitySedentary),
					huh.NewOption("Lightly active", models.ActivityLight),
					huh.NewOption("Moderately active", models.ActivityModerate),
					huh.NewOption("Very active", models.ActivityVery),
					huh.NewOption("Extra active", models.ActivityExtra),
				).
				Value(&fm.ActivityLevel),
			huh.NewConfirm().
				Title("Do you practice sports?").
				Value(&fm.PracticesSports),
			huh.NewInput().
				Title("Main activity").
				Description("e.g. strength, running. Leave blank if none").
				Value(&fm.ActivityType),
			huh.NewSelect[models.Goal]().
				Title("Goal").
				Options(
					huh.NewOption("Lose weight", models.GoalLose),
					huh.NewOption("Maintain weight", models.GoalMaintain),
					huh.NewOption("Gain weight", models.GoalGain),
				).
				Value(&fm.Goal),
			huh.NewInput().
				Title("Allergies").
				Description("Comma separated, leave blank if none").
				Value(&fm.Allergies),
		),
	).WithTheme(huh.ThemeDracula())
}

// onboarding converts the completed form into profile input.
func (fm *onboardingForm) onboarding() (profile.Onboarding, error) {
	age, err := strconv.Atoi(strings.TrimSpace(fm.Age))
	if err != nil {
		return profile.Onboarding{}, fmt.Errorf("invalid age %q", fm.Age)
	}
	weight, err := parseFloat(strings.TrimSpace(fm.Weight))
	if err != nil {
		return profile.Onboarding{}, fmt.Errorf("invalid weight %q", fm.Weight)
	}
	height, err := parseFloat(strings.TrimSpace(fm.Height))
	if err != nil {
		return profile.Onboarding{}, fmt.Errorf("invalid height %q", fm.Height)
	}
	return profile.Onboarding{
		Age:             age,
		Sex:             fm.Sex,
		Weight:          weight,
		Height:          height,
		ActivityLevel:   fm.ActivityLevel,
		PracticesSports: fm.PracticesSports,
		ActivityType:    strings.TrimSpace(fm.ActivityType),
		Goal:            fm.Goal,
		Allergies:       splitList(fm.Allergies),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
