package account

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
)

var (
	sexes      = []string{string(models.SexMale), string(models.SexFemale), string(models.SexPreferNotToSay)}
	activities = []string{
		string(models.ActivitySedentary), string(models.ActivityLight), string(models.ActivityModerate),
		string(models.ActivityVery), string(models.ActivityExtra),
	}
	goals = []string{string(models.GoalLose), string(models.GoalMaintain), string(models.GoalGain)}
)

func oneOf(field, v string, allowed []string) error {
	if v == "" || slices.Contains(allowed, v) {
		return nil
	}
	return fmt.Errorf("invalid %s %q, expected one of: %s", field, v, strings.Join(allowed, ", "))
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	_, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	printProfile(ctx.Out, p)
	return nil
}

func printProfile(w io.Writer, p models.UserProfile) {
	fmt.Fprintf(w, "%s <%s>\n", p.Name, p.Email)
	fmt.Fprintf(w, "  Age:            %d\n", p.Age)
	fmt.Fprintf(w, "  Sex:            %s\n", p.Sex)
	fmt.Fprintf(w, "  Weight:         %.1f kg\n", p.Weight)
	fmt.Fprintf(w, "  Height:         %.0f cm\n", p.Height)
	fmt.Fprintf(w, "  Activity level: %s\n", p.ActivityLevel)
	if p.PracticesSports {
		fmt.Fprintf(w, "  Sport:          %s\n", p.ActivityType)
	}
	fmt.Fprintf(w, "  Goal:           %s\n", p.Goal)
	if len(p.Allergies) > 0 {
		fmt.Fprintf(w, "  Allergies:      %s\n", strings.Join(p.Allergies, ", "))
	}
	fmt.Fprintf(w, "  Premium:        %v\n", p.IsPremium)

	fmt.Fprintln(w, "\nDaily Goals:")
	fmt.Fprintf(w, "  Calories: %.0f kcal\n", p.Goals.Calories)
	fmt.Fprintf(w, "  Protein:  %.0f g\n", p.Goals.Protein)
	fmt.Fprintf(w, "  Carbs:    %.0f g\n", p.Goals.Carbs)
	fmt.Fprintf(w, "  Fat:      %.0f g\n", p.Goals.Fat)
	fmt.Fprintf(w, "  Water:    %.0f ml\n", p.Goals.Water)
	if p.CustomGoals != nil || p.CustomWaterGoal != nil {
		fmt.Fprintln(w, "  (custom overrides active)")
	}

	fmt.Fprintf(w, "\nCoach: %s\n", p.Coach.Name)
	if len(p.CompletedChallenges) > 0 {
		fmt.Fprintf(w, "Medals: %d\n", len(p.CompletedChallenges))
	}
}

// ProfileCreateCmd completes onboarding. Without every physical flag it
// asks interactively.
type ProfileCreateCmd struct {
	Age       int      `help:"Age in years."`
	Sex       string   `help:"One of male, female, prefer_not_to_say."`
	Weight    float64  `help:"Weight in kg."`
	Height    float64  `help:"Height in cm."`
	Activity  string   `help:"Activity level: sedentary, light, moderate, very, extra." default:"moderate"`
	Sport     string   `help:"Main sport, if any (e.g. strength)."`
	Goal      string   `help:"Weight goal: lose, maintain, gain." default:"maintain"`
	Allergies []string `help:"Food allergies."`
	Avatar    string   `help:"Avatar URL."`
}

func (c *ProfileCreateCmd) Validate() error {
	if c.Age < 0 || c.Weight < 0 || c.Height < 0 {
		return errors.New("age, weight and height must be positive")
	}
	return errors.Join(
		oneOf("sex", c.Sex, sexes),
		oneOf("activity level", c.Activity, activities),
		oneOf("goal", c.Goal, goals),
	)
}

func (c *ProfileCreateCmd) complete() bool {
	return c.Age > 0 && c.Sex != "" && c.Weight > 0 && c.Height > 0
}

func (c *ProfileCreateCmd) onboarding() profile.Onboarding {
	return profile.Onboarding{
		Avatar:          c.Avatar,
		Age:             c.Age,
		Sex:             models.Sex(c.Sex),
		Weight:          c.Weight,
		Height:          c.Height,
		ActivityLevel:   models.ActivityLevel(c.Activity),
		PracticesSports: c.Sport != "",
		ActivityType:    c.Sport,
		Goal:            models.Goal(c.Goal),
		Allergies:       c.Allergies,
	}
}

func (c *ProfileCreateCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	if _, ok := s.Profile(); ok {
		return errors.New("profile already exists. Use 'calorix profile set' to change it")
	}

	o := c.onboarding()
	if !c.complete() {
		fm := &onboardingForm{
			Sex:           models.Sex(c.Sex),
			ActivityLevel: models.ActivityLevel(c.Activity),
			Goal:          models.Goal(c.Goal),
			ActivityType:  c.Sport,
			Allergies:     strings.Join(c.Allergies, ", "),
		}
		if err := newOnboardingForm(fm).Run(); err != nil {
			return fmt.Errorf("onboarding cancelled: %w", err)
		}
		if o, err = fm.onboarding(); err != nil {
			return err
		}
		o.Avatar = c.Avatar
	}

	p, err := s.CreateProfile(ctx.Ctx, o)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "✓ Profile created")
	printProfile(ctx.Out, p)
	return nil
}

// ProfileSetCmd edits profile fields. Goals are recalculated when a
// physical attribute changes.
type ProfileSetCmd struct {
	Name        *string  `help:"Display name."`
	Avatar      *string  `help:"Avatar URL."`
	Age         *int     `help:"Age in years."`
	Sex         *string  `help:"One of male, female, prefer_not_to_say."`
	Weight      *float64 `help:"Weight in kg."`
	Height      *float64 `help:"Height in cm."`
	Activity    *string  `help:"Activity level: sedentary, light, moderate, very, extra."`
	Sport       *string  `help:"Main sport. Empty to clear."`
	Goal        *string  `help:"Weight goal: lose, maintain, gain."`
	Allergies   []string `help:"Replace the allergy list."`
	Units       *string  `help:"Measurement units: metric, imperial."`
	Calories    *float64 `help:"Custom daily calorie target."`
	Protein     *float64 `help:"Custom daily protein target (g)."`
	Carbs       *float64 `help:"Custom daily carbs target (g)."`
	Fat         *float64 `help:"Custom daily fat target (g)."`
	Water       *float64 `help:"Custom daily water target (ml)."`
	ResetGoals  bool     `help:"Drop custom targets and use computed ones."`
	Premium     bool     `help:"Upgrade to premium."`
	Tutorial    bool     `help:"Mark the tutorial as completed."`
	Integration []string `help:"Enable (name) or disable (-name) a health integration."`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (c *ProfileSetCmd) Validate() error {
	return errors.Join(
		oneOf("sex", deref(c.Sex), sexes),
		oneOf("activity level", deref(c.Activity), activities),
		oneOf("goal", deref(c.Goal), goals),
		oneOf("units", deref(c.Units), []string{"metric", "imperial"}),
	)
}

func (c *ProfileSetCmd) update() (profile.Update, bool) {
	u := profile.Update{
		Name:      c.Name,
		Avatar:    c.Avatar,
		Age:       c.Age,
		Weight:    c.Weight,
		Height:    c.Height,
		Allergies: c.Allergies,
		Units:     c.Units,
	}
	if c.Sex != nil {
		sex := models.Sex(*c.Sex)
		u.Sex = &sex
	}
	if c.Activity != nil {
		level := models.ActivityLevel(*c.Activity)
		u.ActivityLevel = &level
	}
	if c.Sport != nil {
		practices := *c.Sport != ""
		u.PracticesSports = &practices
		u.ActivityType = c.Sport
	}
	if c.Allergies != nil {
		has := len(c.Allergies) > 0
		u.HasAllergies = &has
	}
	if c.Calories != nil || c.Protein != nil || c.Carbs != nil || c.Fat != nil {
		u.CustomGoals = &models.CustomGoals{Calories: c.Calories, Protein: c.Protein, Carbs: c.Carbs, Fat: c.Fat}
	}
	u.CustomWaterGoal = c.Water

	changed := u.Name != nil || u.Avatar != nil || u.Age != nil || u.Sex != nil ||
		u.Weight != nil || u.Height != nil || u.ActivityLevel != nil || u.PracticesSports != nil ||
		u.Allergies != nil || u.Units != nil || u.CustomGoals != nil || u.CustomWaterGoal != nil
	return u, changed
}

func (c *ProfileSetCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}

	u, changed := c.update()
	if !changed && c.Goal == nil && !c.ResetGoals && !c.Premium && !c.Tutorial && len(c.Integration) == 0 {
		fmt.Fprintln(ctx.Out, "No changes specified. Use 'calorix profile show' to view the profile.")
		return nil
	}

	p, err := s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		if changed {
			p = profile.Save(p, u)
		}
		if c.ResetGoals {
			p = profile.ClearCustomGoals(p)
		}
		if c.Goal != nil {
			p = profile.UpdateGoal(p, models.Goal(*c.Goal))
		}
		if c.Premium {
			p = profile.UpgradePremium(p)
		}
		if c.Tutorial {
			p = profile.CompleteTutorial(p)
		}
		for _, name := range c.Integration {
			enabled := !strings.HasPrefix(name, "-")
			var err error
			if p, err = profile.SetIntegration(p, strings.TrimPrefix(name, "-"), enabled); err != nil {
				return p, err
			}
		}
		return p, nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "✓ Profile updated")
	printProfile(ctx.Out, p)
	return nil
}
