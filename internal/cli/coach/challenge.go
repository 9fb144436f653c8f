package coach

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/calorix/internal/challenge"
	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
)

type ChallengeListCmd struct{}

func (c *ChallengeListCmd) Run(ctx *cli.Context) error {
	_, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	active, hasActive := challenge.Active(p)

	fmt.Fprintf(ctx.Out, "Week %d challenges:\n", challenge.ISOWeek(ctx.Now()))
	list := append(append([]models.Challenge{}, challenge.Catalog...), p.CustomChallenges...)
	for _, ch := range list {
		mark := " "
		if hasActive && ch.ID == active.ID {
			mark = "▶"
		}
		medal := ""
		if challenge.HasMedal(p, ch.ID) {
			medal = " 🏅"
		}
		fmt.Fprintf(ctx.Out, "%s %-14s %s%s\n", mark, ch.ID, ch.Title, medal)
		fmt.Fprintf(ctx.Out, "  %s\n", ch.Description)
	}

	if hasActive {
		prog := p.ChallengeProgress
		fmt.Fprintf(ctx.Out, "\nActive: %s, %d/%d day(s) since %s\n", active.Title, prog.DaysCompleted(), active.GoalValue, prog.StartDate)
	}
	return nil
}

type ChallengeSelectCmd struct {
	ID string `arg:"" help:"Catalog challenge id (see 'calorix challenge list')."`
}

func (c *ChallengeSelectCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	logs := s.Logs()
	var selected models.Challenge
	_, err = s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		var err error
		p, selected, err = profile.SelectChallenge(p, c.ID, ctx.Now())
		if err != nil {
			return p, err
		}
		return challenge.UpdateProgress(p, logs, selected, ctx.Now()), nil
	})
	if errors.Is(err, profile.ErrUnknownChallenge) {
		return fmt.Errorf("%w. Run 'calorix challenge list' to see the options", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Joined %s\n", selected.Title)
	return nil
}

type ChallengeCustomCmd struct {
	Title       string  `arg:"" help:"Challenge title."`
	Description string  `help:"Description."`
	Type        string  `help:"How a day counts." enum:"water,deficit,protein_goal,log_streak,low_carb" default:"log_streak"`
	Goal        int     `help:"Successful days needed." default:"5"`
	Days        int     `help:"Duration in days." default:"7"`
	Target      float64 `help:"Daily target in ml or g, for water and low_carb."`
	Start       string  `help:"Start date (YYYY-MM-DD, today)." default:"today"`
}

func (c *ChallengeCustomCmd) Validate() error {
	if c.Days <= 0 || c.Goal <= 0 {
		return errors.New("--goal and --days must be positive")
	}
	if c.Goal > c.Days {
		return fmt.Errorf("--goal (%d) cannot exceed --days (%d)", c.Goal, c.Days)
	}
	return nil
}

func (c *ChallengeCustomCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	start, err := cli.ResolveDate(c.Start, ctx.Now())
	if err != nil {
		return err
	}
	startDay, _ := time.ParseInLocation(constants.DateFormat, start, ctx.Now().Location())
	end := startDay.AddDate(0, 0, c.Days-1).Format(constants.DateFormat)

	var created models.Challenge
	if _, err := s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		var err error
		p, created, err = profile.CreateCustomChallenge(p, profile.CustomChallenge{
			Title:        c.Title,
			Description:  c.Description,
			Type:         models.ChallengeType(c.Type),
			GoalValue:    c.Goal,
			DurationDays: c.Days,
			DailyTarget:  c.Target,
			StartDate:    start,
			EndDate:      end,
		})
		return p, err
	}); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Created and joined %s (%s → %s)\n", created.Title, start, end)
	return nil
}

type ChallengeDisableCmd struct{}

func (c *ChallengeDisableCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	if p.ChallengeProgress == nil {
		fmt.Fprintln(ctx.Out, "No active challenge.")
		return nil
	}
	if _, err := s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		return profile.DisableChallenge(p), nil
	}); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "✓ Challenge disabled. Earned medals are kept.")
	return nil
}
