package coach

import (
	"errors"
	"fmt"
	"slices"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
	"github.com/julianstephens/calorix/internal/reminder"
)

type RemindersListCmd struct{}

func (c *RemindersListCmd) Run(ctx *cli.Context) error {
	_, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(p.Reminders) == 0 {
		fmt.Fprintln(ctx.Out, "No reminders.")
		return nil
	}
	for _, r := range p.Reminders {
		state := "off"
		if r.Enabled {
			state = "on"
		}
		when := r.Time
		if r.Interval > 0 {
			when = fmt.Sprintf("%s, every %dh", r.Time, r.Interval)
		}
		fmt.Fprintf(ctx.Out, "  %-3s %-13s %-24s %s\n", state, r.ID, r.Label, when)
	}
	return nil
}

// RemindersSetCmd edits one reminder, creating it when --label is given for
// an unknown id.
type RemindersSetCmd struct {
	ID       string  `arg:"" help:"Reminder id, e.g. logLunch."`
	Enable   bool    `help:"Enable the reminder." xor:"state"`
	Disable  bool    `help:"Disable the reminder." xor:"state"`
	Time     *string `help:"Time of day (HH:MM)."`
	Interval *int    `help:"Repeat every N hours from --time (0 for once a day)."`
	Label    *string `help:"Label shown in the notification."`
	Delete   bool    `help:"Remove the reminder."`
}

func (c *RemindersSetCmd) Validate() error {
	if c.Interval != nil && *c.Interval < 0 {
		return errors.New("--interval cannot be negative")
	}
	return nil
}

func (c *RemindersSetCmd) apply(list []models.Reminder) ([]models.Reminder, error) {
	list = slices.Clone(list)
	i := slices.IndexFunc(list, func(r models.Reminder) bool { return r.ID == c.ID })
	if c.Delete {
		if i < 0 {
			return nil, fmt.Errorf("no reminder %q", c.ID)
		}
		return slices.Delete(list, i, i+1), nil
	}
	if i < 0 {
		if c.Label == nil || c.Time == nil {
			return nil, fmt.Errorf("no reminder %q. Pass --label and --time to create it", c.ID)
		}
		list = append(list, models.Reminder{ID: c.ID, Enabled: true})
		i = len(list) - 1
	}

	r := &list[i]
	if c.Enable {
		r.Enabled = true
	}
	if c.Disable {
		r.Enabled = false
	}
	if c.Time != nil {
		r.Time = *c.Time
	}
	if c.Interval != nil {
		r.Interval = *c.Interval
	}
	if c.Label != nil {
		r.Label = *c.Label
	}
	return list, nil
}

func (c *RemindersSetCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	if _, err := s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		list, err := c.apply(p.Reminders)
		if err != nil {
			return p, err
		}
		return profile.SetReminders(p, list)
	}); err != nil {
		return err
	}
	if c.Delete {
		fmt.Fprintf(ctx.Out, "✓ Reminder %s removed\n", c.ID)
	} else {
		fmt.Fprintf(ctx.Out, "✓ Reminder %s updated\n", c.ID)
	}
	return nil
}

type RemindersResetCmd struct{}

func (c *RemindersResetCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	if _, err := s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		return profile.SetReminders(p, reminder.Defaults())
	}); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "✓ Reminders reset to defaults (all disabled)")
	return nil
}
