package logging

import (
	"errors"
	"fmt"

	"github.com/julianstephens/calorix/internal/cli"
)

// WaterCmd sets the day's water intake. With --add the amount is added to
// what is already logged.
type WaterCmd struct {
	Amount float64 `arg:"" help:"Water in ml."`
	Add    bool    `help:"Add to the logged amount instead of replacing it."`
	Date   string  `help:"Date (YYYY-MM-DD, today, yesterday)." default:"today"`
}

func (c *WaterCmd) Validate() error {
	if c.Amount < 0 {
		return errors.New("water amount cannot be negative")
	}
	return nil
}

func (c *WaterCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	date, err := cli.ResolveDate(c.Date, ctx.Now())
	if err != nil {
		return err
	}

	amount := c.Amount
	if c.Add {
		amount += s.Log(date).WaterIntake
	}
	log, err := s.SetWater(ctx.Ctx, date, amount)
	if err != nil {
		return fmt.Errorf("failed to log water: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Water on %s: %.0f / %.0f ml\n", date, log.WaterIntake, p.Goals.Water)
	return nil
}
