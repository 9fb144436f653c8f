package social

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/community"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
)

// FollowCmd toggles following another user by email.
type FollowCmd struct {
	Email string `arg:"" help:"Email of the user to follow or unfollow."`
}

func (c *FollowCmd) Validate() error {
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("invalid email %q", c.Email)
	}
	return nil
}

func (c *FollowCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	if c.Email == p.Email {
		return fmt.Errorf("you cannot follow yourself")
	}
	var following bool
	if _, err := s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		p, following = profile.ToggleFollow(p, c.Email)
		return p, nil
	}); err != nil {
		return err
	}
	if following {
		fmt.Fprintf(ctx.Out, "✓ Following %s\n", c.Email)
	} else {
		fmt.Fprintf(ctx.Out, "✓ Unfollowed %s\n", c.Email)
	}
	return nil
}

// SaveCmd toggles a post in the saved list.
type SaveCmd struct {
	Post string `arg:"" help:"Post id."`
}

func (c *SaveCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	id := c.Post
	if resolved, err := resolvePost(ctx.Ctx, s.Community(), c.Post); err == nil {
		id = resolved
	}
	var saved bool
	if _, err := s.UpdateProfile(ctx.Ctx, func(p models.UserProfile) (models.UserProfile, error) {
		p, saved = profile.ToggleSavedPost(p, id)
		return p, nil
	}); err != nil {
		return err
	}
	if saved {
		fmt.Fprintf(ctx.Out, "✓ Saved post [%s]\n", shortID(id))
	} else {
		fmt.Fprintf(ctx.Out, "✓ Removed post [%s] from saved\n", shortID(id))
	}
	return nil
}

type NotificationsCmd struct {
	MarkRead bool `help:"Mark every notification as read."`
}

func (c *NotificationsCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	svc := s.Community()
	ns, err := svc.Notifications(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(ns) == 0 {
		fmt.Fprintln(ctx.Out, "No notifications.")
		return nil
	}
	fmt.Fprintf(ctx.Out, "%d unread\n\n", community.Unread(ns))
	for _, n := range ns {
		mark := " "
		if !n.Read {
			mark = "•"
		}
		when := time.UnixMilli(n.Timestamp).Format("2006-01-02 15:04")
		fmt.Fprintf(ctx.Out, "%s %s  %s: %s\n", mark, when, n.Title, n.Message)
	}
	if c.MarkRead {
		if err := svc.MarkAllRead(ctx.Ctx); err != nil {
			return err
		}
		fmt.Fprintln(ctx.Out, "\n✓ Marked all as read")
	}
	return nil
}
