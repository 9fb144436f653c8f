package social

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/calorix/internal/cli"
	"github.com/julianstephens/calorix/internal/community"
	"github.com/julianstephens/calorix/internal/models"
)

type FeedCmd struct {
	Limit     int    `help:"Number of posts to show." default:"20"`
	Category  string `help:"Only show posts of this category." enum:",general,recipe,progress,workout,motivation" default:""`
	Following bool   `help:"Only show posts from people you follow."`
	Saved     bool   `help:"Show your saved posts instead of the feed."`
}

func (c *FeedCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	svc := s.Community()

	var posts []models.Post
	if c.Saved {
		posts, err = svc.Saved(ctx.Ctx, p.SavedPosts)
	} else {
		posts, err = svc.Feed(ctx.Ctx, c.Limit)
	}
	if err != nil {
		return err
	}

	posts = filterPosts(posts, models.PostCategory(c.Category), c.Following, p.Following)
	if len(posts) == 0 {
		fmt.Fprintln(ctx.Out, "No posts.")
		return nil
	}
	for _, post := range posts {
		renderPost(ctx.Out, post, p)
	}
	return nil
}

func filterPosts(posts []models.Post, category models.PostCategory, onlyFollowing bool, following []string) []models.Post {
	out := posts[:0:0]
	for _, post := range posts {
		if category != "" && post.Category != category {
			continue
		}
		if onlyFollowing && !slices.Contains(following, post.Author.Email) {
			continue
		}
		out = append(out, post)
	}
	return out
}

func renderPost(w io.Writer, post models.Post, me models.UserProfile) {
	when := time.UnixMilli(post.Timestamp).Format("2006-01-02 15:04")
	marks := ""
	if slices.Contains(me.Following, post.Author.Email) {
		marks += " ★"
	}
	if slices.Contains(me.SavedPosts, post.ID) {
		marks += " 🔖"
	}
	fmt.Fprintf(w, "[%s] %s · %s · %s%s\n", shortID(post.ID), post.Author.Name, post.Category, when, marks)
	fmt.Fprintf(w, "  %s\n", post.Text)
	if post.ImageURL != "" {
		fmt.Fprintf(w, "  🖼  %s\n", post.ImageURL)
	}

	var counts []string
	for _, r := range community.Reactions {
		if n := len(post.Reactions[r]); n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", r, n))
		}
	}
	if len(counts) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(counts, " · "))
	}
	for _, cm := range post.Comments {
		fmt.Fprintf(w, "    ↳ %s: %s\n", cm.Author.Name, cm.Text)
	}
	fmt.Fprintln(w)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolvePost expands an id prefix shown by the feed into a full post id.
func resolvePost(ctx context.Context, svc *community.Service, ref string) (string, error) {
	posts, err := svc.Feed(ctx, community.DefaultFeedSize)
	if err != nil {
		return "", err
	}
	var match string
	for _, p := range posts {
		if p.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(p.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("post id prefix %q is ambiguous", ref)
			}
			match = p.ID
		}
	}
	if match == "" {
		return ref, nil
	}
	return match, nil
}

type PostCmd struct {
	Text     string `arg:"" help:"Post text."`
	Category string `help:"Post category." enum:"general,recipe,progress,workout,motivation" default:"general"`
	Image    string `help:"Image URL."`
	Video    string `help:"Video URL."`
}

func (c *PostCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	post, err := s.Community().CreatePost(ctx.Ctx, community.NewPost{
		Text:     c.Text,
		Category: models.PostCategory(c.Category),
		ImageURL: c.Image,
		VideoURL: c.Video,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Posted [%s]\n", shortID(post.ID))
	return nil
}

type ReactCmd struct {
	Post     string `arg:"" help:"Post id or prefix."`
	Reaction string `arg:"" help:"Reaction: like, love, clap, strong, celebrate." enum:"like,love,clap,strong,celebrate"`
}

func (c *ReactCmd) Run(ctx *cli.Context) error {
	s, p, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	svc := s.Community()
	id, err := resolvePost(ctx.Ctx, svc, c.Post)
	if err != nil {
		return err
	}
	post, err := svc.React(ctx.Ctx, id, models.ReactionType(c.Reaction))
	if err != nil {
		return err
	}
	if slices.Contains(post.Reactions[models.ReactionType(c.Reaction)], p.Email) {
		fmt.Fprintf(ctx.Out, "✓ Reacted %s\n", c.Reaction)
	} else {
		fmt.Fprintf(ctx.Out, "✓ Removed %s reaction\n", c.Reaction)
	}
	return nil
}

type CommentCmd struct {
	Post string `arg:"" help:"Post id or prefix."`
	Text string `arg:"" help:"Comment text."`
}

func (c *CommentCmd) Run(ctx *cli.Context) error {
	s, _, err := ctx.Profile(ctx.Ctx)
	if err != nil {
		return err
	}
	svc := s.Community()
	id, err := resolvePost(ctx.Ctx, svc, c.Post)
	if err != nil {
		return err
	}
	post, err := svc.Comment(ctx.Ctx, id, c.Text)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Commented (%d comment(s))\n", len(post.Comments))
	return nil
}
