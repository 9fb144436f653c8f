// Package community implements the shared feed: posts, reactions, comments
// and the per-user notifications they produce. Every call goes to the remote
// store; there is no offline path for the feed.
package community

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/calorix/internal/logger"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/remote"
)

// DefaultFeedSize is how many posts Feed returns when no limit is given.
const DefaultFeedSize = 50

var ErrEmptyText = errors.New("text cannot be empty")

// Notification types written to other users.
const (
	NotifyComment  = "comment"
	NotifyReaction = "reaction"
)

type Service struct {
	store  remote.Store
	author models.Author
	now    func() time.Time
	log    *log.Logger
}

// New returns a service acting as author.
func New(store remote.Store, author models.Author) *Service {
	return &Service{
		store:  store,
		author: author,
		now:    time.Now,
		log:    logger.Component("community"),
	}
}

// Feed returns the newest posts first.
func (s *Service) Feed(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedSize
	}
	posts, err := s.store.ListPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	return posts, nil
}

// Saved returns the posts with the given ids, skipping any that were removed.
func (s *Service) Saved(ctx context.Context, ids []string) ([]models.Post, error) {
	out := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		p, err := s.store.GetPost(ctx, id)
		if errors.Is(err, remote.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load post %s: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// NewPost is the user input for a post.
type NewPost struct {
	Text     string
	Category models.PostCategory
	ImageURL string
	VideoURL string
}

func (s *Service) CreatePost(ctx context.Context, in NewPost) (models.Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return models.Post{}, ErrEmptyText
	}
	category := in.Category
	if category == "" {
		category = models.PostGeneral
	}
	p := models.Post{
		ID:        uuid.NewString(),
		Author:    s.author,
		Text:      text,
		Category:  category,
		ImageURL:  in.ImageURL,
		VideoURL:  in.VideoURL,
		Reactions: map[models.ReactionType][]string{},
		Comments:  []models.Comment{},
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return models.Post{}, fmt.Errorf("failed to create post: %w", err)
	}
	s.log.Debug("Created post", "id", p.ID, "category", p.Category)
	return p, nil
}

// ApplyReaction removes email from every reaction and then adds it under r,
// unless it was already there, in which case the reaction is withdrawn.
func ApplyReaction(p models.Post, email string, r models.ReactionType) models.Post {
	had := slices.Contains(p.Reactions[r], email)
	reactions := make(map[models.ReactionType][]string, len(p.Reactions)+1)
	for k, emails := range p.Reactions {
		reactions[k] = slices.DeleteFunc(slices.Clone(emails), func(e string) bool { return e == email })
	}
	if !had {
		reactions[r] = append(reactions[r], email)
	}
	p.Reactions = reactions
	return p
}

// React toggles the caller's reaction on a post and notifies the author the
// first time the caller reacts.
func (s *Service) React(ctx context.Context, postID string, r models.ReactionType) (models.Post, error) {
	if !validReaction(r) {
		return models.Post{}, fmt.Errorf("unknown reaction %q", r)
	}
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to load post %s: %w", postID, err)
	}
	before := reacted(p, s.author.Email)
	p = ApplyReaction(p, s.author.Email, r)
	if err := s.store.UpdatePost(ctx, p); err != nil {
		return models.Post{}, fmt.Errorf("failed to update post %s: %w", postID, err)
	}
	if !before && reacted(p, s.author.Email) {
		s.notifyAuthor(ctx, p, NotifyReaction, "Nova reação",
			fmt.Sprintf("%s reagiu à sua publicação.", s.author.Name))
	}
	return p, nil
}

// Comment appends a comment and notifies the post's author.
func (s *Service) Comment(ctx context.Context, postID, text string) (models.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Post{}, ErrEmptyText
	}
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to load post %s: %w", postID, err)
	}
	c := models.Comment{
		ID: uuid.NewString(),
		Author: models.Author{
			Name:   s.author.Name,
			Email:  s.author.Email,
			Avatar: s.author.Avatar,
		},
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}
	p.Comments = append(slices.Clone(p.Comments), c)
	if err := s.store.UpdatePost(ctx, p); err != nil {
		return models.Post{}, fmt.Errorf("failed to update post %s: %w", postID, err)
	}
	s.notifyAuthor(ctx, p, NotifyComment, "Novo comentário",
		fmt.Sprintf("%s comentou: %s", s.author.Name, text))
	return p, nil
}

// notifyAuthor writes a notification to the post author. Failures are only
// logged; the post update already succeeded.
func (s *Service) notifyAuthor(ctx context.Context, p models.Post, kind, title, message string) {
	if p.Author.UID == "" || p.Author.UID == s.author.UID {
		return
	}
	n := models.Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Title:     title,
		Message:   message,
		Timestamp: s.now().UnixMilli(),
	}
	if err := s.store.CreateNotification(ctx, p.Author.UID, n); err != nil {
		s.log.Warn("Failed to notify post author", "post", p.ID, "err", err)
	}
}

// Notifications returns the caller's notifications, newest first.
func (s *Service) Notifications(ctx context.Context) ([]models.Notification, error) {
	ns, err := s.store.ListNotifications(ctx, s.author.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return ns, nil
}

func Unread(ns []models.Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.store.MarkAllNotificationsRead(ctx, s.author.UID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func reacted(p models.Post, email string) bool {
	for _, emails := range p.Reactions {
		if slices.Contains(emails, email) {
			return true
		}
	}
	return false
}

// Reactions lists the valid reactions in display order.
var Reactions = []models.ReactionType{
	models.ReactionLike, models.ReactionLove, models.ReactionClap, models.ReactionStrong, models.ReactionCelebrate,
}

func validReaction(r models.ReactionType) bool {
	return slices.Contains(Reactions, r)
}

// Categories lists the valid post categories.
var Categories = []models.PostCategory{
	models.PostGeneral, models.PostRecipe, models.PostProgress, models.PostWorkout, models.PostMotivation,
}
