package models

// ReactionType is one of the fixed post reactions.
type ReactionType string

const (
	ReactionLike      ReactionType = "like"
	ReactionLove      ReactionType = "love"
	ReactionClap      ReactionType = "clap"
	ReactionStrong    ReactionType = "strong"
	ReactionCelebrate ReactionType = "celebrate"
)

// PostCategory classifies community posts.
type PostCategory string

const (
	PostGeneral    PostCategory = "general"
	PostRecipe     PostCategory = "recipe"
	PostProgress   PostCategory = "progress"
	PostWorkout    PostCategory = "workout"
	PostMotivation PostCategory = "motivation"
)

// Author identifies who wrote a post or comment.
type Author struct {
	UID    string `json:"uid,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        string `json:"id"`
	Author    Author `json:"author"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Post is a community feed entry. Reactions map a reaction to the emails of
// the users who chose it; a user appears under at most one reaction.
type Post struct {
	ID        string                    `json:"id"`
	Author    Author                    `json:"author"`
	Text      string                    `json:"text"`
	Category  PostCategory              `json:"category"`
	ImageURL  string                    `json:"imageUrl,omitempty"`
	VideoURL  string                    `json:"videoUrl,omitempty"`
	Reactions map[ReactionType][]string `json:"reactions"`
	Comments  []Comment                 `json:"comments"`
	Timestamp int64                     `json:"timestamp"`
}

// Notification is an in-app notification addressed to one user.
type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	Timestamp int64  `json:"timestamp"`
}
