package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/remote"
)

// ListPosts returns the newest posts first. A limit <= 0 returns all posts.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT doc FROM community_posts ORDER BY ts DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unreachable("failed to list posts", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var p models.Post
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to decode post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return models.Post{}, err
	}

	var raw []byte
	err = db.QueryRowContext(ctx, "SELECT doc FROM community_posts WHERE id = $1", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, remote.ErrNotFound
	}
	if err != nil {
		return models.Post{}, unreachable("failed to read post", err)
	}

	var p models.Post
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Post{}, fmt.Errorf("failed to decode post: %w", err)
	}
	return p, nil
}

func (s *Store) CreatePost(ctx context.Context, p models.Post) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode post: %w", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO community_posts (id, doc, ts) VALUES ($1, $2, $3)", p.ID, string(doc), p.Timestamp); err != nil {
		return unreachable("failed to create post", err)
	}
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, p models.Post) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode post: %w", err)
	}

	res, err := db.ExecContext(ctx, "UPDATE community_posts SET doc = $2 WHERE id = $1", p.ID, string(doc))
	if err != nil {
		return unreachable("failed to update post", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return remote.ErrNotFound
	}
	return nil
}
