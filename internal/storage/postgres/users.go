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

func (s *Store) GetRawProfile(ctx context.Context, uid string) ([]byte, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = db.QueryRowContext(ctx, "SELECT doc FROM users WHERE uid = $1", uid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, remote.ErrNotFound
	}
	if err != nil {
		return nil, unreachable("failed to read profile", err)
	}
	return raw, nil
}

func (s *Store) GetProfile(ctx context.Context, uid string) (models.UserProfile, error) {
	raw, err := s.GetRawProfile(ctx, uid)
	if err != nil {
		return models.UserProfile{}, err
	}
	var p models.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return p, nil
}

// SaveProfile merges the profile's top-level fields into the stored document.
func (s *Store) SaveProfile(ctx context.Context, p models.UserProfile) error {
	if p.UID == "" {
		return errors.New("profile has no uid")
	}
	db, err := s.conn()
	if err != nil {
		return err
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (uid, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (uid) DO UPDATE SET doc = users.doc || EXCLUDED.doc, updated_at = now()
	`, p.UID, string(doc))
	if err != nil {
		return unreachable("failed to save profile", err)
	}
	return nil
}
