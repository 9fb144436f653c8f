package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/calorix/internal/models"
)

func (s *Store) AppendAction(ctx context.Context, namespace string, a models.Action) (models.Action, error) {
	db, err := s.conn()
	if err != nil {
		return models.Action{}, err
	}

	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return models.Action{}, fmt.Errorf("failed to encode action payload: %w", err)
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	res, err := db.ExecContext(ctx,
		"INSERT INTO offline_actions (namespace, type, payload, created_at) VALUES (?, ?, ?, ?)",
		namespace, string(a.Type), string(payload), a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.Action{}, unavailable("failed to enqueue action", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Action{}, unavailable("failed to read action id", err)
	}
	a.ID = id
	return a, nil
}

func (s *Store) ListActions(ctx context.Context, namespace string) ([]models.Action, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, type, payload, created_at FROM offline_actions WHERE namespace = ? ORDER BY id ASC",
		namespace,
	)
	if err != nil {
		return nil, unavailable("failed to read queue", err)
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		var (
			a         models.Action
			typ       string
			payload   string
			createdAt string
		)
		if err := rows.Scan(&a.ID, &typ, &payload, &createdAt); err != nil {
			return nil, err
		}
		a.Type = models.ActionType(typ)
		if err := json.Unmarshal([]byte(payload), &a.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode action %d: %w", a.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			a.CreatedAt = t
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *Store) DeleteActionsThrough(ctx context.Context, namespace string, maxID int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM offline_actions WHERE namespace = ? AND id <= ?", namespace, maxID); err != nil {
		return unavailable("failed to clear queue", err)
	}
	return nil
}

func (s *Store) ClearActions(ctx context.Context, namespace string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM offline_actions WHERE namespace = ?", namespace); err != nil {
		return unavailable("failed to clear queue", err)
	}
	return nil
}

func (s *Store) CountActions(ctx context.Context, namespace string) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM offline_actions WHERE namespace = ?", namespace).Scan(&n); err != nil {
		return 0, unavailable("failed to count queue", err)
	}
	return n, nil
}
