package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/calorix/internal/models"
)

func (s *Store) ListNotifications(ctx context.Context, uid string) ([]models.Notification, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT doc, read FROM notifications WHERE uid = $1 ORDER BY ts DESC", uid)
	if err != nil {
		return nil, unreachable("failed to list notifications", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			raw  []byte
			read bool
		)
		if err := rows.Scan(&raw, &read); err != nil {
			return nil, err
		}
		var n models.Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		n.Read = read
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CreateNotification(ctx context.Context, uid string, n models.Notification) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	doc, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO notifications (id, uid, doc, ts, read) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING",
		n.ID, uid, string(doc), n.Timestamp, n.Read,
	)
	if err != nil {
		return unreachable("failed to create notification", err)
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of uid in one statement.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, uid string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE, doc = jsonb_set(doc, '{read}', 'true'::jsonb)
		WHERE uid = $1 AND read = FALSE
	`, uid)
	if err != nil {
		return unreachable("failed to mark notifications read", err)
	}
	return nil
}
