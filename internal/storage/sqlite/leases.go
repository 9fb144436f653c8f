package sqlite

import (
	"context"
	"time"
)

// AcquireLease is a single upsert, so two processes racing for an expired
// or missing row cannot both win: SQLite serializes the writes and the
// loser's WHERE clause no longer matches.
func (s *Store) AcquireLease(ctx context.Context, namespace, holder string, ttl time.Duration) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO sync_leases (namespace, holder, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at
		WHERE sync_leases.holder = excluded.holder OR sync_leases.expires_at <= ?`,
		namespace, holder, now.Add(ttl).UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return false, unavailable("failed to acquire sync lease", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("failed to acquire sync lease", err)
	}
	return n == 1, nil
}

func (s *Store) ReleaseLease(ctx context.Context, namespace, holder string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM sync_leases WHERE namespace = ? AND holder = ?", namespace, holder); err != nil {
		return unavailable("failed to release sync lease", err)
	}
	return nil
}
