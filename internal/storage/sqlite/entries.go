package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/julianstephens/calorix/internal/storage"
)

func (s *Store) GetEntry(ctx context.Context, namespace, key string) ([]byte, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM entries WHERE namespace = ? AND key = ?", namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to read entry", err)
	}
	return []byte(value), nil
}

func (s *Store) PutEntry(ctx context.Context, namespace, key string, value []byte) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO entries (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, namespace, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return unavailable("failed to write entry", err)
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, namespace, key string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM entries WHERE namespace = ? AND key = ?", namespace, key); err != nil {
		return unavailable("failed to delete entry", err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards so prefix matches are literal.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) ListEntries(ctx context.Context, namespace, prefix string) (map[string][]byte, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT key, value FROM entries WHERE namespace = ? AND key LIKE ? ESCAPE '\' ORDER BY key`,
		namespace, escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, unavailable("failed to list entries", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = []byte(value)
	}
	return out, rows.Err()
}
