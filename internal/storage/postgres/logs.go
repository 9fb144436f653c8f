package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/julianstephens/calorix/internal/models"
)

func decodeLog(raw []byte) (models.DailyLog, error) {
	log := models.EmptyLog()
	if err := json.Unmarshal(raw, &log); err != nil {
		return models.DailyLog{}, err
	}
	if log.Meals == nil {
		log.Meals = []models.Meal{}
	}
	return log, nil
}

func (s *Store) GetDailyLog(ctx context.Context, uid, date string) (models.DailyLog, bool, error) {
	db, err := s.conn()
	if err != nil {
		return models.DailyLog{}, false, err
	}

	var raw []byte
	err = db.QueryRowContext(ctx, "SELECT doc FROM daily_logs WHERE uid = $1 AND date = $2", uid, date).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EmptyLog(), false, nil
	}
	if err != nil {
		return models.DailyLog{}, false, unreachable("failed to read daily log", err)
	}

	log, err := decodeLog(raw)
	if err != nil {
		return models.DailyLog{}, false, fmt.Errorf("failed to decode daily log %s: %w", date, err)
	}
	return log, true, nil
}

func (s *Store) ListDailyLogs(ctx context.Context, uid string) (map[string]models.DailyLog, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT date, doc FROM daily_logs WHERE uid = $1 ORDER BY date", uid)
	if err != nil {
		return nil, unreachable("failed to list daily logs", err)
	}
	defer rows.Close()

	logs := make(map[string]models.DailyLog)
	for rows.Next() {
		var (
			date string
			raw  []byte
		)
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, err
		}
		log, err := decodeLog(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode daily log %s: %w", date, err)
		}
		logs[date] = log
	}
	return logs, rows.Err()
}

// CommitDailyLogs writes all logs in one transaction. Either every date is
// stored or none is.
func (s *Store) CommitDailyLogs(ctx context.Context, uid string, logs map[string]models.DailyLog) error {
	if len(logs) == 0 {
		return nil
	}
	db, err := s.conn()
	if err != nil {
		return err
	}

	dates := make([]string, 0, len(logs))
	for date := range logs {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return unreachable("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, date := range dates {
		doc, err := json.Marshal(logs[date])
		if err != nil {
			return fmt.Errorf("failed to encode daily log %s: %w", date, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_logs (uid, date, doc, updated_at) VALUES ($1, $2, $3, now())
			ON CONFLICT (uid, date) DO UPDATE SET doc = daily_logs.doc || EXCLUDED.doc, updated_at = now()
		`, uid, date, string(doc))
		if err != nil {
			return unreachable(fmt.Sprintf("failed to write daily log %s", date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unreachable("failed to commit daily logs", err)
	}
	return nil
}
