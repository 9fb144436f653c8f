package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/reconcile"
	"github.com/julianstephens/calorix/internal/storage"
)

// record applies a to the projection and queues it for the remote. The
// projection is updated first so the change is visible even when the
// device store fails; such failures are logged, not returned.
func (s *Session) record(ctx context.Context, a models.Action) (models.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.DailyLog{}, ErrClosed
	}

	log, err := s.proj.Apply(ctx, a)
	if err != nil && !errors.Is(err, storage.ErrStorageUnavailable) {
		return log, err
	}
	if err != nil {
		s.log.Warn("Change kept in memory only", "action", a.String(), "error", err)
	}
	if _, err := s.queue.Enqueue(ctx, a); err != nil {
		if !errors.Is(err, storage.ErrStorageUnavailable) {
			return log, err
		}
		s.log.Warn("Failed to queue change for sync", "action", a.String(), "error", err)
		return log, nil
	}
	s.log.Debug("Recorded action", "action", a.String())
	return log, nil
}

// AddFoods logs foods under mealName. Ids and timestamps are assigned here,
// once, so the queued action replays to the same items.
func (s *Session) AddFoods(ctx context.Context, date, mealName string, foods []models.Food) (models.DailyLog, error) {
	if len(foods) == 0 {
		return models.DailyLog{}, errors.New("no foods to add")
	}
	if mealName == "" {
		return models.DailyLog{}, errors.New("meal name cannot be empty")
	}
	return s.record(ctx, models.NewAddFoods(date, mealName, models.StampFoods(foods, s.now())))
}

func (s *Session) DeleteFood(ctx context.Context, date, mealName, foodID string) (models.DailyLog, error) {
	return s.record(ctx, models.NewDeleteFood(date, mealName, foodID))
}

// SetWater overwrites the day's water intake in millilitres.
func (s *Session) SetWater(ctx context.Context, date string, amount float64) (models.DailyLog, error) {
	if amount < 0 {
		return models.DailyLog{}, fmt.Errorf("water intake cannot be negative: %v", amount)
	}
	return s.record(ctx, models.NewSetWater(date, amount))
}

func (s *Session) LogWorkout(ctx context.Context, date string, w models.Workout) (models.DailyLog, error) {
	if w.Date == "" {
		w.Date = date
	}
	return s.record(ctx, models.NewLogWorkout(date, w))
}

func (s *Session) Log(date string) models.DailyLog { return s.proj.Log(date) }

func (s *Session) Logs() map[string]models.DailyLog { return s.proj.Logs() }

// Pending returns how many actions are waiting to be synced.
func (s *Session) Pending(ctx context.Context) (int, error) {
	return s.queue.Len(ctx)
}

// Sync pushes a dirty profile and reconciles the queue with the remote.
// Committed logs become the new projection base, with actions queued since
// the drain replayed on top.
func (s *Session) Sync(ctx context.Context) (reconcile.Result, error) {
	if s.isClosed() {
		return reconcile.Result{}, ErrClosed
	}
	if err := s.ensureRemote(); err != nil {
		return reconcile.Result{}, err
	}
	if err := s.syncProfile(ctx); err != nil {
		s.log.Warn("Profile sync failed", "error", err)
	}

	res, err := s.rec.Sync(ctx)
	if err != nil {
		return res, err
	}
	if err := s.rebase(ctx, res.Logs); err != nil {
		return res, err
	}
	return res, nil
}

// Pull replaces the projection with every log stored remotely. It is used
// to hydrate a device after login.
func (s *Session) Pull(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	if err := s.ensureRemote(); err != nil {
		return 0, err
	}
	if err := s.syncProfile(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("Profile sync failed", "error", err)
	}
	logs, err := s.remote.ListDailyLogs(ctx, s.id.UID)
	if err != nil {
		return 0, fmt.Errorf("failed to pull daily logs: %w", err)
	}
	if err := s.rebase(ctx, logs); err != nil {
		return 0, err
	}
	return len(logs), nil
}

func (s *Session) rebase(ctx context.Context, logs map[string]models.DailyLog) error {
	if len(logs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("Session closed, dropping remote logs", "dates", len(logs))
		return ErrClosed
	}

	pending, err := s.queue.Drain(ctx)
	if err != nil {
		return err
	}
	byDate := make(map[string][]models.Action)
	for _, a := range pending {
		byDate[a.Payload.Date] = append(byDate[a.Payload.Date], a)
	}

	for date, base := range logs {
		next, _ := reconcile.Replay(base, byDate[date])
		if err := s.proj.Replace(ctx, date, next); err != nil {
			return err
		}
	}
	return nil
}
