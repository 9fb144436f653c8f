package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
)

var (
	ErrAlreadyFasting = errors.New("a fast is already running")
	ErrNotFasting     = errors.New("no fast is running")
)

func (s *Session) Fasting() models.FastingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fasting
}

// setFasting persists f. Callers hold s.mu.
func (s *Session) setFasting(ctx context.Context, f models.FastingState) error {
	if err := s.putJSON(ctx, constants.EntryFastingState, f); err != nil {
		return fmt.Errorf("failed to save fasting state: %w", err)
	}
	s.fasting = f
	return nil
}

func (s *Session) StartFast(ctx context.Context, hours float64) (models.FastingState, error) {
	if hours <= 0 {
		return models.FastingState{}, fmt.Errorf("fast duration must be positive: %v", hours)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fasting.IsFasting {
		return s.fasting, ErrAlreadyFasting
	}
	f := models.StartFast(s.now(), hours)
	return f, s.setFasting(ctx, f)
}

func (s *Session) StopFast(ctx context.Context) (models.FastingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fasting.IsFasting {
		return s.fasting, ErrNotFasting
	}
	f := models.FastingState{DurationHours: s.fasting.DurationHours}
	return f, s.setFasting(ctx, f)
}

// EditFast moves the start and/or end of the running fast.
func (s *Session) EditFast(ctx context.Context, start, end *time.Time) (models.FastingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fasting.IsFasting {
		return s.fasting, ErrNotFasting
	}
	f := s.fasting.WithTimes(millis(start), millis(end))
	if f.EndTime != nil && (s.fasting.EndTime == nil || *f.EndTime != *s.fasting.EndTime) {
		f.CompletionNotified = false
	}
	return f, s.setFasting(ctx, f)
}

func millis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.UnixMilli()
	return &v
}
