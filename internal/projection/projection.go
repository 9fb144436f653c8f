// Package projection holds the local, optimistic view of a user's daily logs.
//
// Every mutation builds a new DailyLog from the current one and swaps it in
// under the lock, so a reader never sees a partially applied change. The new
// log is then written to the entry store as JSON.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/logger"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/storage"
)

type Projection struct {
	mu        sync.RWMutex
	logs      map[string]models.DailyLog
	store     storage.EntryStore
	namespace string
}

func New(store storage.EntryStore, namespace string) *Projection {
	return &Projection{
		logs:      make(map[string]models.DailyLog),
		store:     store,
		namespace: namespace,
	}
}

func entryKey(date string) string {
	return constants.EntryDailyLogPrefix + date
}

// Load reads every persisted daily log of the namespace into memory.
func (p *Projection) Load(ctx context.Context) error {
	entries, err := p.store.ListEntries(ctx, p.namespace, constants.EntryDailyLogPrefix)
	if err != nil {
		return fmt.Errorf("failed to load daily logs: %w", err)
	}

	logs := make(map[string]models.DailyLog, len(entries))
	for key, raw := range entries {
		date := strings.TrimPrefix(key, constants.EntryDailyLogPrefix)
		log := models.EmptyLog()
		if err := json.Unmarshal(raw, &log); err != nil {
			logger.Warn("Skipping unreadable daily log", "date", date, "error", err)
			continue
		}
		if log.Meals == nil {
			log.Meals = []models.Meal{}
		}
		logs[date] = log
	}

	p.mu.Lock()
	p.logs = logs
	p.mu.Unlock()
	return nil
}

// Log returns the log for date, or the empty log when nothing was recorded.
func (p *Projection) Log(date string) models.DailyLog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if log, ok := p.logs[date]; ok {
		return log.Clone()
	}
	return models.EmptyLog()
}

// Logs returns a copy of every known log keyed by date.
func (p *Projection) Logs() map[string]models.DailyLog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]models.DailyLog, len(p.logs))
	for date, log := range p.logs {
		out[date] = log.Clone()
	}
	return out
}

// Dates returns the known dates in ascending order.
func (p *Projection) Dates() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	dates := make([]string, 0, len(p.logs))
	for date := range p.logs {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Apply applies a single action to its date and persists the result. The
// in-memory log is updated even when persisting fails; the returned error
// then wraps storage.ErrStorageUnavailable.
func (p *Projection) Apply(ctx context.Context, a models.Action) (models.DailyLog, error) {
	date := a.Payload.Date
	if date == "" {
		return models.DailyLog{}, errors.New("action has no date")
	}

	p.mu.Lock()
	current, ok := p.logs[date]
	if !ok {
		current = models.EmptyLog()
	}
	next, _ := current.Apply(a)
	p.logs[date] = next
	p.mu.Unlock()

	return next.Clone(), p.persist(ctx, date, next)
}

// ApplyAddFoods appends foods to the named meal. Foods are stored as given;
// callers stamp ids and timestamps with models.StampFoods first.
func (p *Projection) ApplyAddFoods(ctx context.Context, date, mealName string, foods []models.Food) (models.DailyLog, error) {
	return p.Apply(ctx, models.NewAddFoods(date, mealName, foods))
}

func (p *Projection) ApplyDeleteFood(ctx context.Context, date, mealName, foodID string) (models.DailyLog, error) {
	return p.Apply(ctx, models.NewDeleteFood(date, mealName, foodID))
}

func (p *Projection) ApplySetWater(ctx context.Context, date string, amount float64) (models.DailyLog, error) {
	return p.Apply(ctx, models.NewSetWater(date, amount))
}

func (p *Projection) ApplyLogWorkout(ctx context.Context, date string, w models.Workout) (models.DailyLog, error) {
	return p.Apply(ctx, models.NewLogWorkout(date, w))
}

// Replace overwrites the log for date, e.g. with state pulled from the remote store.
func (p *Projection) Replace(ctx context.Context, date string, log models.DailyLog) error {
	log = log.Clone()
	p.mu.Lock()
	p.logs[date] = log
	p.mu.Unlock()
	return p.persist(ctx, date, log)
}

func (p *Projection) persist(ctx context.Context, date string, log models.DailyLog) error {
	raw, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode daily log %s: %w", date, err)
	}
	if err := p.store.PutEntry(ctx, p.namespace, entryKey(date), raw); err != nil {
		return fmt.Errorf("failed to persist daily log %s: %w", date, err)
	}
	return nil
}
