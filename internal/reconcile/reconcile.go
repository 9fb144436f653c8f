// Package reconcile pushes queued actions to the remote store.
//
// A cycle drains the queue, fetches the remote log of every touched date,
// replays the actions onto those logs and commits all dates in one atomic
// batch. Only after the commit succeeds are the drained actions cleared;
// a failure anywhere leaves the queue exactly as it was.
//
// The whole drain-to-clear span runs under a lease held in the device
// store, so the daemon and one-off commands sharing a database never run
// overlapping cycles for the same user.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/logger"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/queue"
	"github.com/julianstephens/calorix/internal/remote"
	"github.com/julianstephens/calorix/internal/storage"
)

// ErrCycleInProgress is returned when another process holds the sync lease.
var ErrCycleInProgress = errors.New("another sync is already running")

// Result summarizes one reconcile cycle.
type Result struct {
	// Actions is the number of actions committed and cleared.
	Actions int
	// Dates lists the dates written, in first-seen order.
	Dates []string
	// Skipped counts DELETE_FOOD actions whose item was already gone remotely.
	Skipped int
	// Logs holds the committed log of each date.
	Logs map[string]models.DailyLog
}

type Reconciler struct {
	mu     sync.Mutex
	queue  *queue.Queue
	leases storage.LeaseStore
	remote remote.Store
	uid    string
	holder string
	log    *log.Logger
}

// New returns a reconciler for uid. leases must be the store backing q.
func New(q *queue.Queue, leases storage.LeaseStore, r remote.Store, uid string) *Reconciler {
	return &Reconciler{
		queue:  q,
		leases: leases,
		remote: r,
		uid:    uid,
		holder: uuid.NewString(),
		log:    logger.Component("reconcile"),
	}
}

// Sync runs one cycle. Calls on the same Reconciler are serialized; a call
// that waited on another cycle drains whatever is still pending when it
// gets its turn. A cycle owned by another process yields ErrCycleInProgress.
func (r *Reconciler) Sync(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.leases.AcquireLease(ctx, r.uid, r.holder, constants.SyncLeaseTTL)
	if err != nil {
		return Result{}, fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	if !ok {
		return Result{}, ErrCycleInProgress
	}
	defer func() {
		if err := r.leases.ReleaseLease(context.WithoutCancel(ctx), r.uid, r.holder); err != nil {
			r.log.Warn("Failed to release sync lease", "error", err)
		}
	}()
	return r.cycle(ctx)
}

func (r *Reconciler) cycle(ctx context.Context) (Result, error) {
	actions, err := r.queue.Drain(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(actions) == 0 {
		return Result{}, nil
	}

	dates := models.DistinctDates(actions)
	groups := groupByDate(actions)

	committed := make(map[string]models.DailyLog, len(dates))
	skipped := 0
	for _, date := range dates {
		base, _, err := r.remote.GetDailyLog(ctx, r.uid, date)
		if err != nil {
			return Result{}, fmt.Errorf("failed to fetch remote log %s: %w", date, err)
		}
		next, noops := Replay(base, groups[date])
		for _, a := range noops {
			r.log.Debug("Replayed action had no effect", "action", a.String(), "food", a.Payload.FoodID)
		}
		skipped += len(noops)
		committed[date] = next
	}

	// The fetches may have outlived the lease; never commit without it.
	if ok, err := r.leases.AcquireLease(ctx, r.uid, r.holder, constants.SyncLeaseTTL); err != nil || !ok {
		if err == nil {
			err = ErrCycleInProgress
		}
		return Result{}, fmt.Errorf("sync lease lost before commit: %w", err)
	}

	if err := r.remote.CommitDailyLogs(ctx, r.uid, committed); err != nil {
		return Result{}, fmt.Errorf("failed to commit %d dates: %w", len(committed), err)
	}

	last := actions[len(actions)-1].ID
	if err := r.queue.ClearThrough(ctx, last); err != nil {
		// The batch is committed but these actions stay queued and will be
		// replayed again next cycle.
		r.log.Error("Committed but failed to clear queue", "through", last, "error", err)
		return Result{}, fmt.Errorf("failed to clear synced actions: %w", err)
	}

	r.log.Info("Synced queued actions", "actions", len(actions), "dates", len(dates), "skipped", skipped)
	return Result{
		Actions: len(actions),
		Dates:   dates,
		Skipped: skipped,
		Logs:    committed,
	}, nil
}
