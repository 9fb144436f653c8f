// Package queue is the durable FIFO of actions waiting to be reconciled
// with the remote store.
package queue

import (
	"context"
	"fmt"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/storage"
)

// Queue is one user's view of the pending action table.
type Queue struct {
	store     storage.ActionStore
	namespace string
}

func New(store storage.ActionStore, namespace string) *Queue {
	return &Queue{store: store, namespace: namespace}
}

// Enqueue persists a and returns it with its assigned id. The id is
// strictly greater than every id handed out before. Errors wrap
// storage.ErrStorageUnavailable when the device store cannot be written.
func (q *Queue) Enqueue(ctx context.Context, a models.Action) (models.Action, error) {
	if !a.Type.Valid() {
		return models.Action{}, fmt.Errorf("unknown action type %q", a.Type)
	}
	a.ID = 0
	stored, err := q.store.AppendAction(ctx, q.namespace, a)
	if err != nil {
		return models.Action{}, fmt.Errorf("failed to enqueue %s: %w", a.Type, err)
	}
	return stored, nil
}

// Drain returns every pending action in insertion order without removing any.
func (q *Queue) Drain(ctx context.Context) ([]models.Action, error) {
	actions, err := q.store.ListActions(ctx, q.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to drain queue: %w", err)
	}
	return actions, nil
}

// Clear removes every pending action.
func (q *Queue) Clear(ctx context.Context) error {
	return q.store.ClearActions(ctx, q.namespace)
}

// ClearThrough removes the actions with id <= id. Actions enqueued after a
// drain have larger ids and survive.
func (q *Queue) ClearThrough(ctx context.Context, id int64) error {
	return q.store.DeleteActionsThrough(ctx, q.namespace, id)
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.CountActions(ctx, q.namespace)
}
