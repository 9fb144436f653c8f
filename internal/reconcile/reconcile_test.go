package reconcile

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/queue"
	"github.com/julianstephens/calorix/internal/remote"
	"github.com/julianstephens/calorix/internal/remote/remotetest"
	"github.com/julianstephens/calorix/internal/storage/sqlite"
)

func setupQueue(t *testing.T) (*queue.Queue, *sqlite.Store, func()) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "calorix.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	return queue.New(store, "u1"), store, func() { store.Close() }
}

func enqueue(t *testing.T, q *queue.Queue, actions ...models.Action) []models.Action {
	t.Helper()
	var out []models.Action
	for _, a := range actions {
		stored, err := q.Enqueue(context.Background(), a)
		if err != nil {
			t.Fatalf("Enqueue() failed: %v", err)
		}
		out = append(out, stored)
	}
	return out
}

func TestReplay(t *testing.T) {
	foodA := models.Food{ID: "a", Name: "Arroz", Calories: 130}

	tests := []struct {
		name        string
		base        models.DailyLog
		actions     []models.Action
		wantWater   float64
		wantMeals   []string
		wantSkipped int
	}{
		{
			name: "add water delete",
			base: models.EmptyLog(),
			actions: []models.Action{
				models.NewAddFoods("2024-01-01", "Almoço", []models.Food{foodA}),
				models.NewSetWater("2024-01-01", 500),
				models.NewDeleteFood("2024-01-01", "Almoço", "a"),
			},
			wantWater: 500,
			wantMeals: nil,
		},
		{
			name: "water overwrite",
			base: models.EmptyLog(),
			actions: []models.Action{
				models.NewSetWater("2024-01-01", 300),
				models.NewSetWater("2024-01-01", 700),
			},
			wantWater: 700,
		},
		{
			name: "delete of item already gone",
			base: models.EmptyLog().WithFoods("Jantar", []models.Food{{ID: "x", Name: "Sopa"}}),
			actions: []models.Action{
				models.NewDeleteFood("2024-01-01", "Jantar", "missing"),
			},
			wantMeals:   []string{"Jantar"},
			wantSkipped: 1,
		},
		{
			name: "appends after remote items",
			base: models.EmptyLog().WithFoods("Almoço", []models.Food{{ID: "r1", Name: "Salada"}}).WithWater(250),
			actions: []models.Action{
				models.NewAddFoods("2024-01-01", "Almoço", []models.Food{foodA}),
				models.NewAddFoods("2024-01-01", "Lanches", []models.Food{{ID: "b", Name: "Maçã"}}),
			},
			wantWater: 250,
			wantMeals: []string{"Almoço", "Lanches"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skipped := Replay(tt.base, tt.actions)
			if got.WaterIntake != tt.wantWater {
				t.Errorf("WaterIntake = %v, want %v", got.WaterIntake, tt.wantWater)
			}
			if got.Meals == nil {
				t.Error("Meals is nil, want empty slice")
			}
			if len(got.Meals) != len(tt.wantMeals) {
				t.Fatalf("meals = %+v, want %v", got.Meals, tt.wantMeals)
			}
			for i, name := range tt.wantMeals {
				if got.Meals[i].Name != name {
					t.Errorf("meal %d = %s, want %s", i, got.Meals[i].Name, name)
				}
			}
			if len(skipped) != tt.wantSkipped {
				t.Errorf("skipped = %d, want %d", len(skipped), tt.wantSkipped)
			}
		})
	}
}

func TestReplayTwiceSameWater(t *testing.T) {
	actions := []models.Action{
		models.NewSetWater("2024-01-01", 300),
		models.NewSetWater("2024-01-01", 700),
	}
	once, _ := Replay(models.EmptyLog(), actions)
	twice, _ := Replay(once, actions)
	if once.WaterIntake != 700 || twice.WaterIntake != 700 {
		t.Errorf("WaterIntake = %v then %v, want 700 both times", once.WaterIntake, twice.WaterIntake)
	}
}

func TestReplayDoesNotModifyBase(t *testing.T) {
	base := models.EmptyLog().WithFoods("Almoço", []models.Food{{ID: "a", Name: "Arroz"}})
	Replay(base, []models.Action{models.NewDeleteFood("2024-01-01", "Almoço", "a")})
	if len(base.Meals) != 1 || len(base.Meals[0].Items) != 1 {
		t.Errorf("base modified: %+v", base.Meals)
	}
}

func TestSyncCommitsAndClears(t *testing.T) {
	q, local, cleanup := setupQueue(t)
	defer cleanup()
	ctx := context.Background()
	fake := remotetest.New()
	fake.SetDailyLog("u1", "2024-03-05", models.EmptyLog().WithWater(400))

	enqueue(t, q,
		models.NewAddFoods("2024-03-05", "Café da Manhã", []models.Food{{ID: "b1", Name: "Banana", Calories: 89}}),
		models.NewSetWater("2024-03-06", 1000),
		models.NewDeleteFood("2024-03-05", "Almoço", "nope"),
	)

	res, err := New(q, local, fake, "u1").Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if res.Actions != 3 || len(res.Dates) != 2 || res.Skipped != 1 {
		t.Errorf("Sync() = %+v, want 3 actions over 2 dates with 1 skipped", res)
	}
	if fake.Commits != 1 {
		t.Errorf("commits = %d, want exactly 1 batch", fake.Commits)
	}

	log, ok, err := fake.GetDailyLog(ctx, "u1", "2024-03-05")
	if err != nil || !ok {
		t.Fatalf("GetDailyLog() = (ok=%v, %v)", ok, err)
	}
	if log.WaterIntake != 400 {
		t.Errorf("remote water = %v, want base 400 kept", log.WaterIntake)
	}
	if meal, ok := log.Meal("Café da Manhã"); !ok || meal.Items[0].Name != "Banana" {
		t.Errorf("remote meals = %+v, want Banana under Café da Manhã", log.Meals)
	}

	if n, _ := q.Len(ctx); n != 0 {
		t.Errorf("queue length after sync = %d, want 0", n)
	}
}

func TestSyncFailureLeavesQueueUntouched(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *remotetest.Fake)
	}{
		{"commit fails", func(f *remotetest.Fake) { f.FailCommit = true }},
		{"fetch fails", func(f *remotetest.Fake) { f.FailGet = true }},
		{"remote disabled", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, local, cleanup := setupQueue(t)
			defer cleanup()
			ctx := context.Background()

			before := enqueue(t, q,
				models.NewAddFoods("2024-01-01", "Almoço", []models.Food{{ID: "a", Name: "Arroz"}}),
				models.NewSetWater("2024-01-02", 500),
			)

			var store remote.Store = remote.Disabled{}
			if tt.setup != nil {
				fake := remotetest.New()
				tt.setup(fake)
				store = fake
			}

			_, err := New(q, local, store, "u1").Sync(ctx)
			if !errors.Is(err, remote.ErrRemoteUnavailable) {
				t.Fatalf("Sync() = %v, want ErrRemoteUnavailable", err)
			}

			after, err := q.Drain(ctx)
			if err != nil {
				t.Fatalf("Drain() failed: %v", err)
			}
			if len(after) != len(before) {
				t.Fatalf("queue has %d actions after failed sync, want %d", len(after), len(before))
			}
			for i := range before {
				if after[i].ID != before[i].ID || after[i].Type != before[i].Type {
					t.Errorf("action %d = %v, want %v", i, after[i], before[i])
				}
			}
		})
	}
}

func TestSyncEmptyQueue(t *testing.T) {
	q, local, cleanup := setupQueue(t)
	defer cleanup()
	fake := remotetest.New()

	res, err := New(q, local, fake, "u1").Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if res.Actions != 0 || fake.Commits != 0 {
		t.Errorf("Sync() on empty queue = %+v with %d commits, want no-op", res, fake.Commits)
	}
}

func TestActionsEnqueuedDuringSyncSurvive(t *testing.T) {
	q, local, cleanup := setupQueue(t)
	defer cleanup()
	ctx := context.Background()
	fake := remotetest.New()

	enqueue(t, q, models.NewSetWater("2024-01-01", 100))

	var late models.Action
	fake.BeforeCommit = func() {
		fake.BeforeCommit = nil
		late = enqueue(t, q, models.NewSetWater("2024-01-01", 200))[0]
	}

	if _, err := New(q, local, fake, "u1").Sync(ctx); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	remaining, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain() failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != late.ID {
		t.Fatalf("remaining = %v, want the action enqueued mid-cycle", remaining)
	}
}

func TestConcurrentSyncsCommitOnce(t *testing.T) {
	q, local, cleanup := setupQueue(t)
	defer cleanup()
	fake := remotetest.New()
	r := New(q, local, fake, "u1")

	enqueue(t, q,
		models.NewAddFoods("2024-01-01", "Almoço", []models.Food{{ID: "a", Name: "Arroz"}}),
	)

	var wg sync.WaitGroup
	results := make([]Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Sync(context.Background())
			if err != nil {
				t.Errorf("Sync() failed: %v", err)
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	total := 0
	for _, res := range results {
		total += res.Actions
	}
	if total != 1 || fake.Commits != 1 {
		t.Errorf("synced %d actions in %d commits, want 1 in 1", total, fake.Commits)
	}

	log, _, _ := fake.GetDailyLog(context.Background(), "u1", "2024-01-01")
	if meal, ok := log.Meal("Almoço"); !ok || len(meal.Items) != 1 {
		t.Errorf("remote meal = %+v, want exactly one item", log.Meals)
	}
}

func TestCyclesExcludeAcrossProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calorix.db")
	ctx := context.Background()

	daemonStore := sqlite.NewStore(path)
	if err := daemonStore.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer daemonStore.Close()
	cliStore := sqlite.NewStore(path)
	if err := cliStore.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer cliStore.Close()

	fake := remotetest.New()
	daemonQueue := queue.New(daemonStore, "u1")
	cliQueue := queue.New(cliStore, "u1")
	daemon := New(daemonQueue, daemonStore, fake, "u1")
	cli := New(cliQueue, cliStore, fake, "u1")

	enqueue(t, daemonQueue,
		models.NewAddFoods("2024-01-01", "Almoço", []models.Food{{ID: "a", Name: "Arroz"}}),
	)

	var overlapErr error
	fake.BeforeCommit = func() {
		fake.BeforeCommit = nil
		_, overlapErr = cli.Sync(ctx)
	}

	res, err := daemon.Sync(ctx)
	if err != nil {
		t.Fatalf("daemon Sync() failed: %v", err)
	}
	if res.Actions != 1 {
		t.Errorf("daemon synced %d actions, want 1", res.Actions)
	}
	if !errors.Is(overlapErr, ErrCycleInProgress) {
		t.Fatalf("overlapping Sync() = %v, want ErrCycleInProgress", overlapErr)
	}

	// With the lease released, the second process finds nothing left.
	res, err = cli.Sync(ctx)
	if err != nil {
		t.Fatalf("cli Sync() failed: %v", err)
	}
	if res.Actions != 0 || fake.Commits != 1 {
		t.Errorf("cli Sync() = %+v with %d commits, want no-op after 1 commit", res, fake.Commits)
	}

	log, _, _ := fake.GetDailyLog(ctx, "u1", "2024-01-01")
	if meal, ok := log.Meal("Almoço"); !ok || len(meal.Items) != 1 {
		t.Errorf("remote meal = %+v, want exactly one item", log.Meals)
	}
}

func TestSyncLeaseHeldElsewhere(t *testing.T) {
	q, local, cleanup := setupQueue(t)
	defer cleanup()
	ctx := context.Background()
	fake := remotetest.New()

	enqueue(t, q, models.NewSetWater("2024-01-01", 100))
	if ok, err := local.AcquireLease(ctx, "u1", "other-process", time.Minute); err != nil || !ok {
		t.Fatalf("AcquireLease() = (%v, %v)", ok, err)
	}

	if _, err := New(q, local, fake, "u1").Sync(ctx); !errors.Is(err, ErrCycleInProgress) {
		t.Fatalf("Sync() = %v, want ErrCycleInProgress", err)
	}
	if n, _ := q.Len(ctx); n != 1 || fake.Commits != 0 {
		t.Errorf("queue = %d, commits = %d; want queue untouched and no commit", n, fake.Commits)
	}
}
