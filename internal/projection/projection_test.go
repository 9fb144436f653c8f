package projection

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/storage"
	"github.com/julianstephens/calorix/internal/storage/memory"
	"github.com/julianstephens/calorix/internal/storage/sqlite"
)

const day = "2024-05-01"

func TestUnknownDateIsEmpty(t *testing.T) {
	p := New(memory.NewStore(), "u1")
	log := p.Log("1999-01-01")
	if log.Meals == nil || len(log.Meals) != 0 || log.WaterIntake != 0 {
		t.Errorf("Log() = %+v, want empty log with non-nil meals", log)
	}
}

func TestAddFoodsKeepsOrder(t *testing.T) {
	p := New(memory.NewStore(), "u1")
	ctx := context.Background()

	foods := models.StampFoods([]models.Food{{Name: "Arroz"}, {Name: "Feijão"}, {Name: "Bife"}}, time.UnixMilli(1000))
	if _, err := p.ApplyAddFoods(ctx, day, "Almoço", foods[:2]); err != nil {
		t.Fatalf("ApplyAddFoods() failed: %v", err)
	}
	log, err := p.ApplyAddFoods(ctx, day, "Almoço", foods[2:])
	if err != nil {
		t.Fatalf("ApplyAddFoods() failed: %v", err)
	}

	meal, ok := log.Meal("Almoço")
	if !ok {
		t.Fatal("meal Almoço missing")
	}
	for i, want := range []string{"Arroz", "Feijão", "Bife"} {
		if meal.Items[i].Name != want {
			t.Errorf("item %d = %s, want %s", i, meal.Items[i].Name, want)
		}
	}
	if meal.Items[0].Timestamp != 1000 || meal.Items[1].Timestamp != 1001 {
		t.Errorf("timestamps = %d, %d, want 1000, 1001", meal.Items[0].Timestamp, meal.Items[1].Timestamp)
	}
}

func TestDeletePrunesEmptyMeal(t *testing.T) {
	p := New(memory.NewStore(), "u1")
	ctx := context.Background()

	if _, err := p.ApplyAddFoods(ctx, day, "Jantar", []models.Food{{ID: "f1", Name: "Sopa"}}); err != nil {
		t.Fatalf("ApplyAddFoods() failed: %v", err)
	}
	log, err := p.ApplyDeleteFood(ctx, day, "Jantar", "f1")
	if err != nil {
		t.Fatalf("ApplyDeleteFood() failed: %v", err)
	}
	if len(log.Meals) != 0 {
		t.Errorf("meals = %+v, want none", log.Meals)
	}
}

func TestSetWaterLastWriteWins(t *testing.T) {
	p := New(memory.NewStore(), "u1")
	ctx := context.Background()

	for _, amount := range []float64{500, 1500, 250} {
		if _, err := p.ApplySetWater(ctx, day, amount); err != nil {
			t.Fatalf("ApplySetWater() failed: %v", err)
		}
	}
	if got := p.Log(day).WaterIntake; got != 250 {
		t.Errorf("WaterIntake = %v, want 250", got)
	}
}

func TestReadsAreSnapshots(t *testing.T) {
	p := New(memory.NewStore(), "u1")
	ctx := context.Background()

	if _, err := p.ApplyAddFoods(ctx, day, "Almoço", []models.Food{{ID: "f1", Name: "Arroz"}}); err != nil {
		t.Fatalf("ApplyAddFoods() failed: %v", err)
	}
	snapshot := p.Log(day)
	snapshot.Meals[0].Items[0].Name = "changed"

	if got := p.Log(day).Meals[0].Items[0].Name; got != "Arroz" {
		t.Errorf("projection mutated through snapshot: %s", got)
	}
}

func TestConcurrentReadersSeeWholeLogs(t *testing.T) {
	p := New(memory.NewStore(), "u1")
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			foods := []models.Food{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
			p.ApplyAddFoods(ctx, day, "Lanches", foods)
		}
	}()

	for i := 0; i < 200; i++ {
		log := p.Log(day)
		if meal, ok := log.Meal("Lanches"); ok && len(meal.Items)%2 != 0 {
			t.Fatalf("observed a half-applied batch: %d items", len(meal.Items))
		}
	}
	wg.Wait()
}

func TestLoadRestoresPersistedLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calorix.db")
	store := sqlite.NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	ctx := context.Background()

	p := New(store, "u1")
	if _, err := p.ApplySetWater(ctx, day, 900); err != nil {
		t.Fatalf("ApplySetWater() failed: %v", err)
	}
	if _, err := p.ApplyLogWorkout(ctx, "2024-05-02", models.Workout{ID: "w1", DurationMin: 30}); err != nil {
		t.Fatalf("ApplyLogWorkout() failed: %v", err)
	}
	store.Close()

	reopened := sqlite.NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer reopened.Close()

	restored := New(reopened, "u1")
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Projection.Load() failed: %v", err)
	}
	if got := restored.Log(day).WaterIntake; got != 900 {
		t.Errorf("WaterIntake = %v, want 900", got)
	}
	if got := len(restored.Log("2024-05-02").Workouts); got != 1 {
		t.Errorf("workouts = %d, want 1", got)
	}
	if dates := restored.Dates(); len(dates) != 2 || dates[0] != day {
		t.Errorf("Dates() = %v, want [%s 2024-05-02]", dates, day)
	}
}

func TestMutationSurvivesStorageFailure(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "never-opened.db"))
	p := New(store, "u1")

	_, err := p.ApplySetWater(context.Background(), day, 300)
	if !errors.Is(err, storage.ErrStorageUnavailable) {
		t.Fatalf("ApplySetWater() = %v, want ErrStorageUnavailable", err)
	}
	if got := p.Log(day).WaterIntake; got != 300 {
		t.Errorf("WaterIntake = %v, want 300 in memory", got)
	}
}

func TestReplace(t *testing.T) {
	p := New(memory.NewStore(), "u1")
	ctx := context.Background()

	remote := models.EmptyLog().WithWater(1200)
	if err := p.Replace(ctx, day, remote); err != nil {
		t.Fatalf("Replace() failed: %v", err)
	}
	if got := p.Log(day).WaterIntake; got != 1200 {
		t.Errorf("WaterIntake = %v, want 1200", got)
	}
	if len(p.Logs()) != 1 {
		t.Errorf("Logs() has %d dates, want 1", len(p.Logs()))
	}
}
