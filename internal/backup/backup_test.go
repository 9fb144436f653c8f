package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/storage/sqlite"
)

// setupTestDB creates a migrated calorix database holding n queued actions.
func setupTestDB(t *testing.T, n int) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), constants.DefaultDBFile)
	writeActions(t, dbPath, n)
	return dbPath
}

func writeActions(t *testing.T, dbPath string, n int) {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer store.Close()
	for i := 0; i < n; i++ {
		if _, err := store.AppendAction(context.Background(), "u1", models.NewSetWater("2024-05-01", float64(i))); err != nil {
			t.Fatalf("AppendAction() failed: %v", err)
		}
	}
}

func countActions(t *testing.T, dbPath string) int {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("Load(%s) failed: %v", dbPath, err)
	}
	defer store.Close()
	n, err := store.CountActions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CountActions() failed: %v", err)
	}
	return n
}

// steppingClock advances one minute per call.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Minute)
		return now
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t, 2)
	mgr := NewManager(dbPath)

	snap, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if filepath.Dir(snap.Path) != mgr.Dir() {
		t.Errorf("backup written to %s, want directory %s", snap.Path, mgr.Dir())
	}
	if snap.Size == 0 {
		t.Error("backup size is 0")
	}
	if got := countActions(t, snap.Path); got != 2 {
		t.Errorf("backup holds %d actions, want 2", got)
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(); !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("Create() = %v, want ErrNoDatabase", err)
	}
}

func TestCreateNameCollision(t *testing.T) {
	dbPath := setupTestDB(t, 1)
	mgr := NewManager(dbPath)
	fixed := time.Date(2024, 5, 1, 9, 30, 15, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	want := []string{
		"calorix-20240501-0930.db",
		"calorix-20240501-093015.db",
		"calorix-20240501-093015-1.db",
	}
	for i, name := range want {
		snap, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create() #%d failed: %v", i, err)
		}
		if snap.Name() != name {
			t.Errorf("Create() #%d name = %s, want %s", i, snap.Name(), name)
		}
	}

	snaps, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(snaps) != len(want) {
		t.Errorf("List() returned %d backups, want %d", len(snaps), len(want))
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t, 1)
	mgr := NewManager(dbPath)
	mgr.now = steppingClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local))

	for i := 0; i < constants.MaxBackups+3; i++ {
		if _, err := mgr.Create(); err != nil {
			t.Fatalf("Create() #%d failed: %v", i, err)
		}
	}

	snaps, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(snaps) != constants.MaxBackups {
		t.Fatalf("List() returned %d backups, want %d", len(snaps), constants.MaxBackups)
	}
	for i := 1; i < len(snaps); i++ {
		if !snaps[i].Timestamp.Before(snaps[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first at %d", i)
		}
	}
	if got := snaps[len(snaps)-1].Name(); got != "calorix-20240501-0803.db" {
		t.Errorf("oldest kept backup = %s, want calorix-20240501-0803.db", got)
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t, 1)
	mgr := NewManager(dbPath)
	if _, err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	for _, name := range []string{"notes.txt", "calorix-garbage.db", "other-20240501-0930.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	snaps, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("List() returned %d backups, want 1", len(snaps))
	}
}

func TestListWithoutDirectory(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), constants.DefaultDBFile))
	snaps, err := mgr.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("List() returned %d backups, want 0", len(snaps))
	}
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"calorix-20240501-0930.db", "2024-05-01 09:30:00", true},
		{"calorix-20240501-093015.db", "2024-05-01 09:30:15", true},
		{"calorix-20240501-093015-7.db", "2024-05-01 09:30:15", true},
		{"calorix-20240501.db", "", false},
		{"other-20240501-0930.db", "", false},
		{"calorix-20240501-0930.sqlite", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseStamp(tt.name)
			if ok != tt.ok {
				t.Fatalf("parseStamp(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && got.Format("2006-01-02 15:04:05") != tt.want {
				t.Errorf("parseStamp(%q) = %s, want %s", tt.name, got.Format("2006-01-02 15:04:05"), tt.want)
			}
		})
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t, 2)
	mgr := NewManager(dbPath)
	mgr.now = steppingClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local))

	snap, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	writeActions(t, dbPath, 3)
	if got := countActions(t, dbPath); got != 5 {
		t.Fatalf("database holds %d actions before restore, want 5", got)
	}

	safety, err := mgr.Restore(snap.Path)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if safety == nil {
		t.Fatal("Restore() did not snapshot the current database")
	}
	if got := countActions(t, dbPath); got != 2 {
		t.Errorf("restored database holds %d actions, want 2", got)
	}
	if got := countActions(t, safety.Path); got != 5 {
		t.Errorf("safety backup holds %d actions, want 5", got)
	}
	if exists(dbPath + ".restore.tmp") {
		t.Error("temporary restore file left behind")
	}
}

func TestRestoreRejectsInvalidFile(t *testing.T) {
	dbPath := setupTestDB(t, 1)
	mgr := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("not a database at all, just text padding it out"), 0600); err != nil {
		t.Fatalf("failed to write bogus file: %v", err)
	}
	if _, err := mgr.Restore(bogus); err == nil {
		t.Fatal("Restore() of invalid file succeeded")
	}
	if _, err := mgr.Restore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatal("Restore() of missing file succeeded")
	}
	if got := countActions(t, dbPath); got != 1 {
		t.Errorf("database holds %d actions after failed restore, want 1", got)
	}
}

func TestResolve(t *testing.T) {
	dbPath := setupTestDB(t, 1)
	mgr := NewManager(dbPath)
	snap, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got, err := mgr.Resolve(snap.Name())
	if err != nil {
		t.Fatalf("Resolve(name) failed: %v", err)
	}
	if got != snap.Path {
		t.Errorf("Resolve(name) = %s, want %s", got, snap.Path)
	}
	if got, err := mgr.Resolve(snap.Path); err != nil || got != snap.Path {
		t.Errorf("Resolve(abs) = %s, %v; want %s", got, err, snap.Path)
	}
	if _, err := mgr.Resolve("calorix-19990101-0000.db"); err == nil {
		t.Error("Resolve(missing) succeeded")
	}
}
