package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/calorix/internal/models"
)

// TestStore_Integration runs against a real database.
// Example: CALORIX_TEST_POSTGRES_DSN="postgres://calorix@localhost:5432/calorix_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("CALORIX_TEST_POSTGRES_DSN")
	if connStr == "" {
		t.Skip("CALORIX_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	uid := "it-" + uuid.NewString()

	t.Run("DailyLogs", func(t *testing.T) {
		if _, ok, err := store.GetDailyLog(ctx, uid, "2024-05-01"); err != nil || ok {
			t.Fatalf("GetDailyLog() on empty = (ok=%v, %v), want (false, nil)", ok, err)
		}

		first := models.EmptyLog().
			WithFoods("Almoço", []models.Food{{ID: "f1", Name: "Arroz", Calories: 200}}).
			WithWater(500)
		batch := map[string]models.DailyLog{
			"2024-05-01": first,
			"2024-05-02": models.EmptyLog().WithWater(250),
		}
		if err := store.CommitDailyLogs(ctx, uid, batch); err != nil {
			t.Fatalf("CommitDailyLogs() failed: %v", err)
		}

		got, ok, err := store.GetDailyLog(ctx, uid, "2024-05-01")
		if err != nil || !ok {
			t.Fatalf("GetDailyLog() = (ok=%v, %v)", ok, err)
		}
		if got.WaterIntake != 500 || len(got.Meals) != 1 || got.Meals[0].Items[0].Name != "Arroz" {
			t.Errorf("GetDailyLog() = %+v, want committed log", got)
		}

		all, err := store.ListDailyLogs(ctx, uid)
		if err != nil {
			t.Fatalf("ListDailyLogs() failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("ListDailyLogs() returned %d logs, want 2", len(all))
		}
	})

	t.Run("ProfileMerge", func(t *testing.T) {
		p := models.UserProfile{UID: uid, Email: uid + "@example.com", Name: "Ana", Age: 30}
		if err := store.SaveProfile(ctx, p); err != nil {
			t.Fatalf("SaveProfile() failed: %v", err)
		}
		p.Name = "Ana Maria"
		if err := store.SaveProfile(ctx, p); err != nil {
			t.Fatalf("SaveProfile() failed: %v", err)
		}
		got, err := store.GetProfile(ctx, uid)
		if err != nil {
			t.Fatalf("GetProfile() failed: %v", err)
		}
		if got.Name != "Ana Maria" || got.Age != 30 {
			t.Errorf("GetProfile() = %+v, want merged profile", got)
		}
	})

	t.Run("Posts", func(t *testing.T) {
		now := time.Now().UnixMilli()
		var ids []string
		for i := 0; i < 2; i++ {
			post := models.Post{
				ID:        uuid.NewString(),
				Author:    models.Author{Name: "Ana", Email: uid + "@example.com"},
				Text:      fmt.Sprintf("post %d", i),
				Category:  models.PostGeneral,
				Reactions: map[models.ReactionType][]string{},
				Comments:  []models.Comment{},
				Timestamp: now + int64(i),
			}
			if err := store.CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost() failed: %v", err)
			}
			ids = append(ids, post.ID)
		}

		posts, err := store.ListPosts(ctx, 2)
		if err != nil {
			t.Fatalf("ListPosts() failed: %v", err)
		}
		if len(posts) != 2 || posts[0].ID != ids[1] {
			t.Errorf("ListPosts() first = %v, want newest %s", posts, ids[1])
		}

		post, err := store.GetPost(ctx, ids[0])
		if err != nil {
			t.Fatalf("GetPost() failed: %v", err)
		}
		post.Comments = append(post.Comments, models.Comment{ID: "c1", Text: "boa!"})
		if err := store.UpdatePost(ctx, post); err != nil {
			t.Fatalf("UpdatePost() failed: %v", err)
		}
		post, _ = store.GetPost(ctx, ids[0])
		if len(post.Comments) != 1 {
			t.Errorf("post has %d comments, want 1", len(post.Comments))
		}
	})

	t.Run("Notifications", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			n := models.Notification{ID: uuid.NewString(), Type: "system", Title: "t", Timestamp: int64(i)}
			if err := store.CreateNotification(ctx, uid, n); err != nil {
				t.Fatalf("CreateNotification() failed: %v", err)
			}
		}
		if err := store.MarkAllNotificationsRead(ctx, uid); err != nil {
			t.Fatalf("MarkAllNotificationsRead() failed: %v", err)
		}
		list, err := store.ListNotifications(ctx, uid)
		if err != nil {
			t.Fatalf("ListNotifications() failed: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("ListNotifications() returned %d, want 3", len(list))
		}
		for _, n := range list {
			if !n.Read {
				t.Errorf("notification %s not marked read", n.ID)
			}
		}
		if list[0].Timestamp != 2 {
			t.Errorf("first notification timestamp = %d, want newest (2)", list[0].Timestamp)
		}
	})
}
