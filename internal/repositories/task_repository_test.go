package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

// setupTestDB connects to the database named by TASKHUB_TEST_DATABASE_URL
// and skips the test when it is not set.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	dsn := os.Getenv("TASKHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TASKHUB_TEST_DATABASE_URL not set, skipping postgres tests")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db, func() {
		db.Exec("DELETE FROM tasks")
		db.Close()
	}
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTaskRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	task := sampleTask(uuid.NewString(), now)
	task.Comments = []models.Comment{{ID: uuid.NewString(), Content: "first", UserID: 1, CreatedAt: now}}
	if err := store.Put(ctx, task, 0); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := store.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.AcceptanceStatus != models.AcceptancePending || got.EditRequestStatus != models.EditRequestNone {
		t.Fatalf("enum fields not round-tripped: %+v", got)
	}
	if !got.OriginalDeadline.Equal(task.OriginalDeadline) {
		t.Fatalf("original deadline changed: %v vs %v", got.OriginalDeadline, task.OriginalDeadline)
	}
	if len(got.Comments) != 1 || got.Comments[0].Content != "first" {
		t.Fatalf("comments not round-tripped: %+v", got.Comments)
	}
	if got.ExtensionReason != "" || got.RequestedDeadline != nil {
		t.Fatalf("absent fields should stay absent: %+v", got)
	}
}

func TestPostgresStore_VersionConflict(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTaskRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	task := sampleTask(uuid.NewString(), now)
	if err := store.Put(ctx, task, 0); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Put(ctx, task, 0); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("duplicate insert: expected ErrVersionConflict, got %v", err)
	}

	winner := task.Clone()
	winner.Title = "winner"
	winner.Version = 2
	if err := store.Put(ctx, winner, 1); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	loser := task.Clone()
	loser.Title = "loser"
	loser.Version = 2
	if err := store.Put(ctx, loser, 1); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale update: expected ErrVersionConflict, got %v", err)
	}

	missing := sampleTask(uuid.NewString(), now)
	if err := store.Put(ctx, missing, 1); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("update of missing row: expected ErrTaskNotFound, got %v", err)
	}

	assignee := int64(2)
	list, err := store.List(ctx, models.TaskFilter{AssigneeID: &assignee})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].Title != "winner" {
		t.Fatalf("unexpected list %+v", list)
	}
}
