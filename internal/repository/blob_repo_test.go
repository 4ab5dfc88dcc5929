package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"hangmantrainer/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

func TestBlobRepositoryGetMissing(t *testing.T) {
	repo := NewBlobRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), ConfigKey)
	if !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestBlobRepositoryPutOverwrites(t *testing.T) {
	repo := NewBlobRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Put(ctx, ResultsKey, []byte(`[1]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := repo.Put(ctx, ResultsKey, []byte(`[1,2]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := repo.Get(ctx, ResultsKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("Get() = %s, want [1,2]", got)
	}
}

func TestBlobRepositoryWithTx(t *testing.T) {
	db := newTestDB(t)
	repo := NewBlobRepository(db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.WithTx(tx).Put(ctx, ConfigKey, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Get(ctx, ConfigKey); err != nil {
		t.Errorf("Get() after commit error = %v", err)
	}
}
