package db

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/lingo/assets"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sqlDB.Close()

	fsys := fstest.MapFS{
		"002_b.sql":  {Data: []byte(`INSERT INTO a(v) VALUES ('second');`)},
		"001_a.sql":  {Data: []byte(`CREATE TABLE a (v TEXT);`)},
		"README.txt": {Data: []byte(`not a migration`)},
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, sqlDB, fsys); err != nil {
			t.Fatalf("Migrate run %d: %v", i, err)
		}
	}

	var rows, applied int
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM a`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if rows != 1 || applied != 2 {
		t.Fatalf("rows=%d applied=%d, want 1/2", rows, applied)
	}
}

func TestMigrateRollsBackFailedFile(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()

	fsys := fstest.MapFS{"001_bad.sql": {Data: []byte(`CREATE TABLE ok (v TEXT); NOT SQL;`)}}
	if err := Migrate(ctx, sqlDB, fsys); err == nil {
		t.Fatal("expected error")
	}
	var n int
	_ = sqlDB.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n)
	if n != 0 {
		t.Fatalf("failed migration recorded")
	}
}

func TestEmbeddedMigrationsApply(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()

	fsys, err := assets.Migrations()
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(ctx, sqlDB, fsys); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, table := range []string{"users", "learners", "lesson_completions", "attempts", "daily_xp"} {
		var name string
		err := sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
