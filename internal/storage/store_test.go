package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

// exerciseStore runs the shared behavior every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "wall_targets"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "sync_url", []byte(`"https://example.com/t.json"`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	err := s.PutMany(ctx, map[string][]byte{
		"wall_targets":  []byte(`{"DSN":{}}`),
		"wall_mappings": []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("PutMany: %v", err)
	}
	if err := s.Put(ctx, "sync_url", []byte(`""`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := s.Get(ctx, "sync_url")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `""` {
		t.Errorf("sync_url = %s, want overwritten value", got)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if diff := cmp.Diff([]string{"sync_url", "wall_mappings", "wall_targets"}, keys); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, "wall_mappings"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "never_written"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, err := s.Get(ctx, "wall_mappings"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get deleted = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore runs the shared checks against a real database file.
func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "setops.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

// TestSQLiteReopen verifies values survive closing and reopening the file.
func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setops.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Put(context.Background(), "baselines", []byte(`{"DEFAULT":{}}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(context.Background(), "baselines")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"DEFAULT":{}}` {
		t.Errorf("baselines = %s", got)
	}
}

// TestRedisStore runs the shared checks against an in-process Redis.
func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(client)
	defer s.Close()

	exerciseStore(t, s)

	if !mr.Exists(RedisKeyPrefix + "wall_targets") {
		t.Errorf("expected prefixed key in redis")
	}
}

// TestOpenRedis verifies the driver switch connects to Redis.
func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), Options{Driver: DriverRedis, RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*RedisStore); !ok {
		t.Errorf("Open returned %T, want *RedisStore", s)
	}
}

// TestOpenUnknownDriver verifies unsupported drivers are rejected.
func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Options{Driver: "mongo"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

// TestPostgresGet verifies reads and the not-found mapping.
func TestPostgresGet(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM state_kv`).
		WithArgs("baselines").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"DEFAULT":{}}`)))
	mock.ExpectQuery(`SELECT value FROM state_kv`).
		WithArgs("sync_url").
		WillReturnError(pgx.ErrNoRows)

	s := NewPostgres(mock)
	got, err := s.Get(context.Background(), "baselines")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"DEFAULT":{}}` {
		t.Errorf("baselines = %s", got)
	}
	if _, err := s.Get(context.Background(), "sync_url"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresPutMany verifies all entries are written inside one transaction
// in key order.
func TestPostgresPutMany(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO state_kv`).
		WithArgs("orbit_targets", []byte(`{}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO state_kv`).
		WithArgs("wall_targets", []byte(`{"DSN":{}}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	s := NewPostgres(mock)
	err = s.PutMany(context.Background(), map[string][]byte{
		"wall_targets":  []byte(`{"DSN":{}}`),
		"orbit_targets": []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("PutMany: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresPutManyRollback verifies a failed write rolls the batch back.
func TestPostgresPutManyRollback(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	errWrite := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO state_kv`).
		WithArgs("a", []byte(`1`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO state_kv`).
		WithArgs("b", []byte(`2`)).
		WillReturnError(errWrite)
	mock.ExpectRollback()

	s := NewPostgres(mock)
	err = s.PutMany(context.Background(), map[string][]byte{"a": []byte(`1`), "b": []byte(`2`)})
	if !errors.Is(err, errWrite) {
		t.Fatalf("PutMany err = %v, want %v", err, errWrite)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestPostgresKeysAndDelete verifies listing and deletion queries.
func TestPostgresKeysAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT key FROM state_kv ORDER BY key`).
		WillReturnRows(pgxmock.NewRows([]string{"key"}).AddRow("baselines").AddRow("sync_url"))
	mock.ExpectExec(`DELETE FROM state_kv`).
		WithArgs("sync_url").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	s := NewPostgres(mock)
	keys, err := s.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if diff := cmp.Diff([]string{"baselines", "sync_url"}, keys); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
	if err := s.Delete(context.Background(), "sync_url"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestImportLogs verifies the history is newest-first and capped.
func TestImportLogs(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "setops.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	logs, err := QueryImportLogs(ctx, s, 10)
	if err != nil || len(logs) != 0 {
		t.Fatalf("empty history = %v, %v", logs, err)
	}

	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxImportLogs+5; i++ {
		entry := ImportLog{CreatedAt: base.Add(time.Duration(i) * time.Minute), Source: "cli", Status: "success", Climbs: i}
		if err := InsertImportLog(ctx, s, entry); err != nil {
			t.Fatalf("InsertImportLog %d: %v", i, err)
		}
	}

	all, err := QueryImportLogs(ctx, s, 0)
	if err != nil {
		t.Fatalf("QueryImportLogs: %v", err)
	}
	if len(all) != MaxImportLogs {
		t.Fatalf("history length = %d, want %d", len(all), MaxImportLogs)
	}
	if all[0].Climbs != MaxImportLogs+4 {
		t.Errorf("newest entry climbs = %d, want %d", all[0].Climbs, MaxImportLogs+4)
	}

	recent, _ := QueryImportLogs(ctx, s, 3)
	if len(recent) != 3 {
		t.Errorf("limited history = %d, want 3", len(recent))
	}
}
