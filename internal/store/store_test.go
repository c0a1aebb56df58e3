package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/relaycore/agentcore/internal/config"
	"github.com/relaycore/agentcore/pkg/models"
)

func setupMockStore(t *testing.T) (sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return mock, OpenDB(db, "sqlite")
}

func TestSaveRunInsertsRow(t *testing.T) {
	mock, s := setupMockStore(t)
	result := &models.AgentResult{
		Success:    true,
		Message:    "done",
		Iterations: 3,
		History:    nil,
	}

	mock.ExpectExec("INSERT INTO agent_runs").
		WithArgs("run-1", "do the thing", true, "done", 3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.SaveRun(context.Background(), "run-1", "do the thing", result); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveRunPropagatesDBError(t *testing.T) {
	mock, s := setupMockStore(t)
	result := &models.AgentResult{Success: false, Message: "failed"}

	mock.ExpectExec("INSERT INTO agent_runs").
		WillReturnError(errors.New("connection reset"))

	if err := s.SaveRun(context.Background(), "run-2", "task", result); err == nil {
		t.Fatal("expected error to propagate from the driver")
	}
}

func TestSaveRunOnNilStoreIsNoop(t *testing.T) {
	var s *Store
	if err := s.SaveRun(context.Background(), "run-3", "task", &models.AgentResult{}); err != nil {
		t.Fatalf("expected nil-store SaveRun to be a no-op, got %v", err)
	}
}

func TestGetRunScansRow(t *testing.T) {
	mock, s := setupMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "task", "success", "message", "iterations", "history", "created_at"}).
		AddRow("run-1", "do the thing", true, "done", 3, "[]", now)

	mock.ExpectQuery("SELECT (.+) FROM agent_runs WHERE id = ?").
		WithArgs("run-1").
		WillReturnRows(rows)

	rec, err := s.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if rec.Task != "do the thing" || !rec.Result.Success || rec.Result.Iterations != 3 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestGetRunOnNilStoreReturnsErrNoRows(t *testing.T) {
	var s *Store
	if _, err := s.GetRun(context.Background(), "run-1"); err == nil {
		t.Fatal("expected an error for a nil store")
	}
}

func TestRebindUsesDollarPlaceholdersForPostgres(t *testing.T) {
	s := &Store{driver: "postgres"}
	got := s.rebind("SELECT * FROM agent_runs WHERE id = ? AND task = ?")
	want := "SELECT * FROM agent_runs WHERE id = $1 AND task = $2"
	if got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
}

func TestRebindLeavesSqliteUnchanged(t *testing.T) {
	s := &Store{driver: "sqlite"}
	query := "SELECT * FROM agent_runs WHERE id = ?"
	if got := s.rebind(query); got != query {
		t.Errorf("rebind() = %q, want unchanged %q", got, query)
	}
}

func TestListRunsOrdersByCreatedAtDesc(t *testing.T) {
	mock, s := setupMockStore(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "task", "success", "message", "iterations", "history", "created_at"}).
		AddRow("run-2", "second", true, "ok", 1, "[]", now).
		AddRow("run-1", "first", true, "ok", 1, "[]", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM agent_runs ORDER BY created_at DESC").
		WithArgs(10, 0).
		WillReturnRows(rows)

	recs, err := s.ListRuns(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "run-2" {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestListRunsOnNilStoreReturnsEmpty(t *testing.T) {
	var s *Store
	recs, err := s.ListRuns(context.Background(), 10, 0)
	if err != nil || recs != nil {
		t.Errorf("expected nil, nil for a nil store, got %v, %v", recs, err)
	}
}

func TestOpenWithEmptyDriverDisablesPersistence(t *testing.T) {
	s, err := Open(config.StoreConfig{})
	if err != nil {
		t.Fatalf("Open with empty driver should not error, got %v", err)
	}
	if s != nil {
		t.Fatal("expected a nil store when persistence is disabled")
	}
}
