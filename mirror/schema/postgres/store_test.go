package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap/zaptest"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return newDB(mock, zaptest.NewLogger(t)), mock
}

func TestStartRun(t *testing.T) {
	db, mock := newMockDB(t)
	run := &SyncRun{ID: uuid.New(), Resources: []string{"customer", "supplier"}}

	mock.ExpectExec(insertRunSQL).
		WithArgs(run.ID, []string{"customer", "supplier"}, RunStatusRunning, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := db.StartRun(context.Background(), run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != RunStatusRunning || run.StartedAt.IsZero() {
		t.Fatalf("run not initialised: %+v", run)
	}
}

func TestStartRun_Error(t *testing.T) {
	db, mock := newMockDB(t)
	run := &SyncRun{ID: uuid.New(), Resources: []string{"customer"}}

	mock.ExpectExec(insertRunSQL).
		WithArgs(run.ID, run.Resources, RunStatusRunning, pgxmock.AnyArg()).
		WillReturnError(errors.New("relation \"sync_runs\" does not exist"))

	err := db.StartRun(context.Background(), run)
	if err == nil || !strings.Contains(err.Error(), "sync_runs") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFinishRun(t *testing.T) {
	db, mock := newMockDB(t)
	finished := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := &SyncRun{
		ID:            uuid.New(),
		Status:        RunStatusFailed,
		FinishedAt:    finished,
		RecordsSaved:  7,
		RecordsFailed: 2,
		Error:         "customer: boom",
	}

	mock.ExpectExec(finishRunSQL).
		WithArgs(run.ID, RunStatusFailed, finished, 7, 2, pgtype.Text{String: "customer: boom", Valid: true}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := db.FinishRun(context.Background(), run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
}

func TestFinishRun_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	run := &SyncRun{ID: uuid.New(), Status: RunStatusCompleted}

	mock.ExpectExec(finishRunSQL).
		WithArgs(run.ID, RunStatusCompleted, pgxmock.AnyArg(), 0, 0, pgtype.Text{}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := db.FinishRun(context.Background(), run)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if run.FinishedAt.IsZero() {
		t.Fatal("FinishedAt not set")
	}
}

func TestSaveRecords(t *testing.T) {
	db, mock := newMockDB(t)
	runID := uuid.New()
	modified := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	records := []Record{
		{Resource: "customer", ID: "10001", Payload: json.RawMessage(`{"number":"10001"}`), LastModified: modified},
		{Resource: "customer", ID: "10002", Payload: json.RawMessage(`{"number":"10002"}`)},
	}

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec(upsertRecordSQL).
		WithArgs("customer", "10001", records[0].Payload, pgtype.Timestamptz{Time: modified, Valid: true}, runID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec(upsertRecordSQL).
		WithArgs("customer", "10002", records[1].Payload, pgtype.Timestamptz{}, runID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := db.SaveRecords(context.Background(), runID, records); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
}

func TestSaveRecords_RollsBackOnFailedRow(t *testing.T) {
	db, mock := newMockDB(t)
	runID := uuid.New()
	records := []Record{
		{Resource: "supplier", ID: "1", Payload: json.RawMessage(`{}`)},
		{Resource: "supplier", ID: "2", Payload: json.RawMessage(`{}`)},
	}

	mock.ExpectBegin()
	batch := mock.ExpectBatch()
	batch.ExpectExec(upsertRecordSQL).
		WithArgs("supplier", "1", records[0].Payload, pgtype.Timestamptz{}, runID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec(upsertRecordSQL).
		WithArgs("supplier", "2", records[1].Payload, pgtype.Timestamptz{}, runID).
		WillReturnError(errors.New("invalid input syntax for type json"))
	mock.ExpectRollback()

	err := db.SaveRecords(context.Background(), runID, records)
	if err == nil || !strings.Contains(err.Error(), "failed to save supplier 2") {
		t.Fatalf("expected row error, got %v", err)
	}
}

func TestSaveRecords_Empty(t *testing.T) {
	db, _ := newMockDB(t)
	if err := db.SaveRecords(context.Background(), uuid.New(), nil); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
}

func TestMarkResourceSynced(t *testing.T) {
	db, mock := newMockDB(t)
	runID := uuid.New()
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(markSyncedSQL).
		WithArgs("inventory", at, runID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := db.MarkResourceSynced(context.Background(), "inventory", at, runID); err != nil {
		t.Fatalf("MarkResourceSynced: %v", err)
	}
}

func TestLastSyncedAt(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery(lastSyncedSQL).
		WithArgs("customer").
		WillReturnRows(mock.NewRows([]string{"last_synced_at"}).AddRow(at))

	got, err := db.LastSyncedAt(context.Background(), "customer")
	if err != nil {
		t.Fatalf("LastSyncedAt: %v", err)
	}
	if !got.Equal(at) {
		t.Fatalf("got %v, want %v", got, at)
	}
}

func TestLastSyncedAt_NeverSynced(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(lastSyncedSQL).
		WithArgs("account").
		WillReturnRows(mock.NewRows([]string{"last_synced_at"}))

	got, err := db.LastSyncedAt(context.Background(), "account")
	if err != nil {
		t.Fatalf("LastSyncedAt: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}

func TestLastSyncedAt_Error(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(lastSyncedSQL).
		WithArgs("account").
		WillReturnError(errors.New("connection reset"))

	if _, err := db.LastSyncedAt(context.Background(), "account"); err == nil || !strings.Contains(err.Error(), "sync state of account") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestPingAndInitSchema(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectPing().WillReturnError(errors.New("dial tcp: connection refused"))
	mock.ExpectPing()
	mock.ExpectExec(schemaSQL).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectClose()

	ctx := context.Background()
	if err := db.Ping(ctx); err == nil || !strings.Contains(err.Error(), "failed to ping database") {
		t.Fatalf("expected ping error, got %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	db.Close()
}
