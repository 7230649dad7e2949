package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

const (
	insertRunSQL = `
INSERT INTO sync_runs (id, resources, status, started_at)
VALUES ($1, $2, $3, $4)`

	finishRunSQL = `
UPDATE sync_runs
SET status = $2, finished_at = $3, records_saved = $4, records_failed = $5, error = $6
WHERE id = $1`

	upsertRecordSQL = `
INSERT INTO erp_records (resource, record_id, payload, last_modified, sync_run_id, synced_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (resource, record_id) DO UPDATE
SET payload = EXCLUDED.payload,
    last_modified = EXCLUDED.last_modified,
    sync_run_id = EXCLUDED.sync_run_id,
    synced_at = EXCLUDED.synced_at`

	markSyncedSQL = `
INSERT INTO resource_sync_state (resource, last_synced_at, sync_run_id)
VALUES ($1, $2, $3)
ON CONFLICT (resource) DO UPDATE
SET last_synced_at = EXCLUDED.last_synced_at, sync_run_id = EXCLUDED.sync_run_id`

	lastSyncedSQL = `SELECT last_synced_at FROM resource_sync_state WHERE resource = $1`
)

// StartRun records a new sync run as running
func (db *DB) StartRun(ctx context.Context, run *SyncRun) error {
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	if _, err := db.pool.Exec(ctx, insertRunSQL, run.ID, run.Resources, run.Status, run.StartedAt); err != nil {
		return fmt.Errorf("failed to create sync run %s: %w", run.ID, err)
	}

	db.logger.Debug("Created sync run", zap.String("run_id", run.ID.String()), zap.Strings("resources", run.Resources))
	return nil
}

// FinishRun stores the final status and counters of a run
func (db *DB) FinishRun(ctx context.Context, run *SyncRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	errText := pgtype.Text{String: run.Error, Valid: run.Error != ""}

	tag, err := db.pool.Exec(ctx, finishRunSQL,
		run.ID, run.Status, run.FinishedAt, run.RecordsSaved, run.RecordsFailed, errText)
	if err != nil {
		return fmt.Errorf("failed to finish sync run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync run %s not found", run.ID)
	}
	return nil
}

// SaveRecords upserts records in a single transaction
func (db *DB) SaveRecords(ctx context.Context, runID uuid.UUID, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, r := range records {
		lastModified := pgtype.Timestamptz{Time: r.LastModified, Valid: !r.LastModified.IsZero()}
		batch.Queue(upsertRecordSQL, r.Resource, r.ID, r.Payload, lastModified, runID)
	}

	results := tx.SendBatch(ctx, batch)
	for _, r := range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to save %s %s: %w", r.Resource, r.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}

	db.logger.Debug("Saved records", zap.String("run_id", runID.String()), zap.Int("count", len(records)))
	return nil
}

// MarkResourceSynced stores the point in time the next incremental sync of
// resource starts from
func (db *DB) MarkResourceSynced(ctx context.Context, resource string, at time.Time, runID uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, markSyncedSQL, resource, at, runID); err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", resource, err)
	}
	return nil
}

// LastSyncedAt returns when resource was last synced successfully, or the
// zero time if it never was
func (db *DB) LastSyncedAt(ctx context.Context, resource string) (time.Time, error) {
	var at time.Time
	err := db.pool.QueryRow(ctx, lastSyncedSQL, resource).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync state of %s: %w", resource, err)
	}
	return at, nil
}
