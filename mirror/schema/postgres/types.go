package postgres

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sync run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Record is one ERP resource as stored in erp_records. Payload is the JSON
// document exactly as the API returned it.
type Record struct {
	Resource     string
	ID           string
	Payload      json.RawMessage
	LastModified time.Time
}

// SyncRun tracks one invocation of the mirror sync
type SyncRun struct {
	ID            uuid.UUID
	Resources     []string
	Status        string
	StartedAt     time.Time
	FinishedAt    time.Time
	RecordsSaved  int
	RecordsFailed int
	Error         string
}
