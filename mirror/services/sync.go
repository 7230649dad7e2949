package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/martinberglund/Visma.Net/mirror/schema/postgres"
	"github.com/martinberglund/Visma.Net/pkg/vismanet"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// RecordStore persists mirrored records and sync bookkeeping.
// *postgres.DB implements it.
type RecordStore interface {
	StartRun(ctx context.Context, run *postgres.SyncRun) error
	FinishRun(ctx context.Context, run *postgres.SyncRun) error
	SaveRecords(ctx context.Context, runID uuid.UUID, records []postgres.Record) error
	MarkResourceSynced(ctx context.Context, resource string, at time.Time, runID uuid.UUID) error
	LastSyncedAt(ctx context.Context, resource string) (time.Time, error)
}

var _ RecordStore = (*postgres.DB)(nil)

// ResourceMetrics counts the outcome of one resource
type ResourceMetrics struct {
	Fetched int
	Saved   int
	Failed  int
	Err     error
}

// SyncMetrics tracks the overall sync operation metrics
type SyncMetrics struct {
	RunID     uuid.UUID
	Resources map[string]*ResourceMetrics
	mu        sync.Mutex
}

func newSyncMetrics(runID uuid.UUID) *SyncMetrics {
	return &SyncMetrics{RunID: runID, Resources: make(map[string]*ResourceMetrics)}
}

func (m *SyncMetrics) resource(name string) *ResourceMetrics {
	rm, ok := m.Resources[name]
	if !ok {
		rm = &ResourceMetrics{}
		m.Resources[name] = rm
	}
	return rm
}

// AddFetched increments the fetched count of resource
func (m *SyncMetrics) AddFetched(resource string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resource(resource).Fetched += n
}

// AddSaved increments the saved count of resource
func (m *SyncMetrics) AddSaved(resource string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resource(resource).Saved += n
}

// AddFailed increments the failed count of resource
func (m *SyncMetrics) AddFailed(resource string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resource(resource).Failed += n
}

// SetError records the error that stopped resource
func (m *SyncMetrics) SetError(resource string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resource(resource).Err = err
}

// Get returns a copy of the counters of resource
func (m *SyncMetrics) Get(resource string) ResourceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rm, ok := m.Resources[resource]; ok {
		return *rm
	}
	return ResourceMetrics{}
}

// Names returns the synced resource names in order
func (m *SyncMetrics) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.Resources))
	for name := range m.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalSaved returns the number of records saved across resources
func (m *SyncMetrics) TotalSaved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, rm := range m.Resources {
		total += rm.Saved
	}
	return total
}

// TotalFailed returns the number of records that could not be saved
func (m *SyncMetrics) TotalFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, rm := range m.Resources {
		total += rm.Failed
	}
	return total
}

// SyncOptions tune a SyncService
type SyncOptions struct {
	Concurrency int
	PageSize    int
	BatchSize   int
}

// SyncService copies ERP resources into a RecordStore
type SyncService struct {
	client vismanet.Requester
	store  RecordStore
	opts   SyncOptions
	logger *zap.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(client vismanet.Requester, store RecordStore, opts SyncOptions, logger *zap.Logger) *SyncService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	opts.PageSize = vismanet.ClampPageSize(opts.PageSize)
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{client: client, store: store, opts: opts, logger: logger}
}

// SyncAll syncs the named resources, or all of them when names is empty.
// Each resource continues from its last successful sync unless full is set.
// Resources run concurrently; one failing resource does not stop the others
// but makes the run fail.
func (s *SyncService) SyncAll(ctx context.Context, names []string, full bool) (*SyncMetrics, error) {
	selected, err := lookupResources(names)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	run := &postgres.SyncRun{
		ID:        uuid.New(),
		Status:    postgres.RunStatusRunning,
		StartedAt: startTime.UTC(),
	}
	for _, r := range selected {
		run.Resources = append(run.Resources, r.Name)
	}

	if err := s.store.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to start sync run: %w", err)
	}

	s.logger.Info("Starting sync operation",
		zap.String("run_id", run.ID.String()),
		zap.Strings("resources", run.Resources),
		zap.Bool("full", full))

	metrics := newSyncMetrics(run.ID)
	p := pool.New().WithMaxGoroutines(s.opts.Concurrency).WithErrors()
	for _, r := range selected {
		p.Go(func() error {
			if err := s.SyncResource(ctx, run.ID, r, full, metrics); err != nil {
				metrics.SetError(r.Name, err)
				s.logger.Error("Failed to sync resource",
					zap.String("run_id", run.ID.String()),
					zap.String("resource", r.Name),
					zap.Error(err))
				return fmt.Errorf("%s: %w", r.Name, err)
			}
			return nil
		})
	}
	syncErr := p.Wait()

	run.RecordsSaved = metrics.TotalSaved()
	run.RecordsFailed = metrics.TotalFailed()
	run.Status = postgres.RunStatusCompleted
	if syncErr != nil {
		run.Status = postgres.RunStatusFailed
		run.Error = syncErr.Error()
	}

	// The run row must be closed even when ctx was cancelled.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.store.FinishRun(finishCtx, run); err != nil {
		s.logger.Warn("Failed to finish sync run", zap.String("run_id", run.ID.String()), zap.Error(err))
		syncErr = errors.Join(syncErr, err)
	}

	s.logger.Info("Completed sync operation",
		zap.String("run_id", run.ID.String()),
		zap.String("status", run.Status),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("total_saved", run.RecordsSaved),
		zap.Int("total_failed", run.RecordsFailed))

	return metrics, syncErr
}

// SyncResource streams one resource page by page and saves it in batches.
// Records that cannot be keyed are counted as failed and skipped.
func (s *SyncService) SyncResource(ctx context.Context, runID uuid.UUID, r Resource, full bool, metrics *SyncMetrics) error {
	var since time.Time
	if !full {
		var err error
		since, err = s.store.LastSyncedAt(ctx, r.Name)
		if err != nil {
			return err
		}
	}

	// Changes made while the sync runs are picked up by the next one.
	syncStarted := time.Now().UTC()

	s.logger.Info("Syncing resource",
		zap.String("resource", r.Name),
		zap.Time("since", since))

	batch := make([]postgres.Record, 0, s.opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.SaveRecords(ctx, runID, batch); err != nil {
			metrics.AddFailed(r.Name, len(batch))
			return fmt.Errorf("failed to save batch: %w", err)
		}
		metrics.AddSaved(r.Name, len(batch))
		s.logger.Debug("Saved batch", zap.String("resource", r.Name), zap.Int("count", len(batch)))
		batch = batch[:0]
		return nil
	}

	filter := vismanet.Filter{LastModifiedDateTime: since}
	err := streamPages(ctx, s.client, r.Path, filter, s.opts.PageSize, func(raw json.RawMessage) error {
		metrics.AddFetched(r.Name, 1)
		rec, err := r.record(raw)
		if err != nil {
			metrics.AddFailed(r.Name, 1)
			s.logger.Warn("Skipping record", zap.String("resource", r.Name), zap.Error(err))
			return nil
		}
		batch = append(batch, rec)
		if len(batch) >= s.opts.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	if err := s.store.MarkResourceSynced(ctx, r.Name, syncStarted, runID); err != nil {
		return err
	}

	rm := metrics.Get(r.Name)
	s.logger.Info("Synced resource",
		zap.String("resource", r.Name),
		zap.Int("fetched", rm.Fetched),
		zap.Int("saved", rm.Saved),
		zap.Int("failed", rm.Failed))
	return nil
}
