package services

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/martinberglund/Visma.Net/mirror/schema/postgres"
	httpclient "github.com/martinberglund/Visma.Net/pkg/http"
)

// fakeERP serves list endpoints from in-memory documents, honouring
// pageNumber and pageSize. A non-zero maxPageSize caps the page size the way
// the ERP does.
type fakeERP struct {
	mu          sync.Mutex
	maxPageSize int
	docs        map[string][]string
	fail        map[string]error
	requests    []map[string]string
	paths       []string
}

func (f *fakeERP) Send(context.Context, string, string, map[string]string, interface{}) (*httpclient.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeERP) OpenStream(_ context.Context, path string, query map[string]string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	f.requests = append(f.requests, query)

	if err := f.fail[path]; err != nil {
		return nil, err
	}

	docs := f.docs[path]
	page, _ := strconv.Atoi(query["pageNumber"])
	size, _ := strconv.Atoi(query["pageSize"])
	if page < 1 || size < 1 {
		return io.NopCloser(strings.NewReader("[" + strings.Join(docs, ",") + "]")), nil
	}
	if f.maxPageSize > 0 {
		size = min(size, f.maxPageSize)
	}
	start := min((page-1)*size, len(docs))
	end := min(start+size, len(docs))
	return io.NopCloser(strings.NewReader("[" + strings.Join(docs[start:end], ",") + "]")), nil
}

func (f *fakeERP) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// memoryStore is an in-memory RecordStore
type memoryStore struct {
	mu       sync.Mutex
	runs     map[uuid.UUID]postgres.SyncRun
	records  map[string]postgres.Record
	synced   map[string]time.Time
	batches  []int
	saveErr  error
	lastSync map[string]time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		runs:     make(map[uuid.UUID]postgres.SyncRun),
		records:  make(map[string]postgres.Record),
		synced:   make(map[string]time.Time),
		lastSync: make(map[string]time.Time),
	}
}

func (m *memoryStore) StartRun(_ context.Context, run *postgres.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryStore) FinishRun(_ context.Context, run *postgres.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return errors.New("unknown run")
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryStore) SaveRecords(_ context.Context, _ uuid.UUID, records []postgres.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.batches = append(m.batches, len(records))
	for _, r := range records {
		m.records[r.Resource+"/"+r.ID] = r
	}
	return nil
}

func (m *memoryStore) MarkResourceSynced(_ context.Context, resource string, at time.Time, _ uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced[resource] = at
	return nil
}

func (m *memoryStore) LastSyncedAt(_ context.Context, resource string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync[resource], nil
}

func (m *memoryStore) onlyRun() postgres.SyncRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, run := range m.runs {
		return run
	}
	return postgres.SyncRun{}
}
