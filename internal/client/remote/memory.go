package remote

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. It backs the "none" remote
// backend and tests; Fail makes every call return the given error.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*UserRecord
	fail    error
	calls   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*UserRecord)}
}

// Fail makes subsequent calls return err; nil restores normal operation.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Calls is the number of calls made so far, failed ones included.
func (m *MemoryStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemoryStore) enter() error {
	m.calls++
	return m.fail
}

func (m *MemoryStore) GetUserRecord(ctx context.Context, userID string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	rec, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	return rec.clone(), nil
}

func (m *MemoryStore) SetField(ctx context.Context, userID, field, value string, version int64) error {
	if err := validate(userID, field); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	rec, ok := m.records[userID]
	if !ok {
		rec = &UserRecord{UserID: userID}
		m.records[userID] = rec
	}
	rec.apply(field, value, version)
	return nil
}

func (m *MemoryStore) DeleteUserRecord(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	delete(m.records, userID)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enter()
}
