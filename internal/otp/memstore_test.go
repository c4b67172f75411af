package otp

import (
	"context"
	"sort"
	"time"

	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

// memStore is an in-memory Store for deterministic tests.
type memStore struct {
	recs    map[int64]*Record
	failAll error
}

func newMemStore() *memStore {
	return &memStore{recs: map[int64]*Record{}}
}

func (m *memStore) byIdentifier(id Identifier) []*Record {
	var out []*Record
	for _, r := range m.recs {
		if r.Identifier == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memStore) CreateSuperseding(_ context.Context, rec Record) error {
	if m.failAll != nil {
		return m.failAll
	}
	for _, r := range m.recs {
		if r.Identifier == rec.Identifier && r.Live(rec.CreatedAt) {
			r.Used = true
		}
	}
	cp := rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *memStore) FindLive(_ context.Context, id Identifier, code string, now time.Time) (Record, error) {
	if m.failAll != nil {
		return Record{}, m.failAll
	}
	for _, r := range m.byIdentifier(id) {
		if r.Code == code && r.Live(now) {
			return *r, nil
		}
	}
	return Record{}, goerror.ErrNotFound
}

func (m *memStore) FindLatestByCode(_ context.Context, id Identifier, code string) (Record, error) {
	if m.failAll != nil {
		return Record{}, m.failAll
	}
	for _, r := range m.byIdentifier(id) {
		if r.Code == code {
			return *r, nil
		}
	}
	return Record{}, goerror.ErrNotFound
}

func (m *memStore) FindLatestLive(_ context.Context, id Identifier, now time.Time) (Record, error) {
	if m.failAll != nil {
		return Record{}, m.failAll
	}
	for _, r := range m.byIdentifier(id) {
		if r.Live(now) {
			return *r, nil
		}
	}
	return Record{}, goerror.ErrNotFound
}

func (m *memStore) Consume(_ context.Context, recordID int64) (bool, error) {
	if m.failAll != nil {
		return false, m.failAll
	}
	r, ok := m.recs[recordID]
	if !ok || r.Used {
		return false, nil
	}
	r.Used = true
	return true, nil
}

func (m *memStore) RecordFailure(_ context.Context, recordID int64, lock bool) error {
	if m.failAll != nil {
		return m.failAll
	}
	r, ok := m.recs[recordID]
	if !ok {
		return goerror.ErrNotFound
	}
	r.Attempts++
	if lock {
		r.Used = true
	}
	return nil
}

// memLimitStore is an in-memory LimitStore.
type memLimitStore struct {
	rows    map[Identifier]RateLimit
	failAll error
}

func newMemLimitStore() *memLimitStore {
	return &memLimitStore{rows: map[Identifier]RateLimit{}}
}

func (m *memLimitStore) Get(_ context.Context, id Identifier) (RateLimit, error) {
	if m.failAll != nil {
		return RateLimit{}, m.failAll
	}
	rl, ok := m.rows[id]
	if !ok {
		return RateLimit{}, goerror.ErrNotFound
	}
	return rl, nil
}

func (m *memLimitStore) Save(_ context.Context, rl RateLimit) error {
	if m.failAll != nil {
		return m.failAll
	}
	m.rows[rl.Identifier] = rl
	return nil
}

// memAccounts resolves identifiers from a fixed map.
type memAccounts map[Identifier]int64

func (m memAccounts) FindByIdentifier(_ context.Context, id Identifier) (int64, error) {
	accountID, ok := m[id]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	return accountID, nil
}

// memChannel records deliveries and can be told to fail.
type memChannel struct {
	sent []string
	fail error
}

func (m *memChannel) Send(_ context.Context, _ Identifier, message string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, message)
	return nil
}

// seqID hands out sequential int64 IDs.
type seqID struct{ n int64 }

func (s *seqID) Generate() int64 {
	s.n++
	return s.n
}
