package licensestore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store, useful for tests and single-binary issuers.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.records[rec.LicenseID]; ok {
		rec.RevokedAt = old.RevokedAt
		rec.RevokeReason = old.RevokeReason
	}
	s.records[rec.LicenseID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, licenseID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[licenseID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].LicenseID < out[j].LicenseID
		}
		return out[i].IssuedAt.Before(out[j].IssuedAt)
	})
	return out, nil
}

func (s *MemoryStore) Revoke(_ context.Context, licenseID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[licenseID]
	if !ok {
		return ErrNotFound
	}
	rec.RevokedAt = &at
	rec.RevokeReason = reason
	s.records[licenseID] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, licenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, licenseID)
	return nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

func cloneRecord(rec Record) Record {
	rec.Features = maps.Clone(rec.Features)
	if rec.Signature != nil {
		rec.Signature = append([]byte(nil), rec.Signature...)
	}
	if rec.ExpiresAt != nil {
		t := *rec.ExpiresAt
		rec.ExpiresAt = &t
	}
	if rec.RevokedAt != nil {
		t := *rec.RevokedAt
		rec.RevokedAt = &t
	}
	return rec
}
