package history

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps encoded records in memory. Records go through the codec
// so that the memory and sqlite backends behave the same.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.initialized = true
		s.runs = make(map[string][]byte)
	}
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("run id is required")
	}
	payload, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.runs[rec.ID] = payload
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	payload, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	rec, err := DecodeRecord(payload)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	payloads := make([][]byte, 0, len(s.runs))
	for _, p := range s.runs {
		payloads = append(payloads, p)
	}
	s.mu.RUnlock()

	recs := make([]Record, 0, len(payloads))
	for _, p := range payloads {
		rec, err := DecodeRecord(p)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Started.Equal(recs[j].Started) {
			return recs[i].Started.After(recs[j].Started)
		}
		return recs[i].ID < recs[j].ID
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.runs {
		rec, err := DecodeRecord(p)
		if err != nil {
			return n, err
		}
		if rec.Started.Before(cutoff) {
			delete(s.runs, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
