package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"mailtriage/internal/domain"
)

// MemStore is the in-memory Opener used in tests and as a degraded fallback
// when no Redis is configured. Partitions share one lock; values are JSON
// bytes so the round-trip matches the Redis implementation.
type MemStore struct {
	mu    sync.Mutex
	parts map[string]*MemPartition
}

func NewMem() *MemStore {
	return &MemStore{parts: make(map[string]*MemPartition)}
}

func (s *MemStore) Partition(name string) Partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parts[name]; ok {
		return p
	}
	p := &MemPartition{values: make(map[string][]byte)}
	s.parts[name] = p
	return p
}

type MemPartition struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (p *MemPartition) Put(ctx context.Context, key string, rec *domain.StoredRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = data
	return nil
}

// PutRaw injects arbitrary bytes, letting tests exercise the malformed
// record path.
func (p *MemPartition) PutRaw(key string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = data
}

func (p *MemPartition) Get(ctx context.Context, key string) (*domain.StoredRecord, error) {
	p.mu.Lock()
	data, ok := p.values[key]
	p.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var rec domain.StoredRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRecord, key)
	}
	return &rec, nil
}

func (p *MemPartition) List(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (p *MemPartition) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}

func (p *MemPartition) Exists(ctx context.Context, key string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.values[key]
	return ok, nil
}

func (p *MemPartition) Count(ctx context.Context) (int, error) {
	keys, err := p.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
