package store

import (
	"context"
	"errors"
	"fmt"

	"mailtriage/internal/domain"
)

// Reserved partition names for the two pipeline stages that are not
// category-specific.
const (
	PartitionRaw      = "raw"
	PartitionFiltered = "filtered"
)

// ErrBadRecord marks a stored value that fails to parse. Scans skip these
// records instead of aborting.
var ErrBadRecord = errors.New("malformed stored record")

// Partition is one named key-value bucket of stored records. Implementations
// must make Put an idempotent upsert and return (nil, nil) from Get when the
// key is absent.
type Partition interface {
	Put(ctx context.Context, key string, rec *domain.StoredRecord) error
	Get(ctx context.Context, key string) (*domain.StoredRecord, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Count is recomputed per call over the current key set.
	Count(ctx context.Context) (int, error)
}

// Partitions is the typed registry mapping stage and category names to
// partition handles. Lookups of unknown categories fail instead of silently
// returning nil.
type Partitions struct {
	Raw      Partition
	Filtered Partition
	byName   map[string]Partition
}

// Opener creates partition handles by name. The Redis store and the
// in-memory store both implement it.
type Opener interface {
	Partition(name string) Partition
}

// NewPartitions builds the registry for the given category names, opening
// every handle up front so a misconfigured category fails at startup.
func NewPartitions(o Opener, categories []string) (*Partitions, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories configured")
	}

	p := &Partitions{
		Raw:      o.Partition(PartitionRaw),
		Filtered: o.Partition(PartitionFiltered),
		byName:   make(map[string]Partition, len(categories)),
	}
	for _, name := range categories {
		if name == PartitionRaw || name == PartitionFiltered {
			return nil, fmt.Errorf("category %q shadows a reserved partition", name)
		}
		if _, dup := p.byName[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		p.byName[name] = o.Partition(name)
	}
	return p, nil
}

// ForCategory resolves a category partition, failing fast on unknown names.
func (p *Partitions) ForCategory(name string) (Partition, error) {
	part, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown category partition %q", name)
	}
	return part, nil
}

// CategoryNames returns the registered category names.
func (p *Partitions) CategoryNames() []string {
	out := make([]string, 0, len(p.byName))
	for name := range p.byName {
		out = append(out, name)
	}
	return out
}
