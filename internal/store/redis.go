package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"mailtriage/internal/domain"
)

const summaryKey = "pipeline:last_run"

// RedisStore backs partitions with Redis. Each partition is a key prefix
// (part:<name>:<key>) holding JSON record values. A TTL of zero keeps
// records forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(redisURL string, ttlSeconds int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// Ping reports storage reachability for the connectivity check stage.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Partition opens a handle on one named partition.
func (s *RedisStore) Partition(name string) Partition {
	return &redisPartition{client: s.client, prefix: "part:" + name + ":", ttl: s.ttl}
}

// PutSummary stores the last pipeline run summary under a reserved key.
func (s *RedisStore) PutSummary(ctx context.Context, sum *domain.RunSummary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, summaryKey, data, 0).Err()
}

// GetSummary returns the last run summary, or nil when no run has recorded one.
func (s *RedisStore) GetSummary(ctx context.Context) (*domain.RunSummary, error) {
	val, err := s.client.Get(ctx, summaryKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sum domain.RunSummary
	if err := json.Unmarshal([]byte(val), &sum); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRecord, summaryKey)
	}
	return &sum, nil
}

// MarkSeen records a transport message id as processed. Ids are hashed so
// angle brackets and long header values stay out of the key space.
func (s *RedisStore) MarkSeen(ctx context.Context, messageID string) error {
	return s.client.Set(ctx, seenKey(messageID), "1", s.ttl).Err()
}

// IsSeen reports whether a message id was processed by an earlier run.
func (s *RedisStore) IsSeen(ctx context.Context, messageID string) (bool, error) {
	n, err := s.client.Exists(ctx, seenKey(messageID)).Result()
	return n > 0, err
}

// GetFolderLastUID returns the IMAP UID checkpoint for a folder.
func (s *RedisStore) GetFolderLastUID(ctx context.Context, folder string) (uint32, error) {
	val, err := s.client.Get(ctx, "imap:last_uid:"+folder).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint32(val), nil
}

// SetFolderLastUID advances the IMAP UID checkpoint for a folder.
func (s *RedisStore) SetFolderLastUID(ctx context.Context, folder string, uid uint32) error {
	return s.client.Set(ctx, "imap:last_uid:"+folder, uid, 0).Err()
}

func seenKey(messageID string) string {
	sum := sha256.Sum256([]byte(messageID))
	return "seen:" + hex.EncodeToString(sum[:16])
}

type redisPartition struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (p *redisPartition) Put(ctx context.Context, key string, rec *domain.StoredRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.prefix+key, data, p.ttl).Err()
}

func (p *redisPartition) Get(ctx context.Context, key string) (*domain.StoredRecord, error) {
	val, err := p.client.Get(ctx, p.prefix+key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec domain.StoredRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRecord, key)
	}
	return &rec, nil
}

func (p *redisPartition) List(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		batch, next, err := p.client.Scan(ctx, cursor, p.prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			keys = append(keys, k[len(p.prefix):])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (p *redisPartition) Delete(ctx context.Context, key string) error {
	return p.client.Del(ctx, p.prefix+key).Err()
}

func (p *redisPartition) Exists(ctx context.Context, key string) (bool, error) {
	n, err := p.client.Exists(ctx, p.prefix+key).Result()
	return n > 0, err
}

func (p *redisPartition) Count(ctx context.Context) (int, error) {
	keys, err := p.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
