package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/factcheck/internal/model"
)

const redisKeyPrefix = "factcheck:analysis:"

// redisCmdable is the subset of *redis.Client used by RedisStore.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps records in Redis with a native TTL. The transition guard
// reads before writing under a process-local lock held per analysis id; each
// analysis is written by a single process.
type RedisStore struct {
	rdb   redisCmdable
	ttl   time.Duration
	locks keyedMutex
}

// keyedMutex serializes callers that share a key. Entries are dropped once
// the last holder unlocks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}


// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, eris.Wrap(err, "redis: ping")
	}
	return newRedisStore(rdb, opts.TTL), nil
}

func newRedisStore(rdb redisCmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, rec model.AnalysisRecord) error {
	unlock := s.locks.Lock(rec.ID)
	defer unlock()

	cur, err := s.get(ctx, rec.ID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	case !cur.CanTransition(rec):
		return ErrStaleWrite
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return eris.Wrap(err, "redis: marshal record")
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+rec.ID, data, s.ttl).Err(); err != nil {
		return eris.Wrap(err, "redis: save record")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	return s.get(ctx, id)
}

func (s *RedisStore) get(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "redis: get record")
	}
	return decodeRecord(data)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	return eris.Wrap(s.rdb.Del(ctx, redisKeyPrefix+id).Err(), "redis: delete record")
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.rdb.Ping(ctx).Err(), "redis: ping")
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
