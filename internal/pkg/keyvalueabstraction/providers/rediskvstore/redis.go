package rediskvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/encoding"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/redis/go-redis/v9"
)

const defaultMaxUpdateRetries = 10

// Watcher is implemented by clients able to run optimistic WATCH transactions (*redis.Client, *redis.ClusterClient).
type Watcher interface {
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

type StoreOption func(s *RedisStore) error

func WithCodec(codec encoding.Codec) StoreOption {
	return func(s *RedisStore) error {
		if codec == nil {
			return encoding.ErrUnknownCodec
		}

		s.encode = codec

		return nil
	}
}

func WithMaxUpdateRetries(n int) StoreOption {
	return func(s *RedisStore) error {
		if n <= 0 {
			return fmt.Errorf("max update retries must be positive, got %d", n)
		}

		s.maxUpdateRetries = n

		return nil
	}
}

type RedisStore struct {
	redis  redis.Cmdable
	encode encoding.Codec

	maxUpdateRetries int
}

func New(redis redis.Cmdable, opts ...StoreOption) (*RedisStore, error) {
	store := &RedisStore{
		redis:            redis,
		maxUpdateRetries: defaultMaxUpdateRetries,
	}

	codec, err := encoding.ByName(encoding.NameJSON)
	if err != nil {
		return nil, err
	}

	store.encode = codec

	for _, opt := range opts {
		if err := opt(store); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Delete implements keyvaluestore.Store.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}

	return nil
}

// Get implements keyvaluestore.Store.
func (r *RedisStore) Get(ctx context.Context, key string, v any) (found bool, err error) {
	res, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("get element error: %w", err)
	}

	err = r.encode.Unmarshal([]byte(res), v)
	if err != nil {
		return true, fmt.Errorf("unmarshal error: %w", err)
	}

	return true, nil
}

// ListKeys implements keyvaluestore.Store.
// SCAN may return a key more than once, so visited keys are remembered for the duration of the call.
func (r *RedisStore) ListKeys(ctx context.Context, match string, si keyvaluestore.ScanFunc) error {
	if match == "" {
		match = "*"
	}

	iter := r.redis.Scan(ctx, 0, match, 0).Iterator()
	seen := make(map[string]struct{})

	for iter.Next(ctx) {
		key := iter.Val()
		if si == nil {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		stop, err := si(key, func(v interface{}) error {
			res, err := r.redis.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return fmt.Errorf("get iterator value %s: %w", key, keyvaluestore.ErrNotFound)
				}

				return fmt.Errorf("get iterator value error: %w", err)
			}

			err = r.encode.Unmarshal([]byte(res), v)
			if err != nil {
				return fmt.Errorf("unmarshal iterator value error: %w", err)
			}

			return nil
		})
		if err != nil {
			return err
		}

		if stop {
			break
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("iterate error: %w", err)
	}

	return nil
}

// Set implements keyvaluestore.Store.
func (r *RedisStore) Set(ctx context.Context, key string, v any) error {
	val, err := r.encode.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode error: %w", err)
	}

	err = r.redis.Set(ctx, key, string(val), redis.KeepTTL).Err()
	if err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

// SupportsUpdate implements keyvaluestore.UpdateSupporter.
// Update needs a client able to WATCH, pipelines and transactions are not.
func (r *RedisStore) SupportsUpdate() bool {
	_, ok := r.redis.(Watcher)

	return ok
}

// Update implements keyvaluestore.AtomicStore with WATCH/MULTI/EXEC.
// The transaction is retried while another client modifies the key, up to the configured number of attempts.
func (r *RedisStore) Update(ctx context.Context, key string, fn keyvaluestore.UpdateFunc) error {
	watcher, ok := r.redis.(Watcher)
	if !ok {
		return fmt.Errorf("redis client %T does not support WATCH", r.redis)
	}

	txf := func(tx *redis.Tx) error {
		found := true

		res, err := tx.Get(ctx, key).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return fmt.Errorf("get element error: %w", err)
			}

			found = false
		}

		newValue, err := fn(found, func(v interface{}) error {
			if !found {
				return keyvaluestore.ErrNotFound
			}

			if err := r.encode.Unmarshal([]byte(res), v); err != nil {
				return fmt.Errorf("unmarshal error: %w", err)
			}

			return nil
		})
		if err != nil {
			return err
		}

		val, err := r.encode.Marshal(newValue)
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(val), redis.KeepTTL)

			return nil
		})

		return err
	}

	for attempt := 0; attempt < r.maxUpdateRetries; attempt++ {
		err := watcher.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return fmt.Errorf("update %s after %d attempts: %w", key, r.maxUpdateRetries, keyvaluestore.ErrConflict)
}

// Ping implements keyvaluestore.Pinger.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping error: %w", err)
	}

	return nil
}

var (
	_ keyvaluestore.AtomicStore     = (*RedisStore)(nil)
	_ keyvaluestore.Pinger          = (*RedisStore)(nil)
	_ keyvaluestore.UpdateSupporter = (*RedisStore)(nil)
)
