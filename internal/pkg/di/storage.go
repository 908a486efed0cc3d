package di

import (
	"fmt"

	"github.com/ciricc/bridgetx-store/config"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/encoding"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/providers/inmemorykvstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/providers/leveldbkvstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/providers/rediskvstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/redisdebughooks"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/syndtr/goleveldb/leveldb"
)

func NewCodec(i *do.Injector) (encoding.Codec, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	codec, err := encoding.ByName(cfg.Storage.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to select codec: %w", err)
	}

	return codec, nil
}

func NewRedisClient(i *do.Injector) (*redis.Client, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:           cfg.Storage.Redis.Host,
		Username:       cfg.Storage.Redis.Username,
		Password:       cfg.Storage.Redis.Password,
		DB:             cfg.Storage.Redis.DB,
		ReadTimeout:    cfg.Storage.Redis.ConnectionPool.ReadTimeout,
		WriteTimeout:   cfg.Storage.Redis.ConnectionPool.WriteTimeout,
		MaxIdleConns:   cfg.Storage.Redis.ConnectionPool.MaxIdleConns,
		MaxActiveConns: cfg.Storage.Redis.ConnectionPool.MaxActiveConns,
	})

	if cfg.Storage.Redis.Debug {
		logger, err := do.Invoke[*zerolog.Logger](i)
		if err != nil {
			return nil, fmt.Errorf("invoke logger error: %w", err)
		}

		client.AddHook(redisdebughooks.NewZerologRedisHook(logger))
	}

	return client, nil
}

func NewLevelDB(i *do.Injector) (*leveldb.DB, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke configuration: %w", err)
	}

	db, err := leveldb.OpenFile(cfg.Storage.LevelDB.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb file: %w", err)
	}

	return db, nil
}

func NewInMemoryStore(i *do.Injector) (*inmemorykvstore.Store, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	codec, err := do.Invoke[encoding.Codec](i)
	if err != nil {
		return nil, fmt.Errorf("invoke codec error: %w", err)
	}

	store, err := inmemorykvstore.New(
		inmemorykvstore.WithPersistencePath(cfg.Storage.InMemory.PersistenceFilePath),
		inmemorykvstore.WithPersistenceInterval(cfg.Storage.InMemory.PersistenceInterval),
		inmemorykvstore.WithCodec(codec),
		inmemorykvstore.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	return store, nil
}

// NewKeyValueStore returns the backend selected by storage.driver.
func NewKeyValueStore(i *do.Injector) (keyvaluestore.Store, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke configuration: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke logger: %w", err)
	}

	codec, err := do.Invoke[encoding.Codec](i)
	if err != nil {
		return nil, fmt.Errorf("invoke codec error: %w", err)
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, fmt.Errorf("invoke redis error: %w", err)
		}

		logger.Info().Str("redisHost", cfg.Storage.Redis.Host).Msg("initializing redis record store")

		store, err := rediskvstore.New(
			client,
			rediskvstore.WithCodec(codec),
			rediskvstore.WithMaxUpdateRetries(cfg.Storage.Redis.MaxUpdateRetries),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}

		return store, nil
	case config.StorageDriverLevelDB:
		levelDB, err := do.Invoke[*leveldb.DB](i)
		if err != nil {
			return nil, fmt.Errorf("failed to invoke leveldb store: %w", err)
		}

		logger.Info().Str("filePath", cfg.Storage.LevelDB.Path).Msg("initializing leveldb record store")

		store, err := leveldbkvstore.NewLevelDBStore(levelDB, codec)
		if err != nil {
			return nil, fmt.Errorf("failed to create leveldb store: %w", err)
		}

		return store, nil
	case config.StorageDriverInMemory:
		logger.Info().Str("persistenceFilePath", cfg.Storage.InMemory.PersistenceFilePath).Msg("initializing in-memory record store")

		store, err := do.Invoke[*inmemorykvstore.Store](i)
		if err != nil {
			return nil, fmt.Errorf("invoke in-memory store error: %w", err)
		}

		return store, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
