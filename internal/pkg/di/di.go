package di

import (
	"fmt"
	"os"

	"github.com/IBM/sarama"
	"github.com/ciricc/bridgetx-store/config"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/providers/inmemorykvstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/logger"
	"github.com/ciricc/bridgetx-store/internal/pkg/shutdown"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/syndtr/goleveldb/leveldb"
)

func NewConfig(_ *do.Injector) (*config.Config, error) {
	configFilePath := "config/config.yml"

	configFilePathFromEnv := os.Getenv("CONFIG_FILE")
	if configFilePathFromEnv != "" {
		configFilePath = configFilePathFromEnv
	}

	var cfg config.Config
	if err := config.LoadServiceConfig(&cfg, configFilePath); err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	return &cfg, nil
}

func NewLogger(i *do.Injector) (*zerolog.Logger, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	log := logger.NewLogger(cfg)

	return &log, nil
}

// NewShutdowner closes the storage backend and the kafka producer.
// Only the resources selected by the configuration are invoked.
func NewShutdowner(i *do.Injector) (*shutdown.Shutdowner, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	var toShutdown []shutdown.Shutdownable

	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		redisClient, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, fmt.Errorf("invoke redis client error: %w", err)
		}

		toShutdown = append(toShutdown, shutdown.NewShutdownFromCloseable(redisClient))
	case config.StorageDriverLevelDB:
		levelDB, err := do.Invoke[*leveldb.DB](i)
		if err != nil {
			return nil, fmt.Errorf("failed to invoke leveldb store: %w", err)
		}

		toShutdown = append(toShutdown, shutdown.NewShutdownFromCloseable(levelDB))
	case config.StorageDriverInMemory:
		inMemory, err := do.Invoke[*inmemorykvstore.Store](i)
		if err != nil {
			return nil, fmt.Errorf("invoke in-memory store error: %w", err)
		}

		toShutdown = append(toShutdown, shutdown.NewShutdownFromCloseable(inMemory))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSyncProducer, err := do.Invoke[sarama.SyncProducer](i)
		if err != nil {
			return nil, fmt.Errorf("invoke kafka sync producer error: %w", err)
		}

		toShutdown = append(toShutdown, shutdown.NewShutdownFromCloseable(kafkaSyncProducer))
	}

	return shutdown.NewShutdowner(toShutdown...), nil
}
