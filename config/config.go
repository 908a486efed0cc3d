package config

import (
	"fmt"
	"time"

	"github.com/ciricc/bridgetx-store/internal/pkg/deploy"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	StorageDriverRedis    = "redis"
	StorageDriverLevelDB  = "leveldb"
	StorageDriverInMemory = "inmemory"

	EncodingJSON    = "json"
	EncodingMsgPack = "msgpack"
)

var knownStatuses = []interface{}{"initiated", "error", "processed", "finalized"}

type Config struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"env"`

	Storage struct {
		Driver   string `yaml:"driver"`
		Encoding string `yaml:"encoding"`

		Redis struct {
			Host             string `yaml:"host"`
			Username         string `yaml:"username"`
			Password         string `yaml:"password"`
			DB               int    `yaml:"db"`
			Debug            bool   `yaml:"debug"`
			MaxUpdateRetries int    `yaml:"maxUpdateRetries"`

			ConnectionPool struct {
				ReadTimeout    time.Duration `yaml:"readTimeout"`
				WriteTimeout   time.Duration `yaml:"writeTimeout"`
				MaxIdleConns   int           `yaml:"maxIdleConns"`
				MaxActiveConns int           `yaml:"maxActiveConns"`
			} `yaml:"connectionPool"`
		} `yaml:"redis"`

		LevelDB struct {
			Path string `yaml:"path"`
		} `yaml:"leveldb"`

		InMemory struct {
			PersistenceFilePath string        `yaml:"persistenceFilePath"`
			PersistenceInterval time.Duration `yaml:"persistenceInterval"`
		} `yaml:"inMemory"`
	} `yaml:"storage"`

	Guard struct {
		AllowedStatuses      []string `yaml:"allowedStatuses"`
		BlockFinalizedRewind bool     `yaml:"blockFinalizedRewind"`
		Atomic               bool     `yaml:"atomic"`
	} `yaml:"guard"`

	API struct {
		HTTP struct {
			Address string `yaml:"address"`
		} `yaml:"http"`

		GRPC struct {
			Address string `yaml:"address"`
		} `yaml:"grpc"`

		ScanRateLimit float64 `yaml:"scanRateLimit"`
		ScanBurst     int     `yaml:"scanBurst"`
	} `yaml:"api"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Uptrace struct {
		DSN string `yaml:"dsn"`
	} `yaml:"uptrace"`
}

func (c Config) Validate() error {
	if err := validation.ValidateStruct(
		&c.Storage,
		validation.Field(&c.Storage.Driver, validation.Required, validation.In(StorageDriverRedis, StorageDriverLevelDB, StorageDriverInMemory)),
		validation.Field(&c.Storage.Encoding, validation.Required, validation.In(EncodingJSON, EncodingMsgPack)),
	); err != nil {
		return fmt.Errorf("failed to validate storage options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.Storage.Redis,
		validation.Field(&c.Storage.Redis.Host, validation.When(c.Storage.Driver == StorageDriverRedis, validation.Required, is.DialString)),
		validation.Field(&c.Storage.Redis.DB, validation.Min(0)),
		validation.Field(&c.Storage.Redis.MaxUpdateRetries, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("failed to validate redis store options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.Storage.LevelDB,
		validation.Field(&c.Storage.LevelDB.Path, validation.When(c.Storage.Driver == StorageDriverLevelDB, validation.Required)),
	); err != nil {
		return fmt.Errorf("failed to validate leveldb store options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.Storage.InMemory,
		validation.Field(&c.Storage.InMemory.PersistenceInterval, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("in-memory configuration validation error: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.Guard,
		validation.Field(&c.Guard.AllowedStatuses, validation.Required, validation.Each(validation.In(knownStatuses...))),
	); err != nil {
		return fmt.Errorf("failed to validate guard options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.API.HTTP,
		validation.Field(&c.API.HTTP.Address, validation.Required, is.DialString),
	); err != nil {
		return fmt.Errorf("failed to validate http api options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.API.GRPC,
		validation.Field(&c.API.GRPC.Address, validation.Required, is.DialString),
	); err != nil {
		return fmt.Errorf("failed to validate grpc api options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.API,
		validation.Field(&c.API.ScanRateLimit, validation.Min(float64(0))),
		validation.Field(&c.API.ScanBurst, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("failed to validate api options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.Kafka,
		validation.Field(&c.Kafka.Brokers, validation.Each(is.DialString)),
		validation.Field(&c.Kafka.Topic, validation.When(len(c.Kafka.Brokers) > 0, validation.Required)),
	); err != nil {
		return fmt.Errorf("failed to validate kafka options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c.Uptrace,
		validation.Field(&c.Uptrace.DSN, is.URL),
	); err != nil {
		return fmt.Errorf("failed to validate uptrace options: %w", err)
	}

	if err := validation.ValidateStruct(
		&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Version, validation.Required, is.Semver),
		validation.Field(&c.Environment, validation.Required, validation.In(deploy.DEV, deploy.PREPROD, deploy.PROD, deploy.STAGE)),
	); err != nil {
		return fmt.Errorf("failed to validate config options: %w", err)
	}

	return nil
}
