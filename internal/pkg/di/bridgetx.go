package di

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ciricc/bridgetx-store/config"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/accountindex"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/events"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/guard"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/txstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/samber/lo"
)

func NewGuard(i *do.Injector) (*guard.Guard, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	g, err := guard.New(guard.Policy{
		AllowedStatuses: lo.Map(cfg.Guard.AllowedStatuses, func(s string, _ int) record.Status {
			return record.Status(s)
		}),
		BlockFinalizedRewind: cfg.Guard.BlockFinalizedRewind,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create guard: %w", err)
	}

	return g, nil
}

func NewKafkaSyncProducer(i *do.Injector) (sarama.SyncProducer, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.ClientID = cfg.Name
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka sync producer: %w", err)
	}

	return producer, nil
}

// NewEventPublisher publishes to kafka when brokers are configured and drops events otherwise.
func NewEventPublisher(i *do.Injector) (events.Publisher, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return events.Nop, nil
	}

	producer, err := do.Invoke[sarama.SyncProducer](i)
	if err != nil {
		return nil, fmt.Errorf("invoke kafka sync producer error: %w", err)
	}

	publisher, err := events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return publisher, nil
}

func NewTxStore(i *do.Injector) (*txstore.Store, error) {
	cfg, err := do.Invoke[*config.Config](i)
	if err != nil {
		return nil, fmt.Errorf("invoke config error: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	kvStore, err := do.Invoke[keyvaluestore.Store](i)
	if err != nil {
		return nil, fmt.Errorf("invoke key value store error: %w", err)
	}

	g, err := do.Invoke[*guard.Guard](i)
	if err != nil {
		return nil, fmt.Errorf("invoke guard error: %w", err)
	}

	publisher, err := do.Invoke[events.Publisher](i)
	if err != nil {
		return nil, fmt.Errorf("invoke event publisher error: %w", err)
	}

	if _, ok := keyvaluestore.AsAtomic(kvStore); cfg.Guard.Atomic && !ok {
		logger.Warn().Str("driver", cfg.Storage.Driver).Msg("store has no atomic update, concurrent writes of one key may race")
	}

	store, err := txstore.New(kvStore, g, &txstore.StoreOptions{
		Logger:    logger,
		Publisher: publisher,
		Atomic:    cfg.Guard.Atomic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tx store: %w", err)
	}

	return store, nil
}

func NewAccountIndex(i *do.Injector) (*accountindex.Index, error) {
	store, err := do.Invoke[*txstore.Store](i)
	if err != nil {
		return nil, fmt.Errorf("invoke tx store error: %w", err)
	}

	logger, err := do.Invoke[*zerolog.Logger](i)
	if err != nil {
		return nil, fmt.Errorf("invoke logger error: %w", err)
	}

	return accountindex.New(store, &accountindex.IndexOptions{Logger: logger}), nil
}
