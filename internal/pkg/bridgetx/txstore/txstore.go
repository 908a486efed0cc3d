package txstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/events"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/guard"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/rs/zerolog"
)

// RecordScanFunc is called for every record visited by ScanRecords.
type RecordScanFunc func(key string, rec *record.Record) (stop bool, err error)

type StoreOptions struct {
	Logger *zerolog.Logger

	// Publisher receives an event for every accepted write and delete.
	Publisher events.Publisher

	// Atomic runs the guard and the write inside one AtomicStore.Update
	// when the underlying store supports it.
	Atomic bool
}

// Store is the guarded access layer over a key-value store holding bridge transaction records.
//
// Without Atomic (or over a store unable to run Update) SetRecord reads the stored
// status, decides and writes in separate calls: two concurrent writers of the
// same key may both pass the guard and the last write wins.
type Store struct {
	kv    keyvaluestore.Store
	guard *guard.Guard

	logger    *zerolog.Logger
	publisher events.Publisher
	atomic    bool

	now func() time.Time
}

func New(kv keyvaluestore.Store, g *guard.Guard, options *StoreOptions) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("key-value store is nil")
	}

	if g == nil {
		return nil, fmt.Errorf("guard is nil")
	}

	defaultOptions := &StoreOptions{
		Logger:    zerolog.DefaultContextLogger,
		Publisher: events.Nop,
	}

	if options != nil {
		if options.Logger != nil {
			defaultOptions.Logger = options.Logger
		}

		if options.Publisher != nil {
			defaultOptions.Publisher = options.Publisher
		}

		defaultOptions.Atomic = options.Atomic
	}

	if defaultOptions.Logger == nil {
		nop := zerolog.Nop()
		defaultOptions.Logger = &nop
	}

	return &Store{
		kv:        kv,
		guard:     g,
		logger:    defaultOptions.Logger,
		publisher: defaultOptions.Publisher,
		atomic:    defaultOptions.Atomic,
		now:       time.Now,
	}, nil
}

// GetAllKeys returns every key of the store. Any failure of the scan is wrapped with ErrScan.
func (s *Store) GetAllKeys(ctx context.Context) (*record.KeyList, error) {
	keys := record.NewKeyList()

	err := s.kv.ListKeys(ctx, "", func(key string, _ func(v interface{}) error) (bool, error) {
		keys.ID = append(keys.ID, key)

		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}

	return keys, nil
}

// GetRecord returns the record stored under the key or ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, key string) (*record.Record, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	rec := &record.Record{}

	found, err := s.kv.Get(ctx, key, rec)
	if err != nil {
		return nil, fmt.Errorf("get record %s error: %w", key, err)
	}

	if !found {
		return nil, ErrNotFound
	}

	return rec, nil
}

// SetRecord overwrites the value under the key when the guard accepts the transition.
// Refusals are returned as the guard's errors, all of them wrapping guard.ErrRejected.
func (s *Store) SetRecord(ctx context.Context, key string, rec *record.Record) error {
	if rec == nil {
		return ErrNilRecord
	}

	if err := s.guard.CheckRequest(key, rec.Status); err != nil {
		return err
	}

	var (
		previous record.Status
		err      error
	)

	atomicStore, ok := keyvaluestore.AsAtomic(s.kv)
	if s.atomic && ok {
		previous, err = s.setAtomically(ctx, atomicStore, key, rec)
	} else {
		previous, err = s.setCheckThenAct(ctx, key, rec)
	}

	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:           events.TypeStatusChanged,
		Key:            key,
		PreviousStatus: previous,
		Record:         rec,
		At:             s.now(),
	})

	return nil
}

func (s *Store) setAtomically(
	ctx context.Context,
	atomicStore keyvaluestore.AtomicStore,
	key string,
	rec *record.Record,
) (record.Status, error) {
	var previous record.Status

	err := atomicStore.Update(ctx, key, func(found bool, getValue func(v interface{}) error) (interface{}, error) {
		// the function may run several times when the store retries the transaction
		previous = ""

		if found {
			current := &record.Record{}
			if err := getValue(current); err != nil {
				return nil, fmt.Errorf("decode stored record error: %w", err)
			}

			previous = current.Status
		}

		if err := s.guard.CheckTransition(found, previous, rec.Status); err != nil {
			return nil, err
		}

		return rec, nil
	})
	if err != nil {
		if errors.Is(err, guard.ErrRejected) {
			return "", err
		}

		return "", fmt.Errorf("update record %s error: %w", key, err)
	}

	return previous, nil
}

func (s *Store) setCheckThenAct(ctx context.Context, key string, rec *record.Record) (record.Status, error) {
	current := &record.Record{}

	found, err := s.kv.Get(ctx, key, current)
	if err != nil {
		return "", fmt.Errorf("get stored record %s error: %w", key, err)
	}

	if err := s.guard.CheckTransition(found, current.Status, rec.Status); err != nil {
		return "", err
	}

	if err := s.kv.Set(ctx, key, rec); err != nil {
		return "", fmt.Errorf("set record %s error: %w", key, err)
	}

	return current.Status, nil
}

// DeleteRecord removes the key. Deleting a missing key succeeds.
func (s *Store) DeleteRecord(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete record %s error: %w", key, err)
	}

	s.publish(ctx, events.Event{
		Type: events.TypeDeleted,
		Key:  key,
		At:   s.now(),
	})

	return nil
}

// ScanRecords visits every record of the store in scan order.
// Keys removed between the scan and the read are skipped.
func (s *Store) ScanRecords(ctx context.Context, fn RecordScanFunc) error {
	err := s.kv.ListKeys(ctx, "", func(key string, getValue func(v interface{}) error) (bool, error) {
		rec := &record.Record{}
		if err := getValue(rec); err != nil {
			if errors.Is(err, keyvaluestore.ErrNotFound) {
				return false, nil
			}

			return false, err
		}

		return fn(key, rec)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScan, err)
	}

	return nil
}

// Ping checks the connection to the underlying store when it can be checked.
func (s *Store) Ping(ctx context.Context) error {
	pinger, ok := s.kv.(keyvaluestore.Pinger)
	if !ok {
		return nil
	}

	return pinger.Ping(ctx)
}

// SetValue is SetRecord reporting the outcome as a flag. Faults are logged.
func (s *Store) SetValue(ctx context.Context, key string, rec *record.Record) bool {
	err := s.SetRecord(ctx, key, rec)
	if err == nil {
		return true
	}

	if errors.Is(err, guard.ErrRejected) || errors.Is(err, ErrNilRecord) {
		s.logger.Debug().Err(err).Str("key", key).Msg("write rejected")
	} else {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to set value")
	}

	return false
}

// GetValue is GetRecord reporting a missing record and a fault the same way.
func (s *Store) GetValue(ctx context.Context, key string) (*record.Record, bool) {
	rec, err := s.GetRecord(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrEmptyKey) {
			s.logger.Error().Err(err).Str("key", key).Msg("failed to get value")
		}

		return nil, false
	}

	return rec, true
}

// DeleteValue is DeleteRecord reporting the outcome as a flag. An empty key never reaches the store.
func (s *Store) DeleteValue(ctx context.Context, key string) bool {
	if err := s.DeleteRecord(ctx, key); err != nil {
		if !errors.Is(err, ErrEmptyKey) {
			s.logger.Error().Err(err).Str("key", key).Msg("failed to delete value")
		}

		return false
	}

	return true
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("key", event.Key).Str("type", string(event.Type)).Msg("failed to publish event")
	}
}
