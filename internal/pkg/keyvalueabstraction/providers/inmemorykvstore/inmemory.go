package inmemorykvstore

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/encoding"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/puzpuzpuz/xsync"
	"github.com/rs/zerolog"
)

var ErrAlreadyClosed = errors.New("store already closed")

type valuesMap interface {
	Load(key string) ([]byte, bool)
	Store(key string, value []byte)
	Delete(key string)
	Range(f func(key string, value []byte) bool)
}

type Store struct {
	s valuesMap

	// serializes Update calls and snapshots against each other
	writeMx sync.Mutex

	encoding encoding.Codec
	logger   *zerolog.Logger

	closeOnce sync.Once
	closure   chan struct{}
	done      chan struct{}
}

type StoreOptions struct {
	perstienceFilePath  string
	persistenceInterval time.Duration
	codec               encoding.Codec
	logger              *zerolog.Logger
}

type StoreOption func(s *StoreOptions) error

func WithPersistencePath(path string) StoreOption {
	return func(s *StoreOptions) error {
		s.perstienceFilePath = path

		return nil
	}
}

func WithPersistenceInterval(interval time.Duration) StoreOption {
	return func(s *StoreOptions) error {
		if interval <= 0 {
			return fmt.Errorf("persistence interval must be positive, got %s", interval)
		}

		s.persistenceInterval = interval

		return nil
	}
}

func WithCodec(codec encoding.Codec) StoreOption {
	return func(s *StoreOptions) error {
		if codec == nil {
			return encoding.ErrUnknownCodec
		}

		s.codec = codec

		return nil
	}
}

func WithLogger(logger *zerolog.Logger) StoreOption {
	return func(s *StoreOptions) error {
		s.logger = logger

		return nil
	}
}

func New(opts ...StoreOption) (*Store, error) {
	options := &StoreOptions{
		perstienceFilePath:  "",
		persistenceInterval: time.Second * 30,
		logger:              zerolog.DefaultContextLogger,
	}

	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if options.codec == nil {
		codec, err := encoding.ByName(encoding.NameJSON)
		if err != nil {
			return nil, err
		}

		options.codec = codec
	}

	if options.logger == nil {
		nop := zerolog.Nop()
		options.logger = &nop
	}

	s := &Store{
		encoding: options.codec,
		logger:   options.logger,
		s:        xsync.NewMapOf[[]byte](),
		closure:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	if len(options.perstienceFilePath) != 0 {
		if err := s.loadFromFileAndRunPersistence(
			options.perstienceFilePath,
			options.persistenceInterval,
		); err != nil {
			return nil, err
		}
	} else {
		close(s.done)
	}

	return s, nil
}

// Close stops the persistence loop and waits for the last snapshot to be written.
func (i *Store) Close() error {
	err := ErrAlreadyClosed

	i.closeOnce.Do(func() {
		close(i.closure)
		err = nil
	})

	<-i.done

	return err
}

func (i *Store) loadFromFileAndRunPersistence(path string, persistenceInterval time.Duration) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open storage error: %w", err)
	}

	snapshot := map[string][]byte{}

	if err := gob.NewDecoder(f).Decode(&snapshot); err != nil {
		if !errors.Is(err, io.EOF) {
			f.Close()

			return fmt.Errorf("decode with gob error: %w", err)
		}
	}

	for key, value := range snapshot {
		i.s.Store(key, value)
	}

	go func() {
		t := time.NewTicker(persistenceInterval)

		defer close(i.done)
		defer t.Stop()
		defer f.Close()

		for {
			select {
			case <-t.C:
				if err := i.saveStore(f); err != nil {
					i.logger.Error().Err(err).Str("path", path).Msg("failed to persist in-memory store")
				}
			case <-i.closure:
				// persist the storage last time
				if err := i.saveStore(f); err != nil {
					i.logger.Error().Err(err).Str("path", path).Msg("failed to persist in-memory store")
				}

				return
			}
		}
	}()

	return nil
}

func (i *Store) saveStore(f *os.File) error {
	i.writeMx.Lock()

	snapshot := map[string][]byte{}
	i.s.Range(func(key string, value []byte) bool {
		snapshot[key] = value

		return true
	})

	i.writeMx.Unlock()

	err := f.Truncate(0)
	if err != nil {
		return fmt.Errorf("truncate file error: %w", err)
	}

	_, err = f.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("seek error: %w", err)
	}

	err = gob.NewEncoder(f).Encode(&snapshot)
	if err != nil {
		return fmt.Errorf("encode error: %w", err)
	}

	return f.Sync()
}

// Delete implements keyvaluestore.Store.
func (i *Store) Delete(_ context.Context, key string) error {
	i.writeMx.Lock()
	defer i.writeMx.Unlock()

	i.s.Delete(key)

	return nil
}

// Get implements keyvaluestore.Store.
func (i *Store) Get(_ context.Context, key string, v any) (found bool, err error) {
	val, ok := i.s.Load(key)
	if !ok {
		return false, nil
	}

	if err := i.encoding.Unmarshal(val, v); err != nil {
		return true, fmt.Errorf("unmarshal error: %w", err)
	}

	return true, nil
}

// ListKeys implements keyvaluestore.Store.
// Keys are collected first so the callback may write to the store.
func (i *Store) ListKeys(ctx context.Context, match string, si keyvaluestore.ScanFunc) error {
	if si == nil {
		return nil
	}

	var keys []string
	i.s.Range(func(key string, _ []byte) bool {
		if keyvaluestore.MatchKey(match, key) {
			keys = append(keys, key)
		}

		return true
	})

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := key

		stop, err := si(key, func(v interface{}) error {
			value, ok := i.s.Load(key)
			if !ok {
				return fmt.Errorf("get iterator value %s: %w", key, keyvaluestore.ErrNotFound)
			}

			if err := i.encoding.Unmarshal(value, v); err != nil {
				return fmt.Errorf("unmarshal error: %w", err)
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

	return nil
}

// Set implements keyvaluestore.Store.
func (i *Store) Set(_ context.Context, key string, v any) error {
	value, err := i.encoding.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	i.writeMx.Lock()
	defer i.writeMx.Unlock()

	i.s.Store(key, value)

	return nil
}

// Update implements keyvaluestore.AtomicStore.
func (i *Store) Update(_ context.Context, key string, fn keyvaluestore.UpdateFunc) error {
	i.writeMx.Lock()
	defer i.writeMx.Unlock()

	current, found := i.s.Load(key)

	newValue, err := fn(found, func(v interface{}) error {
		if !found {
			return keyvaluestore.ErrNotFound
		}

		if err := i.encoding.Unmarshal(current, v); err != nil {
			return fmt.Errorf("unmarshal error: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	value, err := i.encoding.Marshal(newValue)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	i.s.Store(key, value)

	return nil
}

// Ping implements keyvaluestore.Pinger.
func (i *Store) Ping(_ context.Context) error {
	select {
	case <-i.closure:
		return ErrAlreadyClosed
	default:
		return nil
	}
}

var (
	_ keyvaluestore.AtomicStore = (*Store)(nil)
	_ keyvaluestore.Pinger      = (*Store)(nil)
)
