package leveldbkvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/encoding"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/keyvaluestore"
	leveldbtx "github.com/ciricc/bridgetx-store/internal/pkg/transactionmanager/drivers/leveldb"
	"github.com/ciricc/bridgetx-store/internal/pkg/transactionmanager/txmanager"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type LevelDB interface {
	// Delete deletes the value for the given key. Deleting a missing key is not an error.
	Delete(key []byte, wo *opt.WriteOptions) error

	// Get gets the value for the given key. It returns leveldb.ErrNotFound if the key does not exist.
	Get(key []byte, ro *opt.ReadOptions) (value []byte, err error)

	// NewIterator returns an iterator for the latest state of the database. The iterator is not safe for concurrent use.
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator

	// Put sets the value for the given key. It overwrites any previous value for that key.
	Put(key []byte, value []byte, wo *opt.WriteOptions) error
}

// DB is a LevelDB able to open transactions, e.g. *leveldb.DB.
type DB interface {
	LevelDB
	leveldbtx.LevelDBTransactionOpener
}

type LevelDBStore struct {
	db       DB
	encoding encoding.Codec

	txManager *txmanager.TransactionManager[*leveldb.Transaction]
}

func NewLevelDBStore(db DB, codec encoding.Codec) (*LevelDBStore, error) {
	if codec == nil {
		return nil, encoding.ErrUnknownCodec
	}

	return &LevelDBStore{
		db:        db,
		encoding:  codec,
		txManager: txmanager.New(leveldbtx.NewLevelDBTransactionFactory(db)),
	}, nil
}

func (l *LevelDBStore) Get(_ context.Context, key string, v any) (found bool, err error) {
	return l.get(l.db, key, v)
}

func (l *LevelDBStore) get(db LevelDB, key string, v any) (bool, error) {
	val, err := db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get the key: %w", err)
	}

	if err := l.encoding.Unmarshal(val, v); err != nil {
		return true, fmt.Errorf("failed to decode value: %w", err)
	}

	return true, nil
}

func (l *LevelDBStore) Set(_ context.Context, key string, v any) error {
	return l.set(l.db, key, v)
}

func (l *LevelDBStore) set(db LevelDB, key string, v any) error {
	value, err := l.encoding.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	err = db.Put([]byte(key), value, nil)
	if err != nil {
		return fmt.Errorf("failed to put the key: %w", err)
	}

	return nil
}

func (l *LevelDBStore) Delete(_ context.Context, key string) error {
	err := l.db.Delete([]byte(key), nil)
	if err != nil {
		return fmt.Errorf("failed to delete the key: %w", err)
	}

	return nil
}

func (l *LevelDBStore) ListKeys(ctx context.Context, match string, si keyvaluestore.ScanFunc) error {
	iterator := l.db.NewIterator(nil, nil)
	defer iterator.Release()

	for iterator.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := string(iterator.Key())
		if si == nil || !keyvaluestore.MatchKey(match, key) {
			continue
		}

		stop, err := si(key, func(v interface{}) error {
			return l.encoding.Unmarshal(iterator.Value(), v)
		})
		if err != nil {
			return err
		}

		if stop {
			break
		}
	}

	if err := iterator.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	return nil
}

// Update implements keyvaluestore.AtomicStore.
// It runs inside a leveldb transaction which holds the write lock of the database until commit.
func (l *LevelDBStore) Update(ctx context.Context, key string, fn keyvaluestore.UpdateFunc) error {
	return l.txManager.Do(ctx, func(_ context.Context, tx txmanager.Transaction[*leveldb.Transaction]) error {
		raw, err := tx.Transaction().Get([]byte(key), nil)

		found := true
		if err != nil {
			if !errors.Is(err, leveldb.ErrNotFound) {
				return fmt.Errorf("failed to get the key: %w", err)
			}

			found = false
		}

		newValue, err := fn(found, func(v interface{}) error {
			if !found {
				return keyvaluestore.ErrNotFound
			}

			return l.encoding.Unmarshal(raw, v)
		})
		if err != nil {
			return err
		}

		return l.set(tx.Transaction(), key, newValue)
	})
}

var _ keyvaluestore.AtomicStore = (*LevelDBStore)(nil)
