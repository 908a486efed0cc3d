package leveldbtx

import (
	"context"

	"github.com/ciricc/bridgetx-store/internal/pkg/transactionmanager/txmanager"
	"github.com/syndtr/goleveldb/leveldb"
)

type LevelDBTransaction struct {
	tx *leveldb.Transaction
}

func (l *LevelDBTransaction) Commit(_ context.Context) error {
	if l.tx == nil {
		return ErrAlreadyCommitted
	}

	if err := l.tx.Commit(); err != nil {
		// the transaction stays open and must be discarded by Rollback
		return err
	}

	l.close()

	return nil
}

func (l *LevelDBTransaction) close() {
	l.tx = nil
}

func (l *LevelDBTransaction) Transaction() *leveldb.Transaction {
	return l.tx
}

// Rollback discards the transaction. Rolling back a committed transaction is a no-op.
func (l *LevelDBTransaction) Rollback(_ context.Context) error {
	if l.tx == nil {
		return nil
	}

	defer l.close()
	l.tx.Discard()

	return nil
}

var _ txmanager.Transaction[*leveldb.Transaction] = (*LevelDBTransaction)(nil)
