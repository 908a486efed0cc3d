package txmanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	commitErr error

	committed  int
	rolledBack int
}

func (f *fakeTx) Commit(_ context.Context) error {
	f.committed++

	return f.commitErr
}

func (f *fakeTx) Rollback(_ context.Context) error {
	f.rolledBack++

	return nil
}

func (f *fakeTx) Transaction() *fakeTx {
	return f
}

func TestTransactionManagerDo(t *testing.T) {
	t.Parallel()

	errFn := errors.New("fn failed")
	errCommit := errors.New("commit failed")

	tests := map[string]struct {
		commitErr      error
		fnErr          error
		wantErr        error
		wantCommitted  int
		wantRolledBack int
	}{
		"commit": {
			wantCommitted: 1,
		},
		"fn error rolls back": {
			fnErr:          errFn,
			wantErr:        errFn,
			wantRolledBack: 1,
		},
		"commit error rolls back": {
			commitErr:      errCommit,
			wantErr:        errCommit,
			wantCommitted:  1,
			wantRolledBack: 1,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tx := &fakeTx{commitErr: tt.commitErr}
			m := New(func(ctx context.Context) (context.Context, Transaction[*fakeTx], error) {
				return ctx, tx, nil
			})

			err := m.Do(context.Background(), func(_ context.Context, got Transaction[*fakeTx]) error {
				assert.Same(t, tx, got.Transaction())

				return tt.fnErr
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantCommitted, tx.committed)
			assert.Equal(t, tt.wantRolledBack, tx.rolledBack)
		})
	}
}

func TestTransactionManagerWithoutFactory(t *testing.T) {
	t.Parallel()

	m := New[*fakeTx](nil)

	err := m.Do(context.Background(), func(context.Context, Transaction[*fakeTx]) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrNoFactory)
}
