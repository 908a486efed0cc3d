package leveldbkvstore

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/encoding"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type testValue struct {
	From   string `json:"from" msgpack:"from"`
	Status string `json:"status" msgpack:"status"`
}

func newTestStore(t *testing.T, codec encoding.Codec) *LevelDBStore {
	t.Helper()

	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	store, err := NewLevelDBStore(db, codec)
	require.NoError(t, err)

	return store
}

func TestLevelDBStoreGetSetDelete(t *testing.T) {
	t.Parallel()

	for _, name := range []string{encoding.NameJSON, encoding.NameMsgPack} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			codec, err := encoding.ByName(name)
			require.NoError(t, err)

			store := newTestStore(t, codec)
			ctx := context.Background()

			var got testValue
			found, err := store.Get(ctx, "K1", &got)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, store.Set(ctx, "K1", &testValue{From: "0x1", Status: "initiated"}))

			found, err = store.Get(ctx, "K1", &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, testValue{From: "0x1", Status: "initiated"}, got)

			require.NoError(t, store.Delete(ctx, "K1"))
			require.NoError(t, store.Delete(ctx, "K1"))

			found, err = store.Get(ctx, "K1", &got)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestLevelDBStoreListKeys(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, encoding.MsgPack)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "bridge:1", &testValue{From: "0x1"}))
	require.NoError(t, store.Set(ctx, "bridge:2", &testValue{From: "0x2"}))
	require.NoError(t, store.Set(ctx, "other", &testValue{From: "0x3"}))

	froms := map[string]string{}

	err := store.ListKeys(ctx, "bridge:*", func(key string, getValue func(v interface{}) error) (bool, error) {
		var v testValue
		if err := getValue(&v); err != nil {
			return false, err
		}

		froms[key] = v.From

		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bridge:1": "0x1", "bridge:2": "0x2"}, froms)

	var all []string
	err = store.ListKeys(ctx, "", func(key string, _ func(v interface{}) error) (bool, error) {
		all = append(all, key)

		return false, nil
	})
	require.NoError(t, err)

	sort.Strings(all)
	assert.Equal(t, []string{"bridge:1", "bridge:2", "other"}, all)
}

func TestLevelDBStoreUpdate(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, encoding.MsgPack)
	ctx := context.Background()
	errRejected := errors.New("rejected")

	err := store.Update(ctx, "K1", func(found bool, getValue func(v interface{}) error) (interface{}, error) {
		assert.False(t, found)
		assert.ErrorIs(t, getValue(&testValue{}), keyvaluestore.ErrNotFound)

		return &testValue{From: "0x1", Status: "initiated"}, nil
	})
	require.NoError(t, err)

	err = store.Update(ctx, "K1", func(found bool, getValue func(v interface{}) error) (interface{}, error) {
		var current testValue
		require.NoError(t, getValue(&current))
		assert.Equal(t, "initiated", current.Status)

		return nil, errRejected
	})
	require.ErrorIs(t, err, errRejected)

	var got testValue
	found, err := store.Get(ctx, "K1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "initiated", got.Status)

	// the rejected update must release the transaction
	require.NoError(t, store.Set(ctx, "K2", &testValue{Status: "error"}))
}
