package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/accountindex"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/txstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/shutdown"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

func TestInMemoryContainer(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	require.NoError(t, os.WriteFile(configPath, []byte(`
storage:
  driver: inmemory
  encoding: msgpack
  inMemory:
    persistenceFilePath: `+filepath.Join(dir, "records.gob")+`
guard:
  allowedStatuses: [initiated, error, finalized]
  blockFinalizedRewind: false
`), 0o600))

	t.Setenv("CONFIG_FILE", configPath)

	i := do.New()

	ProvideCommonDeps(i)
	ProvideStorageDeps(i)
	ProvideTxStoreDeps(i)
	ProvideTransportDeps(i)

	shutdowner := do.MustInvoke[*shutdown.Shutdowner](i)
	store := do.MustInvoke[*txstore.Store](i)
	index := do.MustInvoke[*accountindex.Index](i)
	do.MustInvoke[*grpc.Server](i)

	ctx := context.Background()

	require.NoError(t, store.SetRecord(ctx, "K1", &record.Record{From: "0x1", Status: record.StatusFinalized}))
	require.NoError(t, store.SetRecord(ctx, "K1", &record.Record{From: "0x1", Status: record.StatusInitiated}))
	assert.Error(t, store.SetRecord(ctx, "K2", &record.Record{From: "0x1", Status: record.StatusProcessed}))

	txs, err := index.GetAccountTxs(ctx, "0x1")
	require.NoError(t, err)
	require.Len(t, txs.Txs, 1)
	assert.Equal(t, record.StatusInitiated, txs.Txs[0].Status)

	require.NoError(t, shutdowner.Shutdown())

	info, err := os.Stat(filepath.Join(dir, "records.gob"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
