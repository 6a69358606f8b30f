// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/blinklabs-io/supersig/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	b := &BlobStoreBadger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	for _, opt := range []BlobStoreBadgerOptionFunc{
		WithDataDir("/tmp/combined"),
		WithBlockCacheSize(1000000),
		WithIndexCacheSize(2000000),
		WithLogger(logger),
		WithPromRegistry(registry),
		WithGc(false),
		WithGcInterval(time.Second),
	} {
		opt(b)
	}
	assert.Equal(t, "/tmp/combined", b.dataDir)
	assert.Equal(t, uint64(1000000), b.blockCacheSize)
	assert.Equal(t, uint64(2000000), b.indexCacheSize)
	assert.Equal(t, logger, b.logger)
	assert.Equal(t, registry, b.promRegistry)
	assert.False(t, b.gcEnabled)
	assert.Equal(t, time.Second, b.gcInterval)
}

func newTestStore(t *testing.T) *BlobStoreBadger {
	t.Helper()
	store, err := New(WithPromRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestGetSetDelete(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k1"), []byte("v1")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
	_, err = store.Get(txn, []byte("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	// Writes are rejected in a read-only transaction
	require.ErrorIs(t, store.Set(txn, []byte("k2"), nil), types.ErrReadOnlyTxn)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("k1")))
	require.NoError(t, txn.Commit())
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err = store.Get(txn, []byte("k1"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())
	// Finished transactions can no longer be used
	require.Error(t, store.Set(txn, []byte("k"), []byte("v")))

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	_, err := store.Get(txn, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
}

func TestPrefixIterator(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	for _, k := range []string{"a1", "b1", "b2", "b3", "c1"} {
		require.NoError(t, store.Set(txn, []byte(k), []byte(k)))
	}
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: []byte("b")})
	defer iter.Close()
	var keys []string
	for iter.Rewind(); iter.ValidForPrefix([]byte("b")); iter.Next() {
		keys = append(keys, string(iter.Item().Key()))
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, []string{"b1", "b2", "b3"}, keys)
}

func TestIteratorWrongTxn(t *testing.T) {
	store := newTestStore(t)
	iter := store.NewIterator(nil, types.BlobIteratorOptions{})
	assert.False(t, iter.Valid())
	require.ErrorIs(t, iter.Err(), types.ErrNilTxn)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(txn, 1234567))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), ts)
}
