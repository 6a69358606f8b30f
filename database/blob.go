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

package database

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/supersig/database/types"
)

// BlobGet reads a key from the blob side of the transaction
func (t *Txn) BlobGet(key []byte) ([]byte, error) {
	return t.db.blob.Get(t.blobTxn, key)
}

// BlobSet writes a key on the blob side of the transaction
func (t *Txn) BlobSet(key, val []byte) error {
	if isInternalKey(key) {
		return types.ErrReservedBlobKey
	}
	return t.db.blob.Set(t.blobTxn, key, val)
}

// BlobDelete deletes a key on the blob side of the transaction
func (t *Txn) BlobDelete(key []byte) error {
	if isInternalKey(key) {
		return types.ErrReservedBlobKey
	}
	return t.db.blob.Delete(t.blobTxn, key)
}

func isInternalKey(key []byte) bool {
	return bytes.HasPrefix(key, []byte(types.BlobInternalKeyPrefix))
}

// BlobScan calls fn for every key with the given prefix, in key order.
// Internal keys are skipped. Returning ErrStopScan from fn ends the scan
// early without error.
func (t *Txn) BlobScan(prefix []byte, fn func(key, val []byte) error) error {
	iter := t.db.blob.NewIterator(t.blobTxn, types.BlobIteratorOptions{Prefix: prefix})
	defer iter.Close()
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		if isInternalKey(item.Key()) {
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read value: %w", err)
		}
		if err := fn(item.Key(), val); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return iter.Err()
}

// BlobDeletePrefix deletes every key with the given prefix and returns the
// number of keys removed
func (t *Txn) BlobDeletePrefix(prefix []byte) (int, error) {
	var keys [][]byte
	err := t.BlobScan(prefix, func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := t.BlobDelete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// ErrStopScan ends a BlobScan early
var ErrStopScan = errors.New("stop scan")
