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

package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/supersig/database"
	dbtypes "github.com/blinklabs-io/supersig/database/types"
	"github.com/fxamacker/cbor/v2"
)

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("state: build CBOR encoder: %s", err))
	}
	return em
}()

func encodeRecord(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func decodeRecord(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// getUint64 reads a counter, treating a missing key as zero
func getUint64(txn *database.Txn, key []byte) (uint64, error) {
	val, err := txn.BlobGet(key)
	if err != nil {
		if errors.Is(err, dbtypes.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("malformed counter at key %x", key)
	}
	return binary.BigEndian.Uint64(val), nil
}

func getUint32(txn *database.Txn, key []byte) (uint32, error) {
	val, err := txn.BlobGet(key)
	if err != nil {
		if errors.Is(err, dbtypes.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(val) != 4 {
		return 0, fmt.Errorf("malformed counter at key %x", key)
	}
	return binary.BigEndian.Uint32(val), nil
}

// setUint64 writes a counter; zero values are deleted rather than stored
func setUint64(txn *database.Txn, key []byte, v uint64) error {
	if v == 0 {
		return txn.BlobDelete(key)
	}
	return txn.BlobSet(key, uint64Bytes(v))
}

func setUint32(txn *database.Txn, key []byte, v uint32) error {
	if v == 0 {
		return txn.BlobDelete(key)
	}
	return txn.BlobSet(key, uint32Bytes(v))
}

func exists(txn *database.Txn, key []byte) (bool, error) {
	_, err := txn.BlobGet(key)
	if err != nil {
		if errors.Is(err, dbtypes.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
