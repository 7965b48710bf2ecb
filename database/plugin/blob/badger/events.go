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
	"encoding/binary"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/blinklabs-io/crowdsale/database/types"
)

// EventRecord is a raw journal entry
type EventRecord struct {
	Sequence uint64
	Data     []byte
}

// SetEvent writes a journal entry and its ID index, and advances the last
// sequence marker
func (d *BlobStoreBadger) SetEvent(
	txn types.Txn,
	sequence uint64,
	id string,
	data []byte,
) error {
	seqBytes := types.EventBlobKeyUint64ToBytes(sequence)
	if err := d.Set(txn, types.EventBlobKey(sequence), data); err != nil {
		return err
	}
	if err := d.Set(txn, types.EventIdBlobKey(id), seqBytes); err != nil {
		return err
	}
	return d.Set(txn, []byte(types.EventSequenceBlobKey), seqBytes)
}

// GetLastEventSequence returns the sequence of the last journal entry, or 0
// for an empty journal
func (d *BlobStoreBadger) GetLastEventSequence() (uint64, error) {
	txn := d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := d.Get(txn, []byte(types.EventSequenceBlobKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(val) != 8 {
		return 0, errors.New("invalid event sequence value")
	}
	return binary.BigEndian.Uint64(val), nil
}

// GetEvents returns up to limit journal entries with a sequence greater than
// after, in sequence order. A limit of 0 returns all entries.
func (d *BlobStoreBadger) GetEvents(after uint64, limit int) ([]EventRecord, error) {
	var ret []EventRecord
	err := d.DB().View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(types.EventBlobKeyPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(types.EventBlobKey(after + 1)); it.Valid(); it.Next() {
			item := it.Item()
			seq, err := types.EventSequenceFromKey(item.Key())
			if err != nil {
				return err
			}
			if seq <= after {
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			ret = append(ret, EventRecord{Sequence: seq, Data: val})
			if limit > 0 && len(ret) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// GetEventById returns the journal entry with the given ID
func (d *BlobStoreBadger) GetEventById(id string) (*EventRecord, error) {
	txn := d.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	seqBytes, err := d.Get(txn, types.EventIdBlobKey(id))
	if err != nil {
		return nil, err
	}
	if len(seqBytes) != 8 {
		return nil, errors.New("invalid event sequence value")
	}
	seq := binary.BigEndian.Uint64(seqBytes)
	val, err := d.Get(txn, types.EventBlobKey(seq))
	if err != nil {
		return nil, err
	}
	return &EventRecord{Sequence: seq, Data: val}, nil
}
