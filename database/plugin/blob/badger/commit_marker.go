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
	"errors"

	"github.com/blinklabs-io/crowdsale/database/types"
)

// GetCommitMarker returns the stored commit marker, or a zero marker for a
// store that has never been committed to
func (b *BlobStoreBadger) GetCommitMarker() (types.CommitMarker, error) {
	txn := b.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := b.Get(txn, []byte(types.CommitMarkerBlobKey))
	if errors.Is(err, types.ErrBlobKeyNotFound) {
		return types.CommitMarker{}, nil
	}
	if err != nil {
		return types.CommitMarker{}, err
	}
	return types.CommitMarkerFromBytes(val)
}

func (b *BlobStoreBadger) SetCommitMarker(
	marker types.CommitMarker,
	txn types.Txn,
) error {
	return b.Set(txn, []byte(types.CommitMarkerBlobKey), marker.Bytes())
}
