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
	"fmt"

	"github.com/blinklabs-io/crowdsale/database/types"
)

// CommitMarkerError is returned when the metadata and blob stores disagree
// about the last commit. This happens when a commit reached one store but not
// the other.
type CommitMarkerError struct {
	Metadata types.CommitMarker
	Blob     types.CommitMarker
}

func (e CommitMarkerError) Error() string {
	return fmt.Sprintf(
		"commit marker mismatch: metadata at %s, blob at %s",
		e.Metadata,
		e.Blob,
	)
}

// verifyCommitMarker compares the marker copies held by each store and
// returns the agreed journal sequence
func (d *Database) verifyCommitMarker() (uint64, error) {
	metadataMarker, err := d.metadata.GetCommitMarker()
	if err != nil {
		return 0, fmt.Errorf("read metadata commit marker: %w", err)
	}
	blobMarker, err := d.blob.GetCommitMarker()
	if err != nil {
		return 0, fmt.Errorf("read blob commit marker: %w", err)
	}
	if metadataMarker.IsZero() && blobMarker.IsZero() {
		return 0, nil
	}
	if metadataMarker != blobMarker {
		return 0, CommitMarkerError{
			Metadata: metadataMarker,
			Blob:     blobMarker,
		}
	}
	return blobMarker.JournalSequence, nil
}

func (d *Database) writeCommitMarker(txn *Txn, marker types.CommitMarker) error {
	if err := d.metadata.SetCommitMarker(marker, txn.Metadata()); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := d.blob.SetCommitMarker(marker, txn.Blob()); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	return nil
}
