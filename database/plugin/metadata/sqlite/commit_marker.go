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

package sqlite

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/crowdsale/database/types"
)

// commitMarkerRow is the single row holding the metadata copy of the commit
// marker
type commitMarkerRow struct {
	ID              uint `gorm:"primarykey"`
	Timestamp       int64
	JournalSequence types.Uint64
}

func (commitMarkerRow) TableName() string {
	return "commit_marker"
}

func (d *MetadataStoreSqlite) GetCommitMarker() (types.CommitMarker, error) {
	var row commitMarkerRow
	err := d.DB().Take(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.CommitMarker{}, nil
	}
	if err != nil {
		return types.CommitMarker{}, err
	}
	return types.CommitMarker{
		Timestamp:       row.Timestamp,
		JournalSequence: uint64(row.JournalSequence),
	}, nil
}

func (d *MetadataStoreSqlite) SetCommitMarker(
	marker types.CommitMarker,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	row := commitMarkerRow{
		ID:              1,
		Timestamp:       marker.Timestamp,
		JournalSequence: types.Uint64(marker.JournalSequence),
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}
