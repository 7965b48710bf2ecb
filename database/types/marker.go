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

package types

import (
	"encoding/binary"
	"fmt"
)

const commitMarkerSize = 16

// CommitMarker identifies the last commit written to both stores. The
// metadata and blob copies must match for the database to open cleanly.
type CommitMarker struct {
	Timestamp       int64
	JournalSequence uint64
}

func (m CommitMarker) IsZero() bool {
	return m.Timestamp <= 0 && m.JournalSequence == 0
}

func (m CommitMarker) String() string {
	return fmt.Sprintf("%d@%d", m.JournalSequence, m.Timestamp)
}

// Bytes encodes the marker as two big-endian uint64 values
func (m CommitMarker) Bytes() []byte {
	ret := make([]byte, commitMarkerSize)
	binary.BigEndian.PutUint64(ret[:8], uint64(m.Timestamp)) //nolint:gosec
	binary.BigEndian.PutUint64(ret[8:], m.JournalSequence)
	return ret
}

func CommitMarkerFromBytes(data []byte) (CommitMarker, error) {
	if len(data) != commitMarkerSize {
		return CommitMarker{}, fmt.Errorf(
			"invalid commit marker length: %d",
			len(data),
		)
	}
	return CommitMarker{
		Timestamp:       int64(binary.BigEndian.Uint64(data[:8])), //nolint:gosec
		JournalSequence: binary.BigEndian.Uint64(data[8:]),
	}, nil
}
