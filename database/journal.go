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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/crowdsale/database/types"
	"github.com/blinklabs-io/crowdsale/event"
)

// DefaultEventLimit caps the number of events returned by a single query
const DefaultEventLimit = 1000

var ErrEventNotFound = errors.New("event not found")

type journalEntry struct {
	Sequence  uint64          `json:"sequence"`
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Block     uint64          `json:"block"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func encodeJournalEntry(evt event.Event) ([]byte, error) {
	entry := journalEntry{
		Sequence:  evt.Sequence,
		ID:        evt.ID,
		Type:      string(evt.Type),
		Block:     evt.Block,
		Timestamp: evt.Timestamp.UTC(),
	}
	if evt.Data != nil {
		data, err := json.Marshal(evt.Data)
		if err != nil {
			return nil, fmt.Errorf("encode %s event: %w", evt.Type, err)
		}
		entry.Data = data
	}
	return json.Marshal(entry)
}

// decodeJournalEntry returns the event with its payload as json.RawMessage
func decodeJournalEntry(data []byte) (event.Event, error) {
	var entry journalEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return event.Event{}, fmt.Errorf("decode journal entry: %w", err)
	}
	evt := event.Event{
		Sequence:  entry.Sequence,
		ID:        entry.ID,
		Type:      event.EventType(entry.Type),
		Block:     entry.Block,
		Timestamp: entry.Timestamp,
	}
	if len(entry.Data) > 0 {
		evt.Data = entry.Data
	}
	return evt, nil
}

// Events returns journal events with a sequence greater than after. The
// limit is clamped to DefaultEventLimit.
func (d *Database) Events(after uint64, limit int) ([]event.Event, error) {
	if limit <= 0 || limit > DefaultEventLimit {
		limit = DefaultEventLimit
	}
	records, err := d.blob.GetEvents(after, limit)
	if err != nil {
		return nil, err
	}
	ret := make([]event.Event, 0, len(records))
	for _, record := range records {
		evt, err := decodeJournalEntry(record.Data)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", record.Sequence, err)
		}
		ret = append(ret, evt)
	}
	return ret, nil
}

// EventById returns the journal event with the given ID
func (d *Database) EventById(id string) (event.Event, error) {
	record, err := d.blob.GetEventById(id)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return event.Event{}, ErrEventNotFound
		}
		return event.Event{}, err
	}
	return decodeJournalEntry(record.Data)
}

// LastSequence returns the sequence of the last committed event
func (d *Database) LastSequence() uint64 {
	return d.lastSequence.Load()
}
