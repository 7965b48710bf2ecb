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

package models

import (
	"time"

	"github.com/blinklabs-io/crowdsale/database/types"
)

const (
	PayoutStatusPending = "pending"
	PayoutStatusSent    = "sent"
)

// Payout is an outbox entry for value leaving escrow. An external sender
// settles pending rows.
type Payout struct {
	ID        uint          `gorm:"primarykey"`
	PayoutID  string        `gorm:"size:36;uniqueIndex"`
	Recipient types.Address `gorm:"index"`
	Amount    types.BigInt
	Status    string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Payout) TableName() string {
	return "payout"
}
