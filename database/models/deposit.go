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
	"github.com/blinklabs-io/crowdsale/database/types"
)

// Deposit is a deposit ledger entry. Position preserves the ledger order.
type Deposit struct {
	ID                           uint          `gorm:"primarykey"`
	Investor                     types.Address `gorm:"uniqueIndex"`
	Position                     int           `gorm:"index"`
	IncomeWallet                 types.Address
	BonusWallet                  types.Address
	BonusSharePercent            uint64
	DepositedTokens              types.BigInt
	TransferredTokens            types.BigInt
	DepositedValue               types.BigInt
	KycPassed                    bool
	MainCliffAmountPercent       uint64
	MainCliffTime                types.Uint64
	AdditionalCliffAmountPercent uint64
	AdditionalCliffTime          types.Uint64
}

func (Deposit) TableName() string {
	return "deposit"
}
