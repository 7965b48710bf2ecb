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

// Deal is a pre-sale deal. Position preserves the registry iteration order,
// which changes on swap-and-pop deletes.
type Deal struct {
	ID                uint          `gorm:"primarykey"`
	Investor          types.Address `gorm:"uniqueIndex"`
	Position          int           `gorm:"index"`
	IncomeWallet      types.Address
	BonusWallet       types.Address
	MinWeiAmount      types.BigInt
	BonusRate         types.BigInt
	BonusDeadline     types.Uint64
	BonusSharePercent uint64
}

func (Deal) TableName() string {
	return "deal"
}

type Invoice struct {
	ID          uint          `gorm:"primarykey"`
	Investor    types.Address `gorm:"uniqueIndex"`
	Position    int           `gorm:"index"`
	TokenAmount types.BigInt
	ExternalID  string
}

func (Invoice) TableName() string {
	return "invoice"
}
