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

const SaleRowId = 1

// Sale holds the scalar crowdsale state. There is a single row.
type Sale struct {
	ID          uint `gorm:"primarykey"`
	OpeningTime types.Uint64
	ClosingTime types.Uint64
	Rate        types.BigInt
	SoftCap     types.BigInt
	HardCap     types.BigInt
	Raised      types.BigInt
	Finished    bool
	FinishTime  types.Uint64
	RefundMode  bool
	Block       types.Uint64
}

func (Sale) TableName() string {
	return "sale"
}

type KycPassed struct {
	ID     uint          `gorm:"primarykey"`
	Wallet types.Address `gorm:"uniqueIndex"`
}

func (KycPassed) TableName() string {
	return "kyc_passed"
}
