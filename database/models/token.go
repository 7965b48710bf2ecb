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

const TokenStateRowId = 1

type TokenBalance struct {
	ID      uint          `gorm:"primarykey"`
	Account types.Address `gorm:"uniqueIndex"`
	Balance types.BigInt
}

func (TokenBalance) TableName() string {
	return "token_balance"
}

// TokenState holds the token transfer lock and total supply. There is a
// single row.
type TokenState struct {
	ID             uint `gorm:"primarykey"`
	TransferLocked bool
	TotalSupply    types.BigInt
}

func (TokenState) TableName() string {
	return "token_state"
}
