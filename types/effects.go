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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Payout is value leaving escrow
type Payout struct {
	To     common.Address
	Amount *big.Int
}

// TokenCredit mints Amount tokens to Account
type TokenCredit struct {
	Account common.Address
	Amount  *big.Int
}

// TokenBalance is the balance of an account after an operation
type TokenBalance struct {
	Account common.Address
	Balance *big.Int
}

// Effects are the changes an operation makes outside of the crowdsale state.
// They are persisted in the same transaction as the state and only applied
// to the token ledger once that transaction committed.
type Effects struct {
	Payouts  []Payout
	Balances []TokenBalance
	// TotalSupply is nil when no tokens were minted
	TotalSupply *big.Int
	// TransferLock is nil when the lock is unchanged
	TransferLock *bool
}

// IsEmpty returns true when the operation changed nothing outside of the
// crowdsale state
func (e *Effects) IsEmpty() bool {
	return e == nil ||
		len(e.Payouts) == 0 && len(e.Balances) == 0 &&
			e.TotalSupply == nil && e.TransferLock == nil
}
