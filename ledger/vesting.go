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

package ledger

import (
	"math/big"

	"github.com/blinklabs-io/crowdsale/types"
)

// Claimable returns the number of tokens the entry may claim at the given
// number of seconds since the crowdsale finished. It has no side effects.
func Claimable(entry *types.DepositEntry, elapsed uint64) *big.Int {
	if entry == nil || types.IsZeroInt(entry.DepositedTokens) {
		return new(big.Int)
	}
	if elapsed < entry.MainCliffTime {
		return new(big.Int)
	}
	remaining := entry.Remaining()
	// No lock configured
	if entry.MainCliffAmountPercent == 0 {
		return remaining
	}
	// Only an additional cliff releases the rest. A single-stage lock caps the
	// entry at its main percentage for good.
	if entry.AdditionalCliffTime > 0 && elapsed >= entry.AdditionalCliffTime {
		return remaining
	}
	allowed := new(big.Int).Mul(
		entry.DepositedTokens,
		new(big.Int).SetUint64(entry.MainCliffAmountPercent),
	)
	allowed.Div(allowed, big.NewInt(100))
	allowed.Sub(allowed, types.CopyInt(entry.TransferredTokens))
	if allowed.Sign() < 0 {
		return new(big.Int)
	}
	if allowed.Cmp(remaining) > 0 {
		return remaining
	}
	return allowed
}
