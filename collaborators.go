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

package crowdsale

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/event"
	"github.com/blinklabs-io/crowdsale/types"
)

// AdminRegistry answers whether an address holds the admin capability
type AdminRegistry interface {
	IsAdmin(common.Address) bool
}

// TokenLedger is the token contract the crowdsale credits claimed tokens to.
// Changes are staged during an operation and applied after it committed.
type TokenLedger interface {
	BalanceOf(account common.Address) *big.Int
	TotalSupply() *big.Int
	TransferLocked() bool
	Owner() common.Address
	StageCredits(credits []types.TokenCredit) ([]types.TokenBalance, *big.Int, error)
	Apply(effects *types.Effects)
}

// ValueSender moves contributed value out of escrow. It is only used when no
// Store is configured, since a Store records payouts along with the state.
// SendValues delivers all payouts of one operation or none of them.
type ValueSender interface {
	SendValues(ctx context.Context, payouts []types.Payout) error
}

// Store persists the crowdsale state, the events and the external effects of
// each operation in one transaction. Commit may assign journal identifiers
// to the events in place.
type Store interface {
	Commit(ctx context.Context, snapshot *types.Snapshot, evts []event.Event, effects *types.Effects) error
}
