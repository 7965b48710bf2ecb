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

package token

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/types"
)

// Book is a token balance book. Changes are staged by the crowdsale,
// persisted along with its state and then applied here. Transfers between
// holders are handled elsewhere.
type Book struct {
	mu          sync.RWMutex
	owner       common.Address
	balances    map[common.Address]*big.Int
	totalSupply *big.Int
	locked      bool
	logger      *slog.Logger
}

type BookOptionFunc func(*Book)

func WithLogger(logger *slog.Logger) BookOptionFunc {
	return func(b *Book) {
		b.logger = logger
	}
}

// WithState restores previously persisted balances and lock state
func WithState(balances map[common.Address]*big.Int, locked bool) BookOptionFunc {
	return func(b *Book) {
		for account, balance := range balances {
			b.balances[account] = new(big.Int).Set(balance)
			b.totalSupply.Add(b.totalSupply, balance)
		}
		b.locked = locked
	}
}

// New creates a token book. Transfers start locked.
func New(owner common.Address, opts ...BookOptionFunc) (*Book, error) {
	if types.IsZeroAddress(owner) {
		return nil, fmt.Errorf("%w: zero token owner", types.ErrInvalidArgument)
	}
	b := &Book{
		owner:       owner,
		balances:    make(map[common.Address]*big.Int),
		totalSupply: new(big.Int),
		locked:      true,
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "token")
	return b, nil
}

func (b *Book) Owner() common.Address {
	return b.owner
}

// StageCredits returns the balances and total supply that minting credits
// would produce. Credits to the same account accumulate. The book is not
// changed.
func (b *Book) StageCredits(credits []types.TokenCredit) ([]types.TokenBalance, *big.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	staged := make(map[common.Address]*big.Int, len(credits))
	ret := make([]types.TokenBalance, 0, len(credits))
	totalSupply := new(big.Int).Set(b.totalSupply)
	for _, credit := range credits {
		if types.IsZeroAddress(credit.Account) {
			return nil, nil, fmt.Errorf("%w: zero account", types.ErrInvalidArgument)
		}
		if credit.Amount == nil || credit.Amount.Sign() <= 0 {
			return nil, nil, fmt.Errorf("%w: amount must be positive", types.ErrInvalidArgument)
		}
		balance, ok := staged[credit.Account]
		if !ok {
			balance = new(big.Int).Set(b.balanceOf(credit.Account))
			staged[credit.Account] = balance
			ret = append(ret, types.TokenBalance{Account: credit.Account, Balance: balance})
		}
		balance.Add(balance, credit.Amount)
		totalSupply.Add(totalSupply, credit.Amount)
	}
	return ret, totalSupply, nil
}

// Apply installs committed balances, total supply and lock state
func (b *Book) Apply(effects *types.Effects) {
	if effects == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, balance := range effects.Balances {
		b.balances[balance.Account] = new(big.Int).Set(balance.Balance)
		b.logger.Debug(
			"token balance updated",
			"account", balance.Account.Hex(),
			"balance", balance.Balance.String(),
		)
	}
	if effects.TotalSupply != nil {
		b.totalSupply = new(big.Int).Set(effects.TotalSupply)
	}
	if effects.TransferLock != nil {
		b.locked = *effects.TransferLock
		b.logger.Debug("transfer lock changed", "locked", b.locked)
	}
}

func (b *Book) balanceOf(account common.Address) *big.Int {
	if balance, ok := b.balances[account]; ok {
		return balance
	}
	return new(big.Int)
}

func (b *Book) BalanceOf(account common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return new(big.Int).Set(b.balanceOf(account))
}

func (b *Book) TotalSupply() *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return new(big.Int).Set(b.totalSupply)
}

func (b *Book) TransferLocked() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.locked
}
