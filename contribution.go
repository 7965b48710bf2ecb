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
	"fmt"
	"math/big"

	"github.com/blinklabs-io/crowdsale/ledger"
	"github.com/blinklabs-io/crowdsale/types"
)

// ReceiveContribution accepts value from a whitelisted investor and credits
// the purchased tokens, including any bonus, to the deposit of the deal's
// income wallet. The investor is the caller and the contributed amount is
// the call value.
func (c *Crowdsale) ReceiveContribution(ctx context.Context, call Call) (*big.Int, error) {
	var tokens *big.Int
	err := c.apply(ctx, "receive_contribution", call, func(tx *txn) error {
		var err error
		tokens, err = c.receiveContribution(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.contributionsTotal.Inc()
	}
	return tokens, nil
}

func (c *Crowdsale) receiveContribution(tx *txn) (*big.Int, error) {
	if err := requireOpen(tx); err != nil {
		return nil, err
	}
	investor := tx.call.Caller
	deal, ok := tx.state.investors.Get(investor)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotWhitelisted, investor.Hex())
	}
	amount := tx.call.value()
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: zero contribution", types.ErrInvalidArgument)
	}
	if amount.Cmp(types.CopyInt(deal.MinWeiAmount)) < 0 {
		return nil, fmt.Errorf(
			"%w: %s is below %s",
			types.ErrBelowMinimum,
			amount.String(),
			deal.MinWeiAmount.String(),
		)
	}
	tokens := c.purchasedTokens(tx, deal, amount)
	if err := tx.state.caps.Admit(amount); err != nil {
		return nil, err
	}
	terms := ledger.Terms{
		IncomeWallet:      deal.IncomeWallet,
		BonusWallet:       deal.BonusWallet,
		BonusSharePercent: deal.BonusSharePercent,
	}
	wallet := deal.IncomeWallet
	created, err := tx.state.deposits.AddDeposit(investor, wallet, tokens, amount, terms)
	if err != nil {
		return nil, err
	}
	tx.state.caps.Record(amount)
	if created {
		tx.emit(
			DepositAddedEventType,
			DepositAddedEvent{
				Investor: investor,
				Wallet:   wallet,
				Amount:   new(big.Int).Set(tokens),
			},
		)
	} else {
		entry, _ := tx.state.deposits.Entry(wallet)
		tx.emit(
			DepositIncreasedEventType,
			DepositIncreasedEvent{
				Investor: investor,
				Wallet:   wallet,
				Amount:   new(big.Int).Set(tokens),
				Total:    entry.DepositedTokens,
			},
		)
	}
	return tokens, nil
}

// purchasedTokens converts a contribution into tokens. The deal bonus rate
// and the schedule bonus only apply up to the deal's bonus deadline.
func (c *Crowdsale) purchasedTokens(tx *txn, deal types.Deal, amount *big.Int) *big.Int {
	rate := tx.state.rate
	var bonusPercent uint64
	if tx.call.Now <= deal.BonusDeadline {
		if !types.IsZeroInt(deal.BonusRate) {
			rate = deal.BonusRate
		}
		bonusPercent = c.config.bonusSchedule.PercentAt(
			tx.state.window.Elapsed(tx.call.Now),
		)
	}
	tokens := new(big.Int).Mul(amount, rate)
	if bonusPercent > 0 {
		bonusTokens := new(big.Int).Mul(tokens, new(big.Int).SetUint64(bonusPercent))
		bonusTokens.Div(bonusTokens, big.NewInt(100))
		tokens.Add(tokens, bonusTokens)
	}
	return tokens
}
