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

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/types"
)

// Claim credits the currently vested tokens of a wallet. The caller must be
// the wallet itself or an admin.
func (c *Crowdsale) Claim(ctx context.Context, call Call, wallet common.Address) (*big.Int, error) {
	var amount *big.Int
	err := c.apply(ctx, "claim", call, func(tx *txn) error {
		if call.Caller != wallet && !c.config.admins.IsAdmin(call.Caller) {
			return fmt.Errorf(
				"%w: %s cannot claim for %s",
				types.ErrUnauthorized,
				call.Caller.Hex(),
				wallet.Hex(),
			)
		}
		state := tx.state
		if !state.finished {
			return fmt.Errorf("%w: crowdsale not finished", types.ErrUnauthorized)
		}
		if state.refundMode {
			return types.ErrSoftCapNotReached
		}
		if !state.deposits.KycPassed(wallet) {
			return fmt.Errorf("%w: %s", types.ErrKycNotPassed, wallet.Hex())
		}
		var elapsed uint64
		if call.Now > state.finishTime {
			elapsed = call.Now - state.finishTime
		}
		var err error
		amount, err = state.deposits.Claim(wallet, elapsed)
		if err != nil {
			return err
		}
		tx.credit(wallet, amount)
		tx.emit(
			TokensClaimedEventType,
			TokensClaimedEvent{Wallet: wallet, Amount: new(big.Int).Set(amount)},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.claimedTokens.Add(bigToFloat(amount))
	}
	return amount, nil
}

// RefundDeposit returns the escrowed value of a wallet. Admins may refund
// before the crowdsale is finished. In refund mode the wallet itself may
// also request it.
func (c *Crowdsale) RefundDeposit(ctx context.Context, call Call, wallet common.Address) (*big.Int, error) {
	var value *big.Int
	err := c.apply(ctx, "refund", call, func(tx *txn) error {
		state := tx.state
		isAdmin := c.config.admins.IsAdmin(call.Caller)
		selfRefund := state.refundMode && call.Caller == wallet
		if !isAdmin && !selfRefund {
			return fmt.Errorf(
				"%w: %s cannot refund %s",
				types.ErrUnauthorized,
				call.Caller.Hex(),
				wallet.Hex(),
			)
		}
		if state.finished && !state.refundMode {
			return types.ErrAlreadyFinished
		}
		var err error
		value, err = state.deposits.Refund(wallet)
		if err != nil {
			return err
		}
		if !state.finished {
			state.caps.Release(value)
		}
		if value.Sign() > 0 {
			tx.send(wallet, value)
		}
		tx.emit(
			RefundedDepositEventType,
			RefundedDepositEvent{Wallet: wallet, Amount: new(big.Int).Set(value)},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}
