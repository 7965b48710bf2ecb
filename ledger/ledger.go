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
	"bytes"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/types"
)

// Terms are the deal terms snapshotted onto a deposit entry
type Terms struct {
	IncomeWallet      common.Address
	BonusWallet       common.Address
	BonusSharePercent uint64
}

// TimeLock is the two-stage cliff configuration of a deposit entry
type TimeLock struct {
	MainCliffAmountPercent       uint64
	MainCliffTime                uint64
	AdditionalCliffAmountPercent uint64
	AdditionalCliffTime          uint64
}

// Forward is the escrowed value of one deposit entry split between the
// income and bonus wallets
type Forward struct {
	Investor     common.Address
	IncomeWallet common.Address
	IncomeAmount *big.Int
	BonusWallet  common.Address
	BonusAmount  *big.Int
}

// Ledger holds deposit entries keyed by deposit wallet and the KYC status of
// each wallet. It is not safe for concurrent use.
type Ledger struct {
	entries map[common.Address]*types.DepositEntry
	kyc     map[common.Address]bool
}

func New() *Ledger {
	return &Ledger{
		entries: make(map[common.Address]*types.DepositEntry),
		kyc:     make(map[common.Address]bool),
	}
}

// Restore rebuilds a ledger from persisted entries and KYC-approved wallets
func Restore(entries []*types.DepositEntry, kycPassed []common.Address) (*Ledger, error) {
	l := New()
	for _, entry := range entries {
		if types.IsZeroAddress(entry.Investor) {
			return nil, fmt.Errorf("%w: deposit entry without wallet", types.ErrInvalidArgument)
		}
		tmpEntry := entry.Copy()
		if tmpEntry.DepositedTokens.Cmp(tmpEntry.TransferredTokens) < 0 {
			return nil, fmt.Errorf(
				"%w: transferred tokens exceed deposited tokens",
				types.ErrInvalidArgument,
			)
		}
		tmpEntry.KycPassed = false
		l.entries[entry.Investor] = tmpEntry
	}
	for _, wallet := range kycPassed {
		l.kyc[wallet] = true
	}
	return l, nil
}

func (l *Ledger) entry(wallet common.Address) *types.DepositEntry {
	e, ok := l.entries[wallet]
	if !ok {
		e = &types.DepositEntry{
			Investor:          wallet,
			DepositedTokens:   new(big.Int),
			TransferredTokens: new(big.Int),
			DepositedValue:    new(big.Int),
		}
		l.entries[wallet] = e
	}
	return e
}

// AddDeposit credits tokens and escrowed value to the wallet's entry. The
// created return value is true for the first deposit into the entry.
func (l *Ledger) AddDeposit(
	investor common.Address,
	wallet common.Address,
	tokens *big.Int,
	value *big.Int,
	terms Terms,
) (bool, error) {
	if types.IsZeroAddress(investor) {
		return false, fmt.Errorf("%w: zero investor address", types.ErrInvalidArgument)
	}
	if types.IsZeroAddress(wallet) {
		return false, fmt.Errorf("%w: zero wallet address", types.ErrInvalidArgument)
	}
	if tokens == nil || tokens.Sign() <= 0 {
		return false, fmt.Errorf("%w: token amount must be positive", types.ErrInvalidArgument)
	}
	if value != nil && value.Sign() < 0 {
		return false, fmt.Errorf("%w: negative value", types.ErrInvalidArgument)
	}
	existing, ok := l.entries[wallet]
	created := !ok || existing.DepositedTokens.Sign() == 0 &&
		existing.TransferredTokens.Sign() == 0 &&
		existing.DepositedValue.Sign() == 0
	e := l.entry(wallet)
	e.Investor = investor
	e.DepositedTokens.Add(e.DepositedTokens, tokens)
	if value != nil {
		e.DepositedValue.Add(e.DepositedValue, value)
	}
	if !types.IsZeroAddress(terms.IncomeWallet) {
		e.IncomeWallet = terms.IncomeWallet
		e.BonusWallet = terms.BonusWallet
		e.BonusSharePercent = terms.BonusSharePercent
	}
	return created, nil
}

// AssignTimeLock sets the cliff schedule of a wallet, creating an empty
// entry when the wallet has not deposited yet. It returns true when the
// schedule has a single stage.
func (l *Ledger) AssignTimeLock(wallet common.Address, lock TimeLock) (bool, error) {
	if types.IsZeroAddress(wallet) {
		return false, fmt.Errorf("%w: zero wallet address", types.ErrInvalidArgument)
	}
	if lock.MainCliffTime == 0 {
		return false, fmt.Errorf("%w: zero main cliff time", types.ErrInvalidArgument)
	}
	if lock.MainCliffAmountPercent == 0 {
		return false, fmt.Errorf("%w: zero main cliff amount", types.ErrInvalidArgument)
	}
	if lock.AdditionalCliffTime != 0 &&
		lock.MainCliffTime >= lock.AdditionalCliffTime {
		return false, fmt.Errorf(
			"%w: main cliff time %d is not before additional cliff time %d",
			types.ErrInvalidArgument,
			lock.MainCliffTime,
			lock.AdditionalCliffTime,
		)
	}
	if lock.MainCliffAmountPercent+lock.AdditionalCliffAmountPercent > 100 {
		return false, fmt.Errorf(
			"%w: cliff amounts add up to more than 100 percent",
			types.ErrInvalidArgument,
		)
	}
	e := l.entry(wallet)
	e.MainCliffAmountPercent = lock.MainCliffAmountPercent
	e.MainCliffTime = lock.MainCliffTime
	e.AdditionalCliffAmountPercent = lock.AdditionalCliffAmountPercent
	e.AdditionalCliffTime = lock.AdditionalCliffTime
	singleStage := lock.AdditionalCliffAmountPercent == 0 &&
		lock.AdditionalCliffTime == 0
	return singleStage, nil
}

// DeleteTimeLock clears the cliff schedule of a wallet
func (l *Ledger) DeleteTimeLock(wallet common.Address) error {
	if types.IsZeroAddress(wallet) {
		return fmt.Errorf("%w: zero wallet address", types.ErrInvalidArgument)
	}
	e, ok := l.entries[wallet]
	if !ok {
		return types.NotFoundError("deposit", wallet)
	}
	e.MainCliffAmountPercent = 0
	e.MainCliffTime = 0
	e.AdditionalCliffAmountPercent = 0
	e.AdditionalCliffTime = 0
	return nil
}

// Refund zeroes the wallet's deposit and returns the escrowed value that
// must be sent back
func (l *Ledger) Refund(wallet common.Address) (*big.Int, error) {
	if types.IsZeroAddress(wallet) {
		return nil, fmt.Errorf("%w: zero wallet address", types.ErrInvalidArgument)
	}
	e, ok := l.entries[wallet]
	if !ok || e.DepositedTokens.Sign() == 0 {
		return nil, fmt.Errorf("%w: no deposit for %s", types.ErrInvalidArgument, wallet.String())
	}
	value := new(big.Int).Set(e.DepositedValue)
	e.DepositedTokens.SetInt64(0)
	e.TransferredTokens.SetInt64(0)
	e.DepositedValue.SetInt64(0)
	return value, nil
}

// SetKYC updates the KYC status of a wallet. Setting the current value again
// is rejected.
func (l *Ledger) SetKYC(wallet common.Address, passed bool) error {
	if types.IsZeroAddress(wallet) {
		return fmt.Errorf("%w: zero wallet address", types.ErrInvalidArgument)
	}
	if l.kyc[wallet] == passed {
		return fmt.Errorf(
			"%w: kyc for %s is already %t",
			types.ErrInvalidArgument,
			wallet.String(),
			passed,
		)
	}
	if passed {
		l.kyc[wallet] = true
	} else {
		delete(l.kyc, wallet)
	}
	return nil
}

func (l *Ledger) KycPassed(wallet common.Address) bool {
	return l.kyc[wallet]
}

// Claim transfers the currently claimable tokens of a wallet and returns the
// amount
func (l *Ledger) Claim(wallet common.Address, elapsed uint64) (*big.Int, error) {
	e, ok := l.entries[wallet]
	if !ok || e.DepositedTokens.Sign() == 0 {
		return nil, fmt.Errorf("%w: no deposit for %s", types.ErrNothingToClaim, wallet.String())
	}
	amount := Claimable(e, elapsed)
	if amount.Sign() == 0 {
		return nil, types.ErrNothingToClaim
	}
	e.TransferredTokens.Add(e.TransferredTokens, amount)
	return amount, nil
}

// ClaimableAt returns the claimable amount for a wallet without changing it
func (l *Ledger) ClaimableAt(wallet common.Address, elapsed uint64) *big.Int {
	return Claimable(l.entries[wallet], elapsed)
}

// TakeEscrow zeroes the escrowed value of every entry and returns how it
// must be split. Entries are returned in wallet order.
func (l *Ledger) TakeEscrow() []Forward {
	var ret []Forward
	for _, wallet := range l.wallets() {
		e := l.entries[wallet]
		if e.DepositedValue.Sign() == 0 {
			continue
		}
		fwd := Forward{
			Investor:     e.Investor,
			IncomeWallet: e.IncomeWallet,
			IncomeAmount: new(big.Int).Set(e.DepositedValue),
			BonusWallet:  e.BonusWallet,
			BonusAmount:  new(big.Int),
		}
		if !types.IsZeroAddress(e.BonusWallet) && e.BonusSharePercent > 0 {
			fwd.BonusAmount.Mul(
				e.DepositedValue,
				new(big.Int).SetUint64(e.BonusSharePercent),
			)
			fwd.BonusAmount.Div(fwd.BonusAmount, big.NewInt(100))
			fwd.IncomeAmount.Sub(fwd.IncomeAmount, fwd.BonusAmount)
		}
		e.DepositedValue.SetInt64(0)
		ret = append(ret, fwd)
	}
	return ret
}

// Entry returns a copy of the wallet's deposit entry
func (l *Ledger) Entry(wallet common.Address) (*types.DepositEntry, bool) {
	e, ok := l.entries[wallet]
	if !ok {
		return nil, false
	}
	ret := e.Copy()
	ret.KycPassed = l.kyc[wallet]
	return ret, true
}

// Entries returns copies of all entries in wallet order
func (l *Ledger) Entries() []*types.DepositEntry {
	ret := make([]*types.DepositEntry, 0, len(l.entries))
	for _, wallet := range l.wallets() {
		e, _ := l.Entry(wallet)
		ret = append(ret, e)
	}
	return ret
}

// KycPassedWallets returns the KYC-approved wallets in wallet order
func (l *Ledger) KycPassedWallets() []common.Address {
	ret := make([]common.Address, 0, len(l.kyc))
	for wallet := range l.kyc {
		ret = append(ret, wallet)
	}
	slices.SortFunc(ret, func(a, b common.Address) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return ret
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) Clone() *Ledger {
	ret := New()
	for k, v := range l.entries {
		ret.entries[k] = v.Copy()
	}
	for k, v := range l.kyc {
		ret.kyc[k] = v
	}
	return ret
}

func (l *Ledger) wallets() []common.Address {
	ret := make([]common.Address, 0, len(l.entries))
	for wallet := range l.entries {
		ret = append(ret, wallet)
	}
	slices.SortFunc(ret, func(a, b common.Address) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return ret
}
