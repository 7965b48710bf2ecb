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

// State is the lifecycle state of a crowdsale. It is derived from the
// current time and the finished flag rather than stored.
type State int

const (
	StateNotStarted State = iota
	StateOpen
	StateClosed
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Deal holds the negotiated pre-sale terms for a whitelisted investor
type Deal struct {
	IncomeWallet      common.Address
	BonusWallet       common.Address
	MinWeiAmount      *big.Int
	BonusRate         *big.Int
	BonusDeadline     uint64
	BonusSharePercent uint64
}

// Copy returns a deep copy of the deal
func (d Deal) Copy() Deal {
	d.MinWeiAmount = CopyInt(d.MinWeiAmount)
	d.BonusRate = CopyInt(d.BonusRate)
	return d
}

// Invoice is a token allocation for an off-chain purchase
type Invoice struct {
	TokenAmount *big.Int
	ExternalID  string
}

func (i Invoice) Copy() Invoice {
	i.TokenAmount = CopyInt(i.TokenAmount)
	return i
}

// DepositEntry is the per-wallet deposit and claim state
type DepositEntry struct {
	Investor          common.Address
	IncomeWallet      common.Address
	BonusWallet       common.Address
	BonusSharePercent uint64
	DepositedTokens   *big.Int
	TransferredTokens *big.Int
	// DepositedValue is the escrowed contribution value returned on refund
	DepositedValue               *big.Int
	KycPassed                    bool
	MainCliffAmountPercent       uint64
	MainCliffTime                uint64
	AdditionalCliffAmountPercent uint64
	// AdditionalCliffTime of 0 means there is no additional cliff
	AdditionalCliffTime uint64
}

// Copy returns a deep copy of the entry
func (e *DepositEntry) Copy() *DepositEntry {
	ret := *e
	ret.DepositedTokens = CopyInt(e.DepositedTokens)
	ret.TransferredTokens = CopyInt(e.TransferredTokens)
	ret.DepositedValue = CopyInt(e.DepositedValue)
	return &ret
}

// Remaining returns the deposited tokens not yet transferred
func (e *DepositEntry) Remaining() *big.Int {
	ret := new(big.Int).Sub(e.DepositedTokens, e.TransferredTokens)
	if ret.Sign() < 0 {
		return new(big.Int)
	}
	return ret
}

// HasTimeLock returns true when a main cliff is configured
func (e *DepositEntry) HasTimeLock() bool {
	return e.MainCliffAmountPercent > 0 || e.MainCliffTime > 0
}

// DealRecord is a deal keyed by investor, in registry iteration order
type DealRecord struct {
	Investor common.Address
	Deal     Deal
}

// InvoiceRecord is an invoice keyed by investor, in registry iteration order
type InvoiceRecord struct {
	Investor common.Address
	Invoice  Invoice
}

// SaleSnapshot is the scalar crowdsale state
type SaleSnapshot struct {
	OpeningTime uint64
	ClosingTime uint64
	Rate        *big.Int
	SoftCap     *big.Int
	HardCap     *big.Int
	Raised      *big.Int
	Finished    bool
	FinishTime  uint64
	RefundMode  bool
	// Block is the block height of the last applied operation
	Block uint64
}

// Snapshot is the complete persisted crowdsale state
type Snapshot struct {
	Sale      SaleSnapshot
	Deposits  []*DepositEntry
	KycPassed []common.Address
	Deals     []DealRecord
	Invoices  []InvoiceRecord
}

// IsZeroAddress returns true for the zero address
func IsZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}

// CopyInt returns a copy of a big.Int, mapping nil to zero
func CopyInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// IsZeroInt returns true for nil or zero values
func IsZeroInt(v *big.Int) bool {
	return v == nil || v.Sign() == 0
}
