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
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/event"
)

const (
	DepositAddedEventType                            event.EventType = "DepositAdded"
	DepositIncreasedEventType                        event.EventType = "DepositIncreased"
	DepositTimeLockAssignedEventType                 event.EventType = "DepositTimeLockAssigned"
	AdditionalCliffTimeGreaterThanZeroEventType      event.EventType = "AdditionalCliffTimeGreaterThanZero"
	DepositTimeLockDeletedEventType                  event.EventType = "DepositTimeLockDeleted"
	RefundedDepositEventType                         event.EventType = "RefundedDeposit"
	CrowdsaleFinishedEventType                       event.EventType = "CrowdsaleFinished"
	InvestorAddedEventType                           event.EventType = "InvestorAdded"
	InvestorUpdatedEventType                         event.EventType = "InvestorUpdated"
	InvestorDeletedEventType                         event.EventType = "InvestorDeleted"
	DeletePreSaleDealInvestorsMapKeySkippedEventType event.EventType = "DeletePreSaleDealInvestorsMapKeySkipped"
	InvoiceAddedEventType                            event.EventType = "InvoiceAdded"
	InvoiceUpdatedEventType                          event.EventType = "InvoiceUpdated"
	InvoiceDeletedEventType                          event.EventType = "InvoiceDeleted"
	DeleteInvoiceInvoiceMapKeysSkippedEventType      event.EventType = "DeleteInvoiceInvoiceMapKeysSkipped"
	TokenLockedEventType                             event.EventType = "TokenLocked"
	TokenUnlockedEventType                           event.EventType = "TokenUnlocked"
	TokensClaimedEventType                           event.EventType = "TokensClaimed"
	KycUpdatedEventType                              event.EventType = "KycUpdated"
	RateChangedEventType                             event.EventType = "RateChanged"
	InvoiceSettledEventType                          event.EventType = "InvoiceSettled"
	ValueForwardedEventType                          event.EventType = "ValueForwarded"
	RefundsEnabledEventType                          event.EventType = "RefundsEnabled"
)

// EventTypes lists every event type emitted by the crowdsale
var EventTypes = []event.EventType{
	DepositAddedEventType,
	DepositIncreasedEventType,
	DepositTimeLockAssignedEventType,
	AdditionalCliffTimeGreaterThanZeroEventType,
	DepositTimeLockDeletedEventType,
	RefundedDepositEventType,
	CrowdsaleFinishedEventType,
	InvestorAddedEventType,
	InvestorUpdatedEventType,
	InvestorDeletedEventType,
	DeletePreSaleDealInvestorsMapKeySkippedEventType,
	InvoiceAddedEventType,
	InvoiceUpdatedEventType,
	InvoiceDeletedEventType,
	DeleteInvoiceInvoiceMapKeysSkippedEventType,
	TokenLockedEventType,
	TokenUnlockedEventType,
	TokensClaimedEventType,
	KycUpdatedEventType,
	RateChangedEventType,
	InvoiceSettledEventType,
	ValueForwardedEventType,
	RefundsEnabledEventType,
}

type DepositAddedEvent struct {
	Investor common.Address `json:"investor"`
	Wallet   common.Address `json:"wallet"`
	Amount   *big.Int       `json:"amount"`
}

// DepositIncreasedEvent is emitted for contributions into an existing entry
type DepositIncreasedEvent struct {
	Investor common.Address `json:"investor"`
	Wallet   common.Address `json:"wallet"`
	Amount   *big.Int       `json:"amount"`
	Total    *big.Int       `json:"total"`
}

type DepositTimeLockAssignedEvent struct {
	Wallet   common.Address `json:"wallet"`
	MainAmt  uint64         `json:"mainAmt"`
	MainTime uint64         `json:"mainTime"`
	AddAmt   uint64         `json:"addAmt"`
	AddTime  uint64         `json:"addTime"`
}

// AdditionalCliffTimeGreaterThanZeroEvent notes that a time lock was
// assigned without an additional cliff
type AdditionalCliffTimeGreaterThanZeroEvent struct {
	Wallet common.Address `json:"wallet"`
}

type DepositTimeLockDeletedEvent struct {
	Wallet common.Address `json:"wallet"`
}

type RefundedDepositEvent struct {
	Wallet common.Address `json:"wallet"`
	Amount *big.Int       `json:"amount"`
}

type CrowdsaleFinishedEvent struct {
	TotalRaised *big.Int `json:"totalRaised"`
}

type InvestorAddedEvent struct {
	Investor common.Address `json:"investor"`
}

type InvestorUpdatedEvent struct {
	Investor common.Address `json:"investor"`
}

type InvestorDeletedEvent struct {
	Investor common.Address `json:"investor"`
}

// DeletePreSaleDealInvestorsMapKeySkippedEvent reports the investor key moved
// into the slot of a deleted deal
type DeletePreSaleDealInvestorsMapKeySkippedEvent struct {
	MovedKey common.Address `json:"movedKey"`
}

type InvoiceAddedEvent struct {
	Investor common.Address `json:"investor"`
}

type InvoiceUpdatedEvent struct {
	Investor common.Address `json:"investor"`
}

type InvoiceDeletedEvent struct {
	Investor common.Address `json:"investor"`
}

// DeleteInvoiceInvoiceMapKeysSkippedEvent reports the investor key moved
// into the slot of a deleted invoice
type DeleteInvoiceInvoiceMapKeysSkippedEvent struct {
	MovedKey common.Address `json:"movedKey"`
}

type TokenLockedEvent struct{}

type TokenUnlockedEvent struct{}

type TokensClaimedEvent struct {
	Wallet common.Address `json:"wallet"`
	Amount *big.Int       `json:"amount"`
}

type KycUpdatedEvent struct {
	Wallet common.Address `json:"wallet"`
	Passed bool           `json:"passed"`
}

type RateChangedEvent struct {
	OldRate *big.Int `json:"oldRate"`
	NewRate *big.Int `json:"newRate"`
}

// InvoiceSettledEvent is emitted when an invoice becomes a deposit entry at
// finish
type InvoiceSettledEvent struct {
	Investor   common.Address `json:"investor"`
	Amount     *big.Int       `json:"amount"`
	ExternalID string         `json:"externalId"`
}

// ValueForwardedEvent is emitted for each escrow payout after a successful
// sale
type ValueForwardedEvent struct {
	Investor common.Address `json:"investor"`
	To       common.Address `json:"to"`
	Amount   *big.Int       `json:"amount"`
}

type RefundsEnabledEvent struct {
	TotalRaised *big.Int `json:"totalRaised"`
}
