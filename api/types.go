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

package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/types"
)

// Amounts are decimal strings so they survive JSON number precision limits

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type SaleResponse struct {
	State          string `json:"state"`
	Now            uint64 `json:"now"`
	OpeningTime    uint64 `json:"opening_time"`
	ClosingTime    uint64 `json:"closing_time"`
	Rate           string `json:"rate"`
	Raised         string `json:"raised"`
	SoftCapReached bool   `json:"soft_cap_reached"`
	HardCapReached bool   `json:"hard_cap_reached"`
	Finished       bool   `json:"finished"`
	FinishTime     uint64 `json:"finish_time,omitempty"`
	RefundMode     bool   `json:"refund_mode"`
	BonusPercent   uint64 `json:"bonus_percent"`
}

type DepositResponse struct {
	Investor                     string `json:"investor"`
	IncomeWallet                 string `json:"income_wallet"`
	BonusWallet                  string `json:"bonus_wallet"`
	BonusSharePercent            uint64 `json:"bonus_share_percent"`
	DepositedTokens              string `json:"deposited_tokens"`
	TransferredTokens            string `json:"transferred_tokens"`
	DepositedValue               string `json:"deposited_value"`
	KycPassed                    bool   `json:"kyc_passed"`
	MainCliffAmountPercent       uint64 `json:"main_cliff_amount_percent"`
	MainCliffTime                uint64 `json:"main_cliff_time"`
	AdditionalCliffAmountPercent uint64 `json:"additional_cliff_amount_percent"`
	AdditionalCliffTime          uint64 `json:"additional_cliff_time"`
}

func newDepositResponse(entry *types.DepositEntry) DepositResponse {
	return DepositResponse{
		Investor:                     entry.Investor.Hex(),
		IncomeWallet:                 entry.IncomeWallet.Hex(),
		BonusWallet:                  entry.BonusWallet.Hex(),
		BonusSharePercent:            entry.BonusSharePercent,
		DepositedTokens:              types.CopyInt(entry.DepositedTokens).String(),
		TransferredTokens:            types.CopyInt(entry.TransferredTokens).String(),
		DepositedValue:               types.CopyInt(entry.DepositedValue).String(),
		KycPassed:                    entry.KycPassed,
		MainCliffAmountPercent:       entry.MainCliffAmountPercent,
		MainCliffTime:                entry.MainCliffTime,
		AdditionalCliffAmountPercent: entry.AdditionalCliffAmountPercent,
		AdditionalCliffTime:          entry.AdditionalCliffTime,
	}
}

type ClaimableResponse struct {
	Wallet    string `json:"wallet"`
	At        uint64 `json:"at"`
	Claimable string `json:"claimable"`
}

type DealResponse struct {
	Investor          string `json:"investor"`
	IncomeWallet      string `json:"income_wallet"`
	BonusWallet       string `json:"bonus_wallet"`
	MinWeiAmount      string `json:"min_wei_amount"`
	BonusRate         string `json:"bonus_rate"`
	BonusDeadline     uint64 `json:"bonus_deadline"`
	BonusSharePercent uint64 `json:"bonus_share_percent"`
}

type InvoiceResponse struct {
	Investor    string `json:"investor"`
	TokenAmount string `json:"token_amount"`
	ExternalID  string `json:"external_id"`
}

type EventResponse struct {
	Sequence  uint64    `json:"sequence"`
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Block     uint64    `json:"block"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type PayoutResponse struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AmountResponse reports the token or value amount moved by an operation
type AmountResponse struct {
	Amount string `json:"amount"`
}

type ContributionRequest struct {
	Value string `json:"value" validate:"required,number"`
}

type WalletRequest struct {
	Wallet string `json:"wallet" validate:"required,eth_addr"`
}

type KycRequest struct {
	Wallet string `json:"wallet" validate:"required,eth_addr"`
	Passed *bool  `json:"passed" validate:"required"`
}

type TimeLockRequest struct {
	Wallet                       string `json:"wallet" validate:"required,eth_addr"`
	MainCliffAmountPercent       uint64 `json:"main_cliff_amount_percent" validate:"lte=100"`
	MainCliffTime                uint64 `json:"main_cliff_time"`
	AdditionalCliffAmountPercent uint64 `json:"additional_cliff_amount_percent" validate:"lte=100"`
	AdditionalCliffTime          uint64 `json:"additional_cliff_time"`
}

type DealRequest struct {
	Investor          string `json:"investor" validate:"required,eth_addr"`
	IncomeWallet      string `json:"income_wallet" validate:"omitempty,eth_addr"`
	BonusWallet       string `json:"bonus_wallet" validate:"omitempty,eth_addr"`
	MinWeiAmount      string `json:"min_wei_amount" validate:"required,number"`
	BonusRate         string `json:"bonus_rate" validate:"omitempty,number"`
	BonusDeadline     uint64 `json:"bonus_deadline"`
	BonusSharePercent uint64 `json:"bonus_share_percent" validate:"lte=100"`
}

type InvoiceRequest struct {
	Investor    string `json:"investor" validate:"required,eth_addr"`
	TokenAmount string `json:"token_amount" validate:"required,number"`
	ExternalID  string `json:"external_id" validate:"max=128"`
}

type RateRequest struct {
	Rate string `json:"rate" validate:"required,number"`
}

func addressOrZero(v string) common.Address {
	if v == "" {
		return common.Address{}
	}
	return common.HexToAddress(v)
}
