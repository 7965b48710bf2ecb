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
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale"
	"github.com/blinklabs-io/crowdsale/database"
	"github.com/blinklabs-io/crowdsale/event"
	"github.com/blinklabs-io/crowdsale/ledger"
	"github.com/blinklabs-io/crowdsale/types"
	"github.com/blinklabs-io/crowdsale/window"
)

// Crowdsale is the state machine surface served by the API. It is
// implemented by *crowdsale.Crowdsale.
type Crowdsale interface {
	State(now uint64) types.State
	Window() window.Window
	Rate() *big.Int
	TotalRaised() *big.Int
	SoftCapReached() bool
	HardCapReached() bool
	FinishTime() (uint64, bool)
	RefundMode() bool
	Deposit(wallet common.Address) (*types.DepositEntry, bool)
	ClaimableAt(wallet common.Address, now uint64) *big.Int
	Deals() []types.DealRecord
	Invoices() []types.InvoiceRecord
	BonusPercentAt(now uint64) uint64

	ReceiveContribution(ctx context.Context, call crowdsale.Call) (*big.Int, error)
	Claim(ctx context.Context, call crowdsale.Call, wallet common.Address) (*big.Int, error)
	RefundDeposit(ctx context.Context, call crowdsale.Call, wallet common.Address) (*big.Int, error)
	FinishCrowdsale(ctx context.Context, call crowdsale.Call) error
	UpdateInvestorKYC(ctx context.Context, call crowdsale.Call, wallet common.Address, passed bool) error
	AssignDepositTimeLock(ctx context.Context, call crowdsale.Call, wallet common.Address, lock ledger.TimeLock) error
	DeleteDepositTimeLock(ctx context.Context, call crowdsale.Call, wallet common.Address) error
	AddUpdatePreSaleDeal(ctx context.Context, call crowdsale.Call, investor common.Address, deal types.Deal) error
	DeletePreSaleDeal(ctx context.Context, call crowdsale.Call, investor common.Address) error
	AddUpdateInvoice(ctx context.Context, call crowdsale.Call, investor common.Address, invoice types.Invoice) error
	DeleteInvoice(ctx context.Context, call crowdsale.Call, investor common.Address) error
	LockTokens(ctx context.Context, call crowdsale.Call) error
	UnlockTokens(ctx context.Context, call crowdsale.Call) error
	SetRate(ctx context.Context, call crowdsale.Call, rate *big.Int) error
}

// Journal serves committed events
type Journal interface {
	Events(after uint64, limit int) ([]event.Event, error)
}

// PayoutOutbox lists and settles queued value transfers
type PayoutOutbox interface {
	Payouts(ctx context.Context, status string) ([]database.Payout, error)
	MarkPayoutSent(ctx context.Context, id string) error
}
