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

package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/types"
)

// Investors holds the pre-sale deals of whitelisted investors
type Investors struct {
	reg *Registry[types.Deal]
}

func NewInvestors() *Investors {
	return &Investors{
		reg: New(types.Deal.Copy),
	}
}

// RestoreInvestors rebuilds the registry from persisted records, keeping
// their order
func RestoreInvestors(records []types.DealRecord) *Investors {
	ret := NewInvestors()
	for _, record := range records {
		ret.reg.Upsert(record.Investor, record.Deal.Copy())
	}
	return ret
}

// ValidateDeal checks the deal terms for an investor at the given time
func ValidateDeal(investor common.Address, deal types.Deal, now uint64) error {
	if types.IsZeroAddress(investor) {
		return fmt.Errorf("%w: zero investor address", types.ErrInvalidArgument)
	}
	if types.IsZeroAddress(deal.IncomeWallet) {
		return fmt.Errorf("%w: zero income wallet", types.ErrInvalidArgument)
	}
	if types.IsZeroAddress(deal.BonusWallet) {
		return fmt.Errorf("%w: zero bonus wallet", types.ErrInvalidArgument)
	}
	if deal.BonusSharePercent > 100 {
		return fmt.Errorf(
			"%w: bonus share percent %d exceeds 100",
			types.ErrInvalidArgument,
			deal.BonusSharePercent,
		)
	}
	if deal.BonusDeadline < now {
		return fmt.Errorf(
			"%w: bonus deadline %d already elapsed",
			types.ErrInvalidArgument,
			deal.BonusDeadline,
		)
	}
	if deal.MinWeiAmount != nil && deal.MinWeiAmount.Sign() < 0 {
		return fmt.Errorf("%w: negative minimum amount", types.ErrInvalidArgument)
	}
	if deal.BonusRate != nil && deal.BonusRate.Sign() < 0 {
		return fmt.Errorf("%w: negative bonus rate", types.ErrInvalidArgument)
	}
	return nil
}

// Upsert validates and stores a deal, reporting whether it was newly added
func (i *Investors) Upsert(investor common.Address, deal types.Deal, now uint64) (bool, error) {
	if err := ValidateDeal(investor, deal, now); err != nil {
		return false, err
	}
	return i.reg.Upsert(investor, deal.Copy()), nil
}

// Delete removes the deal for investor. The returned moved flag reports
// whether another investor's key took the deleted slot.
func (i *Investors) Delete(investor common.Address) (common.Address, bool, error) {
	if types.IsZeroAddress(investor) {
		return common.Address{}, false, fmt.Errorf(
			"%w: zero investor address",
			types.ErrInvalidArgument,
		)
	}
	movedKey, moved, found := i.reg.Delete(investor)
	if !found {
		return common.Address{}, false, types.NotFoundError("deal", investor)
	}
	return movedKey, moved, nil
}

func (i *Investors) Get(investor common.Address) (types.Deal, bool) {
	return i.reg.Get(investor)
}

func (i *Investors) Len() int {
	return i.reg.Len()
}

func (i *Investors) Keys() []common.Address {
	return i.reg.Keys()
}

// Records returns all deals in arena order
func (i *Investors) Records() []types.DealRecord {
	entries := i.reg.Entries()
	ret := make([]types.DealRecord, 0, len(entries))
	for _, entry := range entries {
		ret = append(
			ret,
			types.DealRecord{Investor: entry.Key, Deal: entry.Value},
		)
	}
	return ret
}

func (i *Investors) Clone() *Investors {
	return &Investors{reg: i.reg.Clone()}
}
