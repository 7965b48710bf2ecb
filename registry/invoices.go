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

// Invoices holds token allocations for off-chain purchases
type Invoices struct {
	reg *Registry[types.Invoice]
}

func NewInvoices() *Invoices {
	return &Invoices{
		reg: New(types.Invoice.Copy),
	}
}

func RestoreInvoices(records []types.InvoiceRecord) *Invoices {
	ret := NewInvoices()
	for _, record := range records {
		ret.reg.Upsert(record.Investor, record.Invoice.Copy())
	}
	return ret
}

func ValidateInvoice(investor common.Address, invoice types.Invoice) error {
	if types.IsZeroAddress(investor) {
		return fmt.Errorf("%w: zero investor address", types.ErrInvalidArgument)
	}
	if invoice.TokenAmount == nil || invoice.TokenAmount.Sign() <= 0 {
		return fmt.Errorf("%w: invoice token amount must be positive", types.ErrInvalidArgument)
	}
	return nil
}

func (i *Invoices) Upsert(investor common.Address, invoice types.Invoice) (bool, error) {
	if err := ValidateInvoice(investor, invoice); err != nil {
		return false, err
	}
	return i.reg.Upsert(investor, invoice.Copy()), nil
}

func (i *Invoices) Delete(investor common.Address) (common.Address, bool, error) {
	if types.IsZeroAddress(investor) {
		return common.Address{}, false, fmt.Errorf(
			"%w: zero investor address",
			types.ErrInvalidArgument,
		)
	}
	movedKey, moved, found := i.reg.Delete(investor)
	if !found {
		return common.Address{}, false, types.NotFoundError("invoice", investor)
	}
	return movedKey, moved, nil
}

func (i *Invoices) Get(investor common.Address) (types.Invoice, bool) {
	return i.reg.Get(investor)
}

func (i *Invoices) Len() int {
	return i.reg.Len()
}

func (i *Invoices) Keys() []common.Address {
	return i.reg.Keys()
}

func (i *Invoices) Records() []types.InvoiceRecord {
	entries := i.reg.Entries()
	ret := make([]types.InvoiceRecord, 0, len(entries))
	for _, entry := range entries {
		ret = append(
			ret,
			types.InvoiceRecord{Investor: entry.Key, Invoice: entry.Value},
		)
	}
	return ret
}

func (i *Invoices) Clone() *Invoices {
	return &Invoices{reg: i.reg.Clone()}
}
