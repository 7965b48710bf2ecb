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

package caps

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/crowdsale/types"
)

// Tracker keeps the running contribution total against the soft and hard
// caps. It is not safe for concurrent use.
type Tracker struct {
	softCap *big.Int
	hardCap *big.Int
	total   *big.Int
}

func New(softCap *big.Int, hardCap *big.Int) (*Tracker, error) {
	if hardCap == nil || hardCap.Sign() <= 0 {
		return nil, fmt.Errorf("%w: hard cap must be positive", types.ErrInvalidArgument)
	}
	if softCap == nil || softCap.Sign() < 0 {
		return nil, fmt.Errorf("%w: soft cap must not be negative", types.ErrInvalidArgument)
	}
	if hardCap.Cmp(softCap) < 0 {
		return nil, fmt.Errorf(
			"%w: hard cap %s is below soft cap %s",
			types.ErrInvalidArgument,
			hardCap.String(),
			softCap.String(),
		)
	}
	return &Tracker{
		softCap: new(big.Int).Set(softCap),
		hardCap: new(big.Int).Set(hardCap),
		total:   new(big.Int),
	}, nil
}

// Restore rebuilds a tracker with a previously recorded total
func Restore(softCap *big.Int, hardCap *big.Int, total *big.Int) (*Tracker, error) {
	t, err := New(softCap, hardCap)
	if err != nil {
		return nil, err
	}
	if total != nil {
		if total.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative total", types.ErrInvalidArgument)
		}
		t.total.Set(total)
	}
	return t, nil
}

// Admit checks whether a contribution fits under the hard cap. A contribution
// that would exceed the cap is rejected as a whole.
func (t *Tracker) Admit(amount *big.Int) error {
	next := new(big.Int).Add(t.total, amount)
	if next.Cmp(t.hardCap) > 0 {
		return fmt.Errorf(
			"%w: total %s plus %s exceeds %s",
			types.ErrHardCapExceeded,
			t.total.String(),
			amount.String(),
			t.hardCap.String(),
		)
	}
	return nil
}

// Record adds an admitted contribution and returns the new total
func (t *Tracker) Record(amount *big.Int) *big.Int {
	t.total.Add(t.total, amount)
	return new(big.Int).Set(t.total)
}

// Release subtracts refunded value from the total
func (t *Tracker) Release(amount *big.Int) *big.Int {
	t.total.Sub(t.total, amount)
	if t.total.Sign() < 0 {
		t.total.SetInt64(0)
	}
	return new(big.Int).Set(t.total)
}

func (t *Tracker) SoftCapReached() bool {
	return t.total.Cmp(t.softCap) >= 0
}

func (t *Tracker) HardCapReached() bool {
	return t.total.Cmp(t.hardCap) >= 0
}

func (t *Tracker) Total() *big.Int {
	return new(big.Int).Set(t.total)
}

func (t *Tracker) SoftCap() *big.Int {
	return new(big.Int).Set(t.softCap)
}

func (t *Tracker) HardCap() *big.Int {
	return new(big.Int).Set(t.hardCap)
}

// Clone returns an independent copy of the tracker
func (t *Tracker) Clone() *Tracker {
	return &Tracker{
		softCap: new(big.Int).Set(t.softCap),
		hardCap: new(big.Int).Set(t.hardCap),
		total:   new(big.Int).Set(t.total),
	}
}
