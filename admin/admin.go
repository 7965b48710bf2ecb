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

package admin

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/crowdsale/types"
)

// List is an owner-managed set of admin addresses. The owner is always an
// admin.
type List struct {
	mu     sync.RWMutex
	owner  common.Address
	admins map[common.Address]struct{}
}

func New(owner common.Address, admins ...common.Address) (*List, error) {
	if types.IsZeroAddress(owner) {
		return nil, fmt.Errorf("%w: zero owner address", types.ErrInvalidArgument)
	}
	l := &List{
		owner:  owner,
		admins: make(map[common.Address]struct{}),
	}
	for _, addr := range admins {
		if types.IsZeroAddress(addr) {
			return nil, fmt.Errorf("%w: zero admin address", types.ErrInvalidArgument)
		}
		l.admins[addr] = struct{}{}
	}
	return l, nil
}

func (l *List) Owner() common.Address {
	return l.owner
}

func (l *List) IsAdmin(addr common.Address) bool {
	if types.IsZeroAddress(addr) {
		return false
	}
	if addr == l.owner {
		return true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.admins[addr]
	return ok
}

// Add grants the admin capability. Only the owner may call it.
func (l *List) Add(caller common.Address, addr common.Address) error {
	if err := l.checkChange(caller, addr); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.admins[addr]; ok {
		return fmt.Errorf("%w: %s is already an admin", types.ErrAlreadyInState, addr.Hex())
	}
	l.admins[addr] = struct{}{}
	return nil
}

// Remove revokes the admin capability. Only the owner may call it.
func (l *List) Remove(caller common.Address, addr common.Address) error {
	if err := l.checkChange(caller, addr); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.admins[addr]; !ok {
		return fmt.Errorf("%w: %s is not an admin", types.ErrAlreadyInState, addr.Hex())
	}
	delete(l.admins, addr)
	return nil
}

func (l *List) checkChange(caller common.Address, addr common.Address) error {
	if caller != l.owner {
		return fmt.Errorf("%w: only the owner can change admins", types.ErrUnauthorized)
	}
	if types.IsZeroAddress(addr) || addr == l.owner {
		return fmt.Errorf("%w: invalid admin address %s", types.ErrInvalidArgument, addr.Hex())
	}
	return nil
}

// Total returns the number of admins, not counting the owner
func (l *List) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.admins)
}

// Admins returns the admin addresses in address order
func (l *List) Admins() []common.Address {
	l.mu.RLock()
	ret := make([]common.Address, 0, len(l.admins))
	for addr := range l.admins {
		ret = append(ret, addr)
	}
	l.mu.RUnlock()
	slices.SortFunc(ret, func(a, b common.Address) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return ret
}
