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
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrBlobKeyNotFound is returned by blob operations when a key is missing
	ErrBlobKeyNotFound  = errors.New("blob key not found")
	ErrTxnWrongType     = errors.New("invalid transaction type")
	ErrNilTxn           = errors.New("nil transaction")
	ErrNoStoreAvailable = errors.New("no store available")
	// ErrSnapshotNotFound is returned when no crowdsale state has been
	// committed yet
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrPayoutNotFound   = errors.New("payout not found")
)

// Txn is a store transaction
type Txn interface {
	Commit() error
	Rollback() error
}

// BigInt stores a big.Int as a decimal string column
//
//nolint:recvcheck
type BigInt struct {
	*big.Int
}

func NewBigInt(v *big.Int) BigInt {
	if v == nil {
		return BigInt{Int: new(big.Int)}
	}
	return BigInt{Int: new(big.Int).Set(v)}
}

func (b BigInt) Value() (driver.Value, error) {
	if b.Int == nil {
		return "0", nil
	}
	return b.String(), nil
}

func (b *BigInt) Scan(val any) error {
	var v string
	switch tmp := val.(type) {
	case string:
		v = tmp
	case []byte:
		v = string(tmp)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if b.Int == nil {
		b.Int = new(big.Int)
	}
	if _, ok := b.SetString(v, 10); !ok {
		return fmt.Errorf("failed to set big.Int value from string: %s", v)
	}
	return nil
}

// Copy returns the value as a new big.Int, mapping nil to zero
func (b BigInt) Copy() *big.Int {
	if b.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.Int)
}

//nolint:recvcheck
type Uint64 uint64

func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

func (u *Uint64) Scan(val any) error {
	var v string
	switch tmp := val.(type) {
	case string:
		v = tmp
	case []byte:
		v = string(tmp)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmpUint, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return err
	}
	*u = Uint64(tmpUint)
	return nil
}

// Address stores an account address as a hex string column
//
//nolint:recvcheck
type Address common.Address

func (a Address) Value() (driver.Value, error) {
	return common.Address(a).Hex(), nil
}

func (a *Address) Scan(val any) error {
	var v string
	switch tmp := val.(type) {
	case string:
		v = tmp
	case []byte:
		v = string(tmp)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if !common.IsHexAddress(v) {
		return fmt.Errorf("invalid address: %s", v)
	}
	*a = Address(common.HexToAddress(v))
	return nil
}

func (a Address) Address() common.Address {
	return common.Address(a)
}
