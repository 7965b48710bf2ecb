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

package token_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/crowdsale/token"
	"github.com/blinklabs-io/crowdsale/types"
)

var (
	owner  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	holder = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	other  = common.HexToAddress("0x00000000000000000000000000000000000000e3")
)

func TestStageCredits(t *testing.T) {
	book, err := token.New(
		owner,
		token.WithState(map[common.Address]*big.Int{holder: big.NewInt(10)}, true),
	)
	require.NoError(t, err)
	require.True(t, book.TransferLocked())
	require.Equal(t, owner, book.Owner())

	balances, totalSupply, err := book.StageCredits([]types.TokenCredit{
		{Account: holder, Amount: big.NewInt(5)},
		{Account: other, Amount: big.NewInt(7)},
		{Account: holder, Amount: big.NewInt(1)},
	})
	require.NoError(t, err)
	require.Equal(
		t,
		[]types.TokenBalance{
			{Account: holder, Balance: big.NewInt(16)},
			{Account: other, Balance: big.NewInt(7)},
		},
		balances,
	)
	require.Equal(t, int64(23), totalSupply.Int64())
	// Staging leaves the book alone
	require.Equal(t, int64(10), book.BalanceOf(holder).Int64())
	require.Equal(t, int64(10), book.TotalSupply().Int64())

	_, _, err = book.StageCredits([]types.TokenCredit{{Account: holder, Amount: big.NewInt(0)}})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	_, _, err = book.StageCredits([]types.TokenCredit{{Amount: big.NewInt(1)}})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestApply(t *testing.T) {
	book, err := token.New(owner)
	require.NoError(t, err)
	balances, totalSupply, err := book.StageCredits([]types.TokenCredit{
		{Account: holder, Amount: big.NewInt(100)},
	})
	require.NoError(t, err)
	unlocked := false
	book.Apply(&types.Effects{
		Balances:     balances,
		TotalSupply:  totalSupply,
		TransferLock: &unlocked,
	})
	require.Equal(t, int64(100), book.BalanceOf(holder).Int64())
	require.Equal(t, int64(100), book.TotalSupply().Int64())
	require.False(t, book.TransferLocked())

	// Applied balances are copies
	balances[0].Balance.SetInt64(1)
	require.Equal(t, int64(100), book.BalanceOf(holder).Int64())

	book.Apply(nil)
	book.Apply(&types.Effects{})
	require.Equal(t, int64(100), book.TotalSupply().Int64())
	require.False(t, book.TransferLocked())
}

func TestWithState(t *testing.T) {
	book, err := token.New(
		owner,
		token.WithState(map[common.Address]*big.Int{holder: big.NewInt(12)}, false),
	)
	require.NoError(t, err)
	require.False(t, book.TransferLocked())
	require.Equal(t, int64(12), book.TotalSupply().Int64())

	_, err = token.New(common.Address{})
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}
