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

package types_test

import (
	"database/sql"
	"database/sql/driver"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/crowdsale/database/types"
)

func TestTypesScanValue(t *testing.T) {
	testDefs := []struct {
		origValue     any
		expectedValue any
	}{
		{
			origValue: func(v types.Uint64) *types.Uint64 { return &v }(
				types.Uint64(123),
			),
			expectedValue: "123",
		},
		{
			origValue: func(v types.BigInt) *types.BigInt { return &v }(
				types.NewBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)),
			),
			expectedValue: "1000000000000000000000000000000",
		},
		{
			origValue: func(v types.Address) *types.Address { return &v }(
				types.Address(common.HexToAddress("0x00000000000000000000000000000000000000aB")),
			),
			expectedValue: "0x00000000000000000000000000000000000000AB",
		},
	}
	for _, testDef := range testDefs {
		tmpValuer, ok := testDef.origValue.(driver.Valuer)
		require.True(t, ok, "test original value does not implement driver.Valuer")
		valueOut, err := tmpValuer.Value()
		require.NoError(t, err)
		require.Equal(t, testDef.expectedValue, valueOut)
		tmpScanner, ok := testDef.origValue.(sql.Scanner)
		require.True(t, ok, "test original value does not implement sql.Scanner")
		require.NoError(t, tmpScanner.Scan(valueOut))
		require.Equal(t, testDef.origValue, tmpScanner)
	}
}

func TestBigIntScanInvalid(t *testing.T) {
	var v types.BigInt
	require.Error(t, v.Scan(12))
	require.Error(t, v.Scan("12abc"))
	require.NoError(t, v.Scan([]byte("42")))
	require.Equal(t, int64(42), v.Int64())
}

func TestBigIntNilValue(t *testing.T) {
	val, err := types.BigInt{}.Value()
	require.NoError(t, err)
	require.Equal(t, "0", val)
	require.Equal(t, 0, types.BigInt{}.Copy().Sign())
}

func TestEventBlobKey(t *testing.T) {
	key := types.EventBlobKey(258)
	require.Equal(t, []byte{'e', 'v', 0, 0, 0, 0, 0, 0, 1, 2}, key)
	seq, err := types.EventSequenceFromKey(key)
	require.NoError(t, err)
	require.Equal(t, uint64(258), seq)
	_, err = types.EventSequenceFromKey([]byte("ev12"))
	require.Error(t, err)
	// Sequence keys sort numerically
	require.Less(t, string(types.EventBlobKey(255)), string(types.EventBlobKey(256)))
}

func TestCommitMarkerBytes(t *testing.T) {
	marker := types.CommitMarker{Timestamp: 1700000000123, JournalSequence: 42}
	decoded, err := types.CommitMarkerFromBytes(marker.Bytes())
	require.NoError(t, err)
	require.Equal(t, marker, decoded)
	require.False(t, decoded.IsZero())
	require.True(t, types.CommitMarker{}.IsZero())
	_, err = types.CommitMarkerFromBytes([]byte{0x01})
	require.Error(t, err)
}
