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

package sqlite

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/crowdsale/database/models"
	"github.com/blinklabs-io/crowdsale/database/types"
	ctypes "github.com/blinklabs-io/crowdsale/types"
)

func newTestStore(t *testing.T, opts ...MetadataStoreOptionFunc) *MetadataStoreSqlite {
	t.Helper()
	store, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func testSnapshot() *ctypes.Snapshot {
	return &ctypes.Snapshot{
		Sale: ctypes.SaleSnapshot{
			OpeningTime: 1000,
			ClosingTime: 2000,
			Rate:        big.NewInt(500),
			SoftCap:     big.NewInt(10),
			HardCap:     new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil),
			Raised:      big.NewInt(7),
			Block:       42,
		},
		Deposits: []*ctypes.DepositEntry{
			{
				Investor:               common.HexToAddress("0x02"),
				DepositedTokens:        big.NewInt(3500),
				TransferredTokens:      big.NewInt(0),
				DepositedValue:         big.NewInt(7),
				KycPassed:              true,
				MainCliffAmountPercent: 80,
				MainCliffTime:          3000,
			},
			{
				Investor:          common.HexToAddress("0x01"),
				IncomeWallet:      common.HexToAddress("0x0a"),
				BonusWallet:       common.HexToAddress("0x0b"),
				BonusSharePercent: 10,
				DepositedTokens:   big.NewInt(0),
				TransferredTokens: big.NewInt(0),
				DepositedValue:    big.NewInt(0),
			},
		},
		KycPassed: []common.Address{common.HexToAddress("0x02")},
		Deals: []ctypes.DealRecord{
			{
				Investor: common.HexToAddress("0x05"),
				Deal: ctypes.Deal{
					IncomeWallet:      common.HexToAddress("0x0a"),
					BonusWallet:       common.HexToAddress("0x0b"),
					MinWeiAmount:      big.NewInt(1),
					BonusRate:         big.NewInt(50),
					BonusDeadline:     1500,
					BonusSharePercent: 10,
				},
			},
			{
				Investor: common.HexToAddress("0x03"),
				Deal: ctypes.Deal{
					MinWeiAmount: big.NewInt(2),
					BonusRate:    big.NewInt(0),
				},
			},
		},
		Invoices: []ctypes.InvoiceRecord{
			{
				Investor: common.HexToAddress("0x04"),
				Invoice: ctypes.Invoice{
					TokenAmount: big.NewInt(900),
					ExternalID:  "inv-1",
				},
			},
		},
	}
}

// requireSnapshotEqual compares by value. big.Int internals differ between
// constructed and parsed values.
func requireSnapshotEqual(t *testing.T, expected, actual *ctypes.Snapshot) {
	t.Helper()
	expectedJson, err := json.Marshal(expected)
	require.NoError(t, err)
	actualJson, err := json.Marshal(actual)
	require.NoError(t, err)
	require.JSONEq(t, string(expectedJson), string(actualJson))
}

func TestSnapshotNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSnapshot(nil)
	require.ErrorIs(t, err, types.ErrSnapshotNotFound)
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, batchSize := range []int{DefaultSnapshotBatchSize, 1} {
		store := newTestStore(t, WithSnapshotBatchSize(batchSize))
		snapshot := testSnapshot()
		require.NoError(t, store.SetSnapshot(snapshot, nil))
		loaded, err := store.GetSnapshot(nil)
		require.NoError(t, err)
		requireSnapshotEqual(t, snapshot, loaded)
	}
}

func TestSnapshotReplacesCollections(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetSnapshot(testSnapshot(), nil))
	snapshot := testSnapshot()
	// Swap-and-pop order after deleting the first deal
	snapshot.Deals = snapshot.Deals[1:]
	snapshot.Invoices = nil
	snapshot.Sale.Finished = true
	snapshot.Sale.FinishTime = 2100
	require.NoError(t, store.SetSnapshot(snapshot, nil))
	loaded, err := store.GetSnapshot(nil)
	require.NoError(t, err)
	require.Len(t, loaded.Deals, 1)
	require.Equal(t, common.HexToAddress("0x03"), loaded.Deals[0].Investor)
	require.Empty(t, loaded.Invoices)
	require.True(t, loaded.Sale.Finished)
	require.Equal(t, uint64(2100), loaded.Sale.FinishTime)
}

func TestSnapshotTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetSnapshot(testSnapshot(), nil))
	txn, err := store.NewTransaction(context.Background())
	require.NoError(t, err)
	snapshot := testSnapshot()
	snapshot.Sale.Raised = big.NewInt(999)
	require.NoError(t, store.SetSnapshot(snapshot, txn))
	require.NoError(t, store.SetCommitMarker(types.CommitMarker{Timestamp: 1234, JournalSequence: 3}, txn))
	require.NoError(t, txn.Rollback())
	loaded, err := store.GetSnapshot(nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), loaded.Sale.Raised.Int64())
	marker, err := store.GetCommitMarker()
	require.NoError(t, err)
	require.True(t, marker.IsZero())
	// A finished transaction cannot be reused
	require.Error(t, store.SetSnapshot(snapshot, txn))
}

func TestCommitMarker(t *testing.T) {
	store := newTestStore(t)
	marker, err := store.GetCommitMarker()
	require.NoError(t, err)
	require.True(t, marker.IsZero())
	require.NoError(t, store.SetCommitMarker(types.CommitMarker{Timestamp: 100, JournalSequence: 1}, nil))
	require.NoError(t, store.SetCommitMarker(types.CommitMarker{Timestamp: 200, JournalSequence: 4}, nil))
	marker, err = store.GetCommitMarker()
	require.NoError(t, err)
	require.Equal(t, types.CommitMarker{Timestamp: 200, JournalSequence: 4}, marker)
}

func TestTokenState(t *testing.T) {
	store := newTestStore(t)
	_, _, found, err := store.GetTokenState(nil)
	require.NoError(t, err)
	require.False(t, found)

	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")
	require.NoError(t, store.SetTokenBalance(alice, big.NewInt(100), big.NewInt(100), nil))
	require.NoError(t, store.SetTokenBalance(bob, big.NewInt(50), big.NewInt(150), nil))
	require.NoError(t, store.SetTokenBalance(alice, big.NewInt(0), big.NewInt(50), nil))
	balances, locked, found, err := store.GetTokenState(nil)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, locked)
	require.Len(t, balances, 1)
	require.Equal(t, int64(50), balances[bob].Int64())

	require.NoError(t, store.SetTransferLock(false, nil))
	_, locked, _, err = store.GetTokenState(nil)
	require.NoError(t, err)
	require.False(t, locked)
}

func TestPayouts(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := newTestStore(t, WithPromRegistry(reg))
	recipient := common.HexToAddress("0x0a")
	require.NoError(t, store.AddPayout(&models.Payout{
		PayoutID:  "p1",
		Recipient: types.Address(recipient),
		Amount:    types.NewBigInt(big.NewInt(5)),
		Status:    models.PayoutStatusPending,
	}, nil))
	require.NoError(t, store.AddPayout(&models.Payout{
		PayoutID:  "p2",
		Recipient: types.Address(recipient),
		Amount:    types.NewBigInt(big.NewInt(6)),
		Status:    models.PayoutStatusPending,
	}, nil))
	require.NoError(t, store.SetPayoutStatus("p1", models.PayoutStatusSent, nil))
	require.ErrorIs(
		t,
		store.SetPayoutStatus("missing", models.PayoutStatusSent, nil),
		types.ErrPayoutNotFound,
	)
	pending, err := store.GetPayouts(models.PayoutStatusPending, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "p2", pending[0].PayoutID)
	require.Equal(t, recipient, pending[0].Recipient.Address())
	all, err := store.GetPayouts("", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != "crowdsale_sqlite_payouts_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	require.InDelta(t, 3, total, 0)
}

func TestFileBackedStore(t *testing.T) {
	dataDir := t.TempDir()
	store, err := New(WithDataDir(dataDir))
	require.NoError(t, err)
	require.NoError(t, store.SetSnapshot(testSnapshot(), nil))
	require.NoError(t, store.Close())

	store = newTestStore(t, WithDataDir(dataDir))
	loaded, err := store.GetSnapshot(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(42), loaded.Sale.Block)
}

func TestPeriodicVacuum(t *testing.T) {
	store := newTestStore(
		t,
		WithDataDir(t.TempDir()),
		WithPromRegistry(prometheus.NewRegistry()),
		WithVacuumInterval(10*time.Millisecond),
	)
	require.NoError(t, store.SetSnapshot(testSnapshot(), nil))
	require.Eventually(
		t,
		func() bool {
			return testutil.ToFloat64(store.metrics.vacuums) >= 1
		},
		5*time.Second,
		10*time.Millisecond,
	)
}
