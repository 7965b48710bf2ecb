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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/crowdsale"
	"github.com/blinklabs-io/crowdsale/admin"
	"github.com/blinklabs-io/crowdsale/database"
	dbtypes "github.com/blinklabs-io/crowdsale/database/types"
	"github.com/blinklabs-io/crowdsale/event"
	"github.com/blinklabs-io/crowdsale/internal/config"
	"github.com/blinklabs-io/crowdsale/token"
)

// Sale bundles the crowdsale state machine with its collaborators
type Sale struct {
	Crowdsale *crowdsale.Crowdsale
	Admins    *admin.List
	Tokens    *token.Book
}

// OpenSale restores the crowdsale from the database, or creates it from the
// configured parameters and stores its initial state when the database is
// empty
func OpenSale(
	ctx context.Context,
	cfg *config.Config,
	db *database.Database,
	eventBus *event.EventBus,
	promRegistry prometheus.Registerer,
	tracerProvider trace.TracerProvider,
	logger *slog.Logger,
) (*Sale, error) {
	owner, err := cfg.OwnerAddress()
	if err != nil {
		return nil, err
	}
	adminAddrs, err := cfg.AdminAddresses()
	if err != nil {
		return nil, err
	}
	admins, err := admin.New(owner, adminAddrs...)
	if err != nil {
		return nil, err
	}
	schedule, err := cfg.BonusSchedule()
	if err != nil {
		return nil, err
	}
	bookOpts := []token.BookOptionFunc{
		token.WithLogger(logger),
	}
	tokenState, err := db.LoadTokenState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token state: %w", err)
	}
	if tokenState != nil {
		bookOpts = append(
			bookOpts,
			token.WithState(tokenState.Balances, tokenState.TransferLocked),
		)
	}
	book, err := token.New(owner, bookOpts...)
	if err != nil {
		return nil, err
	}
	opts := []crowdsale.ConfigOptionFunc{
		crowdsale.WithLogger(logger),
		crowdsale.WithEventBus(eventBus),
		crowdsale.WithStore(db),
		crowdsale.WithAdminRegistry(admins),
		crowdsale.WithTokenLedger(book),
		crowdsale.WithBonusSchedule(schedule),
	}
	if promRegistry != nil {
		opts = append(opts, crowdsale.WithPrometheusRegistry(promRegistry))
	}
	if tracerProvider != nil {
		opts = append(opts, crowdsale.WithTracerProvider(tracerProvider))
	}
	ret := &Sale{
		Admins: admins,
		Tokens: book,
	}
	snapshot, err := db.LoadSnapshot(ctx)
	switch {
	case err == nil:
		ret.Crowdsale, err = crowdsale.Restore(snapshot, opts...)
		if err != nil {
			return nil, fmt.Errorf("restore crowdsale: %w", err)
		}
		logger.Info(
			"restored crowdsale state",
			"component", "node",
			"raised", ret.Crowdsale.TotalRaised().String(),
			"journal_sequence", db.LastSequence(),
		)
		return ret, nil
	case errors.Is(err, dbtypes.ErrSnapshotNotFound):
	default:
		return nil, fmt.Errorf("load crowdsale state: %w", err)
	}
	params, err := cfg.SaleParams()
	if err != nil {
		return nil, err
	}
	now := uint64(time.Now().Unix()) // #nosec G115
	ret.Crowdsale, err = crowdsale.New(params, now, opts...)
	if err != nil {
		return nil, fmt.Errorf("create crowdsale: %w", err)
	}
	if err := db.Commit(ctx, ret.Crowdsale.Snapshot(), nil, nil); err != nil {
		return nil, fmt.Errorf("store initial crowdsale state: %w", err)
	}
	logger.Info(
		"created crowdsale",
		"component", "node",
		"opening_time", params.OpeningTime,
		"closing_time", params.ClosingTime,
	)
	return ret, nil
}
