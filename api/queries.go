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
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/blinklabs-io/crowdsale/types"
)

func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleSale(
	w http.ResponseWriter,
	_ *http.Request,
) {
	now := s.config.Clock()
	win := s.sale.Window()
	finishTime, finished := s.sale.FinishTime()
	writeJSON(w, http.StatusOK, SaleResponse{
		State:          s.sale.State(now).String(),
		Now:            now,
		OpeningTime:    win.OpeningTime,
		ClosingTime:    win.ClosingTime,
		Rate:           s.sale.Rate().String(),
		Raised:         s.sale.TotalRaised().String(),
		SoftCapReached: s.sale.SoftCapReached(),
		HardCapReached: s.sale.HardCapReached(),
		Finished:       finished,
		FinishTime:     finishTime,
		RefundMode:     s.sale.RefundMode(),
		BonusPercent:   s.sale.BonusPercentAt(now),
	})
}

// pathAddress parses an address URL parameter, writing a 400 response when
// it is invalid
func (s *Server) pathAddress(
	w http.ResponseWriter,
	r *http.Request,
	name string,
) (common.Address, bool) {
	value := chi.URLParam(r, name)
	if err := s.validate.Var(value, "required,eth_addr"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" address")
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// queryUint parses an optional unsigned query parameter
func queryUint(r *http.Request, name string, def uint64) (uint64, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return def, nil
	}
	return strconv.ParseUint(value, 10, 64)
}

func (s *Server) handleDeposit(
	w http.ResponseWriter,
	r *http.Request,
) {
	wallet, ok := s.pathAddress(w, r, "wallet")
	if !ok {
		return
	}
	entry, ok := s.sale.Deposit(wallet)
	if !ok {
		writeError(w, http.StatusNotFound, "no deposit for "+wallet.Hex())
		return
	}
	writeJSON(w, http.StatusOK, newDepositResponse(entry))
}

func (s *Server) handleClaimable(
	w http.ResponseWriter,
	r *http.Request,
) {
	wallet, ok := s.pathAddress(w, r, "wallet")
	if !ok {
		return
	}
	at, err := queryUint(r, "at", s.config.Clock())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid at parameter")
		return
	}
	writeJSON(w, http.StatusOK, ClaimableResponse{
		Wallet:    wallet.Hex(),
		At:        at,
		Claimable: s.sale.ClaimableAt(wallet, at).String(),
	})
}

func (s *Server) handleDeals(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, ok := s.pageParams(w, r)
	if !ok {
		return
	}
	records := paginate(w, s.sale.Deals(), params)
	ret := make([]DealResponse, 0, len(records))
	for _, record := range records {
		ret = append(ret, DealResponse{
			Investor:          record.Investor.Hex(),
			IncomeWallet:      record.Deal.IncomeWallet.Hex(),
			BonusWallet:       record.Deal.BonusWallet.Hex(),
			MinWeiAmount:      types.CopyInt(record.Deal.MinWeiAmount).String(),
			BonusRate:         types.CopyInt(record.Deal.BonusRate).String(),
			BonusDeadline:     record.Deal.BonusDeadline,
			BonusSharePercent: record.Deal.BonusSharePercent,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleInvoices(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, ok := s.pageParams(w, r)
	if !ok {
		return
	}
	records := paginate(w, s.sale.Invoices(), params)
	ret := make([]InvoiceResponse, 0, len(records))
	for _, record := range records {
		ret = append(ret, InvoiceResponse{
			Investor:    record.Investor.Hex(),
			TokenAmount: types.CopyInt(record.Invoice.TokenAmount).String(),
			ExternalID:  record.Invoice.ExternalID,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "event journal not available")
		return
	}
	after, err := queryUint(r, "after", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid after parameter")
		return
	}
	limit, err := queryUint(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit parameter")
		return
	}
	evts, err := s.journal.Events(after, int(min(limit, 1000))) // #nosec G115
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	ret := make([]EventResponse, 0, len(evts))
	for _, evt := range evts {
		ret = append(ret, EventResponse{
			Sequence:  evt.Sequence,
			ID:        evt.ID,
			Type:      string(evt.Type),
			Block:     evt.Block,
			Timestamp: evt.Timestamp,
			Data:      evt.Data,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handlePayouts(
	w http.ResponseWriter,
	r *http.Request,
) {
	if s.payouts == nil {
		writeError(w, http.StatusNotFound, "payout outbox not available")
		return
	}
	params, ok := s.pageParams(w, r)
	if !ok {
		return
	}
	payouts, err := s.payouts.Payouts(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	payouts = paginate(w, payouts, params)
	ret := make([]PayoutResponse, 0, len(payouts))
	for _, payout := range payouts {
		ret = append(ret, PayoutResponse{
			ID:        payout.ID,
			Recipient: payout.Recipient.Hex(),
			Amount:    types.CopyInt(payout.Amount).String(),
			Status:    payout.Status,
			CreatedAt: payout.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}
