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
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/blinklabs-io/crowdsale"
	"github.com/blinklabs-io/crowdsale/database/types"
	"github.com/blinklabs-io/crowdsale/ledger"
	ctypes "github.com/blinklabs-io/crowdsale/types"
)

const maxBodySize = 1 << 16

// decodeRequest decodes and validates a JSON body, writing a 400 response
// on failure
func decodeRequest[T any](s *Server, w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return req, false
	}
	if err := s.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fieldErr := validationErrs[0]
			writeError(
				w,
				http.StatusBadRequest,
				"invalid field "+fieldErr.Field()+": failed "+fieldErr.Tag(),
			)
			return req, false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

// parseAmount parses a validated decimal amount. An empty value is zero.
func parseAmount(v string) *big.Int {
	ret, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return new(big.Int)
	}
	return ret
}

// operationCall builds the call of a request, writing a 400 response on
// failure
func (s *Server) operationCall(w http.ResponseWriter, r *http.Request) (crowdsale.Call, bool) {
	call, err := s.call(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+BlockHeader+" header")
		return call, false
	}
	return call, true
}

func (s *Server) writeAmount(w http.ResponseWriter, amount *big.Int) {
	writeJSON(w, http.StatusOK, AmountResponse{Amount: ctypes.CopyInt(amount).String()})
}

func (s *Server) handleContribution(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[ContributionRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	call.Value = parseAmount(req.Value)
	tokens, err := s.sale.ReceiveContribution(r.Context(), call)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	s.writeAmount(w, tokens)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[WalletRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	amount, err := s.sale.Claim(r.Context(), call, addressOrZero(req.Wallet))
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	s.writeAmount(w, amount)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[WalletRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	amount, err := s.sale.RefundDeposit(r.Context(), call, addressOrZero(req.Wallet))
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	s.writeAmount(w, amount)
}

// writeResult writes the outcome of an operation without a result value
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(w, r, s.sale.FinishCrowdsale(r.Context(), call))
}

func (s *Server) handleKyc(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[KycRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(
		w,
		r,
		s.sale.UpdateInvestorKYC(r.Context(), call, addressOrZero(req.Wallet), *req.Passed),
	)
}

func (s *Server) handleAssignTimeLock(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[TimeLockRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	lock := ledger.TimeLock{
		MainCliffAmountPercent:       req.MainCliffAmountPercent,
		MainCliffTime:                req.MainCliffTime,
		AdditionalCliffAmountPercent: req.AdditionalCliffAmountPercent,
		AdditionalCliffTime:          req.AdditionalCliffTime,
	}
	s.writeResult(
		w,
		r,
		s.sale.AssignDepositTimeLock(r.Context(), call, addressOrZero(req.Wallet), lock),
	)
}

func (s *Server) handleDeleteTimeLock(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.pathAddress(w, r, "wallet")
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(w, r, s.sale.DeleteDepositTimeLock(r.Context(), call, wallet))
}

func (s *Server) handleUpsertDeal(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[DealRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	deal := ctypes.Deal{
		IncomeWallet:      addressOrZero(req.IncomeWallet),
		BonusWallet:       addressOrZero(req.BonusWallet),
		MinWeiAmount:      parseAmount(req.MinWeiAmount),
		BonusRate:         parseAmount(req.BonusRate),
		BonusDeadline:     req.BonusDeadline,
		BonusSharePercent: req.BonusSharePercent,
	}
	s.writeResult(
		w,
		r,
		s.sale.AddUpdatePreSaleDeal(r.Context(), call, addressOrZero(req.Investor), deal),
	)
}

func (s *Server) handleDeleteDeal(w http.ResponseWriter, r *http.Request) {
	investor, ok := s.pathAddress(w, r, "investor")
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(w, r, s.sale.DeletePreSaleDeal(r.Context(), call, investor))
}

func (s *Server) handleUpsertInvoice(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[InvoiceRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	invoice := ctypes.Invoice{
		TokenAmount: parseAmount(req.TokenAmount),
		ExternalID:  req.ExternalID,
	}
	s.writeResult(
		w,
		r,
		s.sale.AddUpdateInvoice(r.Context(), call, addressOrZero(req.Investor), invoice),
	)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	investor, ok := s.pathAddress(w, r, "investor")
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(w, r, s.sale.DeleteInvoice(r.Context(), call, investor))
}

func (s *Server) handleLockTokens(w http.ResponseWriter, r *http.Request) {
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(w, r, s.sale.LockTokens(r.Context(), call))
}

func (s *Server) handleUnlockTokens(w http.ResponseWriter, r *http.Request) {
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(w, r, s.sale.UnlockTokens(r.Context(), call))
}

func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[RateRequest](s, w, r)
	if !ok {
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	s.writeResult(w, r, s.sale.SetRate(r.Context(), call, parseAmount(req.Rate)))
}

func (s *Server) handlePayoutSent(w http.ResponseWriter, r *http.Request) {
	if s.payouts == nil {
		writeError(w, http.StatusNotFound, "payout outbox not available")
		return
	}
	call, ok := s.operationCall(w, r)
	if !ok {
		return
	}
	if s.admins == nil || !s.admins.IsAdmin(call.Caller) {
		writeError(w, http.StatusForbidden, ctypes.ErrUnauthorized.Error())
		return
	}
	err := s.payouts.MarkPayoutSent(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, types.ErrPayoutNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeResult(w, r, err)
}
