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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// Handler returns the API router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	if s.config.RateLimit > 0 {
		r.Use(httprate.Limit(
			s.config.RateLimit,
			s.config.RateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sale", s.handleSale)
		r.Get("/deposits/{wallet}", s.handleDeposit)
		r.Get("/deposits/{wallet}/claimable", s.handleClaimable)
		r.Get("/deals", s.handleDeals)
		r.Get("/invoices", s.handleInvoices)
		r.Get("/events", s.handleEvents)
		r.Get("/payouts", s.handlePayouts)

		r.Group(func(r chi.Router) {
			r.Use(s.callerMiddleware)
			r.Post("/contributions", s.handleContribution)
			r.Post("/claims", s.handleClaim)
			r.Post("/refunds", s.handleRefund)
			r.Post("/finish", s.handleFinish)
			r.Post("/kyc", s.handleKyc)
			r.Post("/timelocks", s.handleAssignTimeLock)
			r.Delete("/timelocks/{wallet}", s.handleDeleteTimeLock)
			r.Post("/deals", s.handleUpsertDeal)
			r.Delete("/deals/{investor}", s.handleDeleteDeal)
			r.Post("/invoices", s.handleUpsertInvoice)
			r.Delete("/invoices/{investor}", s.handleDeleteInvoice)
			r.Post("/token/lock", s.handleLockTokens)
			r.Post("/token/unlock", s.handleUnlockTokens)
			r.Post("/rate", s.handleSetRate)
			r.Post("/payouts/{id}/sent", s.handlePayoutSent)
		})
	})
	return r
}
