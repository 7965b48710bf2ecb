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
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blinklabs-io/crowdsale"
)

const (
	CallerHeader = "X-Caller-Address"
	BlockHeader  = "X-Block-Number"
)

type callerCtxKey struct{}

// callerMiddleware requires a valid caller address header
func (s *Server) callerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get(CallerHeader)
		if err := s.validate.Var(caller, "required,eth_addr"); err != nil {
			writeError(w, http.StatusBadRequest, "missing or invalid "+CallerHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), callerCtxKey{}, common.HexToAddress(caller))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// call builds the operation context of a request
func (s *Server) call(r *http.Request) (crowdsale.Call, error) {
	caller, _ := r.Context().Value(callerCtxKey{}).(common.Address)
	ret := crowdsale.Call{
		Caller: caller,
		Now:    s.config.Clock(),
	}
	if blockStr := r.Header.Get(BlockHeader); blockStr != "" {
		block, err := strconv.ParseUint(blockStr, 10, 64)
		if err != nil {
			return ret, err
		}
		ret.Block = block
	}
	return ret, nil
}

// loggingMiddleware logs every request and records request metrics
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.requests.WithLabelValues(
				r.Method,
				route,
				strconv.Itoa(status),
			).Inc()
			s.metrics.duration.WithLabelValues(r.Method, route).
				Observe(time.Since(start).Seconds())
		}
		s.logger.Debug(
			"request served",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}
