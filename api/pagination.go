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
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPageCount = 100
	MaxPageCount     = 100
	DefaultPage      = 1
	OrderAsc         = "asc"
	OrderDesc        = "desc"

	CountTotalHeader = "X-Pagination-Count-Total"
	PageTotalHeader  = "X-Pagination-Page-Total"
)

var ErrInvalidPageParameters = errors.New("invalid pagination parameters")

// PageParams contains parsed pagination query values
type PageParams struct {
	Count int
	Page  int
	Order string
}

// parsePageParams parses the count, page and order query parameters,
// applying defaults and clamping bounds
func parsePageParams(r *http.Request) (PageParams, error) {
	params := PageParams{
		Count: DefaultPageCount,
		Page:  DefaultPage,
		Order: OrderAsc,
	}
	query := r.URL.Query()
	if countParam := query.Get("count"); countParam != "" {
		count, err := strconv.Atoi(countParam)
		if err != nil {
			return PageParams{}, ErrInvalidPageParameters
		}
		params.Count = count
	}
	if pageParam := query.Get("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil {
			return PageParams{}, ErrInvalidPageParameters
		}
		params.Page = page
	}
	if orderParam := query.Get("order"); orderParam != "" {
		order := strings.ToLower(orderParam)
		switch order {
		case OrderAsc, OrderDesc:
			params.Order = order
		default:
			return PageParams{}, ErrInvalidPageParameters
		}
	}
	params.Count = min(max(params.Count, 1), MaxPageCount)
	params.Page = max(params.Page, 1)
	return params, nil
}

// setPageHeaders reports the total item and page counts
func setPageHeaders(w http.ResponseWriter, totalItems int, params PageParams) {
	totalItems = max(totalItems, 0)
	if params.Count < 1 {
		params.Count = DefaultPageCount
	}
	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + params.Count - 1) / params.Count
	}
	w.Header().Set(CountTotalHeader, strconv.Itoa(totalItems))
	w.Header().Set(PageTotalHeader, strconv.Itoa(totalPages))
}

// paginate returns the requested page of items and sets the page headers.
// Items are in registry order, reversed for descending order.
func paginate[T any](w http.ResponseWriter, items []T, params PageParams) []T {
	setPageHeaders(w, len(items), params)
	if params.Order == OrderDesc {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := (params.Page - 1) * params.Count
	if start >= len(items) {
		return []T{}
	}
	end := min(start+params.Count, len(items))
	return items[start:end]
}

// pageParams parses the pagination parameters, writing a 400 response on
// failure
func (s *Server) pageParams(w http.ResponseWriter, r *http.Request) (PageParams, bool) {
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return params, false
	}
	return params, true
}
