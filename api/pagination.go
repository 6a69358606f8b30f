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
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount = 100
	MaxPaginationCount     = 100
	DefaultPaginationPage  = 1
	PaginationOrderAsc     = "asc"
	PaginationOrderDesc    = "desc"
)

var ErrInvalidPaginationParameters = errors.New("invalid pagination parameters")

// PaginationParams contains parsed pagination query values
type PaginationParams struct {
	Order string
	Count int
	Page  int
}

// ParsePagination parses the count, page and order query parameters,
// applying defaults and clamping bounds
func ParsePagination(r *http.Request) (PaginationParams, error) {
	params := PaginationParams{
		Count: DefaultPaginationCount,
		Page:  DefaultPaginationPage,
		Order: PaginationOrderAsc,
	}
	query := r.URL.Query()
	if countParam := query.Get("count"); countParam != "" {
		count, err := strconv.Atoi(countParam)
		if err != nil {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
		params.Count = count
	}
	if pageParam := query.Get("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
		params.Page = page
	}
	if orderParam := query.Get("order"); orderParam != "" {
		order := strings.ToLower(orderParam)
		switch order {
		case PaginationOrderAsc, PaginationOrderDesc:
			params.Order = order
		default:
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
	}
	params.Count = min(max(params.Count, 1), MaxPaginationCount)
	params.Page = max(params.Page, 1)
	return params, nil
}

// Paginate returns the page of items selected by params and sets the total
// count headers
func Paginate[T any](w http.ResponseWriter, items []T, params PaginationParams) []T {
	total := len(items)
	totalPages := (total + params.Count - 1) / params.Count
	w.Header().Set("X-Pagination-Count-Total", strconv.Itoa(total))
	w.Header().Set("X-Pagination-Page-Total", strconv.Itoa(totalPages))
	ordered := items
	if params.Order == PaginationOrderDesc {
		ordered = make([]T, total)
		for i, item := range items {
			ordered[total-1-i] = item
		}
	}
	start := (params.Page - 1) * params.Count
	if start >= total {
		return []T{}
	}
	end := min(start+params.Count, total)
	return ordered[start:end]
}
