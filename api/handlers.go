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
	"net/http"
	"strconv"

	"github.com/blinklabs-io/supersig/internal/version"
	"github.com/blinklabs-io/supersig/types"
)

const apiName = "supersig"

func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
		RequestID:  requestID(r.Context()),
	})
}

// writeEngineError maps engine errors onto HTTP status codes
func (s *Server) writeEngineError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	switch {
	case errors.Is(err, types.ErrNotSupersig),
		errors.Is(err, types.ErrCallNotFound):
		writeError(w, r, http.StatusNotFound, "Not Found", err.Error())
	default:
		s.logger.Error(
			"request failed",
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeError(
			w,
			r,
			http.StatusInternalServerError,
			"Internal Server Error",
			"An unexpected response was received from the backend.",
		)
	}
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, "Bad Request", message)
}

// unitAddress accepts either a unit address or a numeric unit ID
func (s *Server) unitAddress(r *http.Request) (types.Address, error) {
	raw := r.PathValue("unit")
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return s.engine.UnitAddress(types.UnitID(id))
	}
	return types.ParseAddress(raw)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    apiName,
		Version: version.GetVersionString(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

// handleAccountUnits handles GET /api/v0/accounts/{account}/units
func (s *Server) handleAccountUnits(w http.ResponseWriter, r *http.Request) {
	account, err := types.ParseAddress(r.PathValue("account"))
	if err != nil {
		writeBadRequest(w, r, "Invalid account address.")
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid pagination parameters.")
		return
	}
	ids, err := s.engine.UnitsForAccount(r.Context(), account)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	ret := make([]AccountUnitResponse, 0, len(ids))
	for _, id := range ids {
		addr, err := s.engine.UnitAddress(id)
		if err != nil {
			s.writeEngineError(w, r, err)
			return
		}
		ret = append(ret, AccountUnitResponse{ID: id, Address: addr})
	}
	writeJSON(w, http.StatusOK, Paginate(w, ret, params))
}

// handleUnit handles GET /api/v0/units/{unit}
func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	addr, err := s.unitAddress(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid unit.")
		return
	}
	info, err := s.engine.Unit(r.Context(), addr)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUnitResponse(info))
}

// handleUnitMembers handles GET /api/v0/units/{unit}/members
func (s *Server) handleUnitMembers(w http.ResponseWriter, r *http.Request) {
	addr, err := s.unitAddress(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid unit.")
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid pagination parameters.")
		return
	}
	members, err := s.engine.ListMembers(r.Context(), addr)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	ret := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		ret = append(ret, MemberResponse{Account: m.Account, Role: m.Role})
	}
	writeJSON(w, http.StatusOK, Paginate(w, ret, params))
}

// handleUnitProposals handles GET /api/v0/units/{unit}/proposals
func (s *Server) handleUnitProposals(w http.ResponseWriter, r *http.Request) {
	addr, err := s.unitAddress(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid unit.")
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid pagination parameters.")
		return
	}
	list, err := s.engine.ListProposals(r.Context(), addr)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	proposals := make([]ProposalResponse, 0, len(list.Proposals))
	for _, p := range list.Proposals {
		proposals = append(proposals, newProposalResponse(p))
	}
	writeJSON(w, http.StatusOK, ProposalsResponse{
		MemberCount: list.MemberCount,
		Proposals:   Paginate(w, proposals, params),
	})
}

// handleUnitProposal handles GET /api/v0/units/{unit}/proposals/{call}
func (s *Server) handleUnitProposal(w http.ResponseWriter, r *http.Request) {
	addr, err := s.unitAddress(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid unit.")
		return
	}
	call, err := strconv.ParseUint(r.PathValue("call"), 10, 64)
	if err != nil {
		writeBadRequest(w, r, "Invalid call ID.")
		return
	}
	state, err := s.engine.GetProposalState(r.Context(), addr, types.CallID(call))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProposalResponse(*state))
}

// handleUnitExecutions handles GET /api/v0/units/{unit}/executions
func (s *Server) handleUnitExecutions(w http.ResponseWriter, r *http.Request) {
	addr, err := s.unitAddress(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid unit.")
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, r, "Invalid pagination parameters.")
		return
	}
	records, err := s.engine.ListExecutions(r.Context(), addr)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	ret := make([]ExecutionResponse, 0, len(records))
	for _, rec := range records {
		ret = append(ret, ExecutionResponse{
			ExecutedAt: rec.ExecutedAt.UTC(),
			Error:      rec.Error,
			Provider:   rec.Provider,
			CallID:     rec.CallID,
			Success:    rec.Success,
		})
	}
	writeJSON(w, http.StatusOK, Paginate(w, ret, params))
}
