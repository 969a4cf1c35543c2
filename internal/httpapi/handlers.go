package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/hyperifyio/sugyasearch/internal/errkind"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

type decipherRequest struct {
	Query string `json:"query"`
}

type decipherConfirmRequest struct {
	English string `json:"english"`
	Hebrew  string `json:"hebrew"`
}

type decipherRejectRequest struct {
	Query string `json:"query"`
}

type searchRequest struct {
	Query          string                `json:"query"`
	DecipherResult *types.DecipherResult `json:"decipher_result,omitempty"`
}

type searchClarifyRequest struct {
	QueryID          string `json:"query_id"`
	SelectedOptionID string `json:"selected_option_id"`
}

func (s *Server) handleDecipher(w http.ResponseWriter, r *http.Request) {
	var req decipherRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	result, err := s.app.Decipher(r.Context(), req.Query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleDecipherConfirm records a user-confirmed English-to-Hebrew mapping
// so subsequent identical queries resolve via the dictionary shortcut.
func (s *Server) handleDecipherConfirm(w http.ResponseWriter, r *http.Request) {
	var req decipherConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.English == "" || req.Hebrew == "" {
		respondError(w, http.StatusBadRequest, "english and hebrew are required")
		return
	}
	if err := s.app.ConfirmDecipher(req.English, req.Hebrew, time.Now()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"confirmed": true})
}

// handleDecipherReject acknowledges a rejected guess. There is nothing to
// persist: a rejected mapping simply never enters the dictionary, so this
// only validates the request shape.
func (s *Server) handleDecipherReject(w http.ResponseWriter, r *http.Request) {
	var req decipherRejectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"rejected": true})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	decipherResult := req.DecipherResult
	if decipherResult == nil {
		d, err := s.app.Decipher(r.Context(), req.Query)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		decipherResult = &d
	}

	result, err := s.app.Search(r.Context(), req.Query, *decipherResult)
	if err != nil && !errors.Is(err, errkind.NotFound) {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearchClarify(w http.ResponseWriter, r *http.Request) {
	var req searchClarifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.QueryID == "" || req.SelectedOptionID == "" {
		respondError(w, http.StatusBadRequest, "query_id and selected_option_id are required")
		return
	}

	result, err := s.app.ResumeClarification(r.Context(), req.QueryID, req.SelectedOptionID)
	if err != nil {
		if errors.Is(err, errkind.NotFound) {
			respondError(w, http.StatusNotFound, "unknown or expired query_id")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
