package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// registerRequest mirrors the JSON schema for POST /api/v1/players.
type registerRequest struct {
	DisplayName string `json:"display_name"`
}

func (p registerRequest) validate() error {
	if strings.TrimSpace(p.DisplayName) == "" {
		return errors.New("missing display_name")
	}
	return nil
}

// handleRegisterPlayer handles POST /api/v1/players requests.
func (s *Server) handleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_player"

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	player, err := s.svc.RegisterPlayer(r.Context(), strings.TrimSpace(req.DisplayName))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

// handleGetPlayer handles GET /api/v1/players/{playerID} requests.
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"

	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	player, err := s.svc.GetPlayer(r.Context(), playerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}
