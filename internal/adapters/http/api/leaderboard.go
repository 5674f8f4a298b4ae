package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleTopPlayers handles GET /api/v1/leaderboard/top?limit=N requests.
func (s *Server) handleTopPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard_top"

	limit := s.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		limit = parsed
	}

	top, err := s.svc.GetTopPlayers(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// handlePlayerRank handles GET /api/v1/leaderboard/rank/{playerID} requests.
func (s *Server) handlePlayerRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard_rank"

	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	rank, err := s.svc.GetPlayerRank(r.Context(), playerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}
