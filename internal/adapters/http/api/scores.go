package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/leaderforge/leaderforge/internal/app"
)

// submitRequest mirrors the JSON schema for POST /api/v1/scores.
type submitRequest struct {
	PlayerID     string `json:"player_id"`
	Score        int64  `json:"score"`
	Mode         string `json:"mode"`
	RequestToken string `json:"request_token"`
}

func (s submitRequest) validate() error {
	if strings.TrimSpace(s.PlayerID) == "" {
		return errors.New("missing player_id")
	}
	return nil
}

// handleSubmitScore handles POST /api/v1/scores requests. Range, mode and
// idempotency rules are enforced by the service; the handler only guards
// the JSON shape.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := s.svc.SubmitScore(r.Context(), service.SubmitRequest{
		PlayerID:     req.PlayerID,
		Score:        req.Score,
		Mode:         req.Mode,
		RequestToken: req.RequestToken,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}
