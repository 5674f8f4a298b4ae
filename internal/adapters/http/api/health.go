package api

import (
	"net/http"
)

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// handleHealth handles GET /health requests. The service degrades rather
// than fails when only the cache is down, so a cache outage reports
// "degraded" with a 200 while a store outage reports 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeErr, cacheErr := s.svc.Health(r.Context())

	resp := healthResponse{
		Status: "ok",
		Components: map[string]componentStatus{
			"store": {Status: "ok"},
			"cache": {Status: "ok"},
		},
	}
	status := http.StatusOK

	if cacheErr != nil {
		resp.Status = "degraded"
		resp.Components["cache"] = componentStatus{Status: "down", Error: cacheErr.Error()}
	}
	if storeErr != nil {
		resp.Status = "down"
		resp.Components["store"] = componentStatus{Status: "down", Error: storeErr.Error()}
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// handleStats handles GET /stats requests.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.GetStats())
}
