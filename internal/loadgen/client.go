package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiClient is a thin JSON client for the leaderboard API.
type apiClient struct {
	client  *http.Client
	baseURL string
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type playerResponse struct {
	ID          string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

type submitResponse struct {
	PlayerID     string `json:"player_id"`
	TotalScore   int64  `json:"total_score"`
	SessionCount int64  `json:"session_count"`
	Rank         int64  `json:"rank"`
	Duplicate    bool   `json:"duplicate"`
}

type rankedEntry struct {
	Rank       int64  `json:"rank"`
	PlayerID   string `json:"player_id"`
	TotalScore int64  `json:"total_score"`
}

type topResponse struct {
	Entries      []rankedEntry `json:"entries"`
	TotalPlayers int64         `json:"total_players"`
}

type rankResponse struct {
	Rank         int64   `json:"rank"`
	PlayerID     string  `json:"player_id"`
	TotalScore   int64   `json:"total_score"`
	Percentile   float64 `json:"percentile"`
	TotalPlayers int64   `json:"total_players"`
}

func (c *apiClient) checkHealth(ctx context.Context) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", &health); err != nil {
		return err
	}
	if health.Status == "down" {
		return fmt.Errorf("service reports status %q", health.Status)
	}
	return nil
}

func (c *apiClient) registerPlayer(ctx context.Context, displayName string) (playerResponse, error) {
	var player playerResponse
	err := c.postJSON(ctx, "/api/v1/players", map[string]any{"display_name": displayName}, &player)
	return player, err
}

func (c *apiClient) submitScore(ctx context.Context, playerID string, score int64, token string) (submitResponse, int, error) {
	body := map[string]any{
		"player_id":     playerID,
		"score":         score,
		"request_token": token,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return submitResponse{}, 0, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/scores", bytes.NewReader(raw))
	if err != nil {
		return submitResponse{}, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return submitResponse{}, 0, fmt.Errorf("submit score: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result submitResponse
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return submitResponse{}, resp.StatusCode, fmt.Errorf("decode submission response: %w", err)
		}
	}
	return result, resp.StatusCode, nil
}

func (c *apiClient) getTop(ctx context.Context, limit int) (topResponse, error) {
	var top topResponse
	err := c.getJSON(ctx, fmt.Sprintf("/api/v1/leaderboard/top?limit=%d", limit), &top)
	return top, err
}

func (c *apiClient) getRank(ctx context.Context, playerID string) (rankResponse, error) {
	var rank rankResponse
	err := c.getJSON(ctx, "/api/v1/leaderboard/rank/"+playerID, &rank)
	return rank, err
}

func (c *apiClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *apiClient) postJSON(ctx context.Context, path string, body, v any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, string(data))
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
