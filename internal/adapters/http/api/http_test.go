package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leaderforge/leaderforge/internal/adapters/cache"
	"github.com/leaderforge/leaderforge/internal/adapters/http/api"
	"github.com/leaderforge/leaderforge/internal/adapters/repository"
	service "github.com/leaderforge/leaderforge/internal/app"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer(t *testing.T, opts ...api.ServerOption) (*httptest.Server, *repository.MemoryStore) {
	t.Helper()

	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	store := repository.NewMemoryStore()
	svc := service.New(
		service.WithStore(store),
		service.WithCache(cache.NewMemoryCache()),
	)
	ctx, cancel := context.WithCancel(context.Background())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})

	server := api.NewServer(svc, opts...)
	ts := httptest.NewServer(server.Router(ctx))
	t.Cleanup(ts.Close)
	return ts, store
}

func seedPlayer(t *testing.T, store *repository.MemoryStore, id, name string) {
	t.Helper()
	err := store.CreatePlayer(context.Background(), model.Player{
		ID:          id,
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed player %s: %v", id, err)
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSubmitScoreEndpoint(t *testing.T) {
	Convey("Given the API over a seeded store", t, func() {
		ts, store := newTestServer(t)
		seedPlayer(t, store, "p1", "Alice")
		scoresURL := ts.URL + "/api/v1/scores"

		Convey("When posting a valid submission", func() {
			resp := postJSON(t, scoresURL, map[string]any{"player_id": "p1", "score": 500})
			var result service.SubmitResult
			decodeInto(t, resp, &result)

			Convey("Then it should apply and return 201", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(result.TotalScore, ShouldEqual, 500)
				So(result.SessionCount, ShouldEqual, 1)
				So(result.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When replaying the same request token", func() {
			first := postJSON(t, scoresURL, map[string]any{
				"player_id": "p1", "score": 300, "request_token": "tok-1",
			})
			_ = first.Body.Close()
			second := postJSON(t, scoresURL, map[string]any{
				"player_id": "p1", "score": 300, "request_token": "tok-1",
			})
			var result service.SubmitResult
			decodeInto(t, second, &result)

			Convey("Then the replay should acknowledge with 200", func() {
				So(first.StatusCode, ShouldEqual, http.StatusCreated)
				So(second.StatusCode, ShouldEqual, http.StatusOK)
				So(result.Duplicate, ShouldBeTrue)
				So(result.TotalScore, ShouldEqual, 300)
			})
		})

		Convey("When posting malformed JSON", func() {
			resp, err := http.Post(scoresURL, "application/json", bytes.NewReader([]byte("{not json")))
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should return 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting an out-of-range score", func() {
			resp := postJSON(t, scoresURL, map[string]any{"player_id": "p1", "score": -5})
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should return 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting for an unknown player", func() {
			resp := postJSON(t, scoresURL, map[string]any{"player_id": "ghost", "score": 10})
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should return 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given the API over a populated board", t, func() {
		ts, store := newTestServer(t)
		for i, score := range []int64{900, 500, 100} {
			id := fmt.Sprintf("p%d", i+1)
			seedPlayer(t, store, id, id)
			resp := postJSON(t, ts.URL+"/api/v1/scores", map[string]any{"player_id": id, "score": score})
			_ = resp.Body.Close()
		}

		Convey("When fetching the top of the board", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/top?limit=2")
			So(err, ShouldBeNil)
			var top service.TopPlayers
			decodeInto(t, resp, &top)

			Convey("Then it should return the two best players in order", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(top.Entries), ShouldEqual, 2)
				So(top.Entries[0].PlayerID, ShouldEqual, "p1")
				So(top.Entries[0].Rank, ShouldEqual, 1)
				So(top.Entries[1].PlayerID, ShouldEqual, "p2")
				So(top.TotalPlayers, ShouldEqual, 3)
			})
		})

		Convey("When omitting the limit", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/top")
			So(err, ShouldBeNil)
			var top service.TopPlayers
			decodeInto(t, resp, &top)

			Convey("Then the default limit should apply", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(top.Entries), ShouldEqual, 3)
			})
		})

		Convey("When the limit is not a number", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/top?limit=abc")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should return 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the ceiling", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/top?limit=500")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should return 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching a player's rank", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/rank/p2")
			So(err, ShouldBeNil)
			var rank service.PlayerRank
			decodeInto(t, resp, &rank)

			Convey("Then rank and percentile should match the board", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(rank.Rank, ShouldEqual, 2)
				So(rank.TotalPlayers, ShouldEqual, 3)
				So(rank.Percentile, ShouldEqual, 33.33)
			})
		})

		Convey("When fetching the rank of an unknown player", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/rank/ghost")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should return 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestPlayerEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		ts, _ := newTestServer(t)

		Convey("When registering a player", func() {
			resp := postJSON(t, ts.URL+"/api/v1/players", map[string]any{"display_name": "Alice"})
			var player model.Player
			decodeInto(t, resp, &player)

			Convey("Then the player should be created and fetchable", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(player.ID, ShouldNotBeEmpty)

				got, err := http.Get(ts.URL + "/api/v1/players/" + player.ID)
				So(err, ShouldBeNil)
				var fetched model.Player
				decodeInto(t, got, &fetched)
				So(got.StatusCode, ShouldEqual, http.StatusOK)
				So(fetched.DisplayName, ShouldEqual, "Alice")
			})
		})

		Convey("When registering without a display name", func() {
			resp := postJSON(t, ts.URL+"/api/v1/players", map[string]any{})
			defer func() { _ = resp.Body.Close() }()

			Convey("Then it should return 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		ts, _ := newTestServer(t)

		Convey("When checking health", func() {
			resp, err := http.Get(ts.URL + "/health")
			So(err, ShouldBeNil)
			var health struct {
				Status string `json:"status"`
			}
			decodeInto(t, resp, &health)

			Convey("Then it should report ok with security headers set", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(health.Status, ShouldEqual, "ok")
				So(resp.Header.Get("X-Content-Type-Options"), ShouldEqual, "nosniff")
				So(resp.Header.Get("X-Frame-Options"), ShouldEqual, "DENY")
			})
		})

		Convey("When fetching stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			var stats map[string]interface{}
			decodeInto(t, resp, &stats)

			Convey("Then service stats should be exposed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When scraping metrics", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			Convey("Then the Prometheus registry should answer", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestRateLimiting(t *testing.T) {
	Convey("Given an API with a small request budget", t, func() {
		ts, _ := newTestServer(t, api.WithRateLimit(3))

		Convey("When a client exceeds the budget", func() {
			var last *http.Response
			for i := 0; i < 4; i++ {
				resp, err := http.Get(ts.URL + "/health")
				So(err, ShouldBeNil)
				_ = resp.Body.Close()
				last = resp
			}

			Convey("Then the overflow request should be rejected with headers", func() {
				So(last.StatusCode, ShouldEqual, http.StatusTooManyRequests)
				So(last.Header.Get("Retry-After"), ShouldEqual, "60")
				So(last.Header.Get("X-RateLimit-Remaining"), ShouldEqual, "0")
				So(last.Header.Get("X-RateLimit-Limit"), ShouldEqual, "3")
			})
		})
	})
}
