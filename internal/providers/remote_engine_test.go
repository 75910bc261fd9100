package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/viperball-sim/internal/engine"
)

func testTeams() (*engine.Team, *engine.Team) {
	return &engine.Team{Name: "Cobra State", Prestige: 70},
		&engine.Team{Name: "Mamba Tech", Prestige: 60}
}

func validResult() engine.GameResult {
	metrics := engine.GameMetrics{
		PassingYards:           250,
		RushingYards:           150,
		RushingYardsAllowed:    150,
		Turnovers:              1,
		TurnoversForced:        1,
		DefensiveInterceptions: 1,
		Sacks:                  2,
		PossessionSeconds:      1800,
	}
	return engine.GameResult{
		HomeScore:   28,
		AwayScore:   14,
		HomeMetrics: metrics,
		AwayMetrics: metrics,
	}
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestRemoteEngineSimulate(t *testing.T) {
	var gotReq simulateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/simulate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(validResult())
	}))
	defer srv.Close()

	re := NewRemoteEngine(srv.URL, 5*time.Second, 1, newTestLogger())
	home, away := testTeams()

	result, err := re.Simulate(context.Background(), home, away)
	require.NoError(t, err)
	assert.Equal(t, 28.0, result.HomeScore)
	assert.Equal(t, 14.0, result.AwayScore)
	assert.Equal(t, "Cobra State", gotReq.HomeTeam.Name)
	assert.Equal(t, "Mamba Tech", gotReq.AwayTeam.Name)
}

func TestRemoteEngineRejectsBadResults(t *testing.T) {
	cases := []struct {
		name   string
		mangle func(*engine.GameResult)
	}{
		{"negative score", func(r *engine.GameResult) { r.HomeScore = -3 }},
		{"tie score", func(r *engine.GameResult) { r.AwayScore = r.HomeScore }},
		{"negative yardage", func(r *engine.GameResult) { r.AwayMetrics.RushingYards = -10 }},
		{"interceptions exceed turnovers", func(r *engine.GameResult) {
			r.HomeMetrics.DefensiveInterceptions = 5
			r.HomeMetrics.TurnoversForced = 2
		}},
		{"possession beyond clock", func(r *engine.GameResult) { r.HomeMetrics.PossessionSeconds = 4000 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := validResult()
			tc.mangle(&result)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(result)
			}))
			defer srv.Close()

			re := NewRemoteEngine(srv.URL, 5*time.Second, 1, newTestLogger())
			home, away := testTeams()
			_, err := re.Simulate(context.Background(), home, away)
			assert.Error(t, err)
		})
	}
}

func TestRemoteEngineErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	re := NewRemoteEngine(srv.URL, 5*time.Second, 1, newTestLogger())
	home, away := testTeams()
	_, err := re.Simulate(context.Background(), home, away)
	assert.Error(t, err)
}

func TestRemoteEngineBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	re := NewRemoteEngine(srv.URL, 5*time.Second, 1, newTestLogger())
	home, away := testTeams()

	for i := 0; i < 5; i++ {
		_, err := re.Simulate(context.Background(), home, away)
		require.Error(t, err)
	}

	// Once open, calls fail fast without reaching the server.
	assert.Equal(t, gobreaker.StateOpen, re.breaker.State())
}
