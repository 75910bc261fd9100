package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/viperball-sim/internal/engine"
)

// RemoteEngine implements engine.GameEngine against the full play-by-play
// simulation service. Calls run behind a circuit breaker; a tripped breaker
// or a malformed result is surfaced as an error instead of guessing at a
// score, so the caller decides whether to fall back to the fast sim.
type RemoteEngine struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewRemoteEngine creates a client for the remote simulation service.
func NewRemoteEngine(baseURL string, timeout time.Duration, threshold int, logger *logrus.Logger) *RemoteEngine {
	settings := gobreaker.Settings{
		Name:        "remote-engine",
		MaxRequests: uint32(threshold),
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &RemoteEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

type simulateRequest struct {
	HomeTeam *engine.Team `json:"home_team"`
	AwayTeam *engine.Team `json:"away_team"`
}

// Simulate runs one game on the remote service.
func (r *RemoteEngine) Simulate(ctx context.Context, home, away *engine.Team) (*engine.GameResult, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.doSimulate(ctx, home, away)
	})
	if err != nil {
		return nil, fmt.Errorf("remote engine: %w", err)
	}
	return result.(*engine.GameResult), nil
}

func (r *RemoteEngine) doSimulate(ctx context.Context, home, away *engine.Team) (*engine.GameResult, error) {
	body, err := json.Marshal(simulateRequest{HomeTeam: home, AwayTeam: away})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/simulate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result engine.GameResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if err := validateResult(&result); err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"home":       home.Name,
		"away":       away.Name,
		"home_score": result.HomeScore,
		"away_score": result.AwayScore,
	}).Debug("Remote sim complete")

	return &result, nil
}

// validateResult rejects results the engine cannot use. Metrics are a named,
// required payload: a service that cannot fill them correctly fails here
// rather than polluting season records with defaulted stats.
func validateResult(r *engine.GameResult) error {
	if r.HomeScore < 0 || r.AwayScore < 0 {
		return fmt.Errorf("invalid result: negative score %v-%v", r.HomeScore, r.AwayScore)
	}
	if r.HomeScore == r.AwayScore {
		return fmt.Errorf("invalid result: tie score %v is not a legal outcome", r.HomeScore)
	}
	for side, m := range map[string]engine.GameMetrics{"home": r.HomeMetrics, "away": r.AwayMetrics} {
		if m.PassingYards < 0 || m.RushingYards < 0 || m.RushingYardsAllowed < 0 {
			return fmt.Errorf("invalid result: negative yardage for %s", side)
		}
		if m.Turnovers < 0 || m.TurnoversForced < 0 || m.Sacks < 0 {
			return fmt.Errorf("invalid result: negative counting stat for %s", side)
		}
		if m.DefensiveInterceptions < 0 || m.DefensiveInterceptions > m.TurnoversForced {
			return fmt.Errorf("invalid result: %s interceptions %d exceed turnovers forced %d",
				side, m.DefensiveInterceptions, m.TurnoversForced)
		}
		if m.PossessionSeconds < 0 || m.PossessionSeconds > 3600 {
			return fmt.Errorf("invalid result: %s possession %.0fs outside game clock", side, m.PossessionSeconds)
		}
	}
	return nil
}
