package engine

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// GameResult is what a game engine produces for one contest. The core is
// agnostic to whether the full play-by-play engine or the statistical
// approximation filled it in.
type GameResult struct {
	HomeScore   float64     `json:"home_score"`
	AwayScore   float64     `json:"away_score"`
	HomeMetrics GameMetrics `json:"home_metrics"`
	AwayMetrics GameMetrics `json:"away_metrics"`
}

// GameEngine simulates a single game between two teams.
type GameEngine interface {
	Simulate(ctx context.Context, home, away *Team) (*GameResult, error)
}

// FastSim is the lightweight statistical game engine: prestige- and
// style-driven score and stat sampling, no play-by-play. Good enough for
// bulk season simulation and deterministic under a fixed seed.
type FastSim struct {
	src    rand.Source
	logger *logrus.Logger
}

// NewFastSim returns a seeded statistical engine.
func NewFastSim(seed uint64, logger *logrus.Logger) *FastSim {
	return &FastSim{
		src:    rand.NewSource(seed),
		logger: logger,
	}
}

const homeFieldPoints = 2.5

// Simulate samples a final score and a full metrics payload for both sides.
func (f *FastSim) Simulate(ctx context.Context, home, away *Team) (*GameResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	homeScore := f.sampleScore(home, away, true)
	awayScore := f.sampleScore(away, home, false)

	// Viperball has no ties: sudden-death possessions until separated.
	for homeScore == awayScore {
		homeScore += f.samplePoisson(1.1) * 3
		awayScore += f.samplePoisson(1.1) * 3
	}

	homeMetrics := f.sampleMetrics(home, away, homeScore)
	awayMetrics := f.sampleMetrics(away, home, awayScore)

	// Defensive lines are the mirror of the opponent's offense.
	homeMetrics.RushingYardsAllowed = awayMetrics.RushingYards
	awayMetrics.RushingYardsAllowed = homeMetrics.RushingYards
	homeMetrics.TurnoversForced = awayMetrics.Turnovers
	awayMetrics.TurnoversForced = homeMetrics.Turnovers
	if homeMetrics.DefensiveInterceptions > homeMetrics.TurnoversForced {
		homeMetrics.DefensiveInterceptions = homeMetrics.TurnoversForced
	}
	if awayMetrics.DefensiveInterceptions > awayMetrics.TurnoversForced {
		awayMetrics.DefensiveInterceptions = awayMetrics.TurnoversForced
	}

	// Possession splits proportionally to scoring.
	total := homeScore + awayScore
	homeMetrics.PossessionSeconds = 3600 * homeScore / total
	awayMetrics.PossessionSeconds = 3600 - homeMetrics.PossessionSeconds

	if f.logger != nil {
		f.logger.WithFields(logrus.Fields{
			"home":       home.Name,
			"away":       away.Name,
			"home_score": homeScore,
			"away_score": awayScore,
		}).Debug("Fast sim complete")
	}

	return &GameResult{
		HomeScore:   homeScore,
		AwayScore:   awayScore,
		HomeMetrics: homeMetrics,
		AwayMetrics: awayMetrics,
	}, nil
}

func (f *FastSim) sampleScore(team, opponent *Team, isHome bool) float64 {
	mean := 14.0 + float64(team.Prestige)*0.22 - float64(opponent.Prestige)*0.08
	if isHome {
		mean += homeFieldPoints
	}
	switch team.OffenseStyle {
	case "air_raid", "spread":
		mean += 2.0
	case "ground_game", "option":
		mean -= 1.0
	}
	switch opponent.DefenseStyle {
	case "swarm", "press":
		mean -= 1.5
	}

	score := distuv.Normal{Mu: mean, Sigma: 9, Src: f.src}.Rand()
	score = math.Round(score)
	if score < 0 {
		score = 0
	}
	return score
}

func (f *FastSim) sampleMetrics(team, opponent *Team, score float64) GameMetrics {
	passMean := 190.0 + float64(team.Prestige)*0.9
	rushMean := 130.0 + float64(team.Prestige)*0.7
	switch team.OffenseStyle {
	case "air_raid", "spread":
		passMean += 60
		rushMean -= 30
	case "ground_game", "option":
		passMean -= 50
		rushMean += 55
	}

	passing := distuv.Normal{Mu: passMean, Sigma: 45, Src: f.src}.Rand()
	rushing := distuv.Normal{Mu: rushMean, Sigma: 35, Src: f.src}.Rand()

	turnoverRate := 1.6 - float64(team.Prestige)*0.008 + float64(opponent.Prestige)*0.006
	if turnoverRate < 0.3 {
		turnoverRate = 0.3
	}

	intRate := 0.7
	if team.DefenseStyle == "swarm" || team.DefenseStyle == "press" {
		intRate = 1.2
	}

	return GameMetrics{
		PassingYards:           clampStat(passing),
		RushingYards:           clampStat(rushing),
		Turnovers:              int(f.samplePoisson(turnoverRate)),
		DefensiveInterceptions: int(f.samplePoisson(intRate)),
		Sacks:                  int(f.samplePoisson(2.1)),
	}
}

func (f *FastSim) samplePoisson(lambda float64) float64 {
	return distuv.Poisson{Lambda: lambda, Src: f.src}.Rand()
}

func clampStat(v float64) int {
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}
