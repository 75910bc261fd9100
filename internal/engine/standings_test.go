package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func quietMetrics() GameMetrics {
	return GameMetrics{
		PassingYards:           220,
		RushingYards:           140,
		RushingYardsAllowed:    210,
		Turnovers:              1,
		TurnoversForced:        1,
		DefensiveInterceptions: 0,
		Sacks:                  2,
		PossessionSeconds:      1800,
	}
}

func TestTeamRecordAccumulation(t *testing.T) {
	r := NewTeamRecord("Cobras")

	r.AddGameResult(true, 31, 17, quietMetrics(), true)
	r.AddGameResult(false, 13, 20, quietMetrics(), true)
	r.AddGameResult(true, 42, 10, quietMetrics(), false)

	assert.Equal(t, 2, r.Wins)
	assert.Equal(t, 1, r.Losses)
	assert.Equal(t, 3, r.GamesPlayed())
	assert.Equal(t, 1, r.ConfWins)
	assert.Equal(t, 1, r.ConfLosses)
	assert.Equal(t, 1, r.NonConfWins)
	assert.Equal(t, 0, r.NonConfLosses)
	assert.InDelta(t, 86, r.PointsFor, 1e-9)
	assert.InDelta(t, 47, r.PointsAgainst, 1e-9)
	assert.Equal(t, "2-1", r.RecordString())

	// wins + losses == games played, conference games bounded by total.
	assert.Equal(t, r.GamesPlayed(), r.Wins+r.Losses)
	assert.LessOrEqual(t, r.ConfWins+r.ConfLosses, r.GamesPlayed())
}

func TestPointsAccumulateMonotonically(t *testing.T) {
	r := NewTeamRecord("Adders")
	prevFor, prevAgainst := 0.0, 0.0
	for i := 0; i < 8; i++ {
		r.AddGameResult(i%2 == 0, float64(10+i), float64(7+i), quietMetrics(), false)
		assert.GreaterOrEqual(t, r.PointsFor, prevFor)
		assert.GreaterOrEqual(t, r.PointsAgainst, prevAgainst)
		prevFor, prevAgainst = r.PointsFor, r.PointsAgainst
	}
}

func TestNoFlyZoneEarnedAfterThreeStraight(t *testing.T) {
	r := NewTeamRecord("Vipers")

	picks := quietMetrics()
	picks.DefensiveInterceptions = 3

	r.AddGameResult(true, 28, 7, picks, false)
	assert.Equal(t, FlagTracking, r.NoFlyZone.State)
	r.AddGameResult(true, 28, 7, picks, false)
	assert.False(t, r.HasNoFlyZone())
	r.AddGameResult(true, 28, 7, picks, false)
	assert.True(t, r.HasNoFlyZone())
}

func TestPrestigeStreakResetsOnMiss(t *testing.T) {
	r := NewTeamRecord("Vipers")

	picks := quietMetrics()
	picks.DefensiveInterceptions = 2

	r.AddGameResult(true, 28, 7, picks, false)
	r.AddGameResult(true, 28, 7, picks, false)
	r.AddGameResult(true, 28, 7, quietMetrics(), false) // 0 picks, streak broken
	assert.Equal(t, FlagInactive, r.NoFlyZone.State)
	assert.False(t, r.HasNoFlyZone())
}

func TestPrestigeFlagStickyOnceEarned(t *testing.T) {
	r := NewTeamRecord("Vipers")

	wall := quietMetrics()
	wall.RushingYardsAllowed = 90
	for i := 0; i < 3; i++ {
		r.AddGameResult(true, 21, 3, wall, false)
	}
	assert.True(t, r.HasBrickWall())

	leaky := quietMetrics()
	leaky.RushingYardsAllowed = 310
	for i := 0; i < 5; i++ {
		r.AddGameResult(false, 10, 38, leaky, false)
	}
	assert.True(t, r.HasBrickWall(), "earned flags never reset within a season")
}

func TestTurnoverMachineThreshold(t *testing.T) {
	r := NewTeamRecord("Rattlers")

	chaos := quietMetrics()
	chaos.TurnoversForced = 4
	almost := quietMetrics()
	almost.TurnoversForced = 3

	r.AddGameResult(true, 35, 14, chaos, false)
	r.AddGameResult(true, 35, 14, chaos, false)
	r.AddGameResult(true, 35, 14, almost, false)
	assert.False(t, r.HasTurnoverMachine(), "3 forced turnovers does not qualify")

	for i := 0; i < 3; i++ {
		r.AddGameResult(true, 35, 14, chaos, false)
	}
	assert.True(t, r.HasTurnoverMachine())
}

func TestFlagsIndependent(t *testing.T) {
	r := NewTeamRecord("Mambas")

	m := quietMetrics()
	m.DefensiveInterceptions = 2
	m.RushingYardsAllowed = 250 // misses Brick Wall every game
	for i := 0; i < 3; i++ {
		r.AddGameResult(true, 24, 21, m, false)
	}
	assert.True(t, r.HasNoFlyZone())
	assert.False(t, r.HasBrickWall())
	assert.False(t, r.HasTurnoverMachine())
}

func TestAverageMetrics(t *testing.T) {
	r := NewTeamRecord("Boas")
	a := quietMetrics()
	a.PassingYards = 300
	b := quietMetrics()
	b.PassingYards = 200

	r.AddGameResult(true, 20, 10, a, false)
	r.AddGameResult(true, 20, 10, b, false)

	avg := r.AverageMetrics()
	assert.Equal(t, 250, avg.PassingYards)
	assert.InDelta(t, 1800, avg.PossessionSeconds, 1e-9)
}
