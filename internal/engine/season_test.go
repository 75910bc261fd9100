package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeasonRejectsDuplicateTeams(t *testing.T) {
	teams := []*Team{
		{Name: "Striker State", Prestige: 50},
		{Name: "Striker State", Prestige: 60},
	}
	_, err := NewSeason(2025, teams, nil, ScheduleConfig{}, newScriptedEngine(), 1, nil)
	assert.Error(t, err)
}

func TestNewSeasonRejectsTinyLeague(t *testing.T) {
	_, err := NewSeason(2025, makeTeams("Solo", 1, 50), nil, ScheduleConfig{}, newScriptedEngine(), 1, nil)
	assert.Error(t, err)
}

func TestNewSeasonDropsUnknownConferenceMembers(t *testing.T) {
	teams, conferences := twoConferenceLeague()
	conferences["Viper North"] = append(conferences["Viper North"], "Ghost Tech")

	s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, newScriptedEngine(), 1, nil)
	require.NoError(t, err)
	assert.NotContains(t, s.Conferences["Viper North"], "Ghost Tech")
	assert.Len(t, s.Conferences["Viper North"], 4)
}

func TestSimulateWeekAdvancesAndReleasesPoll(t *testing.T) {
	teams, conferences := twoConferenceLeague()
	s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, newScriptedEngine(), 2, nil)
	require.NoError(t, err)

	first := s.CurrentWeek()
	require.Equal(t, 1, first)

	week, played, err := s.SimulateWeek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, week)
	assert.NotEmpty(t, played)
	for _, g := range played {
		assert.True(t, g.Completed)
	}

	require.Len(t, s.WeeklyPolls, 1)
	assert.Equal(t, 1, s.WeeklyPolls[0].Week)
	assert.Greater(t, s.CurrentWeek(), 1)
}

func TestSimulateWeekOnFinishedSeason(t *testing.T) {
	teams, conferences := twoConferenceLeague()
	s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, newScriptedEngine(), 3, nil)
	require.NoError(t, err)
	require.NoError(t, s.SimulateRegularSeason(context.Background()))

	assert.True(t, s.RegularSeasonComplete())
	_, _, err = s.SimulateWeek(context.Background())
	assert.ErrorIs(t, err, ErrSeasonComplete)
}

func TestStandingsConsistencyAfterFullSeason(t *testing.T) {
	teams, conferences := twoConferenceLeague()
	s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, NewFastSim(99, nil), 4, nil)
	require.NoError(t, err)
	require.NoError(t, s.SimulateRegularSeason(context.Background()))

	// Every completed game is counted exactly once on each side.
	gamesFor := make(map[string]int)
	pointsFor := make(map[string]float64)
	for _, g := range s.Schedule {
		require.True(t, g.Completed)
		gamesFor[g.HomeTeam]++
		gamesFor[g.AwayTeam]++
		pointsFor[g.HomeTeam] += g.HomeScore
		pointsFor[g.AwayTeam] += g.AwayScore
	}
	for name, rec := range s.Standings {
		assert.Equalf(t, gamesFor[name], rec.GamesPlayed(), "games for %s", name)
		assert.Equalf(t, rec.GamesPlayed(), rec.Wins+rec.Losses, "wins+losses for %s", name)
		assert.InDeltaf(t, pointsFor[name], rec.PointsFor, 0.001, "points for %s", name)
		assert.Len(t, rec.MetricsHistory, rec.GamesPlayed())
	}

	// One poll per played week.
	assert.Len(t, s.WeeklyPolls, s.TotalWeeks())
	for i, poll := range s.WeeklyPolls {
		assert.Equal(t, i+1, poll.Week)
	}
}

func TestConferenceRecordsOnlyCountConferenceGames(t *testing.T) {
	teams, conferences := twoConferenceLeague()
	s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, newScriptedEngine(), 5, nil)
	require.NoError(t, err)
	require.NoError(t, s.SimulateRegularSeason(context.Background()))

	confGames := make(map[string]int)
	for _, g := range s.Schedule {
		if g.IsConferenceGame {
			confGames[g.HomeTeam]++
			confGames[g.AwayTeam]++
		}
	}
	for name, rec := range s.Standings {
		assert.Equalf(t, confGames[name], rec.ConfWins+rec.ConfLosses, "conference games for %s", name)
	}
}

func TestSeasonDeterministicUnderSeeds(t *testing.T) {
	run := func() *Season {
		teams, conferences := twoConferenceLeague()
		s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, NewFastSim(7, nil), 42, nil)
		require.NoError(t, err)
		require.NoError(t, s.SimulateRegularSeason(context.Background()))
		return s
	}
	a, b := run(), run()

	require.Equal(t, len(a.Schedule), len(b.Schedule))
	for i := range a.Schedule {
		ga, gb := a.Schedule[i], b.Schedule[i]
		assert.Equal(t, ga.HomeTeam, gb.HomeTeam)
		assert.Equal(t, ga.AwayTeam, gb.AwayTeam)
		assert.Equal(t, ga.Week, gb.Week)
		assert.Equal(t, ga.HomeScore, gb.HomeScore)
		assert.Equal(t, ga.AwayScore, gb.AwayScore)
	}
	require.Equal(t, len(a.WeeklyPolls), len(b.WeeklyPolls))
	for i := range a.WeeklyPolls {
		pa, pb := a.WeeklyPolls[i], b.WeeklyPolls[i]
		for j := range pa.Rankings {
			assert.Equal(t, pa.Rankings[j].Team, pb.Rankings[j].Team)
			assert.Equal(t, pa.Rankings[j].PowerIndex, pb.Rankings[j].PowerIndex)
		}
	}
}

func TestEngineFailureSurfacesFromSimulateWeek(t *testing.T) {
	teams, conferences := twoConferenceLeague()
	s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, failingEngine{}, 6, nil)
	require.NoError(t, err)

	_, _, err = s.SimulateWeek(context.Background())
	assert.Error(t, err)
	assert.Empty(t, s.WeeklyPolls, "no poll after a failed week")
}

func TestFullPostseasonPipeline(t *testing.T) {
	teams, conferences := twoConferenceLeague()
	s, err := NewSeason(2025, teams, conferences, ScheduleConfig{}, NewFastSim(3, nil), 7, nil)
	require.NoError(t, err)
	require.NoError(t, s.SimulateRegularSeason(context.Background()))
	require.NoError(t, s.SimulatePostseason(context.Background(), 4, 2))

	assert.Len(t, s.PlayoffField, 4)
	assert.Len(t, s.PlayoffBracket, 3)
	assert.NotEmpty(t, s.Champion)
	assert.Len(t, s.BowlGames, 2)

	// Postseason results never touch the regular-season standings.
	total := 0
	for _, rec := range s.Standings {
		total += rec.GamesPlayed()
	}
	assert.Equal(t, len(s.Schedule)*2, total)
}

func TestFillersPlayButStayOutOfPolls(t *testing.T) {
	// A lone 4-team conference asked for 5 games each needs filler opponents.
	teams := makeTeams("Solo", 4, 50)
	for _, tm := range teams {
		tm.Conference = "Viper Solo"
	}
	conferences := map[string][]string{"Viper Solo": teamNamesOf(teams)}
	cfg := ScheduleConfig{GamesPerTeam: 5, NonConfWeeks: 2}
	s, err := NewSeason(2025, teams, conferences, cfg, newScriptedEngine(), 8, nil)
	require.NoError(t, err)

	fillerCount := 0
	for _, tm := range s.Teams {
		if tm.IsFCS {
			fillerCount++
		}
	}
	require.Greater(t, fillerCount, 0)

	require.NoError(t, s.SimulateRegularSeason(context.Background()))
	for _, poll := range s.WeeklyPolls {
		for _, r := range poll.Rankings {
			assert.False(t, s.Teams[r.Team].IsFCS, "filler %s ranked in a poll", r.Team)
		}
	}
	for name, tm := range s.Teams {
		if tm.IsFCS {
			assert.Greater(t, s.Standings[name].GamesPlayed(), 0, "filler %s never played", name)
		}
	}
}
