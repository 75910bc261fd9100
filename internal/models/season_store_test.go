package models

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/pkg/database"
)

func newTestStore(t *testing.T) *SeasonStore {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "league.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSeasonStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func newTestSeason(t *testing.T) *engine.Season {
	t.Helper()
	teams := []*engine.Team{
		{Name: "Cobra State", Prestige: 70, Conference: "Viper East"},
		{Name: "Mamba Tech", Prestige: 60, Conference: "Viper East"},
		{Name: "Adder A&M", Prestige: 55, Conference: "Viper East"},
		{Name: "Krait College", Prestige: 50, Conference: "Viper East"},
	}
	conferences := map[string][]string{
		"Viper East": {"Cobra State", "Mamba Tech", "Adder A&M", "Krait College"},
	}
	s, err := engine.NewSeason(2025, teams, conferences, engine.ScheduleConfig{},
		engine.NewFastSim(1, nil), 1, nil)
	require.NoError(t, err)
	return s
}

func TestDynastyCRUD(t *testing.T) {
	store := newTestStore(t)

	teams, _ := json.Marshal([]string{"Cobra State", "Mamba Tech"})
	d := &Dynasty{Name: "Test Dynasty", CurrentYear: 2025, Teams: teams}
	require.NoError(t, store.CreateDynasty(d))
	assert.NotEmpty(t, d.ID, "BeforeCreate assigns a UUID")

	loaded, err := store.GetDynasty(d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Dynasty", loaded.Name)
	assert.Equal(t, 2025, loaded.CurrentYear)

	loaded.CurrentYear = 2026
	require.NoError(t, store.UpdateDynasty(loaded))
	reloaded, err := store.GetDynasty(d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2026, reloaded.CurrentYear)

	_, err = store.GetDynasty("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeasonRoundTrip(t *testing.T) {
	store := newTestStore(t)
	season := newTestSeason(t)

	// Play half the season, persist, reload and finish it.
	_, _, err := season.SimulateWeek(context.Background())
	require.NoError(t, err)

	rec, err := NewSeasonRecord("dynasty-1", season)
	require.NoError(t, err)
	require.NoError(t, store.SaveSeason(rec))
	assert.Equal(t, 2025, rec.Year)
	assert.False(t, rec.Complete)
	assert.Greater(t, rec.CurrentWeek, 1)

	loaded, err := store.GetSeason(rec.ID)
	require.NoError(t, err)
	restored, err := loaded.Season()
	require.NoError(t, err)

	assert.Equal(t, season.Year, restored.Year)
	assert.Equal(t, season.CurrentWeek(), restored.CurrentWeek())
	assert.Equal(t, len(season.Schedule), len(restored.Schedule))
	assert.Len(t, restored.WeeklyPolls, len(season.WeeklyPolls))
	for name, rec := range season.Standings {
		require.Contains(t, restored.Standings, name)
		assert.Equal(t, rec.Wins, restored.Standings[name].Wins)
		assert.Equal(t, rec.Losses, restored.Standings[name].Losses)
	}

	restored.Rehydrate(engine.NewFastSim(1, nil), nil)
	require.NoError(t, restored.SimulateRegularSeason(context.Background()))
	assert.True(t, restored.RegularSeasonComplete())
}

func TestSeasonsForDynastyOrderedByYear(t *testing.T) {
	store := newTestStore(t)

	for _, year := range []int{2027, 2025, 2026} {
		season := newTestSeason(t)
		season.Year = year
		rec, err := NewSeasonRecord("dynasty-2", season)
		require.NoError(t, err)
		require.NoError(t, store.SaveSeason(rec))
	}

	list, err := store.SeasonsForDynasty("dynasty-2")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{2025, 2026, 2027}, []int{list[0].Year, list[1].Year, list[2].Year})

	latest, err := store.LatestSeason("dynasty-2")
	require.NoError(t, err)
	assert.Equal(t, 2027, latest.Year)
}

func TestDeleteSeason(t *testing.T) {
	store := newTestStore(t)
	season := newTestSeason(t)

	rec, err := NewSeasonRecord("dynasty-3", season)
	require.NoError(t, err)
	require.NoError(t, store.SaveSeason(rec))
	require.NoError(t, store.DeleteSeason(rec.ID))

	_, err = store.GetSeason(rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
