package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
)

// ErrSeasonInProgress is returned when a postseason or dynasty advance is
// requested before the regular season has finished.
var ErrSeasonInProgress = errors.New("regular season still in progress")

const seasonCacheTTL = 10 * time.Minute

// EngineFactory builds a game engine for one season. The seed makes resumed
// seasons reproducible.
type EngineFactory func(seed uint64) engine.GameEngine

// SeasonManager orchestrates the league: it owns the lifecycle of dynasties
// and seasons, runs simulations through the engine, persists every step, and
// fans results out to cache and spectators.
type SeasonManager struct {
	store      *models.SeasonStore
	cache      *CacheService
	hub        *WebSocketHub
	engineFor  EngineFactory
	defaultCfg engine.ScheduleConfig
	logger     *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSeasonManager(store *models.SeasonStore, cache *CacheService, hub *WebSocketHub, engineFor EngineFactory, defaultCfg engine.ScheduleConfig, logger *logrus.Logger) *SeasonManager {
	return &SeasonManager{
		store:      store,
		cache:      cache,
		hub:        hub,
		engineFor:  engineFor,
		defaultCfg: defaultCfg,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// seasonLock serializes all mutation of one season.
func (m *SeasonManager) seasonLock(seasonID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[seasonID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[seasonID] = lock
	}
	return lock
}

// seasonSeed derives a stable seed from the dynasty identity and year so the
// same dynasty replayed from scratch produces the same schedule.
func seasonSeed(dynastyID string, year int) int64 {
	return int64(crc32.ChecksumIEEE([]byte(dynastyID))) + int64(year)
}

// engineSeed derives the game-engine seed from the season record identity so
// a reloaded season resumes on the same simulation stream it started with.
func engineSeed(seasonID string, year int) uint64 {
	return uint64(crc32.ChecksumIEEE([]byte(seasonID))) + uint64(year)
}

// CreateDynasty registers a new league.
func (m *SeasonManager) CreateDynasty(name string, teams []*engine.Team, conferences map[string][]string, cfg engine.ScheduleConfig, startYear int) (*models.Dynasty, error) {
	if name == "" {
		return nil, fmt.Errorf("dynasty name required")
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("need at least 2 teams, got %d", len(teams))
	}

	teamsJSON, err := json.Marshal(teams)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize teams: %w", err)
	}
	confJSON, err := json.Marshal(conferences)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize conferences: %w", err)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}

	d := &models.Dynasty{
		Name:        name,
		CurrentYear: startYear,
		Teams:       teamsJSON,
		Conferences: confJSON,
		Config:      cfgJSON,
	}
	if err := m.store.CreateDynasty(d); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"dynasty_id": d.ID,
		"name":       name,
		"teams":      len(teams),
		"year":       startYear,
	}).Info("Dynasty created")
	return d, nil
}

// GetDynasty loads a dynasty by ID.
func (m *SeasonManager) GetDynasty(id string) (*models.Dynasty, error) {
	return m.store.GetDynasty(id)
}

// ListDynasties returns all dynasties.
func (m *SeasonManager) ListDynasties() ([]models.Dynasty, error) {
	return m.store.ListDynasties()
}

// ListSeasons returns a dynasty's seasons ordered by year.
func (m *SeasonManager) ListSeasons(dynastyID string) ([]models.SeasonRecord, error) {
	return m.store.SeasonsForDynasty(dynastyID)
}

// StartSeason builds and persists a fresh season for the dynasty's current
// year. The schedule is generated immediately; no games are played.
func (m *SeasonManager) StartSeason(ctx context.Context, dynastyID string) (*models.SeasonRecord, *engine.Season, error) {
	d, err := m.store.GetDynasty(dynastyID)
	if err != nil {
		return nil, nil, err
	}

	var teams []*engine.Team
	if err := json.Unmarshal(d.Teams, &teams); err != nil {
		return nil, nil, fmt.Errorf("dynasty %s has corrupt team data: %w", d.ID, err)
	}
	var conferences map[string][]string
	if len(d.Conferences) > 0 {
		if err := json.Unmarshal(d.Conferences, &conferences); err != nil {
			return nil, nil, fmt.Errorf("dynasty %s has corrupt conference data: %w", d.ID, err)
		}
	}
	cfg := m.defaultCfg
	if len(d.Config) > 0 {
		if err := json.Unmarshal(d.Config, &cfg); err != nil {
			return nil, nil, fmt.Errorf("dynasty %s has corrupt schedule config: %w", d.ID, err)
		}
	}
	cfg.DynastyYear = d.CurrentYear

	// The record ID is minted up front: the game engine is seeded from it,
	// which is the seed rehydrate re-derives after a reload.
	recID := uuid.New().String()
	seed := seasonSeed(d.ID, d.CurrentYear)
	season, err := engine.NewSeason(d.CurrentYear, teams, conferences, cfg, m.engineFor(engineSeed(recID, d.CurrentYear)), seed, m.logger)
	if err != nil {
		return nil, nil, err
	}

	rec, err := models.NewSeasonRecord(d.ID, season)
	if err != nil {
		return nil, nil, err
	}
	rec.ID = recID
	if err := m.store.SaveSeason(rec); err != nil {
		return nil, nil, err
	}
	m.cacheSeason(ctx, rec.ID, season)

	if m.hub != nil {
		m.hub.BroadcastToSeason(rec.ID, "season_started", map[string]interface{}{
			"year":  season.Year,
			"weeks": season.TotalWeeks(),
		})
	}
	return rec, season, nil
}

// GetSeason loads a season, trying the cache before the database.
func (m *SeasonManager) GetSeason(ctx context.Context, seasonID string) (*engine.Season, error) {
	if m.cache != nil {
		var cached engine.Season
		if err := m.cache.Get(ctx, SeasonCacheKey(seasonID), &cached); err == nil {
			m.rehydrate(seasonID, &cached)
			return &cached, nil
		}
	}

	rec, err := m.store.GetSeason(seasonID)
	if err != nil {
		return nil, err
	}
	season, err := rec.Season()
	if err != nil {
		return nil, err
	}
	m.rehydrate(seasonID, season)
	m.cacheSeason(ctx, seasonID, season)
	return season, nil
}

func (m *SeasonManager) rehydrate(seasonID string, season *engine.Season) {
	season.Rehydrate(m.engineFor(engineSeed(seasonID, season.Year)), m.logger)
}

func (m *SeasonManager) cacheSeason(ctx context.Context, seasonID string, season *engine.Season) {
	if m.cache == nil {
		return
	}
	if err := m.cache.SetWithRetry(ctx, SeasonCacheKey(seasonID), season, seasonCacheTTL, 3); err != nil {
		m.logger.WithError(err).WithField("season_id", seasonID).Warn("Failed to cache season")
	}
}

// persist writes the season back to storage and refreshes the cache.
func (m *SeasonManager) persist(ctx context.Context, seasonID string, season *engine.Season) error {
	rec, err := m.store.GetSeason(seasonID)
	if err != nil {
		return err
	}
	if err := rec.CaptureSeason(season); err != nil {
		return err
	}
	if err := m.store.SaveSeason(rec); err != nil {
		return err
	}
	m.cacheSeason(ctx, seasonID, season)
	return nil
}

// SimulateWeek plays the season's next week, persists, and notifies
// spectators of the results and the new poll.
func (m *SeasonManager) SimulateWeek(ctx context.Context, seasonID string) (int, []*engine.Game, error) {
	lock := m.seasonLock(seasonID)
	lock.Lock()
	defer lock.Unlock()

	season, err := m.GetSeason(ctx, seasonID)
	if err != nil {
		return 0, nil, err
	}

	week, games, err := season.SimulateWeek(ctx)
	if err != nil {
		return week, games, err
	}
	if err := m.persist(ctx, seasonID, season); err != nil {
		return week, games, err
	}

	if m.hub != nil {
		m.hub.BroadcastToSeason(seasonID, "week_complete", map[string]interface{}{
			"week":  week,
			"games": games,
		})
		if poll := season.LatestPoll(); poll != nil && poll.Week == week {
			m.hub.BroadcastToSeason(seasonID, "poll_released", poll)
		}
	}
	return week, games, nil
}

// SimulateSeason drives the remaining regular-season weeks to completion.
func (m *SeasonManager) SimulateSeason(ctx context.Context, seasonID string) (*engine.Season, error) {
	lock := m.seasonLock(seasonID)
	lock.Lock()
	defer lock.Unlock()

	season, err := m.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	if err := season.SimulateRegularSeason(ctx); err != nil {
		return nil, err
	}
	if err := m.persist(ctx, seasonID, season); err != nil {
		return nil, err
	}

	if m.hub != nil {
		m.hub.BroadcastToSeason(seasonID, "regular_season_complete", map[string]interface{}{
			"year":  season.Year,
			"weeks": season.TotalWeeks(),
		})
	}
	return season, nil
}

// SimulatePostseason resolves the playoff bracket and bowl slate. The
// regular season must be finished first.
func (m *SeasonManager) SimulatePostseason(ctx context.Context, seasonID string, playoffSize, bowlCount int) (*engine.Season, error) {
	lock := m.seasonLock(seasonID)
	lock.Lock()
	defer lock.Unlock()

	season, err := m.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	if !season.RegularSeasonComplete() {
		return nil, fmt.Errorf("%w: week %d still pending", ErrSeasonInProgress, season.CurrentWeek())
	}

	if err := season.SimulatePostseason(ctx, playoffSize, bowlCount); err != nil {
		return nil, err
	}
	if err := m.persist(ctx, seasonID, season); err != nil {
		return nil, err
	}

	if m.hub != nil {
		m.hub.BroadcastToSeason(seasonID, "champion_crowned", map[string]interface{}{
			"champion": season.Champion,
			"bracket":  season.PlayoffBracket,
			"bowls":    season.BowlGames,
		})
	}
	return season, nil
}

// AdvanceDynasty closes out the dynasty's year and starts the next season.
// The current season must have crowned a champion.
func (m *SeasonManager) AdvanceDynasty(ctx context.Context, dynastyID string) (*models.SeasonRecord, *engine.Season, error) {
	d, err := m.store.GetDynasty(dynastyID)
	if err != nil {
		return nil, nil, err
	}

	latest, err := m.store.LatestSeason(dynastyID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}
	if latest != nil {
		if !latest.Complete {
			return nil, nil, fmt.Errorf("%w: season %d has no champion yet", ErrSeasonInProgress, latest.Year)
		}
		d.CurrentYear = latest.Year + 1
		if err := m.store.UpdateDynasty(d); err != nil {
			return nil, nil, err
		}
	}

	m.logger.WithFields(logrus.Fields{
		"dynasty_id": d.ID,
		"year":       d.CurrentYear,
	}).Info("Dynasty advanced to new season")
	return m.StartSeason(ctx, dynastyID)
}
