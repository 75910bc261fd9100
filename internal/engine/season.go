package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// Season owns everything for one simulated year: teams, schedule, standings,
// polls, and the postseason. Nothing is shared across seasons; a new dynasty
// year starts fresh records for every team.
type Season struct {
	Year        int                    `json:"year"`
	Teams       map[string]*Team       `json:"teams"`
	Conferences map[string][]string    `json:"conferences"`
	Schedule    []*Game                `json:"schedule"`
	Standings   map[string]*TeamRecord `json:"standings"`
	WeeklyPolls []*WeeklyPoll          `json:"weekly_polls"`

	PlayoffField   []PlayoffBid `json:"playoff_field,omitempty"`
	PlayoffBracket []*Game      `json:"playoff_bracket,omitempty"`
	BowlGames      []*BowlGame  `json:"bowl_games,omitempty"`
	Champion       string       `json:"champion,omitempty"`

	cfg        ScheduleConfig
	rng        *rand.Rand
	gameEngine GameEngine
	logger     *logrus.Logger
}

// NewSeason builds a season: registers teams, zeroes standings, and generates
// the schedule. The seed controls every random decision the season makes
// outside of the injected game engine.
func NewSeason(year int, teams []*Team, conferences map[string][]string, cfg ScheduleConfig, gameEngine GameEngine, seed int64, logger *logrus.Logger) (*Season, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("need at least 2 teams, got %d", len(teams))
	}

	s := &Season{
		Year:        year,
		Teams:       make(map[string]*Team, len(teams)),
		Conferences: make(map[string][]string, len(conferences)),
		Standings:   make(map[string]*TeamRecord, len(teams)),
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(seed)),
		gameEngine:  gameEngine,
		logger:      logger,
	}

	for _, t := range teams {
		if _, dup := s.Teams[t.Name]; dup {
			return nil, fmt.Errorf("duplicate team %q", t.Name)
		}
		s.Teams[t.Name] = t
		s.Standings[t.Name] = NewTeamRecord(t.Name)
	}
	for conf, members := range conferences {
		kept := make([]string, 0, len(members))
		for _, m := range members {
			if _, ok := s.Teams[m]; ok {
				kept = append(kept, m)
			}
		}
		s.Conferences[conf] = kept
	}

	sched := NewScheduler(cfg, s.rng, logger)
	roster := make([]*Team, 0, len(s.Teams))
	for _, name := range s.teamNames() {
		roster = append(roster, s.Teams[name])
	}
	games, fillers := sched.Generate(roster, s.Conferences)
	s.Schedule = games
	for _, f := range fillers {
		s.Teams[f.Name] = f
		s.Standings[f.Name] = NewTeamRecord(f.Name)
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"year":    year,
			"teams":   len(s.Teams),
			"games":   len(games),
			"fillers": len(fillers),
			"weeks":   s.TotalWeeks(),
		}).Info("Season schedule generated")
	}

	return s, nil
}

func (s *Season) teamNames() []string {
	names := make([]string, 0, len(s.Teams))
	for name := range s.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalWeeks returns the last regular-season week number.
func (s *Season) TotalWeeks() int {
	last := 0
	for _, g := range s.Schedule {
		if g.Week > last {
			last = g.Week
		}
	}
	return last
}

// CurrentWeek returns the earliest week with an unplayed game, or 0 when the
// regular season is complete.
func (s *Season) CurrentWeek() int {
	current := 0
	for _, g := range s.Schedule {
		if g.Completed {
			continue
		}
		if current == 0 || g.Week < current {
			current = g.Week
		}
	}
	return current
}

// RegularSeasonComplete reports whether every scheduled game has been played.
func (s *Season) RegularSeasonComplete() bool {
	return s.CurrentWeek() == 0
}

// GamesInWeek returns the scheduled games for one week.
func (s *Season) GamesInWeek(week int) []*Game {
	var games []*Game
	for _, g := range s.Schedule {
		if g.Week == week {
			games = append(games, g)
		}
	}
	return games
}

// SimulateWeek plays every unfinished game of the current week through the
// game engine, folds results into standings, then releases the weekly poll.
func (s *Season) SimulateWeek(ctx context.Context) (int, []*Game, error) {
	week := s.CurrentWeek()
	if week == 0 {
		return 0, nil, ErrSeasonComplete
	}

	var played []*Game
	for _, g := range s.Schedule {
		if g.Week != week || g.Completed {
			continue
		}
		if err := s.playGame(ctx, g); err != nil {
			return week, played, fmt.Errorf("week %d, %s at %s: %w", week, g.AwayTeam, g.HomeTeam, err)
		}
		played = append(played, g)
	}

	if len(played) > 0 {
		s.generateWeeklyPoll(week)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"year":  s.Year,
			"week":  week,
			"games": len(played),
		}).Info("Week simulated")
	}

	return week, played, nil
}

// SimulateRegularSeason drives every remaining week to completion.
func (s *Season) SimulateRegularSeason(ctx context.Context) error {
	for {
		_, _, err := s.SimulateWeek(ctx)
		if err == ErrSeasonComplete {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// playGame runs one game through the engine and applies the result. Score,
// metrics and the completed flag are set exactly once, here.
func (s *Season) playGame(ctx context.Context, g *Game) error {
	home, ok := s.Teams[g.HomeTeam]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, g.HomeTeam)
	}
	away, ok := s.Teams[g.AwayTeam]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, g.AwayTeam)
	}

	result, err := s.gameEngine.Simulate(ctx, home, away)
	if err != nil {
		return err
	}

	g.HomeScore = result.HomeScore
	g.AwayScore = result.AwayScore
	g.HomeMetrics = &result.HomeMetrics
	g.AwayMetrics = &result.AwayMetrics
	g.Completed = true

	s.Standings[g.HomeTeam].AddGameResult(
		g.Winner() == g.HomeTeam, g.HomeScore, g.AwayScore, result.HomeMetrics, g.IsConferenceGame)
	s.Standings[g.AwayTeam].AddGameResult(
		g.Winner() == g.AwayTeam, g.AwayScore, g.HomeScore, result.AwayMetrics, g.IsConferenceGame)

	return nil
}

// SimulatePostseason resolves the playoff bracket and then fills the bowl
// slate from the leftover teams.
func (s *Season) SimulatePostseason(ctx context.Context, playoffSize, bowlCount int) error {
	if err := s.SimulatePlayoff(ctx, playoffSize); err != nil {
		return err
	}
	return s.SimulateBowls(ctx, bowlCount)
}

// Rehydrate reattaches the runtime pieces a season loses in storage. Only
// exported state is persisted; the game engine and logger must be supplied
// again before simulation can continue.
func (s *Season) Rehydrate(gameEngine GameEngine, logger *logrus.Logger) {
	s.gameEngine = gameEngine
	s.logger = logger
}

// LatestPoll returns the most recent weekly poll, or nil before any release.
func (s *Season) LatestPoll() *WeeklyPoll {
	if len(s.WeeklyPolls) == 0 {
		return nil
	}
	return s.WeeklyPolls[len(s.WeeklyPolls)-1]
}
