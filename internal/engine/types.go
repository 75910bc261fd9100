package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPlayoffSize is returned for playoff fields outside the supported set.
	ErrInvalidPlayoffSize = errors.New("unsupported playoff field size")
	// ErrUnknownTeam is returned when an operation references a team the season does not know.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrSeasonComplete is returned when asked to simulate past the final week.
	ErrSeasonComplete = errors.New("regular season already complete")
)

// Team is a club identity for the duration of a season. The roster, card and
// coaching systems live outside this package; the engine only needs what
// influences scheduling and simulation.
type Team struct {
	Name         string `json:"name"`
	Conference   string `json:"conference"`
	Prestige     int    `json:"prestige"` // 0-100
	OffenseStyle string `json:"offense_style"`
	DefenseStyle string `json:"defense_style"`
	IsFCS        bool   `json:"is_fcs,omitempty"`
}

// GameMetrics is the per-team statistical payload for one game. Fields are
// named and required; a result that cannot fill them is rejected at the
// engine boundary instead of defaulting.
type GameMetrics struct {
	PassingYards           int     `json:"passing_yards"`
	RushingYards           int     `json:"rushing_yards"`
	RushingYardsAllowed    int     `json:"rushing_yards_allowed"`
	Turnovers              int     `json:"turnovers"`
	TurnoversForced        int     `json:"turnovers_forced"`
	DefensiveInterceptions int     `json:"defensive_interceptions"`
	Sacks                  int     `json:"sacks"`
	PossessionSeconds      float64 `json:"possession_seconds"`
}

// Game is a single scheduled contest. Created with Week 0 by the scheduler,
// given a week by week assignment, and completed exactly once at simulation
// time. Playoff games use the reserved weeks 996-1000.
type Game struct {
	Week             int          `json:"week"`
	HomeTeam         string       `json:"home_team"`
	AwayTeam         string       `json:"away_team"`
	HomeScore        float64      `json:"home_score"`
	AwayScore        float64      `json:"away_score"`
	Completed        bool         `json:"completed"`
	IsConferenceGame bool         `json:"is_conference_game"`
	IsRivalryGame    bool         `json:"is_rivalry_game"`
	IsFCSGame        bool         `json:"is_fcs_game"`
	HomeMetrics      *GameMetrics `json:"home_metrics,omitempty"`
	AwayMetrics      *GameMetrics `json:"away_metrics,omitempty"`
}

// Involves reports whether the named team plays in this game.
func (g *Game) Involves(team string) bool {
	return g.HomeTeam == team || g.AwayTeam == team
}

// Opponent returns the other side of the game, or "" if team does not play.
func (g *Game) Opponent(team string) string {
	switch team {
	case g.HomeTeam:
		return g.AwayTeam
	case g.AwayTeam:
		return g.HomeTeam
	}
	return ""
}

// Winner returns the winning team name. Ties cannot happen in Viperball;
// a tied score is treated as a home win for safety.
func (g *Game) Winner() string {
	if !g.Completed {
		return ""
	}
	if g.AwayScore > g.HomeScore {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// Loser returns the losing team name for a completed game.
func (g *Game) Loser() string {
	if !g.Completed {
		return ""
	}
	if g.Winner() == g.HomeTeam {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// PollRanking is one line of a weekly poll.
type PollRanking struct {
	Rank       int     `json:"rank"`
	Team       string  `json:"team"`
	Record     string  `json:"record"`
	PowerIndex float64 `json:"power_index"`
	PrevRank   int     `json:"prev_rank"` // 0 = previously unranked
}

// WeeklyPoll is an immutable top-25 snapshot released after a week of games.
type WeeklyPoll struct {
	Week     int           `json:"week"`
	Rankings []PollRanking `json:"rankings"`
}

// RankOf returns a team's rank in the poll, or 0 if unranked.
func (p *WeeklyPoll) RankOf(team string) int {
	for _, r := range p.Rankings {
		if r.Team == team {
			return r.Rank
		}
	}
	return 0
}

// PlayoffBid records how a team made the playoff field.
type PlayoffBid struct {
	Team       string  `json:"team"`
	Seed       int     `json:"seed"`
	AutoBid    bool    `json:"auto_bid"`
	Conference string  `json:"conference,omitempty"`
	PowerIndex float64 `json:"power_index"`
}

// BowlGame pairs two non-playoff teams into an exhibition game.
type BowlGame struct {
	Name string `json:"name"`
	Game *Game  `json:"game"`
}

func (b *BowlGame) String() string {
	return fmt.Sprintf("%s: %s vs %s", b.Name, b.Game.HomeTeam, b.Game.AwayTeam)
}
