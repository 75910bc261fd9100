package engine

import "fmt"

// FlagState is the lifecycle of a prestige flag within one season.
type FlagState int

const (
	FlagInactive FlagState = iota
	FlagTracking
	FlagEarned // terminal for the season
)

func (s FlagState) String() string {
	switch s {
	case FlagTracking:
		return "tracking"
	case FlagEarned:
		return "earned"
	}
	return "inactive"
}

// prestigeStreakLength is how many consecutive qualifying games earn a flag.
const prestigeStreakLength = 3

// prestigeFlag tracks one defensive identity over consecutive games.
// Once earned it never resets within the season.
type prestigeFlag struct {
	State  FlagState `json:"state"`
	Streak int       `json:"streak"`
}

func (f *prestigeFlag) observe(qualifies bool) {
	if f.State == FlagEarned {
		return
	}
	if !qualifies {
		f.State = FlagInactive
		f.Streak = 0
		return
	}
	f.Streak++
	f.State = FlagTracking
	if f.Streak >= prestigeStreakLength {
		f.State = FlagEarned
	}
}

func (f *prestigeFlag) earned() bool {
	return f.State == FlagEarned
}

// TeamRecord accumulates one team's season. It is owned by exactly one Season
// and mutated exactly once per completed game via AddGameResult.
type TeamRecord struct {
	Team string `json:"team"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	ConfWins   int `json:"conf_wins"`
	ConfLosses int `json:"conf_losses"`

	NonConfWins   int `json:"non_conf_wins"`
	NonConfLosses int `json:"non_conf_losses"`

	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`

	// Per-game history, in completion order. Feeds the rolling-window
	// prestige checks and the averaged stat lines the UI reads.
	MetricsHistory []GameMetrics `json:"metrics_history"`

	NoFlyZone       prestigeFlag `json:"no_fly_zone"`
	BrickWall       prestigeFlag `json:"brick_wall"`
	TurnoverMachine prestigeFlag `json:"turnover_machine"`
}

// NewTeamRecord returns a zeroed record for the named team.
func NewTeamRecord(team string) *TeamRecord {
	return &TeamRecord{Team: team}
}

// AddGameResult folds one completed game into the record. The caller
// guarantees non-negative scores and a fully populated metrics payload;
// this is a pure accumulate-and-append with no validation.
func (r *TeamRecord) AddGameResult(won bool, pointsFor, pointsAgainst float64, metrics GameMetrics, isConferenceGame bool) {
	if won {
		r.Wins++
		if isConferenceGame {
			r.ConfWins++
		} else {
			r.NonConfWins++
		}
	} else {
		r.Losses++
		if isConferenceGame {
			r.ConfLosses++
		} else {
			r.NonConfLosses++
		}
	}

	r.PointsFor += pointsFor
	r.PointsAgainst += pointsAgainst
	r.MetricsHistory = append(r.MetricsHistory, metrics)

	// No-Fly Zone: 2+ defensive interceptions per game.
	r.NoFlyZone.observe(metrics.DefensiveInterceptions >= 2)
	// Brick Wall: under 200 rushing yards allowed.
	r.BrickWall.observe(metrics.RushingYardsAllowed < 200)
	// Turnover Machine: 4+ turnovers forced.
	r.TurnoverMachine.observe(metrics.TurnoversForced >= 4)
}

// GamesPlayed returns the number of completed games recorded.
func (r *TeamRecord) GamesPlayed() int {
	return r.Wins + r.Losses
}

// WinPct returns wins over games played, 0 before any game.
func (r *TeamRecord) WinPct() float64 {
	if r.GamesPlayed() == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.GamesPlayed())
}

// ConfWinPct returns conference wins over conference games, 0 before any.
func (r *TeamRecord) ConfWinPct() float64 {
	games := r.ConfWins + r.ConfLosses
	if games == 0 {
		return 0
	}
	return float64(r.ConfWins) / float64(games)
}

// PointDiff returns total points for minus points against.
func (r *TeamRecord) PointDiff() float64 {
	return r.PointsFor - r.PointsAgainst
}

// PointDiffPerGame returns the average scoring margin, 0 before any game.
func (r *TeamRecord) PointDiffPerGame() float64 {
	if r.GamesPlayed() == 0 {
		return 0
	}
	return r.PointDiff() / float64(r.GamesPlayed())
}

// RecordString formats the record as "W-L".
func (r *TeamRecord) RecordString() string {
	return fmt.Sprintf("%d-%d", r.Wins, r.Losses)
}

// HasNoFlyZone reports whether the No-Fly Zone flag has been earned.
func (r *TeamRecord) HasNoFlyZone() bool { return r.NoFlyZone.earned() }

// HasBrickWall reports whether the Brick Wall flag has been earned.
func (r *TeamRecord) HasBrickWall() bool { return r.BrickWall.earned() }

// HasTurnoverMachine reports whether the Turnover Machine flag has been earned.
func (r *TeamRecord) HasTurnoverMachine() bool { return r.TurnoverMachine.earned() }

// AverageMetrics returns per-game averages across the recorded history.
func (r *TeamRecord) AverageMetrics() GameMetrics {
	n := len(r.MetricsHistory)
	if n == 0 {
		return GameMetrics{}
	}
	var sum GameMetrics
	for _, m := range r.MetricsHistory {
		sum.PassingYards += m.PassingYards
		sum.RushingYards += m.RushingYards
		sum.RushingYardsAllowed += m.RushingYardsAllowed
		sum.Turnovers += m.Turnovers
		sum.TurnoversForced += m.TurnoversForced
		sum.DefensiveInterceptions += m.DefensiveInterceptions
		sum.Sacks += m.Sacks
		sum.PossessionSeconds += m.PossessionSeconds
	}
	return GameMetrics{
		PassingYards:           sum.PassingYards / n,
		RushingYards:           sum.RushingYards / n,
		RushingYardsAllowed:    sum.RushingYardsAllowed / n,
		Turnovers:              sum.Turnovers / n,
		TurnoversForced:        sum.TurnoversForced / n,
		DefensiveInterceptions: sum.DefensiveInterceptions / n,
		Sacks:                  sum.Sacks / n,
		PossessionSeconds:      sum.PossessionSeconds / float64(n),
	}
}
