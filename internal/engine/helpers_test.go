package engine

import (
	"context"
	"fmt"
)

// scriptedEngine is a deterministic game engine for tests: the higher-prestige
// team always wins by a fixed margin, and the metrics payload is derived from
// prestige so rolling-window behavior is predictable.
type scriptedEngine struct {
	homeScore func(home, away *Team) float64
	awayScore func(home, away *Team) float64
}

func newScriptedEngine() *scriptedEngine {
	return &scriptedEngine{
		homeScore: func(home, away *Team) float64 {
			if home.Prestige >= away.Prestige {
				return 28
			}
			return 14
		},
		awayScore: func(home, away *Team) float64 {
			if away.Prestige > home.Prestige {
				return 24
			}
			return 10
		},
	}
}

func (e *scriptedEngine) Simulate(_ context.Context, home, away *Team) (*GameResult, error) {
	metricsFor := func(t *Team) GameMetrics {
		return GameMetrics{
			PassingYards:           200 + t.Prestige,
			RushingYards:           100 + t.Prestige,
			RushingYardsAllowed:    250 - t.Prestige,
			Turnovers:              2,
			TurnoversForced:        2,
			DefensiveInterceptions: 1,
			Sacks:                  2,
			PossessionSeconds:      1800,
		}
	}
	return &GameResult{
		HomeScore:   e.homeScore(home, away),
		AwayScore:   e.awayScore(home, away),
		HomeMetrics: metricsFor(home),
		AwayMetrics: metricsFor(away),
	}, nil
}

// failingEngine always errors, for propagation tests.
type failingEngine struct{}

func (failingEngine) Simulate(_ context.Context, _, _ *Team) (*GameResult, error) {
	return nil, fmt.Errorf("engine unavailable")
}

func makeTeams(prefix string, n, prestige int) []*Team {
	teams := make([]*Team, n)
	for i := 0; i < n; i++ {
		teams[i] = &Team{
			Name:         fmt.Sprintf("%s %02d", prefix, i+1),
			Prestige:     prestige,
			OffenseStyle: "balanced",
			DefenseStyle: "balanced",
		}
	}
	return teams
}

func teamNamesOf(teams []*Team) []string {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return names
}

// twoConferenceLeague builds the canonical 8-team, two-conference fixture.
func twoConferenceLeague() ([]*Team, map[string][]string) {
	north := makeTeams("North", 4, 60)
	south := makeTeams("South", 4, 55)
	for _, t := range north {
		t.Conference = "Viper North"
	}
	for _, t := range south {
		t.Conference = "Viper South"
	}
	teams := append(append([]*Team(nil), north...), south...)
	conferences := map[string][]string{
		"Viper North": teamNamesOf(north),
		"Viper South": teamNamesOf(south),
	}
	return teams, conferences
}
