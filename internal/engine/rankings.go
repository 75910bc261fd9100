package engine

import (
	"math"
	"sort"
)

const pollSize = 25

// Power Index component weights. The composite lands on a nominal 100-point
// scale: record 30, schedule strength 20, quality wins 20, non-conference 10,
// conference strength 10, scoring margin 10, minus loss-quality penalties.
const (
	winPctWeight       = 30.0
	sosWeight          = 20.0
	qualityWinCap      = 20.0
	nonConfWeight      = 10.0
	confStrengthWeight = 10.0
)

// currentRankings returns team -> rank as of the most recent poll. Before any
// poll exists, teams are ordered by win percentage then point differential,
// which seeds the circular weekly refresh the poll itself performs.
func (s *Season) currentRankings() map[string]int {
	if poll := s.LatestPoll(); poll != nil {
		ranks := make(map[string]int, len(poll.Rankings))
		for _, r := range poll.Rankings {
			ranks[r.Team] = r.Rank
		}
		return ranks
	}

	names := s.pollEligibleTeams()
	sort.SliceStable(names, func(i, j int) bool {
		a, b := s.Standings[names[i]], s.Standings[names[j]]
		if a.WinPct() != b.WinPct() {
			return a.WinPct() > b.WinPct()
		}
		return a.PointDiff() > b.PointDiff()
	})
	ranks := make(map[string]int, len(names))
	for i, name := range names {
		ranks[name] = i + 1
	}
	return ranks
}

// pollEligibleTeams excludes FCS fillers: they pad schedules, not polls.
func (s *Season) pollEligibleTeams() []string {
	var names []string
	for _, name := range s.teamNames() {
		if !s.Teams[name].IsFCS {
			names = append(names, name)
		}
	}
	return names
}

// CalculatePowerIndex computes the composite ranking score for a team from
// current season state. Recomputed on demand, never cached.
func (s *Season) CalculatePowerIndex(team string) float64 {
	return s.powerIndex(team, s.currentRankings())
}

func (s *Season) powerIndex(team string, rankings map[string]int) float64 {
	rec, ok := s.Standings[team]
	if !ok || rec.GamesPlayed() == 0 {
		return 0
	}

	index := rec.WinPct() * winPctWeight
	index += s.strengthOfSchedule(team) * sosWeight
	index += s.qualityWinScore(team, rankings)

	// Non-conference showing; neutral 5.0 before any non-conference game.
	nonConfGames := rec.NonConfWins + rec.NonConfLosses
	if nonConfGames > 0 {
		index += float64(rec.NonConfWins) / float64(nonConfGames) * nonConfWeight
	} else {
		index += 5.0
	}

	index += s.conferenceStrength(s.Teams[team].Conference) * confStrengthWeight

	// Scoring margin, clamped to [0, 10] around a -20 ppg floor.
	margin := (rec.PointDiffPerGame() + 20) * 0.25
	if margin < 0 {
		margin = 0
	} else if margin > 10 {
		margin = 10
	}
	index += margin

	index -= s.lossQualityPenalty(team, rankings)

	if index < 0 {
		index = 0
	}
	return math.Round(index*100) / 100
}

// strengthOfSchedule blends direct opponent win percentage (two thirds) with
// opponents' opponents (one third), excluding the team itself from the
// indirect chain.
func (s *Season) strengthOfSchedule(team string) float64 {
	opponents := s.completedOpponents(team)
	if len(opponents) == 0 {
		return 0
	}

	var direct float64
	for _, opp := range opponents {
		direct += s.Standings[opp].WinPct()
	}
	direct /= float64(len(opponents))

	var indirect float64
	var indirectN int
	for _, opp := range opponents {
		for _, second := range s.completedOpponents(opp) {
			if second == team {
				continue
			}
			indirect += s.Standings[second].WinPct()
			indirectN++
		}
	}
	if indirectN > 0 {
		indirect /= float64(indirectN)
	}

	return direct*2.0/3.0 + indirect*1.0/3.0
}

func (s *Season) completedOpponents(team string) []string {
	var opponents []string
	for _, g := range s.Schedule {
		if !g.Completed || !g.Involves(team) {
			continue
		}
		if opp := g.Opponent(team); opp != "" {
			opponents = append(opponents, opp)
		}
	}
	return opponents
}

// qualityWinScore awards tiered bonuses for wins over currently ranked
// opponents, capped so a soft schedule cannot be bought back.
func (s *Season) qualityWinScore(team string, rankings map[string]int) float64 {
	var score float64
	for _, g := range s.Schedule {
		if !g.Completed || g.Winner() != team {
			continue
		}
		rank, ranked := rankings[g.Opponent(team)]
		if !ranked || rank > pollSize {
			continue
		}
		switch {
		case rank <= 5:
			score += 5.0
		case rank <= 10:
			score += 3.5
		case rank <= 15:
			score += 2.5
		case rank <= 20:
			score += 1.5
		default:
			score += 1.0
		}
	}
	if score > qualityWinCap {
		score = qualityWinCap
	}
	return score
}

// lossQualityPenalty punishes bad losses far more than losses to elite teams.
func (s *Season) lossQualityPenalty(team string, rankings map[string]int) float64 {
	var penalty float64
	for _, g := range s.Schedule {
		if !g.Completed || g.Loser() != team {
			continue
		}
		rank, ranked := rankings[g.Opponent(team)]
		switch {
		case ranked && rank <= 5:
			penalty += 0.5
		case ranked && rank <= 10:
			penalty += 1.0
		case ranked && rank <= pollSize:
			penalty += 2.0
		default:
			penalty += 3.5
		}
	}
	return penalty
}

// conferenceStrength is the conference's aggregate non-conference win ratio.
// Teams outside any conference get a neutral 0.5.
func (s *Season) conferenceStrength(conference string) float64 {
	members, ok := s.Conferences[conference]
	if !ok || len(members) == 0 {
		return 0.5
	}
	var wins, games int
	for _, m := range members {
		rec := s.Standings[m]
		wins += rec.NonConfWins
		games += rec.NonConfWins + rec.NonConfLosses
	}
	if games == 0 {
		return 0.5
	}
	return float64(wins) / float64(games)
}

// generateWeeklyPoll recomputes every eligible team's Power Index against the
// previous poll's rankings, takes the top 25, and appends an immutable
// snapshot. Poll-of-week-N sees rankings as of poll-of-week-(N-1).
func (s *Season) generateWeeklyPoll(week int) *WeeklyPoll {
	rankings := s.currentRankings()
	prev := s.LatestPoll()

	type entry struct {
		team  string
		index float64
	}
	names := s.pollEligibleTeams()
	entries := make([]entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, entry{team: name, index: s.powerIndex(name, rankings)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].index != entries[j].index {
			return entries[i].index > entries[j].index
		}
		return s.Standings[entries[i].team].PointDiff() > s.Standings[entries[j].team].PointDiff()
	})

	size := pollSize
	if len(entries) < size {
		size = len(entries)
	}
	poll := &WeeklyPoll{Week: week, Rankings: make([]PollRanking, 0, size)}
	for i := 0; i < size; i++ {
		prevRank := 0
		if prev != nil {
			prevRank = prev.RankOf(entries[i].team)
		}
		poll.Rankings = append(poll.Rankings, PollRanking{
			Rank:       i + 1,
			Team:       entries[i].team,
			Record:     s.Standings[entries[i].team].RecordString(),
			PowerIndex: entries[i].index,
			PrevRank:   prevRank,
		})
	}

	s.WeeklyPolls = append(s.WeeklyPolls, poll)
	return poll
}
