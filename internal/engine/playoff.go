package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Playoff rounds use reserved week numbers so they can never collide with
// regular-season weeks. The final is always week 1000.
const (
	WeekBowls        = 995
	WeekOpeningRound = 996
	WeekRoundOf16    = 997
	WeekQuarterfinal = 998
	WeekSemifinal    = 999
	WeekFinal        = 1000
)

// supportedPlayoffSizes are the only bracket formats the resolver knows.
var supportedPlayoffSizes = map[int]bool{4: true, 8: true, 12: true, 16: true, 24: true, 32: true}

// byeSeeds returns how many top seeds skip the opening round for a format.
func byeSeeds(size int) int {
	switch size {
	case 12:
		return 4
	case 24:
		return 8
	}
	return 0
}

// ConferenceChampions returns each conference's champion: best conference
// win percentage, with overall win percentage and point differential as
// tiebreakers. Ordered by conference name for determinism.
func (s *Season) ConferenceChampions() []PlayoffBid {
	confNames := make([]string, 0, len(s.Conferences))
	for conf := range s.Conferences {
		confNames = append(confNames, conf)
	}
	sort.Strings(confNames)

	var champs []PlayoffBid
	for _, conf := range confNames {
		members := s.Conferences[conf]
		if len(members) == 0 {
			continue
		}
		best := ""
		for _, m := range members {
			if best == "" || s.confTiebreak(m, best) {
				best = m
			}
		}
		champs = append(champs, PlayoffBid{Team: best, AutoBid: true, Conference: conf})
	}
	return champs
}

// confTiebreak reports whether a should rank ahead of b for a conference title.
func (s *Season) confTiebreak(a, b string) bool {
	ra, rb := s.Standings[a], s.Standings[b]
	if ra.ConfWinPct() != rb.ConfWinPct() {
		return ra.ConfWinPct() > rb.ConfWinPct()
	}
	if ra.WinPct() != rb.WinPct() {
		return ra.WinPct() > rb.WinPct()
	}
	return ra.PointDiff() > rb.PointDiff()
}

// GetPlayoffTeams selects the playoff field: every conference champion gets an
// automatic bid, remaining slots go to the best Power Index teams, and the
// whole field is re-seeded purely by Power Index regardless of bid type.
func (s *Season) GetPlayoffTeams(size int) ([]PlayoffBid, error) {
	if !supportedPlayoffSizes[size] {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayoffSize, size)
	}

	rankings := s.currentRankings()
	indexOf := make(map[string]float64)
	eligible := s.pollEligibleTeams()
	for _, name := range eligible {
		indexOf[name] = s.powerIndex(name, rankings)
	}

	if size > len(eligible) {
		size = len(eligible)
	}

	champs := s.ConferenceChampions()
	var field []PlayoffBid
	inField := make(map[string]bool)

	if len(champs) > 0 && size >= len(champs) {
		for _, c := range champs {
			c.PowerIndex = indexOf[c.Team]
			field = append(field, c)
			inField[c.Team] = true
		}
	}

	// At-large: best remaining by Power Index.
	byIndex := append([]string(nil), eligible...)
	sort.SliceStable(byIndex, func(i, j int) bool { return indexOf[byIndex[i]] > indexOf[byIndex[j]] })
	for _, name := range byIndex {
		if len(field) >= size {
			break
		}
		if inField[name] {
			continue
		}
		field = append(field, PlayoffBid{Team: name, PowerIndex: indexOf[name]})
		inField[name] = true
	}

	// Seeding ignores bid type entirely.
	sort.SliceStable(field, func(i, j int) bool { return field[i].PowerIndex > field[j].PowerIndex })
	for i := range field {
		field[i].Seed = i + 1
	}
	return field, nil
}

// SimulatePlayoff resolves a single-elimination bracket of the given size.
// Seeds pair 1 vs N, 2 vs N-1 and so on; the 12 and 24 formats give the top
// seeds a bye into the second round. Winners re-seed every round. The
// champion is the winner of the week-1000 game.
func (s *Season) SimulatePlayoff(ctx context.Context, size int) error {
	field, err := s.GetPlayoffTeams(size)
	if err != nil {
		return err
	}
	// A short league can leave fewer teams than the requested bracket; trim
	// to the largest format that still fits so the rounds stay aligned.
	for len(field) > 0 && !supportedPlayoffSizes[len(field)] {
		field = field[:len(field)-1]
	}
	if len(field) < 4 {
		return fmt.Errorf("%w: only %d teams available", ErrInvalidPlayoffSize, len(field))
	}
	s.PlayoffField = field
	s.PlayoffBracket = nil

	week := openingWeek(len(field))
	alive := field

	if byes := byeSeeds(len(field)); byes > 0 {
		winners, err := s.playRound(ctx, alive[byes:], week)
		if err != nil {
			return err
		}
		alive = reseed(append(append([]PlayoffBid(nil), alive[:byes]...), winners...))
		week++
	}

	for len(alive) > 1 {
		winners, err := s.playRound(ctx, alive, week)
		if err != nil {
			return err
		}
		alive = reseed(winners)
		week++
	}

	if len(s.PlayoffBracket) > 0 {
		final := s.PlayoffBracket[len(s.PlayoffBracket)-1]
		if final.Week == WeekFinal {
			s.Champion = final.Winner()
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"year":     s.Year,
			"field":    len(field),
			"champion": s.Champion,
		}).Info("Playoff complete")
	}
	return nil
}

// openingWeek places the first round so the final always lands on week 1000.
func openingWeek(size int) int {
	switch size {
	case 4:
		return WeekSemifinal
	case 8:
		return WeekQuarterfinal
	case 12, 16:
		return WeekRoundOf16
	default:
		return WeekOpeningRound
	}
}

// playRound pairs the bracket top-vs-bottom and simulates each game. The
// higher seed hosts.
func (s *Season) playRound(ctx context.Context, entrants []PlayoffBid, week int) ([]PlayoffBid, error) {
	winners := make([]PlayoffBid, 0, len(entrants)/2)
	for i := 0; i < len(entrants)/2; i++ {
		high, low := entrants[i], entrants[len(entrants)-1-i]
		g := &Game{
			Week:     week,
			HomeTeam: high.Team,
			AwayTeam: low.Team,
		}
		if err := s.playPostseasonGame(ctx, g); err != nil {
			return nil, err
		}
		s.PlayoffBracket = append(s.PlayoffBracket, g)
		if g.Winner() == high.Team {
			winners = append(winners, high)
		} else {
			winners = append(winners, low)
		}
	}
	return winners, nil
}

// playPostseasonGame simulates a bracket or bowl game. Postseason results do
// not feed the regular-season standings.
func (s *Season) playPostseasonGame(ctx context.Context, g *Game) error {
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
	return nil
}

func reseed(bids []PlayoffBid) []PlayoffBid {
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Seed < bids[j].Seed })
	return bids
}

var bowlNames = []string{
	"Venom Bowl", "Strike Bowl", "Fang Bowl", "Sidewinder Bowl",
	"Cobra Classic", "Rattler Bowl", "Mamba Bowl", "Copperhead Classic",
	"Diamondback Bowl", "Pit Bowl", "Coil Bowl", "Serpent Bowl",
	"Adder Bowl", "Boa Bowl", "Krait Classic", "Taipan Bowl",
}

// bowlCountTable maps (league-size bucket, playoff size) to a recommended
// bowl count. Buckets are the smallest table key >= league size.
var bowlCountTable = map[int]map[int]int{
	16:  {4: 4, 8: 3, 12: 2, 16: 0},
	32:  {4: 10, 8: 8, 12: 7, 16: 6, 24: 3, 32: 0},
	64:  {4: 16, 8: 14, 12: 12, 16: 12, 24: 10, 32: 8},
	128: {4: 16, 8: 16, 12: 16, 16: 14, 24: 12, 32: 10},
}

// RecommendedBowlCount looks up a sensible bowl slate for the league and
// playoff shape.
func RecommendedBowlCount(leagueSize, playoffSize int) int {
	buckets := make([]int, 0, len(bowlCountTable))
	for b := range bowlCountTable {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)
	for _, b := range buckets {
		if leagueSize <= b {
			if count, ok := bowlCountTable[b][playoffSize]; ok {
				return count
			}
			break
		}
	}
	count := (leagueSize - playoffSize) / 4
	if count < 0 {
		count = 0
	}
	return count
}

// SimulateBowls pairs leftover teams into bowl games. Teams at or above .500
// form the primary pool, backfilled from below when thin; pairing greedily
// picks the closest match by win difference, nudged apart by conference.
func (s *Season) SimulateBowls(ctx context.Context, bowlCount int) error {
	if bowlCount <= 0 {
		bowlCount = RecommendedBowlCount(len(s.pollEligibleTeams()), len(s.PlayoffField))
	}
	if bowlCount == 0 {
		return nil
	}

	inPlayoff := make(map[string]bool, len(s.PlayoffField))
	for _, bid := range s.PlayoffField {
		inPlayoff[bid.Team] = true
	}

	maxGames := 0
	for _, name := range s.pollEligibleTeams() {
		if gp := s.Standings[name].GamesPlayed(); gp > maxGames {
			maxGames = gp
		}
	}
	var pool, belowLine []string
	for _, name := range s.pollEligibleTeams() {
		if inPlayoff[name] {
			continue
		}
		// Wins*2 keeps the line exact for odd game counts: 5-6 is below .500.
		if s.Standings[name].Wins*2 >= maxGames {
			pool = append(pool, name)
		} else {
			belowLine = append(belowLine, name)
		}
	}
	if len(pool) < bowlCount*2 {
		sort.SliceStable(belowLine, func(i, j int) bool {
			return s.Standings[belowLine[i]].Wins > s.Standings[belowLine[j]].Wins
		})
		need := bowlCount*2 - len(pool)
		if need > len(belowLine) {
			need = len(belowLine)
		}
		pool = append(pool, belowLine[:need]...)
	}

	used := make(map[string]bool)
	for len(s.BowlGames) < bowlCount {
		bestA, bestB := "", ""
		bestScore := 0.0
		for i := 0; i < len(pool); i++ {
			for j := i + 1; j < len(pool); j++ {
				a, b := pool[i], pool[j]
				if used[a] || used[b] {
					continue
				}
				score := float64(abs(s.Standings[a].Wins - s.Standings[b].Wins))
				if s.Teams[a].Conference != "" && s.Teams[a].Conference == s.Teams[b].Conference {
					score += 2
				}
				if bestA == "" || score < bestScore {
					bestA, bestB, bestScore = a, b, score
				}
			}
		}
		if bestA == "" {
			break
		}
		used[bestA], used[bestB] = true, true

		g := &Game{Week: WeekBowls, HomeTeam: bestA, AwayTeam: bestB}
		if err := s.playPostseasonGame(ctx, g); err != nil {
			return err
		}
		s.BowlGames = append(s.BowlGames, &BowlGame{
			Name: bowlNames[len(s.BowlGames)%len(bowlNames)],
			Game: g,
		})
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
