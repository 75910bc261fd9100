package engine

import (
	"fmt"
	"hash/crc32"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// maxConferenceGames caps conference play regardless of conference size.
const maxConferenceGames = 8

// balanceAttempts bounds the reshuffle loop for conference round selection.
const balanceAttempts = 10

// nonConfFillPasses bounds the greedy non-conference matching loop.
const nonConfFillPasses = 3

// ScheduleConfig is the scheduling surface consumed by the engine.
type ScheduleConfig struct {
	// GamesPerTeam is the target game count G. Zero selects the full
	// round-robin fallback.
	GamesPerTeam int `json:"games_per_team"`

	// NonConfWeeks is how many leading weeks are reserved for
	// non-conference play. Derived from the schedule when zero.
	NonConfWeeks int `json:"non_conf_weeks"`

	// ConferenceWeight is accepted for compatibility with older season
	// configs but does not influence round selection.
	ConferenceWeight float64 `json:"conference_weight,omitempty"`

	// PinnedMatchups are user-specified games, home team first. Always
	// honored before any generated pairing.
	PinnedMatchups [][2]string `json:"pinned_matchups,omitempty"`

	// DynastyYear, when non-zero, makes home/away for a pair alternate
	// deterministically across years.
	DynastyYear int `json:"dynasty_year,omitempty"`
}

// Scheduler builds a season's game list. All randomness flows through the
// injected rng so schedules are reproducible under a fixed seed.
type Scheduler struct {
	cfg         ScheduleConfig
	rng         *rand.Rand
	log         *logrus.Logger
	fillerNames map[string]bool
	fillerSeq   int
}

// NewScheduler returns a scheduler with a season-local filler-name registry.
func NewScheduler(cfg ScheduleConfig, rng *rand.Rand, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cfg:         cfg,
		rng:         rng,
		log:         log,
		fillerNames: make(map[string]bool),
	}
}

func (s *Scheduler) logf() *logrus.Logger {
	if s.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		s.log = l
	}
	return s.log
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Generate builds the full game list for the given teams and conference
// partition. It returns the games plus any generated FCS filler teams the
// caller must register with the season.
func (s *Scheduler) Generate(teams []*Team, conferences map[string][]string) ([]*Game, []*Team) {
	if s.cfg.ConferenceWeight != 0 {
		// Accepted but inert; keep the discrepancy visible.
		s.logf().WithField("conference_weight", s.cfg.ConferenceWeight).
			Debug("conference_weight is accepted but does not influence scheduling")
	}

	names := make([]string, 0, len(teams))
	confOf := make(map[string]string, len(teams))
	for _, t := range teams {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	for conf, members := range conferences {
		for _, m := range members {
			confOf[m] = conf
		}
	}

	rivals := s.deriveRivalries(conferences)

	target := s.cfg.GamesPerTeam
	if target <= 0 {
		games := s.fullRoundRobin(names, confOf, rivals)
		s.assignWeeks(games)
		return games, nil
	}

	st := &scheduleState{
		counts:     make(map[string]int, len(names)),
		confCounts: make(map[string]int, len(names)),
		played:     make(map[string]bool),
	}

	s.placePinned(st, names, confOf, rivals)

	confNames := make([]string, 0, len(conferences))
	for conf := range conferences {
		confNames = append(confNames, conf)
	}
	sort.Strings(confNames)
	for _, conf := range confNames {
		s.scheduleConference(st, conf, conferences[conf], target, rivals)
	}

	s.fillNonConference(st, names, confOf, target, rivals)
	fillers := s.fillWithFCS(st, names, target)

	s.assignWeeks(st.games)
	return st.games, fillers
}

// scheduleState is the working accumulator for partial-schedule construction.
type scheduleState struct {
	games      []*Game
	counts     map[string]int
	confCounts map[string]int
	played     map[string]bool
}

func (st *scheduleState) add(g *Game) {
	st.games = append(st.games, g)
	st.counts[g.HomeTeam]++
	st.counts[g.AwayTeam]++
	if g.IsConferenceGame {
		st.confCounts[g.HomeTeam]++
		st.confCounts[g.AwayTeam]++
	}
	st.played[pairKey(g.HomeTeam, g.AwayTeam)] = true
}

// deriveRivalries pairs alphabetically adjacent members of each conference
// into natural rivals. Returns pair keys.
func (s *Scheduler) deriveRivalries(conferences map[string][]string) map[string]bool {
	rivals := make(map[string]bool)
	confNames := make([]string, 0, len(conferences))
	for conf := range conferences {
		confNames = append(confNames, conf)
	}
	sort.Strings(confNames)
	for _, conf := range confNames {
		members := append([]string(nil), conferences[conf]...)
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		for i := 0; i+1 < len(members); i += 2 {
			rivals[pairKey(members[i], members[i+1])] = true
		}
	}
	return rivals
}

// newGame constructs a game with home/away resolved. When a dynasty year is
// set, the side alternates deterministically per pair per year; otherwise the
// rng decides.
func (s *Scheduler) newGame(a, b string, confOf map[string]string, rivals map[string]bool) *Game {
	home, away := a, b
	if b < a {
		home, away = b, a
	}
	flip := false
	if s.cfg.DynastyYear != 0 {
		sum := crc32.ChecksumIEEE([]byte(pairKey(a, b)))
		flip = (int(sum)+s.cfg.DynastyYear)%2 == 1
	} else {
		flip = s.rng.Intn(2) == 1
	}
	if flip {
		home, away = away, home
	}
	isConf := confOf[a] != "" && confOf[a] == confOf[b]
	return &Game{
		HomeTeam:         home,
		AwayTeam:         away,
		IsConferenceGame: isConf,
		IsRivalryGame:    rivals[pairKey(a, b)],
	}
}

func (s *Scheduler) fullRoundRobin(names []string, confOf map[string]string, rivals map[string]bool) []*Game {
	var games []*Game
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			games = append(games, s.newGame(names[i], names[j], confOf, rivals))
		}
	}
	return games
}

func (s *Scheduler) placePinned(st *scheduleState, names []string, confOf map[string]string, rivals map[string]bool) {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for _, pair := range s.cfg.PinnedMatchups {
		home, away := pair[0], pair[1]
		if !known[home] || !known[away] || home == away {
			s.logf().WithFields(logrus.Fields{"home": home, "away": away}).
				Warn("Skipping pinned matchup with unknown team")
			continue
		}
		if st.played[pairKey(home, away)] {
			continue
		}
		// Pinned games keep the caller's home/away order.
		g := &Game{
			HomeTeam:         home,
			AwayTeam:         away,
			IsConferenceGame: confOf[home] != "" && confOf[home] == confOf[away],
			IsRivalryGame:    rivals[pairKey(home, away)],
		}
		st.add(g)
	}
}

// scheduleConference fills each member's conference slate up to
// K = min(cap, G) games using whole rounds of a circle-method round-robin.
// Dropping whole rounds keeps the slate balanced because every round is a
// perfect 1-factor. Rounds containing a rivalry pairing are selected ahead of
// the rest so rivalry games survive the trim. Up to balanceAttempts
// reshuffles; the lowest-shortfall attempt wins, then a greedy patch pass
// pairs any still-short teams.
func (s *Scheduler) scheduleConference(st *scheduleState, conf string, members []string, target int, rivals map[string]bool) {
	if len(members) < 2 {
		s.logf().WithFields(logrus.Fields{"conference": conf, "members": len(members)}).
			Warn("Conference too small to schedule, skipping")
		return
	}

	cap := len(members) - 1
	if cap > maxConferenceGames {
		cap = maxConferenceGames
	}
	want := target
	if want > cap {
		want = cap
	}

	confOf := make(map[string]string, len(members))
	for _, m := range members {
		confOf[m] = conf
	}

	var bestGames []*Game
	bestShortfall := -1
	for attempt := 0; attempt < balanceAttempts; attempt++ {
		order := append([]string(nil), members...)
		sort.Strings(order)
		s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		rounds := circleRounds(order)
		idx := s.rng.Perm(len(rounds))
		sort.SliceStable(idx, func(i, j int) bool {
			return roundHasRivalry(rounds[idx[i]], rivals) && !roundHasRivalry(rounds[idx[j]], rivals)
		})
		idx = idx[:min(want, len(rounds))]

		candidate, shortfall := s.materializeRounds(st, rounds, idx, want, confOf, rivals)
		if bestShortfall < 0 || shortfall < bestShortfall {
			bestShortfall = shortfall
			bestGames = candidate
		}
		if shortfall == 0 {
			break
		}
	}

	for _, g := range bestGames {
		st.add(g)
	}

	// Patch pass: pair any two still-short teams that have not met.
	s.patchConference(st, members, want, confOf, rivals)

	if short := s.conferenceShortfall(st, members, want); short > 0 {
		s.logf().WithFields(logrus.Fields{
			"conference": conf,
			"shortfall":  short,
			"target":     want,
		}).Warn("Accepting best-effort conference schedule")
	}
}

func roundHasRivalry(round [][2]string, rivals map[string]bool) bool {
	for _, pair := range round {
		if rivals[pairKey(pair[0], pair[1])] {
			return true
		}
	}
	return false
}

// circleRounds produces the full round-robin as perfect rounds via the circle
// method: fix the first slot, rotate the rest. Odd counts get a bye slot.
func circleRounds(order []string) [][][2]string {
	teams := append([]string(nil), order...)
	if len(teams)%2 == 1 {
		teams = append(teams, "") // bye
	}
	n := len(teams)
	rounds := make([][][2]string, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([][2]string, 0, n/2)
		for i := 0; i < n/2; i++ {
			a, b := teams[i], teams[n-1-i]
			if a != "" && b != "" {
				round = append(round, [2]string{a, b})
			}
		}
		rounds = append(rounds, round)
		// Rotate all but the first slot.
		last := teams[n-1]
		copy(teams[2:], teams[1:n-1])
		teams[1] = last
	}
	return rounds
}

// materializeRounds turns the selected rounds into games, skipping pairings
// already played and teams already at their conference target. Returns the
// games plus the aggregate shortfall the selection would leave.
func (s *Scheduler) materializeRounds(st *scheduleState, rounds [][][2]string, idx []int, want int, confOf map[string]string, rivals map[string]bool) ([]*Game, int) {
	counts := make(map[string]int)
	for t := range confOf {
		counts[t] = st.confCounts[t]
	}
	played := make(map[string]bool)

	var games []*Game
	for _, ri := range idx {
		for _, pair := range rounds[ri] {
			a, b := pair[0], pair[1]
			key := pairKey(a, b)
			if st.played[key] || played[key] {
				continue
			}
			if counts[a] >= want || counts[b] >= want {
				continue
			}
			games = append(games, s.newGame(a, b, confOf, rivals))
			counts[a]++
			counts[b]++
			played[key] = true
		}
	}

	shortfall := 0
	for t := range confOf {
		if counts[t] < want {
			shortfall += want - counts[t]
		}
	}
	return games, shortfall
}

func (s *Scheduler) patchConference(st *scheduleState, members []string, want int, confOf map[string]string, rivals map[string]bool) {
	for {
		var short []string
		for _, m := range members {
			if st.confCounts[m] < want {
				short = append(short, m)
			}
		}
		sort.Strings(short)
		paired := false
		for i := 0; i < len(short) && !paired; i++ {
			for j := i + 1; j < len(short); j++ {
				if st.played[pairKey(short[i], short[j])] {
					continue
				}
				st.add(s.newGame(short[i], short[j], confOf, rivals))
				paired = true
				break
			}
		}
		if !paired {
			return
		}
	}
}

func (s *Scheduler) conferenceShortfall(st *scheduleState, members []string, want int) int {
	short := 0
	for _, m := range members {
		if st.confCounts[m] < want {
			short += want - st.confCounts[m]
		}
	}
	return short
}

// fillNonConference matches teams short of the overall target against
// opponents from other conferences. The candidate pairs are re-sorted by
// combined shortfall after every placement so the furthest-behind teams keep
// priority and demand drains evenly across the league.
func (s *Scheduler) fillNonConference(st *scheduleState, names []string, confOf map[string]string, target int, rivals map[string]bool) {
	type candidate struct {
		a, b      string
		shortfall int
	}

	// Upper bound on placements; the loop exits earlier when no pair is left.
	for budget := len(names) * target * nonConfFillPasses; budget > 0; budget-- {
		var cands []candidate
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				a, b := names[i], names[j]
				sa, sb := target-st.counts[a], target-st.counts[b]
				if sa <= 0 || sb <= 0 {
					continue
				}
				if confOf[a] != "" && confOf[a] == confOf[b] {
					continue // conference slots are handled elsewhere
				}
				if st.played[pairKey(a, b)] {
					continue
				}
				cands = append(cands, candidate{a: a, b: b, shortfall: sa + sb})
			}
		}
		if len(cands) == 0 {
			return
		}
		s.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].shortfall > cands[j].shortfall })
		st.add(s.newGame(cands[0].a, cands[0].b, confOf, rivals))
	}
}

var fillerAdjectives = []string{
	"Northern", "Southern", "Eastern", "Western", "Central",
	"Coastal", "Valley", "Highland", "Prairie", "Lakeside",
	"Summit", "Riverside", "Canyon", "Redstone", "Ironwood",
}

var fillerSuffixes = []string{"State", "Tech", "A&M", "Institute", "College"}

// fillWithFCS guarantees every team reaches the target by generating
// low-strength filler opponents. Names come from a season-local registry so
// dynasties never leak filler identities across seasons.
func (s *Scheduler) fillWithFCS(st *scheduleState, names []string, target int) []*Team {
	var fillers []*Team
	for _, t := range names {
		for st.counts[t] < target {
			filler := s.generateFillerTeam()
			fillers = append(fillers, filler)
			g := &Game{
				HomeTeam:  t, // filler games are always home dates
				AwayTeam:  filler.Name,
				IsFCSGame: true,
			}
			st.games = append(st.games, g)
			st.counts[t]++
			st.played[pairKey(t, filler.Name)] = true
		}
	}
	return fillers
}

func (s *Scheduler) generateFillerTeam() *Team {
	var name string
	for {
		adj := fillerAdjectives[s.rng.Intn(len(fillerAdjectives))]
		suf := fillerSuffixes[s.rng.Intn(len(fillerSuffixes))]
		name = adj + " " + suf
		if !s.fillerNames[name] {
			break
		}
		s.fillerSeq++
		name = fmt.Sprintf("%s %s (%d)", adj, suf, s.fillerSeq)
		if !s.fillerNames[name] {
			break
		}
	}
	s.fillerNames[name] = true
	return &Team{
		Name:         name,
		Prestige:     10 + s.rng.Intn(15),
		OffenseStyle: "balanced",
		DefenseStyle: "balanced",
		IsFCS:        true,
	}
}

// assignWeeks places every game into the earliest week where neither team is
// already booked. Non-conference games start at week 1, conference games
// after the non-conference window, producing natural byes.
func (s *Scheduler) assignWeeks(games []*Game) {
	var nonConf, conf []*Game
	for _, g := range games {
		if g.IsConferenceGame {
			conf = append(conf, g)
		} else {
			nonConf = append(nonConf, g)
		}
	}
	s.rng.Shuffle(len(nonConf), func(i, j int) { nonConf[i], nonConf[j] = nonConf[j], nonConf[i] })
	s.rng.Shuffle(len(conf), func(i, j int) { conf[i], conf[j] = conf[j], conf[i] })

	occupied := make(map[int]map[string]bool)
	lastNonConf := s.firstFit(nonConf, 1, occupied)

	confStart := s.cfg.NonConfWeeks + 1
	if s.cfg.NonConfWeeks <= 0 {
		confStart = lastNonConf + 1
	}
	s.firstFit(conf, confStart, occupied)

	sort.SliceStable(games, func(i, j int) bool { return games[i].Week < games[j].Week })
}

func (s *Scheduler) firstFit(games []*Game, start int, occupied map[int]map[string]bool) int {
	last := start - 1
	for _, g := range games {
		wk := start
		for {
			slot := occupied[wk]
			if slot == nil || (!slot[g.HomeTeam] && !slot[g.AwayTeam]) {
				break
			}
			wk++
		}
		if occupied[wk] == nil {
			occupied[wk] = make(map[string]bool)
		}
		occupied[wk][g.HomeTeam] = true
		occupied[wk][g.AwayTeam] = true
		g.Week = wk
		if wk > last {
			last = wk
		}
	}
	return last
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
