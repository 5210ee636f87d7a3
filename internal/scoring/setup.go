package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/rules"
)

func setupMatch(prev *model.MatchState, data model.SetupData) (*model.MatchState, error) {
	format, err := delivery.ParseFormat(string(data.Format))
	if err != nil {
		return nil, rejectRule(err)
	}

	teamA, err := buildTeam(data.TeamA)
	if err != nil {
		return nil, err
	}
	teamB, err := buildTeam(data.TeamB)
	if err != nil {
		return nil, err
	}
	if teamA.Name == teamB.Name {
		return nil, reject(CodeInvalidSetup, ErrInvalidSetup, "both teams are named %q", teamA.Name)
	}

	toss := delivery.NormalizeName(data.TossWinner)
	if toss != teamA.Name && toss != teamB.Name {
		return nil, reject(CodeInvalidSetup, ErrInvalidSetup, "toss winner %q is not playing", data.TossWinner)
	}

	batting, bowling := teamA, teamB
	switch data.TossDecision {
	case model.TossBat:
		if toss == teamB.Name {
			batting, bowling = teamB, teamA
		}
	case model.TossBowl:
		if toss == teamA.Name {
			batting, bowling = teamB, teamA
		}
	default:
		return nil, reject(CodeInvalidSetup, ErrInvalidSetup, "unknown toss decision %q", data.TossDecision)
	}

	r := rules.Canonical(format)
	if data.Rules != nil {
		r = *data.Rules
	}

	next := model.NewMatchState()
	next.MatchID = prev.MatchID
	next.Preferences = prev.Preferences
	next.Details = model.MatchDetails{
		Format:       format,
		TotalOvers:   format.TotalOvers(),
		TossWinner:   toss,
		TossDecision: data.TossDecision,
		Venue:        strings.TrimSpace(data.Venue),
		Date:         strings.TrimSpace(data.Date),
		Time:         strings.TrimSpace(data.Time),
		BallColor:    strings.TrimSpace(data.BallColor),
	}
	next.Rules = r
	next.BattingTeam = batting
	next.BowlingTeam = bowling
	resetInnings(next)
	next.Status = model.StatusNotStarted
	return next, nil
}

func buildTeam(in model.TeamSetup) (model.Team, error) {
	name := delivery.NormalizeName(in.Name)
	if name == "" {
		return model.Team{}, reject(CodeInvalidSetup, ErrInvalidSetup, "team name is empty")
	}

	short := delivery.NormalizeName(in.ShortName)
	if short == "" {
		short = abbreviate(name)
	}

	players := make([]string, 0, len(in.Players))
	seen := make(map[string]bool, len(in.Players))
	for _, p := range in.Players {
		p = delivery.NormalizeName(p)
		if p == "" {
			return model.Team{}, reject(CodeInvalidSetup, ErrInvalidSetup, "%s has an unnamed player", name)
		}
		if seen[p] {
			return model.Team{}, reject(CodeInvalidSetup, ErrInvalidSetup, "%s lists %q twice", name, p)
		}
		seen[p] = true
		players = append(players, p)
	}

	return model.Team{Name: name, ShortName: short, Players: players}, nil
}

// abbreviate returns the first three letters of name, upper-cased.
func abbreviate(name string) string {
	name = strings.ReplaceAll(name, " ", "")
	if utf8.RuneCountInString(name) > 3 {
		name = string([]rune(name)[:3])
	}
	return strings.ToUpper(name)
}

// resetInnings clears everything that belongs to a single innings.
func resetInnings(s *model.MatchState) {
	s.Batters = []model.Batter{}
	s.AllBatters = []model.Batter{}
	s.CurrentBowler = ""
	s.AllBowlers = []model.Bowler{}
	s.Overs = []model.Over{}
	s.CurrentOver = []model.Ball{}
	s.FallOfWickets = []model.FallOfWicket{}
	s.Partnerships = []model.Partnership{}
	s.CurrentPartnership = model.Partnership{}
}

func selectOpeners(s *model.MatchState, o model.Openers) (*model.MatchState, error) {
	if s.Status != model.StatusNotStarted || len(s.AllBatters) > 0 {
		return nil, reject(CodeInvalidPhase, ErrInvalidPhase, "openers already chosen or match is %s", s.Status)
	}

	striker := delivery.NormalizeName(o.Striker)
	nonStriker := delivery.NormalizeName(o.NonStriker)
	bowler := delivery.NormalizeName(o.Bowler)

	if striker == "" || nonStriker == "" || bowler == "" {
		return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "striker, non-striker and bowler are all required")
	}
	if striker == nonStriker {
		return nil, reject(CodeSameBatter, ErrSameBatter, "%q cannot open at both ends", striker)
	}
	for _, name := range []string{striker, nonStriker} {
		if !s.BattingTeam.HasPlayer(name) {
			return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "%q is not in %s", name, s.BattingTeam.Name)
		}
	}
	if !s.BowlingTeam.HasPlayer(bowler) {
		return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "%q is not in %s", bowler, s.BowlingTeam.Name)
	}

	next := s.Clone()
	bringIn(next, striker, -1, true)
	bringIn(next, nonStriker, -1, false)
	ensureBowler(next, bowler)
	next.CurrentBowler = bowler
	next.CurrentPartnership = model.Partnership{Batter1: striker, Batter2: nonStriker}
	next.Status = model.StatusInProgress
	syncActive(next)
	return next, nil
}

func startSecondInnings(s *model.MatchState) (*model.MatchState, error) {
	if s.Status != model.StatusInningsBreak {
		return nil, reject(CodeInvalidPhase, ErrInvalidPhase, "match is %s", s.Status)
	}

	next := s.Clone()
	closeOver(next)

	partnerships := next.Partnerships
	if next.CurrentPartnership.Batter2 != "" {
		partnerships = append(partnerships, next.CurrentPartnership)
	}
	first := model.InningsData{
		BattingTeam:   next.BattingTeam,
		BowlingTeam:   next.BowlingTeam,
		Batters:       next.AllBatters,
		Bowlers:       next.AllBowlers,
		Overs:         next.Overs,
		FallOfWickets: next.FallOfWickets,
		Partnerships:  partnerships,
	}
	next.FirstInnings = first.Clone()

	batting := next.BowlingTeam
	bowling := next.BattingTeam
	batting.Target = bowling.Score + 1
	next.BattingTeam = batting
	next.BowlingTeam = bowling

	resetInnings(next)
	next.IsFirstInnings = false
	next.Status = model.StatusNotStarted
	return next, nil
}

func impactSubstitute(s *model.MatchState, sub model.Substitution) (*model.MatchState, error) {
	switch s.Status {
	case model.StatusNotStarted, model.StatusInProgress, model.StatusInningsBreak:
	default:
		return nil, reject(CodeInvalidPhase, ErrInvalidPhase, "match is %s", s.Status)
	}

	completed := s.BattingTeam.Overs
	if s.Status == model.StatusInningsBreak {
		completed = 0
	}
	if err := s.Rules.CheckImpactSubstitution(completed); err != nil {
		return nil, rejectRule(err)
	}

	teamName := delivery.NormalizeName(sub.Team)
	outgoing := delivery.NormalizeName(sub.Outgoing)
	incoming := delivery.NormalizeName(sub.Incoming)

	var team *model.Team
	var appeared bool
	next := s.Clone()
	switch teamName {
	case next.BattingTeam.Name:
		team = &next.BattingTeam
		appeared = hasBatted(next, outgoing)
	case next.BowlingTeam.Name:
		team = &next.BowlingTeam
		appeared = bowlerIndex(next, outgoing) >= 0
	default:
		return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "team %q is not playing", sub.Team)
	}
	if !appeared {
		appeared = appearedInFirstInnings(s.FirstInnings, team.Name, outgoing)
	}

	if team.ImpactUsed {
		return nil, reject(CodeImpactWindowClosed, rules.ErrImpactWindowClosed, "%s has already used its impact player", team.Name)
	}
	if incoming == "" {
		return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "impact player name is empty")
	}
	slot := -1
	for i, p := range team.Players {
		if p == incoming {
			return nil, reject(CodeInvalidSetup, ErrInvalidSetup, "%q is already in %s", incoming, team.Name)
		}
		if p == outgoing {
			slot = i
		}
	}
	if slot < 0 {
		return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "%q is not in %s", outgoing, team.Name)
	}
	if appeared {
		return nil, reject(CodeImpactWindowClosed, rules.ErrImpactWindowClosed, "%q has already taken part", outgoing)
	}

	team.Players[slot] = incoming
	team.ImpactUsed = true
	return next, nil
}

func loadMatch(snapshot *model.MatchState) (*model.MatchState, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}
	return snapshot.Clone(), nil
}

// validateSnapshot checks the structural invariants a restored match has
// to satisfy before the engine will score on it.
func validateSnapshot(s *model.MatchState) error {
	bad := func(format string, args ...any) error {
		return reject(CodeInvalidSnapshot, ErrInvalidSnapshot, format, args...)
	}

	if s == nil {
		return bad("snapshot is empty")
	}
	if !s.Status.Valid() {
		return bad("unknown status %q", s.Status)
	}
	if s.Status == model.StatusSetup {
		return nil
	}
	if s.BattingTeam.Name == "" || s.BowlingTeam.Name == "" {
		return bad("team names are required")
	}
	if s.Details.TotalOvers <= 0 {
		return bad("total overs must be positive")
	}
	for _, t := range []model.Team{s.BattingTeam, s.BowlingTeam} {
		if t.Balls < 0 || t.Balls > 5 || t.Overs < 0 || t.Score < 0 || t.Wickets < 0 {
			return bad("%s has impossible counters", t.Name)
		}
	}
	if len(s.Batters) > 2 {
		return bad("%d batters at the crease", len(s.Batters))
	}
	onStrike := 0
	for _, b := range s.Batters {
		if b.IsOut {
			return bad("dismissed batter %q is at the crease", b.Name)
		}
		if b.IsOnStrike {
			onStrike++
		}
	}
	active := 0
	for _, b := range s.AllBatters {
		if !b.IsOut {
			active++
		}
	}
	if active != len(s.Batters) {
		return bad("batting card lists %d not-out batters, %d at the crease", active, len(s.Batters))
	}
	if s.Status == model.StatusInProgress && onStrike != 1 {
		return bad("%d batters on strike", onStrike)
	}
	if s.Status == model.StatusCompleted && s.Result == nil {
		return bad("completed match has no result")
	}
	return nil
}

func setPreferences(s *model.MatchState, p model.Preferences) *model.MatchState {
	next := s.Clone()
	next.Preferences = p
	return next
}

// appearedInFirstInnings reports whether name batted or bowled for team
// in a completed first innings.
func appearedInFirstInnings(first *model.InningsData, team, name string) bool {
	if first == nil {
		return false
	}
	if first.BattingTeam.Name == team {
		for _, b := range first.Batters {
			if b.Name == name {
				return true
			}
		}
	}
	if first.BowlingTeam.Name == team {
		for _, b := range first.Bowlers {
			if b.Name == name {
				return true
			}
		}
	}
	return false
}
