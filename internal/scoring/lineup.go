package scoring

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/crease/match-engine/internal/model"
)

// batterNamespace scopes batter IDs so that replaying the same command
// log always yields the same IDs.
var batterNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("crease.match-engine.batter"))

// batterID derives the ID for a batter's nth appearance in an innings.
func batterID(innings int, name string, appearance int) string {
	key := fmt.Sprintf("%d/%s/%d", innings, name, appearance)
	return uuid.NewSHA1(batterNamespace, []byte(key)).String()
}

func batterIndex(s *model.MatchState, id string) int {
	for i, b := range s.AllBatters {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func strikerIndex(s *model.MatchState) int {
	for i, b := range s.AllBatters {
		if b.IsOnStrike && !b.IsOut {
			return i
		}
	}
	return -1
}

func bowlerIndex(s *model.MatchState, name string) int {
	for i, b := range s.AllBowlers {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// swapStrike flips the strike flag of every batter at the crease.
func swapStrike(s *model.MatchState) {
	for i := range s.AllBatters {
		if !s.AllBatters[i].IsOut {
			s.AllBatters[i].IsOnStrike = !s.AllBatters[i].IsOnStrike
		}
	}
}

// syncActive rebuilds the at-crease pair from the innings card. Every
// appearance that is not out is at the crease.
func syncActive(s *model.MatchState) {
	active := make([]model.Batter, 0, 2)
	for _, b := range s.AllBatters {
		if !b.IsOut {
			active = append(active, b)
		}
	}
	s.Batters = active
}

// nextInLineup returns the first roster player who has not batted this
// innings, then any retired-hurt batter the rules let resume. It returns
// "" when nobody is left to come in.
func nextInLineup(s *model.MatchState) string {
	for _, p := range s.BattingTeam.Players {
		if !hasBatted(s, p) {
			return p
		}
	}
	if !s.Rules.AllowRetiredHurtReturn {
		return ""
	}
	for _, b := range s.AllBatters {
		if b.IsOut && b.Dismissal.Type == model.DismissalRetiredHurt && !atCrease(s, b.Name) {
			return b.Name
		}
	}
	return ""
}

func atCrease(s *model.MatchState, name string) bool {
	for _, b := range s.AllBatters {
		if b.Name == name && !b.IsOut {
			return true
		}
	}
	return false
}

func hasBatted(s *model.MatchState, name string) bool {
	for _, b := range s.AllBatters {
		if b.Name == name {
			return true
		}
	}
	return false
}

// admissible checks that name may walk out to bat. It returns the index
// of a retired-hurt appearance to revive, or -1 for a fresh appearance.
func admissible(s *model.MatchState, name string) (int, error) {
	if name == "" {
		return -1, reject(CodeNewBatterRequired, ErrNewBatterRequired, "incoming batter name is empty")
	}
	if !s.BattingTeam.HasPlayer(name) {
		return -1, reject(CodeUnknownPlayer, ErrUnknownPlayer, "%q is not in %s", name, s.BattingTeam.Name)
	}

	revive := -1
	for i, b := range s.AllBatters {
		if b.Name != name {
			continue
		}
		if b.IsOut && b.Dismissal.Type == model.DismissalRetiredHurt && s.Rules.AllowRetiredHurtReturn {
			revive = i
			continue
		}
		return -1, reject(CodeBatterAlreadyBatted, ErrBatterAlreadyBatted, "%q has already batted", name)
	}
	return revive, nil
}

// bringIn puts name at the crease, either as a new appearance or by
// resuming a retired-hurt innings at index revive.
func bringIn(s *model.MatchState, name string, revive int, onStrike bool) {
	if revive >= 0 {
		b := &s.AllBatters[revive]
		b.IsOut = false
		b.Dismissal = model.Dismissal{}
		b.IsOnStrike = onStrike
		return
	}

	appearance := 1
	for _, b := range s.AllBatters {
		if b.Name == name {
			appearance++
		}
	}
	s.AllBatters = append(s.AllBatters, model.Batter{
		ID:         batterID(s.InningsNumber(), name, appearance),
		Name:       name,
		IsOnStrike: onStrike,
	})
}

// ensureBowler adds an empty figures row for name if it has none yet.
func ensureBowler(s *model.MatchState, name string) {
	if bowlerIndex(s, name) < 0 {
		s.AllBowlers = append(s.AllBowlers, model.Bowler{Name: name})
	}
}
