package model

import "slices"

// Clone returns a deep copy of s. Logged command payloads are shared
// because they are never modified once logged.
func (s *MatchState) Clone() *MatchState {
	if s == nil {
		return nil
	}
	c := *s
	c.BattingTeam = s.BattingTeam.Clone()
	c.BowlingTeam = s.BowlingTeam.Clone()
	c.Batters = slices.Clone(s.Batters)
	c.AllBatters = slices.Clone(s.AllBatters)
	c.AllBowlers = slices.Clone(s.AllBowlers)
	c.Overs = cloneOvers(s.Overs)
	c.CurrentOver = slices.Clone(s.CurrentOver)
	c.FallOfWickets = slices.Clone(s.FallOfWickets)
	c.Partnerships = slices.Clone(s.Partnerships)
	c.Log = slices.Clone(s.Log)
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	c.FirstInnings = s.FirstInnings.Clone()
	return &c
}

// Clone returns a deep copy of t.
func (t Team) Clone() Team {
	t.Players = slices.Clone(t.Players)
	return t
}

// Clone returns a deep copy of d.
func (d *InningsData) Clone() *InningsData {
	if d == nil {
		return nil
	}
	c := *d
	c.BattingTeam = d.BattingTeam.Clone()
	c.BowlingTeam = d.BowlingTeam.Clone()
	c.Batters = slices.Clone(d.Batters)
	c.Bowlers = slices.Clone(d.Bowlers)
	c.Overs = cloneOvers(d.Overs)
	c.FallOfWickets = slices.Clone(d.FallOfWickets)
	c.Partnerships = slices.Clone(d.Partnerships)
	return &c
}

func cloneOvers(overs []Over) []Over {
	if overs == nil {
		return nil
	}
	out := make([]Over, len(overs))
	for i, o := range overs {
		o.Balls = slices.Clone(o.Balls)
		out[i] = o
	}
	return out
}
