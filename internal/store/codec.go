package store

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/crease/match-engine/internal/model"
)

// encodeState serialises a snapshot for a JSON/JSONB column or cache value.
func encodeState(s *model.MatchState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode match %s: %w", s.MatchID, err)
	}
	return data, nil
}

func decodeState(data []byte) (*model.MatchState, error) {
	var s model.MatchState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode match state: %w", err)
	}
	return &s, nil
}
