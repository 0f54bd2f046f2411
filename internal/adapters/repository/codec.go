package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/fairway/internal/domain/model"
)

// DefaultKey is the blob key the roster is persisted under.
const DefaultKey = "golf-league-players"

// Snapshot encodes the whole roster as a JSON array of players.
func Snapshot(r model.Roster) ([]byte, error) {
	players := r.Players
	if players == nil {
		players = []model.Player{}
	}
	b, err := json.Marshal(players)
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	return b, nil
}

// Restore decodes a snapshot. Absent, malformed or inconsistent input
// yields an empty roster.
func Restore(blob []byte) model.Roster {
	r, err := decode(blob)
	if err != nil {
		return model.Roster{Players: []model.Player{}}
	}
	return r
}

func decode(blob []byte) (model.Roster, error) {
	if len(blob) == 0 {
		return model.Roster{}, ErrNotFound
	}
	var players []model.Player
	if err := json.Unmarshal(blob, &players); err != nil {
		return model.Roster{}, fmt.Errorf("decode roster: %w", err)
	}
	if players == nil {
		players = []model.Player{}
	}
	seen := make(map[string]bool, len(players))
	for i := range players {
		p := &players[i]
		name, ok := model.NormalizeName(p.Name)
		if p.ID == "" || !ok || seen[p.ID] {
			return model.Roster{}, fmt.Errorf("decode roster: invalid player at %d", i)
		}
		seen[p.ID] = true
		p.Name = name
		if p.Scores == nil {
			p.Scores = []model.ScoreEntry{}
		}
		entries := make(map[string]bool, len(p.Scores))
		for _, s := range p.Scores {
			if s.ID == "" || entries[s.ID] {
				return model.Roster{}, fmt.Errorf("decode roster: invalid score for player %s", p.ID)
			}
			entries[s.ID] = true
		}
	}
	return model.Roster{Players: players}, nil
}
