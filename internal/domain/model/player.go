// Package model contains the league domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// ScoreEntry is a single recorded round. Entries are never mutated in place.
type ScoreEntry struct {
	ID         string    `json:"id"`
	Value      int       `json:"value"`
	RecordedAt time.Time `json:"date"`
}

// Player is a league participant and the rounds they have logged.
// Scores keep insertion order, which only matters for display.
type Player struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Scores []ScoreEntry `json:"scores"`
}

// Values returns the raw score values in entry order.
func (p Player) Values() []int {
	out := make([]int, len(p.Scores))
	for i, s := range p.Scores {
		out[i] = s.Value
	}
	return out
}

// Clone returns a copy of p that shares no backing arrays with it.
func (p Player) Clone() Player {
	c := p
	c.Scores = make([]ScoreEntry, len(p.Scores))
	copy(c.Scores, p.Scores)
	return c
}

// Roster is the full collection of players in insertion order.
type Roster struct {
	Players []Player
}

// Clone deep-copies the roster so readers can never observe later mutations.
func (r Roster) Clone() Roster {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = p.Clone()
	}
	return Roster{Players: players}
}

// Len returns the number of players.
func (r Roster) Len() int { return len(r.Players) }

// ScoreCount returns the number of score entries across all players.
func (r Roster) ScoreCount() int {
	n := 0
	for _, p := range r.Players {
		n += len(p.Scores)
	}
	return n
}

// IndexOf returns the position of the player with id, or -1.
func (r Roster) IndexOf(id string) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the player with id.
func (r Roster) Find(id string) (Player, bool) {
	if i := r.IndexOf(id); i >= 0 {
		return r.Players[i], true
	}
	return Player{}, false
}

// NormalizeName trims a display name. ok is false when nothing is left.
func NormalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	return name, name != ""
}
