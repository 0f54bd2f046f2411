// Package ranking derives league standings from recorded rounds.
//
// Totals follow golf convention: lower is better. A player's total is the
// sum of their CountedRounds lowest scores. Players below that many rounds
// get a provisional total (their scores plus Penalty) and players with no
// rounds at all rank after everybody else. Everything here is pure.
package ranking

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/okian/fairway/internal/domain/model"
)

// Default rule values.
const (
	DefaultCountedRounds = 2
	DefaultPenalty       = 999
)

// NoDataValue is the numeric total reported for a player with no rounds.
const NoDataValue = math.MaxInt

// Rules holds the ranking business rules.
type Rules struct {
	CountedRounds int
	Penalty       int
}

// DefaultRules returns the best-two rules with the 999 penalty.
func DefaultRules() Rules {
	return Rules{CountedRounds: DefaultCountedRounds, Penalty: DefaultPenalty}
}

// Tier groups totals by how much data backs them. Lower tiers rank first.
type Tier int

const (
	TierComplete Tier = iota
	TierProvisional
	TierNoData
)

func (t Tier) String() string {
	switch t {
	case TierComplete:
		return "complete"
	case TierProvisional:
		return "provisional"
	default:
		return "no_data"
	}
}

// Total is the ranking key for one player.
type Total struct {
	// Value is the ranking number: the exact sum for complete totals,
	// sum plus penalty for provisional ones, NoDataValue otherwise.
	Value int
	// Sum is the raw sum of the counted scores, without penalty.
	Sum  int
	Tier Tier
}

// Eligible reports whether enough rounds were played for a real total.
func (t Total) Eligible() bool { return t.Tier == TierComplete }

// Compare orders totals by tier, then value.
func (t Total) Compare(o Total) int {
	if t.Tier != o.Tier {
		if t.Tier < o.Tier {
			return -1
		}
		return 1
	}
	return cmp.Compare(t.Value, o.Value)
}

// Direction is the standings sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts asc/desc (case-insensitive). Blank means ascending.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Ascending:
		return Ascending, true
	case Descending:
		return Descending, true
	}
	return "", false
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// View is the derived standing of one player. It is never persisted.
type View struct {
	Player model.Player
	// Position is the display rank. It is the ascending rank in both
	// directions, so descending lists count down from the roster size.
	Position     int
	Total        Total
	Average      float64
	HasAverage   bool
	GamesPlayed  int
	SortedScores []int
	BestEntryIDs map[string]bool
}

// Engine applies a fixed set of Rules.
type Engine struct {
	rules Rules
}

// NewEngine creates an Engine with the default best-two rules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules in effect.
func (e *Engine) Rules() Rules { return e.rules }

// Total computes the ranking total of scores. Input order does not matter.
func (e *Engine) Total(scores []int) Total {
	if len(scores) == 0 {
		return Total{Value: NoDataValue, Tier: TierNoData}
	}
	sorted := sortedCopy(scores)
	if len(sorted) < e.rules.CountedRounds {
		sum := sumOf(sorted)
		return Total{Value: addSat(sum, e.rules.Penalty), Sum: sum, Tier: TierProvisional}
	}
	sum := sumOf(sorted[:e.rules.CountedRounds])
	return Total{Value: sum, Sum: sum, Tier: TierComplete}
}

// Average returns the mean of scores. ok is false for an empty sequence.
func (e *Engine) Average(scores []int) (avg float64, ok bool) {
	if len(scores) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range scores {
		sum += float64(v)
	}
	return sum / float64(len(scores)), true
}

// View derives the standing of a single player. Position is left zero.
func (e *Engine) View(p model.Player) View {
	values := p.Values()
	avg, ok := e.Average(values)
	return View{
		Player:       p,
		Total:        e.Total(values),
		Average:      avg,
		HasAverage:   ok,
		GamesPlayed:  len(values),
		SortedScores: sortedCopy(values),
		BestEntryIDs: e.BestEntries(p),
	}
}

// Rank orders players by total. Ties keep roster order. Descending is the
// exact reverse of the ascending result.
func (e *Engine) Rank(players []model.Player, dir Direction) []View {
	views := make([]View, len(players))
	for i, p := range players {
		views[i] = e.View(p)
	}
	slices.SortStableFunc(views, func(a, b View) int {
		return a.Total.Compare(b.Total)
	})
	for i := range views {
		views[i].Position = i + 1
	}
	if dir == Descending {
		slices.Reverse(views)
	}
	return views
}

// IsBestMember reports whether value occupies one of the counted positions
// of the player's sorted scores.
func (e *Engine) IsBestMember(p model.Player, value int) bool {
	sorted := sortedCopy(p.Values())
	for i := 0; i < len(sorted) && i < e.rules.CountedRounds; i++ {
		if sorted[i] == value {
			return true
		}
	}
	return false
}

// BestEntries returns the ids of the entries that count toward the total.
// Selection is positional: entries are stably sorted by value, so with
// duplicate values only the earliest recorded copies are counted.
func (e *Engine) BestEntries(p model.Player) map[string]bool {
	idx := make([]int, len(p.Scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(p.Scores[a].Value, p.Scores[b].Value)
	})
	out := make(map[string]bool, e.rules.CountedRounds)
	for i := 0; i < len(idx) && i < e.rules.CountedRounds; i++ {
		out[p.Scores[idx[i]].ID] = true
	}
	return out
}

var defaultEngine = NewEngine() //nolint:gochecknoglobals // stateless default rules

// BestTwoSum computes the total under the default rules.
func BestTwoSum(scores []int) Total { return defaultEngine.Total(scores) }

// Average returns the mean of scores under the default engine.
func Average(scores []int) (float64, bool) { return defaultEngine.Average(scores) }

// Rank orders players under the default rules.
func Rank(players []model.Player, dir Direction) []View { return defaultEngine.Rank(players, dir) }

// IsBestTwoMember reports best-two membership under the default rules.
func IsBestTwoMember(p model.Player, value int) bool { return defaultEngine.IsBestMember(p, value) }

func sortedCopy(in []int) []int {
	out := slices.Clone(in)
	if out == nil {
		out = []int{}
	}
	slices.Sort(out)
	return out
}

// sumOf adds with saturation at the int bounds.
func sumOf(in []int) int {
	s := 0
	for _, v := range in {
		s = addSat(s, v)
	}
	return s
}

func addSat(a, b int) int {
	s := a + b
	switch {
	case b > 0 && s < a:
		return math.MaxInt
	case b < 0 && s > a:
		return math.MinInt
	}
	return s
}
