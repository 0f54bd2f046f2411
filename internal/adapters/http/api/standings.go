package api

import (
	"net/http"
	"time"

	"github.com/okian/fairway/internal/domain/ranking"
)

// StandingsHandler handles ranked reads and the text export.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

type scoreView struct {
	ID    string    `json:"id"`
	Value int       `json:"value"`
	Date  time.Time `json:"date"`
	Best  bool      `json:"best"`
}

type standingView struct {
	Position     int         `json:"position"`
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Tier         string      `json:"tier"`
	Total        *int        `json:"total"`
	RankValue    *int        `json:"rankValue"`
	Average      *float64    `json:"average"`
	GamesPlayed  int         `json:"gamesPlayed"`
	SortedScores []int       `json:"sortedScores"`
	Scores       []scoreView `json:"scores"`
}

type standingsResponse struct {
	Direction     ranking.Direction `json:"direction"`
	CountedRounds int               `json:"countedRounds"`
	Penalty       int               `json:"penalty"`
	RosterVersion uint64            `json:"rosterVersion"`
	Standings     []standingView    `json:"standings"`
}

func parseDirection(r *http.Request) (ranking.Direction, error) {
	const op = "api.parse_direction"
	dir, ok := ranking.ParseDirection(r.URL.Query().Get("dir"))
	if !ok {
		return "", NewKind(op, ErrBadRequest)
	}
	return dir, nil
}

// HandleStandings handles GET /standings?dir=asc|desc.
func (h *StandingsHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	dir, err := parseDirection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	st := h.deps.Standings(r.Context(), dir)
	out := standingsResponse{
		Direction:     st.Direction,
		CountedRounds: st.Rules.CountedRounds,
		Penalty:       st.Rules.Penalty,
		RosterVersion: st.RosterVersion,
		Standings:     make([]standingView, 0, len(st.Views)),
	}
	for _, v := range st.Views {
		out.Standings = append(out.Standings, toStandingView(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleExport handles GET /export?dir=asc|desc. The body is the share-ready
// text block.
func (h *StandingsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	dir, err := parseDirection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	text := h.deps.Export(r.Context(), dir)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func toStandingView(v ranking.View) standingView {
	sv := standingView{
		Position:     v.Position,
		ID:           v.Player.ID,
		Name:         v.Player.Name,
		Tier:         v.Total.Tier.String(),
		GamesPlayed:  v.GamesPlayed,
		SortedScores: v.SortedScores,
		Scores:       make([]scoreView, 0, len(v.Player.Scores)),
	}
	if sv.SortedScores == nil {
		sv.SortedScores = []int{}
	}
	if v.Total.Eligible() {
		total := v.Total.Sum
		sv.Total = &total
	}
	if v.Total.Tier != ranking.TierNoData {
		rank := v.Total.Value
		sv.RankValue = &rank
	}
	if v.HasAverage {
		avg := v.Average
		sv.Average = &avg
	}
	for _, e := range v.Player.Scores {
		sv.Scores = append(sv.Scores, scoreView{ID: e.ID, Value: e.Value, Date: e.RecordedAt, Best: v.BestEntryIDs[e.ID]})
	}
	return sv
}
