package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/fairway/internal/domain/model"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

// IdempotencyKeyHeader lets clients retry a score submission safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// PlayersHandler handles roster requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type nameRequest struct {
	Name string `json:"name"`
}

// scoreRequest carries the raw score text. Parsing is the store's concern.
type scoreRequest struct {
	Value string `json:"value"`
}

type rosterResponse struct {
	Players []model.Player `json:"players"`
}

type playerResponse struct {
	Changed bool         `json:"changed"`
	Player  model.Player `json:"player"`
}

type mutationResponse struct {
	Changed   bool           `json:"changed"`
	Duplicate bool           `json:"duplicate,omitempty"`
	Players   []model.Player `json:"players"`
}

// HandleList handles GET /players.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rosterResponse{Players: nonNil(h.deps.Roster(r.Context()).Players)})
}

// HandleAdd handles POST /players.
func (h *PlayersHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_player"
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	p, ok := h.deps.AddPlayer(r.Context(), req.Name)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "invalid_name", NewKind(op, ErrInvalidName))
		return
	}
	writeJSON(w, http.StatusCreated, playerResponse{Changed: true, Player: p})
}

// HandleRename handles PATCH /players/{playerID}.
func (h *PlayersHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	const op = "api.rename_player"
	var req nameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	roster, changed := h.deps.RenamePlayer(r.Context(), chi.URLParam(r, "playerID"), req.Name)
	writeMutation(w, roster, changed)
}

// HandleDelete handles DELETE /players/{playerID}. Confirmation belongs to
// the client.
func (h *PlayersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	roster, changed := h.deps.DeletePlayer(r.Context(), chi.URLParam(r, "playerID"))
	writeMutation(w, roster, changed)
}

// HandleAddScore handles POST /players/{playerID}/scores. A repeated
// Idempotency-Key for the same player is answered without a second entry.
func (h *PlayersHandler) HandleAddScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_score"
	var req scoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	roster, changed, duplicate := h.deps.AddScoreOnce(r.Context(), key, chi.URLParam(r, "playerID"), req.Value)
	writeJSON(w, http.StatusOK, mutationResponse{Changed: changed, Duplicate: duplicate, Players: nonNil(roster.Players)})
}

// HandleRemoveScore handles DELETE /players/{playerID}/scores/{scoreID}.
func (h *PlayersHandler) HandleRemoveScore(w http.ResponseWriter, r *http.Request) {
	roster, changed := h.deps.RemoveScore(r.Context(), chi.URLParam(r, "playerID"), chi.URLParam(r, "scoreID"))
	writeMutation(w, roster, changed)
}

func writeMutation(w http.ResponseWriter, roster model.Roster, changed bool) {
	writeJSON(w, http.StatusOK, mutationResponse{Changed: changed, Players: nonNil(roster.Players)})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func nonNil(players []model.Player) []model.Player {
	if players == nil {
		return []model.Player{}
	}
	return players
}
