package api

import (
	"errors"
	"net/http"
	"time"

	service "github.com/okian/fairway/internal/app"
)

// CommentaryHandler handles commentary requests.
type CommentaryHandler struct {
	deps CommentaryDependencies
}

// NewCommentaryHandler creates a new commentary handler.
func NewCommentaryHandler(deps CommentaryDependencies) *CommentaryHandler {
	return &CommentaryHandler{deps: deps}
}

type commentaryAck struct {
	Status        string `json:"status"`
	JobID         string `json:"jobId"`
	RosterVersion uint64 `json:"rosterVersion"`
}

type commentaryResponse struct {
	Text          string     `json:"text"`
	Outcome       string     `json:"outcome,omitempty"`
	GeneratedAt   *time.Time `json:"generatedAt,omitempty"`
	RosterVersion uint64     `json:"rosterVersion"`
	Pending       bool       `json:"pending"`
	Stale         bool       `json:"stale"`
}

// HandleRequest handles POST /commentary. Generation happens in the
// background; the response only acknowledges the request.
func (h *CommentaryHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	const op = "api.request_commentary"
	job, err := h.deps.RequestCommentary(r.Context())
	switch {
	case errors.Is(err, service.ErrCommentaryBusy):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, commentaryAck{Status: "accepted", JobID: job.ID, RosterVersion: job.RosterVersion})
}

// HandleLatest handles GET /commentary.
func (h *CommentaryHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	state := h.deps.LatestCommentary(r.Context())
	out := commentaryResponse{
		Text:          state.Text,
		Outcome:       string(state.Outcome),
		RosterVersion: state.RosterVersion,
		Pending:       state.Pending,
		Stale:         state.Stale,
	}
	if !state.GeneratedAt.IsZero() {
		at := state.GeneratedAt
		out.GeneratedAt = &at
	}
	writeJSON(w, http.StatusOK, out)
}
