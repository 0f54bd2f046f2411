// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/fairway/internal/adapters/mq/queue"
	service "github.com/okian/fairway/internal/app"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	StandingsDependencies
	CommentaryDependencies
}

// PlayerDependencies covers roster reads and mutations. Mutations report
// whether anything changed; invalid input is a silent no-op.
type PlayerDependencies interface {
	Roster(ctx context.Context) model.Roster
	AddPlayer(ctx context.Context, name string) (model.Player, bool)
	RenamePlayer(ctx context.Context, id, name string) (model.Roster, bool)
	DeletePlayer(ctx context.Context, id string) (model.Roster, bool)
	AddScoreOnce(ctx context.Context, key, playerID, raw string) (roster model.Roster, changed, duplicate bool)
	RemoveScore(ctx context.Context, playerID, scoreID string) (model.Roster, bool)
}

// StandingsDependencies covers ranked reads and the text export.
type StandingsDependencies interface {
	Standings(ctx context.Context, dir ranking.Direction) service.Standings
	Export(ctx context.Context, dir ranking.Direction) string
}

// CommentaryDependencies covers asynchronous commentary.
type CommentaryDependencies interface {
	RequestCommentary(ctx context.Context) (queue.Job, error)
	LatestCommentary(ctx context.Context) service.CommentaryState
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	playersHandler    *PlayersHandler
	standingsHandler  *StandingsHandler
	commentaryHandler *CommentaryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		playersHandler:    NewPlayersHandler(deps),
		standingsHandler:  NewStandingsHandler(deps),
		commentaryHandler: NewCommentaryHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/players", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.playersHandler.HandleList, "players"))
		r.Post("/", MetricsMiddleware(s.playersHandler.HandleAdd, "players"))
		r.Route("/{playerID}", func(r chi.Router) {
			r.Patch("/", MetricsMiddleware(s.playersHandler.HandleRename, "player"))
			r.Delete("/", MetricsMiddleware(s.playersHandler.HandleDelete, "player"))
			r.Post("/scores", MetricsMiddleware(s.playersHandler.HandleAddScore, "scores"))
			r.Delete("/scores/{scoreID}", MetricsMiddleware(s.playersHandler.HandleRemoveScore, "score"))
		})
	})

	r.Get("/standings", MetricsMiddleware(s.standingsHandler.HandleStandings, "standings"))
	r.Get("/export", MetricsMiddleware(s.standingsHandler.HandleExport, "export"))

	r.Post("/commentary", MetricsMiddleware(s.commentaryHandler.HandleRequest, "commentary"))
	r.Get("/commentary", MetricsMiddleware(s.commentaryHandler.HandleLatest, "commentary"))
}

// Handler returns a chi router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
