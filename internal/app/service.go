// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fairway/internal/adapters/mq/queue"
	"github.com/okian/fairway/internal/adapters/mq/worker"
	"github.com/okian/fairway/internal/adapters/repository"
	"github.com/okian/fairway/internal/domain/commentary"
	"github.com/okian/fairway/internal/domain/dedupe"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/internal/domain/summary"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

const (
	defaultQueueSize         = 8
	defaultRatePerMinute     = 6
	defaultCommentaryTimeout = 15 * time.Second
	workerShutdownTimeout    = 5 * time.Second
)

// Standings is a ranked snapshot of the roster.
type Standings struct {
	Direction     ranking.Direction
	Rules         ranking.Rules
	RosterVersion uint64
	Views         []ranking.View
}

// CommentaryState is the latest commentary plus whether the roster changed
// since it was generated.
type CommentaryState struct {
	commentary.Snapshot
	Stale bool
}

// Service implements the API dependencies for the league tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	engine      *ranking.Engine
	commentator *commentary.Commentator
	board       *commentary.Board
	submissions dedupe.Deduper
	jobs        *queue.InMemoryQueue
	worker      *worker.InMemoryWorker

	// Configuration
	rules             ranking.Rules
	leagueName        string
	generator         commentary.Generator
	commentaryTimeout time.Duration
	queueSize         int
	ratePerMin        int

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service. The store is usable immediately; the
// commentary pipeline runs only between Start and Stop.
func New(opts ...Option) *Service {
	s := &Service{
		rules:             ranking.DefaultRules(),
		leagueName:        summary.DefaultLeagueName,
		commentaryTimeout: defaultCommentaryTimeout,
		queueSize:         defaultQueueSize,
		ratePerMin:        defaultRatePerMinute,
		board:             commentary.NewBoard(),
		submissions:       dedupe.New(),
		logger:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	if s.store == nil {
		s.store = repository.NewSnapshotStore(context.Background(), repository.NewMemoryStorage(),
			repository.WithLogger(s.logger.Named("store")))
	}
	s.engine = ranking.NewEngine(ranking.WithRules(s.rules))
	s.rules = s.engine.Rules()
	s.commentator = commentary.NewCommentator(s.generator,
		commentary.WithTimeout(s.commentaryTimeout),
		commentary.WithCountedRounds(s.rules.CountedRounds),
		commentary.WithLogger(s.logger.Named("commentary")),
	)
	return s
}

// Start launches the commentary worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.jobs, s.commentator, s.board,
		worker.WithRatePerMinute(s.ratePerMin),
		worker.WithLogger(s.logger),
	)
	go s.worker.Run(context.WithoutCancel(ctx))

	s.started = true
	roster := s.store.Roster(ctx)
	metrics.UpdateRosterSize(roster.Len(), roster.ScoreCount())
	s.logger.Info(ctx, "league service started",
		logger.Int("players", roster.Len()),
		logger.Int("countedRounds", s.rules.CountedRounds),
		logger.Int("penalty", s.rules.Penalty),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("generator", s.generator != nil),
	)
	return nil
}

// Stop gracefully shuts down the commentary pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	_ = s.jobs.Close()
	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "commentary worker did not stop cleanly", logger.Error(err))
	}
	s.board.ClearPending()
	s.started = false
	s.logger.Info(ctx, "league service stopped")
}

// Rules returns the active ranking rules.
func (s *Service) Rules() ranking.Rules {
	return s.rules
}

// Roster returns a copy of the roster in insertion order.
func (s *Service) Roster(ctx context.Context) model.Roster {
	return s.store.Roster(ctx)
}

// Player returns one player.
func (s *Service) Player(ctx context.Context, id string) (model.Player, bool) {
	return s.store.Player(ctx, id)
}

// AddPlayer adds a player. A blank name is a no-op.
func (s *Service) AddPlayer(ctx context.Context, name string) (model.Player, bool) {
	return s.store.AddPlayer(ctx, name)
}

// RenamePlayer renames a player. Blank names and unknown ids are no-ops.
func (s *Service) RenamePlayer(ctx context.Context, id, name string) (model.Roster, bool) {
	return s.store.RenamePlayer(ctx, id, name)
}

// DeletePlayer removes a player and its scores.
func (s *Service) DeletePlayer(ctx context.Context, id string) (model.Roster, bool) {
	return s.store.DeletePlayer(ctx, id)
}

// AddScore records a round for a player when raw is an integer.
func (s *Service) AddScore(ctx context.Context, playerID, raw string) (model.Roster, bool) {
	return s.store.AddScore(ctx, playerID, raw)
}

// AddScoreOnce is AddScore guarded by a client idempotency key. A key that
// already produced an applied score is skipped and reported as duplicate.
// A blank key behaves like AddScore.
func (s *Service) AddScoreOnce(ctx context.Context, key, playerID, raw string) (roster model.Roster, changed, duplicate bool) {
	if key == "" {
		roster, changed = s.store.AddScore(ctx, playerID, raw)
		return roster, changed, false
	}
	scoped := dedupe.Scope(playerID, key)
	if s.submissions.SeenAndRecord(ctx, scoped) {
		metrics.RecordDuplicateScore()
		s.logger.Debug(ctx, "duplicate score submission skipped", logger.String("playerId", playerID))
		return s.store.Roster(ctx), false, true
	}
	roster, changed = s.store.AddScore(ctx, playerID, raw)
	if !changed {
		// a no-op must not consume the key
		s.submissions.Unrecord(ctx, scoped)
	}
	return roster, changed, false
}

// RemoveScore deletes one round.
func (s *Service) RemoveScore(ctx context.Context, playerID, scoreID string) (model.Roster, bool) {
	return s.store.RemoveScore(ctx, playerID, scoreID)
}

// Standings ranks the current roster in dir.
func (s *Service) Standings(ctx context.Context, dir ranking.Direction) Standings {
	roster, version := s.store.Current(ctx)
	metrics.RecordStandingsRead(string(dir))
	return Standings{
		Direction:     dir,
		Rules:         s.rules,
		RosterVersion: version,
		Views:         s.engine.Rank(roster.Players, dir),
	}
}

// Export renders the standings in dir with the latest commentary, if any.
// It never waits for a generation in flight.
func (s *Service) Export(ctx context.Context, dir ranking.Direction) string {
	st := s.Standings(ctx, dir)
	text := summary.Format(st.Views, s.board.Latest().Text,
		summary.WithLeagueName(s.leagueName),
		summary.WithCountedRounds(s.rules.CountedRounds),
	)
	metrics.RecordExport()
	return text
}

// RequestCommentary queues a generation for the current roster.
func (s *Service) RequestCommentary(ctx context.Context) (queue.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return queue.Job{}, ErrNotStarted
	}
	roster, version := s.store.Current(ctx)
	job, err := s.jobs.Enqueue(ctx, roster, version)
	switch {
	case errors.Is(err, queue.ErrFull):
		return queue.Job{}, fmt.Errorf("%w: %w", ErrCommentaryBusy, err)
	case errors.Is(err, queue.ErrClosed):
		return queue.Job{}, fmt.Errorf("%w: %w", ErrNotStarted, err)
	case err != nil:
		return queue.Job{}, err
	}
	s.board.MarkPending()
	s.logger.Debug(ctx, "commentary requested", logger.String("job_id", job.ID), logger.Int("players", roster.Len()))
	return job, nil
}

// LatestCommentary returns the most recent commentary state.
func (s *Service) LatestCommentary(ctx context.Context) CommentaryState {
	snap := s.board.Latest()
	return CommentaryState{Snapshot: snap, Stale: snap.Stale(s.store.Version(ctx))}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster, version := s.store.Current(ctx)
	stats := map[string]any{
		"started":         s.started,
		"players":         roster.Len(),
		"scores":          roster.ScoreCount(),
		"rosterVersion":   version,
		"countedRounds":   s.rules.CountedRounds,
		"penalty":         s.rules.Penalty,
		"queueSize":       s.queueSize,
		"idempotencyKeys": s.submissions.Size(),
	}
	if s.started {
		stats["queueLength"] = s.jobs.Len(ctx)
	}
	metrics.UpdateRosterSize(roster.Len(), roster.ScoreCount())
	return stats
}
