// Package repository owns the canonical roster and its persistence.
package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

// Mutation operation names, used for logs and metrics.
const (
	OpAddPlayer    = "add_player"
	OpRenamePlayer = "rename_player"
	OpDeletePlayer = "delete_player"
	OpAddScore     = "add_score"
	OpRemoveScore  = "remove_score"
)

// Store provides read/write access to the roster.
//
// Mutations never fail: invalid input and unknown ids are silent no-ops,
// reported through the returned bool. Every applied mutation is followed
// by a snapshot write to the backing Storage.
type Store interface {
	// AddPlayer appends a player named by the trimmed name.
	AddPlayer(ctx context.Context, name string) (model.Player, bool)
	// RenamePlayer replaces the name when the trimmed value is not blank.
	RenamePlayer(ctx context.Context, id, name string) (model.Roster, bool)
	// DeletePlayer removes the player and every entry it owns.
	DeletePlayer(ctx context.Context, id string) (model.Roster, bool)
	// AddScore parses raw as an integer and appends a new entry.
	AddScore(ctx context.Context, playerID, raw string) (model.Roster, bool)
	// RemoveScore removes exactly one entry.
	RemoveScore(ctx context.Context, playerID, scoreID string) (model.Roster, bool)

	// Roster returns a copy of the current roster.
	Roster(ctx context.Context) model.Roster
	// Player returns a copy of one player.
	Player(ctx context.Context, id string) (model.Player, bool)
	// Version increases by one with every applied mutation.
	Version(ctx context.Context) uint64
	// Current returns a copy of the roster together with its version.
	Current(ctx context.Context) (model.Roster, uint64)
}

// SnapshotStore is the Store implementation. Each mutation builds a new
// roster value; the previous one is never modified.
type SnapshotStore struct {
	mu      sync.RWMutex
	roster  model.Roster
	version uint64

	storage Storage
	key     string
	now     func() time.Time
	newID   func() string
	logger  logger.Logger
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store and restores its roster from storage.
// A missing or unreadable snapshot starts an empty roster.
func NewSnapshotStore(ctx context.Context, storage Storage, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		storage: storage,
		key:     DefaultKey,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.roster = s.load(ctx)
	metrics.UpdateRosterSize(s.roster.Len(), s.roster.ScoreCount())
	return s
}

func (s *SnapshotStore) load(ctx context.Context) model.Roster {
	empty := model.Roster{Players: []model.Player{}}
	if s.storage == nil {
		return empty
	}
	start := time.Now()
	blob, err := s.storage.Load(ctx, s.key)
	metrics.RecordStorageLoad(float64(time.Since(start).Milliseconds()))
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Info(ctx, "no saved roster; starting empty", logger.String("key", s.key))
		return empty
	case err != nil:
		s.logger.Error(ctx, "failed to load roster; starting empty", logger.String("key", s.key), logger.Error(err))
		metrics.RecordStorageError("load")
		return empty
	}
	r, err := decode(blob)
	if err != nil {
		s.logger.Warn(ctx, "saved roster is malformed; starting empty", logger.String("key", s.key), logger.Error(err))
		metrics.RecordErrorByComponent("repository", "malformed_snapshot")
		return empty
	}
	s.logger.Info(ctx, "roster restored", logger.Int("players", r.Len()), logger.Int("scores", r.ScoreCount()))
	return r
}

// Roster returns a copy of the current roster.
func (s *SnapshotStore) Roster(_ context.Context) model.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Clone()
}

// Player returns a copy of the player with id.
func (s *SnapshotStore) Player(_ context.Context, id string) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.roster.Find(id)
	if !ok {
		return model.Player{}, false
	}
	return p.Clone(), true
}

// Version returns the number of applied mutations since construction.
func (s *SnapshotStore) Version(_ context.Context) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Current returns a copy of the roster and the version it belongs to.
func (s *SnapshotStore) Current(_ context.Context) (model.Roster, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Clone(), s.version
}

// AddPlayer appends a new player with no scores.
func (s *SnapshotStore) AddPlayer(ctx context.Context, name string) (model.Player, bool) {
	name, ok := model.NormalizeName(name)
	if !ok {
		metrics.RecordRosterMutation(OpAddPlayer, false)
		return model.Player{}, false
	}
	p := model.Player{ID: s.newID(), Name: name, Scores: []model.ScoreEntry{}}

	s.mu.Lock()
	defer s.mu.Unlock()
	players := make([]model.Player, 0, len(s.roster.Players)+1)
	players = append(players, s.roster.Players...)
	players = append(players, p)
	s.commit(ctx, OpAddPlayer, model.Roster{Players: players})
	return p.Clone(), true
}

// RenamePlayer sets a new trimmed name. Blank names and unknown ids are no-ops.
func (s *SnapshotStore) RenamePlayer(ctx context.Context, id, name string) (model.Roster, bool) {
	name, ok := model.NormalizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roster.IndexOf(id)
	if !ok || i < 0 || s.roster.Players[i].Name == name {
		return s.noop(OpRenamePlayer)
	}
	players := make([]model.Player, len(s.roster.Players))
	copy(players, s.roster.Players)
	players[i].Name = name
	s.commit(ctx, OpRenamePlayer, model.Roster{Players: players})
	return s.roster.Clone(), true
}

// DeletePlayer removes the player and its entries. Confirmation is the
// caller's concern.
func (s *SnapshotStore) DeletePlayer(ctx context.Context, id string) (model.Roster, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roster.IndexOf(id)
	if i < 0 {
		return s.noop(OpDeletePlayer)
	}
	players := make([]model.Player, 0, len(s.roster.Players)-1)
	players = append(players, s.roster.Players[:i]...)
	players = append(players, s.roster.Players[i+1:]...)
	s.commit(ctx, OpDeletePlayer, model.Roster{Players: players})
	return s.roster.Clone(), true
}

// AddScore appends a round when raw parses as an integer.
func (s *SnapshotStore) AddScore(ctx context.Context, playerID, raw string) (model.Roster, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roster.IndexOf(playerID)
	if err != nil || i < 0 {
		return s.noop(OpAddScore)
	}
	entry := model.ScoreEntry{
		ID:         s.newID(),
		Value:      value,
		RecordedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	players := make([]model.Player, len(s.roster.Players))
	copy(players, s.roster.Players)
	old := players[i].Scores
	scores := make([]model.ScoreEntry, 0, len(old)+1)
	scores = append(scores, old...)
	players[i].Scores = append(scores, entry)
	s.commit(ctx, OpAddScore, model.Roster{Players: players})
	return s.roster.Clone(), true
}

// RemoveScore drops one entry by id.
func (s *SnapshotStore) RemoveScore(ctx context.Context, playerID, scoreID string) (model.Roster, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.roster.IndexOf(playerID)
	if i < 0 {
		return s.noop(OpRemoveScore)
	}
	old := s.roster.Players[i].Scores
	j := -1
	for k, e := range old {
		if e.ID == scoreID {
			j = k
			break
		}
	}
	if j < 0 {
		return s.noop(OpRemoveScore)
	}
	scores := make([]model.ScoreEntry, 0, len(old)-1)
	scores = append(scores, old[:j]...)
	scores = append(scores, old[j+1:]...)
	players := make([]model.Player, len(s.roster.Players))
	copy(players, s.roster.Players)
	players[i].Scores = scores
	s.commit(ctx, OpRemoveScore, model.Roster{Players: players})
	return s.roster.Clone(), true
}

func (s *SnapshotStore) noop(op string) (model.Roster, bool) {
	metrics.RecordRosterMutation(op, false)
	return s.roster.Clone(), false
}

// commit swaps in next and persists it. Caller holds s.mu.
func (s *SnapshotStore) commit(ctx context.Context, op string, next model.Roster) {
	s.roster = next
	s.version++
	metrics.RecordRosterMutation(op, true)
	metrics.UpdateRosterSize(next.Len(), next.ScoreCount())
	s.logger.Debug(ctx, "roster updated", logger.String("op", op), logger.Int("players", next.Len()))
	s.persist(ctx, op)
}

// persist writes the current roster. Failures are logged; the in-memory
// roster stays authoritative.
func (s *SnapshotStore) persist(ctx context.Context, op string) {
	if s.storage == nil {
		return
	}
	blob, err := Snapshot(s.roster)
	if err != nil {
		s.logger.Error(ctx, "failed to encode roster", logger.String("op", op), logger.Error(err))
		metrics.RecordStorageError("encode")
		return
	}
	start := time.Now()
	if err := s.storage.Save(context.WithoutCancel(ctx), s.key, blob); err != nil {
		s.logger.Error(ctx, "failed to save roster", logger.String("op", op), logger.String("key", s.key), logger.Error(err))
		metrics.RecordStorageError("save")
		metrics.RecordErrorByComponent("repository", "save")
		return
	}
	metrics.RecordStorageSave(float64(time.Since(start).Milliseconds()), len(blob))
}
