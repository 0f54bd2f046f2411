package service

import (
	"time"

	"github.com/okian/fairway/internal/adapters/repository"
	"github.com/okian/fairway/internal/domain/commentary"
	"github.com/okian/fairway/internal/domain/dedupe"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the roster store. Without it an in-memory store is used.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRules sets the ranking rules.
func WithRules(rules ranking.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithLeagueName sets the export title.
func WithLeagueName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.leagueName = name
		}
	}
}

// WithGenerator sets the text generation backend. Without it commentary
// always uses the fallback line.
func WithGenerator(gen commentary.Generator) Option {
	return func(s *Service) {
		s.generator = gen
	}
}

// WithCommentaryTimeout bounds a single generation call.
func WithCommentaryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.commentaryTimeout = d
		}
	}
}

// WithQueueSize sets the maximum number of pending commentary requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRatePerMinute caps commentary generations per minute.
func WithRatePerMinute(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.ratePerMin = n
		}
	}
}

// WithIdempotencyKeys sets how many score submission keys are remembered.
func WithIdempotencyKeys(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.submissions = dedupe.New(dedupe.WithMaxKeys(n))
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
