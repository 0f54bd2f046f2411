package ranking

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCountedRounds sets how many of the lowest rounds count toward a total.
// It is also the eligibility threshold: fewer rounds yield a provisional total.
func WithCountedRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rules.CountedRounds = n
		}
	}
}

// WithPenalty sets the amount added to provisional totals.
func WithPenalty(p int) Option {
	return func(e *Engine) {
		if p >= 0 {
			e.rules.Penalty = p
		}
	}
}

// WithRules replaces both rules at once. Invalid fields keep their defaults.
func WithRules(r Rules) Option {
	return func(e *Engine) {
		WithCountedRounds(r.CountedRounds)(e)
		WithPenalty(r.Penalty)(e)
	}
}
