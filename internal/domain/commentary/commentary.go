// Package commentary defines the contract for externally generated league
// commentary and the fallback rules applied around it.
//
// Generation is slow and may fail. Callers never see its errors: a failed
// call yields FallbackOnError and an empty reply yields FallbackOnEmpty.
package commentary

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

// Fixed substitute texts.
const (
	FallbackOnError = "Leaderboard updated! Great rounds everyone."
	FallbackOnEmpty = "Leaderboard updated! Get back to the range!"
)

const defaultTimeout = 15 * time.Second

// Outcome labels how a commentary text was obtained.
type Outcome string

const (
	OutcomeGenerated Outcome = "ok"
	OutcomeEmpty     Outcome = "empty"
	OutcomeFallback  Outcome = "fallback"
)

// Generator turns a prompt into free text. Implementations honor ctx.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Static returns a Generator that always answers text.
func Static(text string) Generator {
	return GeneratorFunc(func(context.Context, string) (string, error) { return text, nil })
}

// Line is the per-player input handed to the generator.
type Line struct {
	Name      string
	BestTotal int
	Scores    []int
}

// Lines extracts generator input from the roster in roster order.
// BestTotal sums up to counted lowest scores without any penalty.
func Lines(r model.Roster, counted int) []Line {
	out := make([]Line, len(r.Players))
	for i, p := range r.Players {
		values := p.Values()
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		total := 0
		for j := 0; j < len(sorted) && j < counted; j++ {
			total += sorted[j]
		}
		out[i] = Line{Name: p.Name, BestTotal: total, Scores: values}
	}
	return out
}

// Prompt builds the announcer prompt for lines.
func Prompt(lines []Line, counted int) string {
	var board strings.Builder
	for i, l := range lines {
		if i > 0 {
			board.WriteByte('\n')
		}
		scores := make([]string, len(l.Scores))
		for j, s := range l.Scores {
			scores[j] = strconv.Itoa(s)
		}
		fmt.Fprintf(&board, "%s: Best %d total = %d (Scores: %s)", l.Name, counted, l.BestTotal, strings.Join(scores, ", "))
	}
	return fmt.Sprintf(`You are a witty and slightly competitive golf league announcer for a WhatsApp group of old college alumni.
Based on the following golf leaderboard (where LOWER scores are better), write a 3-sentence fun summary to post in the group.
Mention the leader and give a gentle ribbing to someone who might need to practice more.
Keep it friendly, professional, and perfect for a group chat.

Leaderboard:
%s
`, board.String())
}

// Result is the outcome of one commentary request.
type Result struct {
	Text        string
	Outcome     Outcome
	GeneratedAt time.Time
}

// Commentator wraps a Generator with a timeout and the fallback rules.
type Commentator struct {
	gen     Generator
	timeout time.Duration
	counted int
	now     func() time.Time
	logger  logger.Logger
}

// Option applies a configuration option to the Commentator.
type Option func(*Commentator)

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(c *Commentator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCountedRounds sets how many rounds the prompt totals include.
func WithCountedRounds(n int) Option {
	return func(c *Commentator) {
		if n > 0 {
			c.counted = n
		}
	}
}

// WithLogger sets the logger used for generation failures.
func WithLogger(l logger.Logger) Option {
	return func(c *Commentator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Commentator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCommentator creates a Commentator around gen. A nil gen always falls back.
func NewCommentator(gen Generator, opts ...Option) *Commentator {
	c := &Commentator{
		gen:     gen,
		timeout: defaultTimeout,
		counted: 2,
		now:     time.Now,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commentate asks the generator about r. It never fails.
func (c *Commentator) Commentate(ctx context.Context, r model.Roster) Result {
	start := c.now()
	res := c.generate(ctx, r)
	res.GeneratedAt = c.now()
	metrics.RecordCommentary(string(res.Outcome), float64(res.GeneratedAt.Sub(start).Milliseconds()))
	return res
}

func (c *Commentator) generate(ctx context.Context, r model.Roster) Result {
	if c.gen == nil {
		return Result{Text: FallbackOnError, Outcome: OutcomeFallback}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.gen.Generate(ctx, Prompt(Lines(r, c.counted), c.counted))
	if err != nil {
		fields := []logger.Field{logger.Error(err), logger.Int("players", r.Len())}
		if errors.Is(err, context.DeadlineExceeded) {
			fields = append(fields, logger.Duration("timeout", c.timeout))
		}
		c.logger.Warn(ctx, "commentary generation failed; using fallback", fields...)
		metrics.RecordErrorByComponent("commentary", "generate")
		return Result{Text: FallbackOnError, Outcome: OutcomeFallback}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Text: FallbackOnEmpty, Outcome: OutcomeEmpty}
	}
	return Result{Text: text, Outcome: OutcomeGenerated}
}
