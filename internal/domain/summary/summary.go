// Package summary renders standings as a share-ready text block.
package summary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/fairway/internal/domain/ranking"
)

// Default formatting values.
const (
	DefaultLeagueName = "Alumni Golf League"
	NotAvailable      = "N/A"
	NoScores          = "None"
	ScoreSeparator    = ", "
)

var medals = []string{"🥇", "🥈", "🥉"} //nolint:gochecknoglobals // fixed podium markers

const bullet = "•"

type options struct {
	leagueName    string
	countedRounds int
}

// Option customizes Format.
type Option func(*options)

// WithLeagueName sets the title used in the header line.
func WithLeagueName(name string) Option {
	return func(o *options) {
		if s := strings.TrimSpace(name); s != "" {
			o.leagueName = s
		}
	}
}

// WithCountedRounds sets the number of rounds in the header and total label.
func WithCountedRounds(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.countedRounds = n
		}
	}
}

// Header returns the first line block of every export.
func Header(opts ...Option) string {
	o := resolve(opts)
	return fmt.Sprintf("⛳ *%s - Top %d Standings* ⛳\n\n", o.leagueName, o.countedRounds)
}

// Format renders views in the order given, followed by commentary when it is
// not blank. Scores are listed in entry order, not sorted.
func Format(views []ranking.View, commentary string, opts ...Option) string {
	o := resolve(opts)

	var b strings.Builder
	b.WriteString(Header(opts...))
	for i, v := range views {
		marker := bullet
		if i < len(medals) {
			marker = medals[i]
		}
		fmt.Fprintf(&b, "%s *%s* (%d played)\n", marker, v.Player.Name, v.GamesPlayed)
		fmt.Fprintf(&b, "   Total (Best %d): %s\n", o.countedRounds, formatTotal(v.Total))
		fmt.Fprintf(&b, "   Average: %s\n", formatAverage(v.Average, v.HasAverage))
		fmt.Fprintf(&b, "   Scores: %s\n\n", formatScores(v.Player.Values()))
	}
	if strings.TrimSpace(commentary) != "" {
		fmt.Fprintf(&b, "🤖 *AI Commentary:*\n_%s_", commentary)
	}
	return b.String()
}

func resolve(opts []Option) options {
	o := options{leagueName: DefaultLeagueName, countedRounds: ranking.DefaultCountedRounds}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func formatTotal(t ranking.Total) string {
	if !t.Eligible() {
		return NotAvailable
	}
	return strconv.Itoa(t.Sum)
}

func formatAverage(avg float64, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

func formatScores(values []int) string {
	if len(values) == 0 {
		return NoScores
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ScoreSeparator)
}
