package summary_test

import (
	"strings"
	"testing"

	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id, name string, values ...int) model.Player {
	p := model.Player{ID: id, Name: name}
	for _, v := range values {
		p.Scores = append(p.Scores, model.ScoreEntry{ID: id + "-" + name, Value: v})
	}
	return p
}

func TestFormat(t *testing.T) {
	Convey("Given an empty roster", t, func() {
		out := summary.Format(ranking.Rank(nil, ranking.Ascending), "")

		Convey("Then only the header is produced", func() {
			So(out, ShouldEqual, "⛳ *Alumni Golf League - Top 2 Standings* ⛳\n\n")
			So(out, ShouldEqual, summary.Header())
		})
	})

	Convey("Given a ranked roster", t, func() {
		players := []model.Player{
			scored("b", "Bob", 100),
			scored("a", "Alice", 90, 85, 95),
			scored("c", "Cara"),
			scored("d", "Dan", 88, 84),
		}
		views := ranking.Rank(players, ranking.Ascending)

		Convey("When formatting without commentary", func() {
			out := summary.Format(views, "  ")

			Convey("Then every player block is rendered in ranked order", func() {
				want := "⛳ *Alumni Golf League - Top 2 Standings* ⛳\n\n" +
					"🥇 *Dan* (2 played)\n   Total (Best 2): 172\n   Average: 86.0\n   Scores: 88, 84\n\n" +
					"🥈 *Alice* (3 played)\n   Total (Best 2): 175\n   Average: 90.0\n   Scores: 90, 85, 95\n\n" +
					"🥉 *Bob* (1 played)\n   Total (Best 2): N/A\n   Average: 100.0\n   Scores: 100\n\n" +
					"• *Cara* (0 played)\n   Total (Best 2): N/A\n   Average: N/A\n   Scores: None\n\n"
				So(out, ShouldEqual, want)
			})
		})

		Convey("When formatting with commentary", func() {
			out := summary.Format(views, "Dan is on fire.")

			Convey("Then the commentary is appended verbatim", func() {
				So(strings.HasSuffix(out, "🤖 *AI Commentary:*\n_Dan is on fire._"), ShouldBeTrue)
			})
		})

		Convey("When formatting twice", func() {
			So(summary.Format(views, "x"), ShouldEqual, summary.Format(views, "x"))
		})
	})

	Convey("Given custom options", t, func() {
		out := summary.Format(nil, "", summary.WithLeagueName("Tuesday Scramble"), summary.WithCountedRounds(3), summary.WithLeagueName(" "))
		So(out, ShouldEqual, "⛳ *Tuesday Scramble - Top 3 Standings* ⛳\n\n")
	})
}
