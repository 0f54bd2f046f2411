package repository_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/fairway/internal/adapters/repository"
	"github.com/okian/fairway/internal/domain/model"
)

func sampleRoster() model.Roster {
	at := time.Date(2026, 5, 1, 10, 0, 0, 123_000_000, time.UTC)
	return model.Roster{Players: []model.Player{
		{ID: "a", Name: "Alice", Scores: []model.ScoreEntry{
			{ID: "s1", Value: 90, RecordedAt: at},
			{ID: "s2", Value: -2, RecordedAt: at.Add(time.Hour)},
		}},
		{ID: "b", Name: "Bob", Scores: []model.ScoreEntry{}},
	}}
}

func TestSnapshotRoundTrip(t *testing.T) {
	Convey("Given a roster with players and scores", t, func() {
		r := sampleRoster()

		Convey("When it is encoded", func() {
			blob, err := repository.Snapshot(r)
			So(err, ShouldBeNil)

			Convey("Then the wire shape uses id, name, scores, value and date", func() {
				var raw []map[string]any
				So(json.Unmarshal(blob, &raw), ShouldBeNil)
				So(len(raw), ShouldEqual, 2)
				So(raw[0]["id"], ShouldEqual, "a")
				So(raw[0]["name"], ShouldEqual, "Alice")
				scores := raw[0]["scores"].([]any)
				first := scores[0].(map[string]any)
				So(first["value"], ShouldEqual, 90.0)
				So(first["date"], ShouldEqual, "2026-05-01T10:00:00.123Z")
				So(raw[1]["scores"], ShouldResemble, []any{})
			})

			Convey("Then restoring yields an equal roster", func() {
				So(cmp.Diff(r, repository.Restore(blob)), ShouldBeEmpty)
			})
		})

		Convey("When an empty roster is encoded", func() {
			blob, err := repository.Snapshot(model.Roster{})
			So(err, ShouldBeNil)
			So(string(blob), ShouldEqual, "[]")
			So(repository.Restore(blob).Len(), ShouldEqual, 0)
		})
	})
}

func TestRestoreRejectsBadInput(t *testing.T) {
	Convey("Given unusable snapshots", t, func() {
		cases := []struct{ name, blob string }{
			{"empty", ``},
			{"not json", `{{{`},
			{"object", `{"id":"a"}`},
			{"wrong types", `[{"id":1,"name":"A","scores":[]}]`},
			{"blank name", `[{"id":"a","name":"  ","scores":[]}]`},
			{"missing id", `[{"name":"A","scores":[]}]`},
			{"duplicate player", `[{"id":"a","name":"A"},{"id":"a","name":"B"}]`},
			{"duplicate score", `[{"id":"a","name":"A","scores":[{"id":"x","value":1},{"id":"x","value":2}]}]`},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" restores empty", func() {
				r := repository.Restore([]byte(tc.blob))
				So(r.Players, ShouldNotBeNil)
				So(r.Len(), ShouldEqual, 0)
			})
		}
	})

	Convey("Given a snapshot with missing score lists", t, func() {
		r := repository.Restore([]byte(`[{"id":"a","name":" Alice "},{"id":"b","name":"Bob","scores":null}]`))

		Convey("Then players get empty score lists and trimmed names", func() {
			So(r.Len(), ShouldEqual, 2)
			So(r.Players[0].Name, ShouldEqual, "Alice")
			So(r.Players[0].Scores, ShouldNotBeNil)
			So(r.Players[1].Scores, ShouldNotBeNil)
			So(cmp.Diff(model.Roster{Players: []model.Player{
				{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"},
			}}, r, cmpopts.EquateEmpty()), ShouldBeEmpty)
		})
	})
}
