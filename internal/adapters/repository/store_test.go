package repository_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/fairway/internal/adapters/repository"
)

// sequence returns a deterministic id generator.
func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(1500 * time.Microsecond)
		return t
	}
}

func newStore(ctx context.Context, storage repository.Storage) *repository.SnapshotStore {
	return repository.NewSnapshotStore(ctx, storage,
		repository.WithIDGenerator(sequence("id")),
		repository.WithClock(fixedClock()),
	)
}

// failingStorage rejects every write and read.
type failingStorage struct{ loads, saves int }

func (f *failingStorage) Load(context.Context, string) ([]byte, error) {
	f.loads++
	return nil, errors.New("disk unavailable")
}

func (f *failingStorage) Save(context.Context, string, []byte) error {
	f.saves++
	return errors.New("disk unavailable")
}

func savedBlob(ctx context.Context, s *repository.MemoryStorage) []byte {
	b, err := s.Load(ctx, repository.DefaultKey)
	if err != nil {
		return nil
	}
	return b
}

func TestSnapshotStore_AddPlayer(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		storage := repository.NewMemoryStorage()
		store := newStore(ctx, storage)

		Convey("When adding a player with surrounding whitespace", func() {
			p, ok := store.AddPlayer(ctx, "  Alice ")

			Convey("Then the trimmed player is appended and persisted", func() {
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "Alice")
				So(p.ID, ShouldEqual, "id-1")
				So(p.Scores, ShouldBeEmpty)
				So(store.Roster(ctx).Len(), ShouldEqual, 1)
				So(storage.Saves(), ShouldEqual, 1)
				So(store.Version(ctx), ShouldEqual, 1)
				r, v := store.Current(ctx)
				So(r.Players[0].Name, ShouldEqual, "Alice")
				So(v, ShouldEqual, 1)
			})
		})

		Convey("When adding a blank name", func() {
			_, ok := store.AddPlayer(ctx, " \t ")

			Convey("Then nothing changes", func() {
				So(ok, ShouldBeFalse)
				So(store.Roster(ctx).Len(), ShouldEqual, 0)
				So(storage.Saves(), ShouldEqual, 0)
				So(store.Version(ctx), ShouldEqual, 0)
			})
		})

		Convey("When adding several players", func() {
			store.AddPlayer(ctx, "Alice")
			store.AddPlayer(ctx, "Bob")
			store.AddPlayer(ctx, "Cara")

			Convey("Then insertion order is kept", func() {
				r := store.Roster(ctx)
				So([]string{r.Players[0].Name, r.Players[1].Name, r.Players[2].Name}, ShouldResemble, []string{"Alice", "Bob", "Cara"})
			})
		})
	})
}

func TestSnapshotStore_RenamePlayer(t *testing.T) {
	Convey("Given a store with one player", t, func() {
		ctx := context.Background()
		store := newStore(ctx, repository.NewMemoryStorage())
		p, _ := store.AddPlayer(ctx, "Alice")

		Convey("When renaming to a new trimmed name", func() {
			r, ok := store.RenamePlayer(ctx, p.ID, "  Alicia ")
			So(ok, ShouldBeTrue)
			So(r.Players[0].Name, ShouldEqual, "Alicia")
		})

		Convey("When renaming to a blank value", func() {
			r, ok := store.RenamePlayer(ctx, p.ID, "   ")

			Convey("Then the name is left unchanged", func() {
				So(ok, ShouldBeFalse)
				So(r.Players[0].Name, ShouldEqual, "Alice")
			})
		})

		Convey("When renaming an unknown id", func() {
			_, ok := store.RenamePlayer(ctx, "nope", "Zed")
			So(ok, ShouldBeFalse)
			So(store.Roster(ctx).Players[0].Name, ShouldEqual, "Alice")
		})
	})
}

func TestSnapshotStore_Scores(t *testing.T) {
	Convey("Given a store with one player", t, func() {
		ctx := context.Background()
		storage := repository.NewMemoryStorage()
		store := newStore(ctx, storage)
		p, _ := store.AddPlayer(ctx, "Alice")

		Convey("When adding a numeric score", func() {
			r, ok := store.AddScore(ctx, p.ID, " 90 ")

			Convey("Then a new entry is appended with id and timestamp", func() {
				So(ok, ShouldBeTrue)
				entries := r.Players[0].Scores
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Value, ShouldEqual, 90)
				So(entries[0].ID, ShouldEqual, "id-2")
				So(entries[0].RecordedAt.Location(), ShouldEqual, time.UTC)
				So(entries[0].RecordedAt.Nanosecond()%int(time.Millisecond), ShouldEqual, 0)
			})
		})

		Convey("When adding negative and zero scores", func() {
			store.AddScore(ctx, p.ID, "-3")
			r, ok := store.AddScore(ctx, p.ID, "0")
			So(ok, ShouldBeTrue)
			So(r.Players[0].Values(), ShouldResemble, []int{-3, 0})
		})

		Convey("When adding unparsable input", func() {
			store.AddScore(ctx, p.ID, "85")
			before := savedBlob(ctx, storage)
			saves := storage.Saves()

			for _, raw := range []string{"abc", "", "  ", "8.5", "85abc", "1e3"} {
				_, ok := store.AddScore(ctx, p.ID, raw)
				So(ok, ShouldBeFalse)
			}

			Convey("Then the roster is byte-for-byte unchanged", func() {
				after, err := repository.Snapshot(store.Roster(ctx))
				So(err, ShouldBeNil)
				So(bytes.Equal(before, after), ShouldBeTrue)
				So(storage.Saves(), ShouldEqual, saves)
			})
		})

		Convey("When adding a score for an unknown player", func() {
			_, ok := store.AddScore(ctx, "ghost", "80")
			So(ok, ShouldBeFalse)
			So(store.Roster(ctx).ScoreCount(), ShouldEqual, 0)
		})

		Convey("When removing a score", func() {
			store.AddScore(ctx, p.ID, "90")
			r, _ := store.AddScore(ctx, p.ID, "90")
			target := r.Players[0].Scores[0].ID

			r, ok := store.RemoveScore(ctx, p.ID, target)

			Convey("Then exactly that entry is gone", func() {
				So(ok, ShouldBeTrue)
				So(len(r.Players[0].Scores), ShouldEqual, 1)
				So(r.Players[0].Scores[0].ID, ShouldNotEqual, target)
			})

			Convey("And removing it again is a no-op", func() {
				_, ok := store.RemoveScore(ctx, p.ID, target)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When removing with unknown ids", func() {
			store.AddScore(ctx, p.ID, "90")
			_, ok := store.RemoveScore(ctx, "ghost", "x")
			So(ok, ShouldBeFalse)
			_, ok = store.RemoveScore(ctx, p.ID, "x")
			So(ok, ShouldBeFalse)
			So(store.Roster(ctx).ScoreCount(), ShouldEqual, 1)
		})
	})
}

func TestSnapshotStore_DeletePlayer(t *testing.T) {
	Convey("Given a store with three players and scores", t, func() {
		ctx := context.Background()
		store := newStore(ctx, repository.NewMemoryStorage())
		a, _ := store.AddPlayer(ctx, "Alice")
		b, _ := store.AddPlayer(ctx, "Bob")
		c, _ := store.AddPlayer(ctx, "Cara")
		for _, v := range []string{"90", "85", "95"} {
			store.AddScore(ctx, a.ID, v)
		}
		store.AddScore(ctx, b.ID, "100")
		store.AddScore(ctx, b.ID, "99")
		store.AddScore(ctx, c.ID, "80")
		before := store.Roster(ctx)

		Convey("When deleting Bob", func() {
			r, ok := store.DeletePlayer(ctx, b.ID)

			Convey("Then only Bob and his entries are removed", func() {
				So(ok, ShouldBeTrue)
				So(r.Len(), ShouldEqual, before.Len()-1)
				So(r.IndexOf(b.ID), ShouldEqual, -1)
				So(r.IndexOf(a.ID), ShouldEqual, 0)
				So(r.IndexOf(c.ID), ShouldEqual, 1)
				So(r.ScoreCount(), ShouldEqual, before.ScoreCount()-2)
			})
		})

		Convey("When deleting an unknown id", func() {
			r, ok := store.DeletePlayer(ctx, "ghost")
			So(ok, ShouldBeFalse)
			So(cmp.Diff(before, r), ShouldBeEmpty)
		})
	})
}

func TestSnapshotStore_Isolation(t *testing.T) {
	Convey("Given a roster read before a mutation", t, func() {
		ctx := context.Background()
		store := newStore(ctx, repository.NewMemoryStorage())
		p, _ := store.AddPlayer(ctx, "Alice")
		store.AddScore(ctx, p.ID, "90")
		read := store.Roster(ctx)

		Convey("When the store is mutated afterwards", func() {
			store.AddScore(ctx, p.ID, "80")
			store.RenamePlayer(ctx, p.ID, "Alicia")

			Convey("Then the earlier read is unaffected", func() {
				So(read.Players[0].Name, ShouldEqual, "Alice")
				So(read.Players[0].Values(), ShouldResemble, []int{90})
			})
		})

		Convey("When the caller modifies its copy", func() {
			read.Players[0].Scores[0].Value = 1

			Convey("Then the store is unaffected", func() {
				got, ok := store.Player(ctx, p.ID)
				So(ok, ShouldBeTrue)
				So(got.Values(), ShouldResemble, []int{90})
			})
		})
	})
}

func TestSnapshotStore_Persistence(t *testing.T) {
	Convey("Given a store that has been used", t, func() {
		ctx := context.Background()
		storage := repository.NewMemoryStorage()
		store := newStore(ctx, storage)
		a, _ := store.AddPlayer(ctx, "Alice")
		b, _ := store.AddPlayer(ctx, "Bob")
		store.AddScore(ctx, a.ID, "90")
		store.AddScore(ctx, a.ID, "85")
		store.AddScore(ctx, b.ID, "100")
		r, _ := store.AddScore(ctx, b.ID, "101")
		store.RemoveScore(ctx, b.ID, r.Players[1].Scores[1].ID)
		store.RenamePlayer(ctx, b.ID, "Robert")

		Convey("When a new store is built on the same storage", func() {
			reopened := repository.NewSnapshotStore(ctx, storage)

			Convey("Then it restores the same roster", func() {
				So(cmp.Diff(store.Roster(ctx), reopened.Roster(ctx), cmpopts.EquateEmpty()), ShouldBeEmpty)
				So(reopened.Version(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a custom key is used", func() {
			other := repository.NewSnapshotStore(ctx, storage, repository.WithKey("other-league"))
			So(other.Roster(ctx).Len(), ShouldEqual, 0)
		})
	})

	Convey("Given storage holding a malformed blob", t, func() {
		ctx := context.Background()
		storage := repository.NewMemoryStorage()
		So(storage.Save(ctx, repository.DefaultKey, []byte(`{"not":"a list"`)), ShouldBeNil)

		store := newStore(ctx, storage)
		So(store.Roster(ctx).Len(), ShouldEqual, 0)

		Convey("Then the store still works and overwrites the blob", func() {
			_, ok := store.AddPlayer(ctx, "Alice")
			So(ok, ShouldBeTrue)
			So(repository.Restore(savedBlob(ctx, storage)).Len(), ShouldEqual, 1)
		})
	})

	Convey("Given storage that always fails", t, func() {
		ctx := context.Background()
		storage := &failingStorage{}
		store := newStore(ctx, storage)

		Convey("Then mutations still apply in memory", func() {
			p, ok := store.AddPlayer(ctx, "Alice")
			So(ok, ShouldBeTrue)
			_, ok = store.AddScore(ctx, p.ID, "72")
			So(ok, ShouldBeTrue)
			So(store.Roster(ctx).ScoreCount(), ShouldEqual, 1)
			So(storage.loads, ShouldEqual, 1)
			So(storage.saves, ShouldEqual, 2)
		})
	})

	Convey("Given a store without storage", t, func() {
		ctx := context.Background()
		store := repository.NewSnapshotStore(ctx, nil)
		_, ok := store.AddPlayer(ctx, "Solo")
		So(ok, ShouldBeTrue)
	})
}
