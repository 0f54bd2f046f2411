package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/fairway/internal/adapters/mq/queue"
	"github.com/okian/fairway/internal/domain/model"
)

func roster(names ...string) model.Roster {
	r := model.Roster{Players: []model.Player{}}
	for _, n := range names {
		r.Players = append(r.Players, model.Player{ID: n, Name: n, Scores: []model.ScoreEntry{{ID: n + "-1", Value: 80}}})
	}
	return r
}

func TestInMemoryQueue(t *testing.T) {
	convey.Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
		q := queue.NewInMemoryQueue(queue.WithCapacity(2), queue.WithClock(func() time.Time { return at }))

		convey.So(q.Len(ctx), convey.ShouldEqual, 0)
		convey.So(q.Cap(), convey.ShouldEqual, 2)

		convey.Convey("When a job is enqueued", func() {
			r := roster("alice")
			job, err := q.Enqueue(ctx, r, 3)

			convey.Convey("Then it carries the version, a copy of the roster and a stamp", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(job.ID, convey.ShouldNotBeBlank)
				convey.So(job.RosterVersion, convey.ShouldEqual, 3)
				convey.So(job.RequestedAt, convey.ShouldEqual, at)
				convey.So(q.Len(ctx), convey.ShouldEqual, 1)

				r.Players[0].Scores[0].Value = 1
				got := <-q.Dequeue(ctx)
				convey.So(got.ID, convey.ShouldEqual, job.ID)
				convey.So(got.Roster.Players[0].Scores[0].Value, convey.ShouldEqual, 80)
			})
		})

		convey.Convey("When the queue is full", func() {
			_, err1 := q.Enqueue(ctx, roster("a"), 1)
			_, err2 := q.Enqueue(ctx, roster("b"), 2)
			_, err3 := q.Enqueue(ctx, roster("c"), 3)

			convey.Convey("Then the extra job is rejected", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(err3, convey.ShouldEqual, queue.ErrFull)
				convey.So(q.Len(ctx), convey.ShouldEqual, 2)
				convey.So(q.Outstanding(ctx), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a consumer is waiting on the dequeue channel", func() {
			jobs := q.Dequeue(ctx)
			_, err1 := q.Enqueue(ctx, roster("a"), 1)
			_, err2 := q.Enqueue(ctx, roster("b"), 2)
			_, err3 := q.Enqueue(ctx, roster("c"), 3)

			convey.Convey("Then nothing is pulled ahead and the bound holds", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(err3, convey.ShouldEqual, queue.ErrFull)
				convey.So(q.Len(ctx), convey.ShouldEqual, 2)
				convey.So((<-jobs).RosterVersion, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When jobs are received and finished", func() {
			_, _ = q.Enqueue(ctx, roster("a"), 1)
			_, _ = q.Enqueue(ctx, roster("b"), 2)
			jobs := q.Dequeue(ctx)

			<-jobs
			convey.So(q.Len(ctx), convey.ShouldEqual, 1)
			convey.So(q.Outstanding(ctx), convey.ShouldEqual, 2)

			q.Done(ctx)
			convey.So(q.Outstanding(ctx), convey.ShouldEqual, 1)

			<-jobs
			convey.So(q.Len(ctx), convey.ShouldEqual, 0)
			convey.So(q.Outstanding(ctx), convey.ShouldEqual, 1)

			q.Done(ctx)
			q.Done(ctx)
			convey.So(q.Outstanding(ctx), convey.ShouldEqual, 0)
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := q.Enqueue(cctx, roster("a"), 1)
			convey.So(err, convey.ShouldEqual, context.Canceled)
		})

		convey.Convey("When the queue is closed", func() {
			_, _ = q.Enqueue(ctx, roster("a"), 1)
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then enqueue fails and remaining jobs drain", func() {
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				_, err := q.Enqueue(ctx, roster("b"), 2)
				convey.So(err, convey.ShouldEqual, queue.ErrClosed)

				var got []uint64
				for job := range q.Dequeue(ctx) {
					got = append(got, job.RosterVersion)
				}
				convey.So(got, convey.ShouldResemble, []uint64{1})
			})
		})
	})
}
