package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeReassessor struct {
	calls atomic.Int32
	fired chan struct{}
	err   error
}

func newFakeReassessor() *fakeReassessor {
	return &fakeReassessor{fired: make(chan struct{}, 16)}
}

func (f *fakeReassessor) ReassessAll(context.Context) (int, error) {
	f.calls.Add(1)
	select {
	case f.fired <- struct{}{}:
	default:
	}
	return 3, f.err
}

func TestNew(t *testing.T) {
	Convey("Given schedule specs", t, func() {
		target := newFakeReassessor()

		Convey("Then an empty spec is rejected", func() {
			_, err := New("", target)
			So(err, ShouldEqual, ErrNoSchedule)
		})

		Convey("Then a five-field spec is rejected because seconds are required", func() {
			_, err := New("0 * * * *", target)
			So(err, ShouldNotBeNil)
		})

		Convey("Then six-field specs and descriptors are accepted", func() {
			_, err := New("0 0 * * * *", target)
			So(err, ShouldBeNil)
			_, err = New("@every 1h", target, WithTimeout(time.Minute))
			So(err, ShouldBeNil)
		})
	})
}

func TestSweep(t *testing.T) {
	Convey("Given a scheduler", t, func() {
		target := newFakeReassessor()
		s, err := New("@every 1h", target)
		So(err, ShouldBeNil)

		Convey("When a sweep runs directly", func() {
			n, err := s.Sweep(context.Background())

			Convey("Then the target is reassessed once", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
				So(target.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the target fails", func() {
			target.err = errors.New("boom")
			n, err := s.Sweep(context.Background())

			Convey("Then the error and partial count are returned", func() {
				So(err, ShouldEqual, target.err)
				So(n, ShouldEqual, 3)
			})
		})
	})
}

func TestStartStop(t *testing.T) {
	Convey("Given a scheduler firing every second", t, func() {
		target := newFakeReassessor()
		s, err := New("* * * * * *", target)
		So(err, ShouldBeNil)
		So(s.Next().IsZero(), ShouldBeTrue)

		s.Start(context.Background())

		Convey("Then a sweep fires and stop returns", func() {
			So(s.Next().IsZero(), ShouldBeFalse)
			select {
			case <-target.fired:
			case <-time.After(3 * time.Second):
				So("sweep did not fire", ShouldBeEmpty)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			So(s.Stop(ctx), ShouldBeNil)
		})
	})
}
