package ws_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/rally/internal/adapters/ws"
	"github.com/okian/rally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeSubscriber records deliveries and can simulate an unusable connection.
type fakeSubscriber struct {
	mu       sync.Mutex
	id       string
	payloads [][]byte
	sendErr  error
	closed   bool
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSubscriber) delivered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHub(t *testing.T) {
	ctx := context.Background()
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a broadcast hub", t, func() {
		hub := ws.NewHub(logger.Get())

		Convey("When subscribing a viewer", func() {
			sub := &fakeSubscriber{id: "c1"}
			hub.Subscribe(sub)

			Convey("Then the hub should count one subscriber", func() {
				So(hub.Count(), ShouldEqual, 1)
			})

			Convey("And subscribing the same connection again", func() {
				hub.Subscribe(sub)

				Convey("Then membership should be unchanged", func() {
					So(hub.Count(), ShouldEqual, 1)
				})

				Convey("And a broadcast should reach it exactly once", func() {
					hub.Broadcast(ctx, []byte("update"))
					So(sub.delivered(), ShouldEqual, 1)
				})
			})
		})

		Convey("When broadcasting to several viewers", func() {
			a := &fakeSubscriber{id: "a"}
			b := &fakeSubscriber{id: "b"}
			c := &fakeSubscriber{id: "c"}
			hub.Subscribe(a)
			hub.Subscribe(b)
			hub.Subscribe(c)
			hub.Broadcast(ctx, []byte("update"))

			Convey("Then every subscriber should receive the payload", func() {
				So(a.delivered(), ShouldEqual, 1)
				So(b.delivered(), ShouldEqual, 1)
				So(c.delivered(), ShouldEqual, 1)
			})
		})

		Convey("When one subscriber's connection is unusable", func() {
			healthy := &fakeSubscriber{id: "healthy"}
			broken := &fakeSubscriber{id: "broken", sendErr: errors.New("connection reset")}
			hub.Subscribe(healthy)
			hub.Subscribe(broken)
			hub.Broadcast(ctx, []byte("update"))

			Convey("Then delivery to the others should still happen", func() {
				So(healthy.delivered(), ShouldEqual, 1)
			})

			Convey("And the failed subscriber should be dropped and closed", func() {
				So(hub.Count(), ShouldEqual, 1)
				So(broken.isClosed(), ShouldBeTrue)
			})
		})

		Convey("When unsubscribing a viewer", func() {
			sub := &fakeSubscriber{id: "c1"}
			hub.Subscribe(sub)
			hub.Unsubscribe("c1")

			Convey("Then it should no longer receive broadcasts", func() {
				hub.Broadcast(ctx, []byte("update"))
				So(sub.delivered(), ShouldEqual, 0)
				So(hub.Count(), ShouldEqual, 0)
			})

			Convey("And unsubscribing an unknown id should be a no-op", func() {
				hub.Unsubscribe("missing")
				So(hub.Count(), ShouldEqual, 0)
			})
		})

		Convey("When the hub is closed", func() {
			sub := &fakeSubscriber{id: "c1"}
			hub.Subscribe(sub)
			hub.Close()

			Convey("Then existing subscribers should be closed", func() {
				So(sub.isClosed(), ShouldBeTrue)
				So(hub.Count(), ShouldEqual, 0)
			})

			Convey("And late subscribers should be closed immediately", func() {
				late := &fakeSubscriber{id: "late"}
				hub.Subscribe(late)
				So(late.isClosed(), ShouldBeTrue)
				So(hub.Count(), ShouldEqual, 0)
			})
		})
	})
}
