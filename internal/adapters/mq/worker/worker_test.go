package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/rally/internal/adapters/mq/bus"
	"github.com/okian/rally/internal/adapters/mq/worker"
	"github.com/okian/rally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingPublisher captures publish calls in order.
type recordingPublisher struct {
	mu          sync.Mutex
	calls       []string
	snapshotErr error
}

func (p *recordingPublisher) PublishPoint(_ context.Context, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "point:"+event)
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "snapshot")
	return p.snapshotErr
}

func (p *recordingPublisher) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestBroadcaster(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	Convey("Given a broadcaster consuming a mutation bus", t, func() {
		Convey("When a plain mutation arrives", func() {
			b := bus.NewInMemoryBus()
			pub := &recordingPublisher{}
			bc := worker.NewBroadcaster(b, pub)
			go bc.Run(ctx)

			b.Post(ctx, bus.Mutation{Kind: bus.KindDonationRecorded})

			Convey("Then only a snapshot should be published", func() {
				So(waitFor(func() bool { return len(pub.recorded()) == 1 }), ShouldBeTrue)
				So(pub.recorded(), ShouldResemble, []string{"snapshot"})
			})

			_ = b.Close()
			_ = bc.Shutdown(ctx)
		})

		Convey("When a mutation carries a point event", func() {
			b := bus.NewInMemoryBus()
			pub := &recordingPublisher{}
			bc := worker.NewBroadcaster(b, pub)
			go bc.Run(ctx)

			b.Post(ctx, bus.Mutation{
				Kind:  bus.KindPhotoApproved,
				Point: &bus.Point{Event: "photo-approved", Data: map[string]string{"photoId": "p1"}},
			})

			Convey("Then the point should be pushed before the snapshot", func() {
				So(waitFor(func() bool { return len(pub.recorded()) == 2 }), ShouldBeTrue)
				So(pub.recorded(), ShouldResemble, []string{"point:photo-approved", "snapshot"})
			})

			_ = b.Close()
			_ = bc.Shutdown(ctx)
		})

		Convey("When a snapshot publish fails", func() {
			b := bus.NewInMemoryBus()
			pub := &recordingPublisher{snapshotErr: errors.New("store unavailable")}
			bc := worker.NewBroadcaster(b, pub)
			go bc.Run(ctx)

			b.Post(ctx, bus.Mutation{Kind: bus.KindSaleRecorded})
			So(waitFor(func() bool { return len(pub.recorded()) == 1 }), ShouldBeTrue)

			Convey("Then the next mutation should still be processed", func() {
				pub.mu.Lock()
				pub.snapshotErr = nil
				pub.mu.Unlock()

				b.Post(ctx, bus.Mutation{Kind: bus.KindSaleRecorded})
				So(waitFor(func() bool { return len(pub.recorded()) == 2 }), ShouldBeTrue)
			})

			_ = b.Close()
			_ = bc.Shutdown(ctx)
		})

		Convey("When the bus closes", func() {
			b := bus.NewInMemoryBus()
			pub := &recordingPublisher{}
			bc := worker.NewBroadcaster(b, pub)
			go bc.Run(ctx)

			_ = b.Close()

			Convey("Then shutdown should complete promptly", func() {
				So(bc.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}
