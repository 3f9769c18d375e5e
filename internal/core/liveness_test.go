package core

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestSweepReclaimsDeadPublisherOnce(t *testing.T) {
	hub := startHub(t)
	pub := startRoom(t, hub, "r1")
	alive := startRoom(t, hub, "r2")
	listener := connect(t, hub)
	hub.Dispatch(listener, &Command{Kind: CommandJoinRoom, Room: "r1"})
	settle(t, hub)
	drain(listener.Events)
	drain(alive.Events)

	// The transport saw the socket drop but teardown has not run yet.
	pub.MarkClosed()

	n, err := hub.Sweep()
	if err != nil || n != 1 {
		t.Fatalf("Sweep() = %d, %v; want 1, nil", n, err)
	}
	for _, c := range []*Client{listener, alive} {
		ev := mustEvent(t, c.Events, EventRemoveStream)
		if ev.Room != "r1" || ev.Reason != ReasonStreamDead {
			t.Fatalf("unexpected remove-stream: %+v", ev)
		}
	}
	if got := countKind(drain(pub.Events), EventRemoveStream); got != 0 {
		t.Fatal("dead publisher must not be notified")
	}

	n, err = hub.Sweep()
	if err != nil || n != 0 {
		t.Fatalf("second Sweep() = %d, %v; want 0, nil", n, err)
	}
	if evs := drain(listener.Events); len(evs) != 0 {
		t.Fatalf("duplicate notification: %+v", evs)
	}

	rooms, _ := hub.ListRooms()
	if len(rooms) != 1 || rooms[0].ID != "r2" {
		t.Fatalf("live room should survive: %+v", rooms)
	}
}

func TestExpiredPublisherIsLeftForSweep(t *testing.T) {
	hub := startHub(t)
	pub := startRoom(t, hub, "r1")
	listener := connect(t, hub)
	hub.Dispatch(listener, &Command{Kind: CommandJoinRoom, Room: "r1"})
	settle(t, hub)
	drain(listener.Events)

	// Keepalive failure, then the transport tears the connection down.
	pub.Expire()
	if pub.Open() || !pub.Expired() {
		t.Fatal("expired client must report closed")
	}
	hub.UnregisterClient(pub)

	rooms, _ := hub.ListRooms()
	if len(rooms) != 1 {
		t.Fatalf("room should wait for the sweep: %+v", rooms)
	}
	if evs := drain(listener.Events); len(evs) != 0 {
		t.Fatalf("no notification expected before the sweep: %+v", evs)
	}

	n, err := hub.Sweep()
	if err != nil || n != 1 {
		t.Fatalf("Sweep() = %d, %v; want 1, nil", n, err)
	}
	ev := mustEvent(t, listener.Events, EventRemoveStream)
	if ev.Room != "r1" || ev.Reason != ReasonStreamDead {
		t.Fatalf("unexpected remove-stream: %+v", ev)
	}
}

func TestSweepEmptyRegistry(t *testing.T) {
	hub := startHub(t)
	n, err := hub.Sweep()
	if err != nil || n != 0 {
		t.Fatalf("Sweep() = %d, %v", n, err)
	}
}

func TestLivenessMonitorTicks(t *testing.T) {
	hub := startHub(t)
	pub := startRoom(t, hub, "r1")
	listener := connect(t, hub)
	pub.MarkClosed()

	mock := clock.NewMock()
	monitor := NewLivenessMonitor(hub, time.Second, mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(stopped)
	}()

	// The ticker is created on the monitor goroutine; keep advancing until it fires.
	deadline := time.Now().Add(2 * time.Second)
	for {
		mock.Add(time.Second)
		rooms, err := hub.ListRooms()
		if err != nil {
			t.Fatal(err)
		}
		if len(rooms) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("monitor never swept the dead room")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ev := mustEvent(t, listener.Events, EventRemoveStream)
	if ev.Reason != ReasonStreamDead {
		t.Fatalf("unexpected reason %q", ev.Reason)
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}

func TestLivenessMonitorStopsWithHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	monitor := NewLivenessMonitor(hub, 0, clock.NewMock(), nil)
	if monitor.interval != DefaultLivenessInterval {
		t.Fatalf("interval = %v", monitor.interval)
	}

	stopped := make(chan struct{})
	go func() {
		monitor.Run(context.Background())
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop with the hub")
	}
}
