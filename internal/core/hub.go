package core

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/banndicoot-king/stream-pru/internal/metrics"
)

const inboxSize = 1024

// envelope is one unit of hub work. Commands, disconnects and queries share the
// inbox so they are processed in submission order.
type envelope struct {
	client *Client
	cmd    *Command
	// leave marks a disconnect.
	leave bool
	// fn is a query or sweep run on the hub goroutine.
	fn func()
	// ack, when set, is closed once the envelope has been processed.
	ack chan struct{}
}

// Hub owns the registry and every connection. All mutations run on the goroutine
// executing Run, so each operation is atomic with respect to the others.
type Hub struct {
	registry *Registry
	clients  map[*Client]struct{}

	register chan *Client
	inbox    chan envelope
	done     chan struct{}

	log     *zerolog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a hub. A nil logger disables logging; nil metrics uses a private registry.
func NewHub(logger *zerolog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return &Hub{
		registry: NewRegistry(),
		clients:  make(map[*Client]struct{}),
		register: make(chan *Client),
		inbox:    make(chan envelope, inboxSize),
		done:     make(chan struct{}),
		log:      logger,
		metrics:  m,
	}
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.metrics.Connections.Inc()
			h.metrics.ConnectionsTotal.Inc()
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
		case env := <-h.inbox:
			switch {
			case env.fn != nil:
				env.fn()
			case env.leave:
				h.removeClient(env.client)
			default:
				h.dispatch(env.client, env.cmd)
			}
			if env.ack != nil {
				close(env.ack)
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RegisterClient adds a connection. It returns once the hub has recorded it,
// or ErrHubStopped if Run has exited.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// UnregisterClient tears a connection down: it leaves every room, its rooms are
// deleted and its Events channel is closed. Queued commands from c run first.
// It returns once the teardown has happened.
func (h *Hub) UnregisterClient(c *Client) {
	_ = h.submit(envelope{client: c, leave: true})
}

// Dispatch queues a command from c.
func (h *Hub) Dispatch(c *Client, cmd *Command) {
	if cmd == nil {
		return
	}
	select {
	case h.inbox <- envelope{client: c, cmd: cmd}:
	case <-h.done:
	}
}

// ListRooms returns a snapshot of the registry for discovery.
func (h *Hub) ListRooms() ([]RoomInfo, error) {
	var rooms []RoomInfo
	err := h.do(func() { rooms = h.registry.ListRooms() })
	return rooms, err
}

// RoomListeners returns the ids of the connections subscribed to a room.
func (h *Hub) RoomListeners(id string) ([]string, bool, error) {
	var (
		ids []string
		ok  bool
	)
	err := h.do(func() {
		room, exists := h.registry.Room(id)
		if !exists {
			return
		}
		ok = true
		for c := range room.listeners {
			ids = append(ids, c.ID)
		}
	})
	return ids, ok, err
}

// Sweep deletes every room whose publisher is no longer open and notifies the
// remaining connections. It returns the number of rooms reclaimed.
func (h *Hub) Sweep() (int, error) {
	var n int
	err := h.do(func() { n = h.sweep() })
	return n, err
}

func (h *Hub) do(fn func()) error {
	return h.submit(envelope{fn: fn})
}

// submit queues env and waits until the hub has processed it.
func (h *Hub) submit(env envelope) error {
	env.ack = make(chan struct{})
	select {
	case h.inbox <- env:
	case <-h.done:
		return ErrHubStopped
	}
	select {
	case <-env.ack:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.metrics.Connections.Dec()

	logEvent := h.log.Debug().Str("client_id", c.ID).Bool("expired", c.Expired())
	if u, ok := h.registry.User(c); ok {
		logEvent = logEvent.Str("user_id", u.ID)
	}
	h.registry.RemoveUser(c)
	for _, id := range h.registry.RoomsContainingListener(c) {
		h.registry.RemoveListener(id, c)
	}
	if !c.Expired() {
		for _, id := range h.registry.RoomsPublishedBy(c) {
			h.destroyRoom(c, id, ReasonPublisherGone, causeDisconnect)
		}
	}
	c.detach()

	logEvent.Msg("client unregistered")
}

func (h *Hub) sweep() int {
	defer prometheus.NewTimer(h.metrics.SweepDuration).ObserveDuration()
	h.metrics.Sweeps.Inc()

	reclaimed := 0
	h.registry.ForEachRoom(func(room *Room) {
		if room.Publisher.Open() {
			return
		}
		if h.destroyRoom(room.Publisher, room.ID, ReasonStreamDead, causeLiveness) {
			reclaimed++
			h.log.Info().Str("room_id", room.ID).Str("publisher_id", room.Publisher.ID).Msg("reclaimed dead stream")
		}
	})
	return reclaimed
}

// destroyRoom deletes the room and tells every connection except actor.
func (h *Hub) destroyRoom(actor *Client, id, reason, cause string) bool {
	if !h.registry.DeleteRoom(id) {
		return false
	}
	h.metrics.ActiveRooms.Set(float64(h.registry.Len()))
	h.metrics.RoomsDestroyed.WithLabelValues(cause).Inc()
	h.broadcastOthers(actor, &Event{Kind: EventRemoveStream, Room: id, Reason: reason})
	return true
}

func (h *Hub) shutdown() {
	for c := range h.clients {
		c.detach()
	}
	h.clients = make(map[*Client]struct{})
	h.metrics.Connections.Set(0)
}
