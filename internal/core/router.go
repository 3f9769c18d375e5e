package core

// dispatch routes one command. Every kind is handled exactly once; there is no fallthrough.
func (h *Hub) dispatch(c *Client, cmd *Command) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.metrics.FramesReceived.WithLabelValues(cmd.Kind.String()).Inc()

	switch cmd.Kind {
	case CommandStart:
		h.handleStart(c, cmd)
	case CommandStop:
		h.handleStop(c, cmd)
	case CommandRegisterUser:
		h.handleRegisterUser(c, cmd)
	case CommandJoinRoom:
		h.handleJoinRoom(c, cmd)
	case CommandLeaveRoom:
		h.handleLeaveRoom(c, cmd)
	case CommandMedia:
		h.handleMedia(c, cmd)
	case CommandDTMF:
		h.handleDTMF(c, cmd)
	case CommandAudio:
		h.handleAudio(c, cmd)
	case CommandClear, CommandMark:
		h.handlePublisherRelay(c, cmd)
	case CommandBinaryAudio:
		h.handleBinaryAudio(c, cmd)
	case CommandUnknown:
		h.handleUnknown(c, cmd)
	default:
		h.log.Warn().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("invalid command kind")
	}
}

func (h *Hub) handleStart(c *Client, cmd *Command) {
	if cmd.Room == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("start without room_id")
		return
	}
	// A connection publishes and listens to at most one room.
	for _, id := range h.registry.RoomsPublishedBy(c) {
		if id != cmd.Room {
			h.destroyRoom(c, id, ReasonStreamReplaced, causeReplaced)
		}
	}
	for _, id := range h.registry.RoomsContainingListener(c) {
		if id != cmd.Room {
			h.registry.RemoveListener(id, c)
		}
	}
	room := h.registry.CreateRoom(cmd.Room, cmd.Meta, c)
	h.metrics.RoomsCreated.Inc()
	h.metrics.ActiveRooms.Set(float64(h.registry.Len()))

	h.log.Info().Str("client_id", c.ID).Str("room_id", room.ID).Str("call_id", room.CallID).Msg("stream started")
	h.broadcastOthers(c, &Event{Kind: EventAddStream, Streams: []RoomInfo{room.Info()}})
}

func (h *Hub) handleStop(c *Client, cmd *Command) {
	if cmd.Room == "" {
		return
	}
	if !h.destroyRoom(c, cmd.Room, cmd.Reason, causeStop) {
		// The room is already gone; the stop is still announced.
		h.broadcastOthers(c, &Event{Kind: EventRemoveStream, Room: cmd.Room, Reason: cmd.Reason})
		return
	}
	h.log.Info().Str("client_id", c.ID).Str("room_id", cmd.Room).Str("reason", cmd.Reason).Msg("stream stopped")
}

func (h *Hub) handleRegisterUser(c *Client, cmd *Command) {
	if cmd.User.ID == "" || cmd.User.Name == "" {
		h.log.Debug().Str("client_id", c.ID).Msg("register-user with missing id or name")
		return
	}
	h.registry.RegisterUser(c, cmd.User)
	h.deliver(c, &Event{Kind: EventAddStream, Streams: h.registry.ListRooms()})
}

func (h *Hub) handleJoinRoom(c *Client, cmd *Command) {
	if cmd.Room == "" {
		return
	}
	if _, ok := h.registry.Room(cmd.Room); !ok {
		h.log.Debug().Str("client_id", c.ID).Str("room_id", cmd.Room).Msg("join-room for unknown room")
		return
	}
	for _, id := range h.registry.RoomsContainingListener(c) {
		if id != cmd.Room {
			h.registry.RemoveListener(id, c)
		}
	}
	h.registry.AddListener(cmd.Room, c)
	h.deliver(c, &Event{Kind: EventJoinedRoom, Room: cmd.Room})
}

func (h *Hub) handleLeaveRoom(c *Client, cmd *Command) {
	if cmd.Room == "" {
		return
	}
	if _, ok := h.registry.Room(cmd.Room); !ok {
		return
	}
	h.registry.RemoveListener(cmd.Room, c)
	h.deliver(c, &Event{Kind: EventLeftRoom, Room: cmd.Room})
}

func (h *Hub) handleMedia(c *Client, cmd *Command) {
	room := h.activeRoom(c, cmd.Room)
	if room == nil {
		h.replyError(c, MsgNotInRoom)
		return
	}
	h.fanOut(room, c, &Event{
		Kind:        EventMedia,
		Room:        room.ID,
		Media:       cmd.Media,
		MediaFormat: room.MediaFormat,
		Sequence:    cmd.Sequence,
	})
}

func (h *Hub) handleDTMF(c *Client, cmd *Command) {
	room := h.activeRoom(c, cmd.Room)
	if room == nil {
		h.replyError(c, MsgNotInRoom)
		return
	}
	h.fanOut(room, c, &Event{Kind: EventRelay, Room: room.ID, Raw: cmd.Raw})
}

func (h *Hub) handleAudio(c *Client, cmd *Command) {
	room, ok := h.registry.Room(cmd.Room)
	if !ok {
		h.replyError(c, MsgNotInRoom)
		return
	}
	if room.Publisher == c {
		return
	}
	h.deliver(room.Publisher, &Event{
		Kind:     EventMedia,
		Room:     room.ID,
		Media:    cmd.Media,
		Sequence: cmd.Sequence,
	})
}

func (h *Hub) handlePublisherRelay(c *Client, cmd *Command) {
	room, ok := h.registry.Room(cmd.Room)
	if !ok || room.Publisher == c {
		return
	}
	h.deliver(room.Publisher, &Event{Kind: EventRelay, Room: room.ID, Raw: cmd.Raw})
}

func (h *Hub) handleBinaryAudio(c *Client, cmd *Command) {
	room := h.currentRoom(c)
	if room == nil {
		return
	}
	h.fanOut(room, c, &Event{Kind: EventAudioChunk, Room: room.ID, Raw: cmd.Raw})
}

func (h *Hub) handleUnknown(c *Client, cmd *Command) {
	room := h.currentRoom(c)
	h.log.Debug().Str("client_id", c.ID).Str("event", cmd.Event).Bool("relayed", room != nil).Msg("unknown event")
	if room == nil {
		return
	}
	h.fanOut(room, c, &Event{Kind: EventRelay, Room: room.ID, Raw: cmd.Raw})
}

// activeRoom resolves the room a media-style event applies to: the named room when
// c belongs to it, otherwise c's current room.
func (h *Hub) activeRoom(c *Client, id string) *Room {
	if id != "" {
		if room, ok := h.registry.Room(id); ok && (room.Publisher == c || room.HasListener(c)) {
			return room
		}
	}
	return h.currentRoom(c)
}

// currentRoom returns the room c listens to, falling back to a room it publishes.
func (h *Hub) currentRoom(c *Client) *Room {
	if ids := h.registry.RoomsContainingListener(c); len(ids) > 0 {
		room, _ := h.registry.Room(ids[0])
		return room
	}
	if ids := h.registry.RoomsPublishedBy(c); len(ids) > 0 {
		room, _ := h.registry.Room(ids[0])
		return room
	}
	return nil
}

func (h *Hub) replyError(c *Client, msg string) {
	h.deliver(c, &Event{Kind: EventError, Message: msg})
}

// fanOut sends ev to every listener of room except sender.
func (h *Hub) fanOut(room *Room, sender *Client, ev *Event) {
	for listener := range room.listeners {
		if listener != sender {
			h.deliver(listener, ev)
		}
	}
}

// broadcastOthers sends ev to every connection except sender.
func (h *Hub) broadcastOthers(sender *Client, ev *Event) {
	for c := range h.clients {
		if c != sender {
			h.deliver(c, ev)
		}
	}
}

// deliver is the only path to a client's queue. Closed or saturated peers are skipped.
func (h *Hub) deliver(c *Client, ev *Event) {
	if c == nil {
		return
	}
	if c.deliver(ev) {
		h.metrics.FramesDelivered.WithLabelValues(eventNames[ev.Kind]).Inc()
		return
	}
	h.metrics.FramesDropped.Inc()
}

var eventNames = [...]string{
	EventAddStream:    "add-stream",
	EventRemoveStream: "remove-stream",
	EventJoinedRoom:   "joined-room",
	EventLeftRoom:     "left-room",
	EventMedia:        "media",
	EventAudioChunk:   "audio-chunk",
	EventRelay:        "relay",
	EventError:        "error",
}
