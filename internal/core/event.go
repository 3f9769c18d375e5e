package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventAddStream announces one or more rooms.
	EventAddStream EventKind = iota
	// EventRemoveStream announces a room teardown.
	EventRemoveStream
	// EventJoinedRoom acknowledges join-room.
	EventJoinedRoom
	// EventLeftRoom acknowledges leave-room.
	EventLeftRoom
	// EventMedia carries audio, annotated with the room media format when downstream.
	EventMedia
	// EventAudioChunk carries a binary frame from the legacy path.
	EventAudioChunk
	// EventRelay carries an inbound frame verbatim.
	EventRelay
	// EventError notifies the sender about a rejected request.
	EventError
)

// Event is sent to clients to describe what happened in the system.
// A single Event may be shared by every recipient of a fan-out and must not be mutated.
type Event struct {
	Kind        EventKind
	Room        string
	Reason      string
	Streams     []RoomInfo
	Media       json.RawMessage
	MediaFormat json.RawMessage
	Sequence    json.RawMessage
	Raw         []byte
	Message     string
}
