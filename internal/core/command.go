package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandStart creates or replaces a room with the sender as publisher.
	CommandStart CommandKind = iota
	// CommandStop deletes a room.
	CommandStop
	// CommandRegisterUser associates a user with the connection.
	CommandRegisterUser
	// CommandJoinRoom subscribes the client to a room, leaving any other.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandMedia fans publisher audio out to the room.
	CommandMedia
	// CommandDTMF fans a digit event out to the room.
	CommandDTMF
	// CommandAudio sends listener audio upstream to the publisher.
	CommandAudio
	// CommandClear is relayed to the publisher.
	CommandClear
	// CommandMark is relayed to the publisher.
	CommandMark
	// CommandBinaryAudio carries a raw binary frame from the legacy path.
	CommandBinaryAudio
	// CommandUnknown is any other event; relayed to the sender's current room.
	CommandUnknown
)

var commandNames = [...]string{
	CommandStart:        "start",
	CommandStop:         "stop",
	CommandRegisterUser: "register-user",
	CommandJoinRoom:     "join-room",
	CommandLeaveRoom:    "leave-room",
	CommandMedia:        "media",
	CommandDTMF:         "dtmf",
	CommandAudio:        "audio",
	CommandClear:        "clear",
	CommandMark:         "mark",
	CommandBinaryAudio:  "binary",
	CommandUnknown:      "unknown",
}

func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return "invalid"
	}
	return commandNames[k]
}

// RoomMeta is the metadata a start event attaches to a room.
// MediaFormat and CustomParameters are opaque and never re-encoded.
type RoomMeta struct {
	Name             string
	CallID           string
	CLI              string
	DNI              string
	MediaFormat      json.RawMessage
	CustomParameters json.RawMessage
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	// Event is the event name as received, for logging.
	Event    string
	Room     string
	Meta     RoomMeta
	Reason   string
	User     User
	Media    json.RawMessage
	Sequence json.RawMessage
	// Raw is the verbatim inbound frame for relayed events, or the binary payload.
	Raw []byte
}
