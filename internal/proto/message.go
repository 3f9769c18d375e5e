package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Event names used on the wire.
const (
	EventStart        = "start"
	EventStop         = "stop"
	EventRegisterUser = "register-user"
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventMedia        = "media"
	EventDTMF         = "dtmf"
	EventAudio        = "audio"
	EventClear        = "clear"
	EventMark         = "mark"

	EventAddStream    = "add-stream"
	EventRemoveStream = "remove-stream"
	EventJoinedRoom   = "joined-room"
	EventLeftRoom     = "left-room"
	EventAudioChunk   = "audio-chunk"
	EventError        = "error"
)

// ChunkTypeBuffer tags base64 audio relayed from binary frames.
const ChunkTypeBuffer = "buffer"

// ErrMissingEvent is returned when a frame has neither "event" nor "type".
var ErrMissingEvent = errors.New("missing event discriminator")

// Kind is the closed set of inbound event kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindStop
	KindRegisterUser
	KindJoinRoom
	KindLeaveRoom
	KindMedia
	KindDTMF
	KindAudio
	KindClear
	KindMark
)

var kindByName = map[string]Kind{
	EventStart:        KindStart,
	EventStop:         KindStop,
	EventRegisterUser: KindRegisterUser,
	EventJoinRoom:     KindJoinRoom,
	EventLeaveRoom:    KindLeaveRoom,
	EventMedia:        KindMedia,
	EventDTMF:         KindDTMF,
	EventAudio:        KindAudio,
	EventClear:        KindClear,
	EventMark:         KindMark,
}

// ParseKind normalizes an event name and maps it to a Kind.
func ParseKind(name string) Kind {
	return kindByName[normalize(name)]
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StartData describes a stream being published.
type StartData struct {
	RoomID           string          `json:"room_id"`
	Name             string          `json:"name,omitempty"`
	CallID           string          `json:"call_id,omitempty"`
	CLI              string          `json:"cli,omitempty"`
	DNI              string          `json:"dni,omitempty"`
	MediaFormat      json.RawMessage `json:"media_format,omitempty"`
	CustomParameters json.RawMessage `json:"custom_parameters,omitempty"`
}

// StopData carries the reason a publisher ended its stream.
type StopData struct {
	Reason string `json:"reason"`
}

// wireInbound mirrors every field any inbound event may carry.
type wireInbound struct {
	Event          string          `json:"event"`
	Type           string          `json:"type"`
	RoomID         string          `json:"room_id"`
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Reason         string          `json:"reason"`
	Start          *StartData      `json:"start"`
	Stop           *StopData       `json:"stop"`
	Media          json.RawMessage `json:"media"`
	SequenceNumber json.RawMessage `json:"sequence_number"`
}

// Inbound is a decoded client frame.
type Inbound struct {
	Kind Kind
	// Event is the normalized event name, kept for unknown kinds.
	Event          string
	RoomID         string
	ID             string
	Name           string
	Start          StartData
	Reason         string
	Media          json.RawMessage
	SequenceNumber json.RawMessage
	// Raw is the frame exactly as received.
	Raw []byte
}

// Decode parses a text frame. The discriminator is read from "event", falling back
// to the legacy "type" field.
func Decode(data []byte) (Inbound, error) {
	var w wireInbound
	if err := json.Unmarshal(data, &w); err != nil {
		return Inbound{}, err
	}

	name := normalize(w.Event)
	if name == "" {
		name = normalize(w.Type)
	}
	if name == "" {
		return Inbound{}, ErrMissingEvent
	}

	in := Inbound{
		Kind:           kindByName[name],
		Event:          name,
		RoomID:         w.RoomID,
		ID:             w.ID,
		Name:           w.Name,
		Reason:         w.Reason,
		Media:          w.Media,
		SequenceNumber: w.SequenceNumber,
		Raw:            data,
	}
	if w.Start != nil {
		in.Start = *w.Start
	}
	if in.Start.RoomID == "" {
		in.Start.RoomID = w.RoomID
	}
	if in.Kind == KindStart && in.RoomID == "" {
		in.RoomID = in.Start.RoomID
	}
	if w.Stop != nil && w.Stop.Reason != "" {
		in.Reason = w.Stop.Reason
	}
	return in, nil
}

// StreamInfo is one entry of a discovery list.
type StreamInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AddStream announces one or more rooms.
type AddStream struct {
	Event  string       `json:"event"`
	Stream []StreamInfo `json:"stream"`
}

// RemoveStream announces that a room is gone.
type RemoveStream struct {
	Event  string `json:"event"`
	RoomID string `json:"room_id"`
	Reason string `json:"reason,omitempty"`
}

// RoomAck confirms a join or leave.
type RoomAck struct {
	Event  string `json:"event"`
	RoomID string `json:"room_id"`
}

// MediaOut carries audio to a listener or upstream to a publisher.
type MediaOut struct {
	Event          string          `json:"event"`
	RoomID         string          `json:"room_id,omitempty"`
	SequenceNumber json.RawMessage `json:"sequence_number,omitempty"`
	Media          json.RawMessage `json:"media"`
}

// ErrorOut is sent to a single connection when its request cannot be served.
type ErrorOut struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Chunk is base64 audio from a binary frame. []byte encodes as base64.
type Chunk struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// AudioChunk relays a binary frame as text.
type AudioChunk struct {
	Event  string `json:"event"`
	RoomID string `json:"room_id"`
	Chunk  Chunk  `json:"chunk"`
}

// WithMediaFormat returns media with "media_format" set to format. Other fields are
// kept as received. A missing or non-object media becomes an object holding only the format.
func WithMediaFormat(media, format json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(format)) == 0 {
		if len(bytes.TrimSpace(media)) == 0 {
			return json.RawMessage("{}"), nil
		}
		return media, nil
	}

	fields := map[string]json.RawMessage{}
	if trimmed := bytes.TrimSpace(media); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
	}
	fields["media_format"] = format
	return json.Marshal(fields)
}
