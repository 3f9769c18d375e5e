package proto

import "encoding/json"

// MediaFormat describes raw PCM carried in media payloads.
type MediaFormat struct {
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	BitDepth   int    `json:"bit_depth,omitempty"`
}

// MediaPayload is the media object as seen by a listener.
type MediaPayload struct {
	Payload     string       `json:"payload"`
	Chunk       *int         `json:"chunk,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	MediaFormat *MediaFormat `json:"media_format,omitempty"`
}

// Frame is a server frame decoded on the client side.
type Frame struct {
	Event   string        `json:"event"`
	Type    string        `json:"type"`
	RoomID  string        `json:"room_id"`
	Reason  string        `json:"reason"`
	Message string        `json:"message"`
	Stream  []StreamInfo  `json:"stream"`
	Media   *MediaPayload `json:"media"`
	Chunk   *Chunk        `json:"chunk"`
}

// DecodeFrame parses a server frame and normalizes its event name.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, err
	}
	f.Event = normalize(f.Event)
	if f.Event == "" {
		f.Event = normalize(f.Type)
	}
	if f.Event == "" {
		return Frame{}, ErrMissingEvent
	}
	return f, nil
}
