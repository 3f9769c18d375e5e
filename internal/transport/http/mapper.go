package http

import (
	"encoding/json"
	"fmt"

	"github.com/banndicoot-king/stream-pru/internal/core"
	"github.com/banndicoot-king/stream-pru/internal/proto"
)

var commandKinds = [...]core.CommandKind{
	proto.KindUnknown:      core.CommandUnknown,
	proto.KindStart:        core.CommandStart,
	proto.KindStop:         core.CommandStop,
	proto.KindRegisterUser: core.CommandRegisterUser,
	proto.KindJoinRoom:     core.CommandJoinRoom,
	proto.KindLeaveRoom:    core.CommandLeaveRoom,
	proto.KindMedia:        core.CommandMedia,
	proto.KindDTMF:         core.CommandDTMF,
	proto.KindAudio:        core.CommandAudio,
	proto.KindClear:        core.CommandClear,
	proto.KindMark:         core.CommandMark,
}

func inboundToCommand(in proto.Inbound) *core.Command {
	kind := core.CommandUnknown
	if int(in.Kind) >= 0 && int(in.Kind) < len(commandKinds) {
		kind = commandKinds[in.Kind]
	}

	cmd := &core.Command{
		Kind:     kind,
		Event:    in.Event,
		Room:     in.RoomID,
		Reason:   in.Reason,
		Media:    in.Media,
		Sequence: in.SequenceNumber,
		Raw:      in.Raw,
	}
	switch kind {
	case core.CommandStart:
		cmd.Meta = core.RoomMeta{
			Name:             in.Start.Name,
			CallID:           in.Start.CallID,
			CLI:              in.Start.CLI,
			DNI:              in.Start.DNI,
			MediaFormat:      in.Start.MediaFormat,
			CustomParameters: in.Start.CustomParameters,
		}
	case core.CommandRegisterUser:
		cmd.User = core.User{ID: in.ID, Name: in.Name}
	}
	return cmd
}

func binaryToCommand(data []byte) *core.Command {
	return &core.Command{Kind: core.CommandBinaryAudio, Event: "binary", Raw: data}
}

// encodeEvent renders ev as a text frame for one recipient.
func encodeEvent(ev *core.Event) ([]byte, error) {
	switch ev.Kind {
	case core.EventAddStream:
		streams := make([]proto.StreamInfo, 0, len(ev.Streams))
		for _, s := range ev.Streams {
			streams = append(streams, proto.StreamInfo{ID: s.ID, Name: s.Name})
		}
		return json.Marshal(proto.AddStream{Event: proto.EventAddStream, Stream: streams})
	case core.EventRemoveStream:
		return json.Marshal(proto.RemoveStream{Event: proto.EventRemoveStream, RoomID: ev.Room, Reason: ev.Reason})
	case core.EventJoinedRoom:
		return json.Marshal(proto.RoomAck{Event: proto.EventJoinedRoom, RoomID: ev.Room})
	case core.EventLeftRoom:
		return json.Marshal(proto.RoomAck{Event: proto.EventLeftRoom, RoomID: ev.Room})
	case core.EventMedia:
		media, err := proto.WithMediaFormat(ev.Media, ev.MediaFormat)
		if err != nil {
			return nil, fmt.Errorf("merge media format: %w", err)
		}
		return json.Marshal(proto.MediaOut{
			Event:          proto.EventMedia,
			RoomID:         ev.Room,
			SequenceNumber: ev.Sequence,
			Media:          media,
		})
	case core.EventAudioChunk:
		return json.Marshal(proto.AudioChunk{
			Event:  proto.EventAudioChunk,
			RoomID: ev.Room,
			Chunk:  proto.Chunk{Type: proto.ChunkTypeBuffer, Data: ev.Raw},
		})
	case core.EventRelay:
		return ev.Raw, nil
	case core.EventError:
		return json.Marshal(proto.ErrorOut{Event: proto.EventError, Message: ev.Message})
	default:
		return nil, fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}
