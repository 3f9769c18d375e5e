package http

import (
	"encoding/json"
	"testing"

	"github.com/banndicoot-king/stream-pru/internal/core"
	"github.com/banndicoot-king/stream-pru/internal/proto"
)

func TestInboundToCommandStart(t *testing.T) {
	in, err := proto.Decode([]byte(`{"event":"start","start":{"room_id":"r1","call_id":"c1",` +
		`"media_format":{"sample_rate":8000},"custom_parameters":{"k":"v"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	cmd := inboundToCommand(in)
	if cmd.Kind != core.CommandStart || cmd.Room != "r1" || cmd.Meta.CallID != "c1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if string(cmd.Meta.MediaFormat) != `{"sample_rate":8000}` || string(cmd.Meta.CustomParameters) != `{"k":"v"}` {
		t.Fatalf("metadata not carried verbatim: %+v", cmd.Meta)
	}
}

func TestInboundToCommandKinds(t *testing.T) {
	cases := map[string]core.CommandKind{
		`{"event":"stop","room_id":"r1"}`:                 core.CommandStop,
		`{"event":"register-user","id":"u","name":"n"}`:   core.CommandRegisterUser,
		`{"event":"join-room","room_id":"r1"}`:            core.CommandJoinRoom,
		`{"event":"leave-room","room_id":"r1"}`:           core.CommandLeaveRoom,
		`{"event":"media","media":{}}`:                    core.CommandMedia,
		`{"event":"dtmf"}`:                                core.CommandDTMF,
		`{"event":"audio","room_id":"r1"}`:                core.CommandAudio,
		`{"event":"clear","room_id":"r1"}`:                core.CommandClear,
		`{"type":"mark","room_id":"r1"}`:                  core.CommandMark,
		`{"event":"custom-thing","payload":{"any":true}}`: core.CommandUnknown,
	}
	for raw, want := range cases {
		in, err := proto.Decode([]byte(raw))
		if err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		cmd := inboundToCommand(in)
		if cmd.Kind != want {
			t.Fatalf("%s: kind %v, want %v", raw, cmd.Kind, want)
		}
		if string(cmd.Raw) != raw {
			t.Fatalf("%s: raw not kept", raw)
		}
	}

	in, _ := proto.Decode([]byte(`{"event":"register-user","id":"u1","name":"alice"}`))
	if cmd := inboundToCommand(in); cmd.User != (core.User{ID: "u1", Name: "alice"}) {
		t.Fatalf("user not mapped: %+v", cmd.User)
	}
}

func TestEncodeEvent(t *testing.T) {
	cases := []struct {
		name string
		ev   *core.Event
		want string
	}{
		{
			name: "empty stream list",
			ev:   &core.Event{Kind: core.EventAddStream},
			want: `{"event":"add-stream","stream":[]}`,
		},
		{
			name: "remove stream",
			ev:   &core.Event{Kind: core.EventRemoveStream, Room: "r1", Reason: core.ReasonStreamDead},
			want: `{"event":"remove-stream","room_id":"r1","reason":"Stream dead"}`,
		},
		{
			name: "joined",
			ev:   &core.Event{Kind: core.EventJoinedRoom, Room: "r1"},
			want: `{"event":"joined-room","room_id":"r1"}`,
		},
		{
			name: "left",
			ev:   &core.Event{Kind: core.EventLeftRoom, Room: "r1"},
			want: `{"event":"left-room","room_id":"r1"}`,
		},
		{
			name: "upstream media",
			ev:   &core.Event{Kind: core.EventMedia, Room: "r1", Media: json.RawMessage(`{"payload":"A"}`)},
			want: `{"event":"media","room_id":"r1","media":{"payload":"A"}}`,
		},
		{
			name: "downstream media",
			ev: &core.Event{
				Kind:        core.EventMedia,
				Room:        "r1",
				Media:       json.RawMessage(`{"payload":"A"}`),
				MediaFormat: json.RawMessage(`{"sample_rate":8000}`),
				Sequence:    json.RawMessage(`3`),
			},
			want: `{"event":"media","room_id":"r1","sequence_number":3,"media":{"media_format":{"sample_rate":8000},"payload":"A"}}`,
		},
		{
			name: "audio chunk",
			ev:   &core.Event{Kind: core.EventAudioChunk, Room: "r1", Raw: []byte("hi")},
			want: `{"event":"audio-chunk","room_id":"r1","chunk":{"type":"buffer","data":"aGk="}}`,
		},
		{
			name: "relay",
			ev:   &core.Event{Kind: core.EventRelay, Raw: []byte(`{"event":"mark"}`)},
			want: `{"event":"mark"}`,
		},
		{
			name: "error",
			ev:   &core.Event{Kind: core.EventError, Message: core.MsgNotInRoom},
			want: `{"event":"error","message":"Not in a room"}`,
		},
	}
	for _, tc := range cases {
		got, err := encodeEvent(tc.ev)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if string(got) != tc.want {
			t.Fatalf("%s:\n got %s\nwant %s", tc.name, got, tc.want)
		}
	}

	if _, err := encodeEvent(&core.Event{Kind: core.EventKind(99)}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
