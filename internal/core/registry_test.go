package core

import (
	"slices"
	"testing"
)

func TestRegistryCreateRoomSubscribesPublisher(t *testing.T) {
	reg := NewRegistry()
	pub := NewClient(1)

	room := reg.CreateRoom("r1", RoomMeta{MediaFormat: []byte(`{"sample_rate":8000}`)}, pub)
	if room.Name != "r1" {
		t.Fatalf("name should default to id, got %q", room.Name)
	}
	if !room.HasListener(pub) || room.ListenerCount() != 1 {
		t.Fatalf("publisher should be the only listener, count=%d", room.ListenerCount())
	}
	if got, ok := reg.Room("r1"); !ok || got != room {
		t.Fatal("room not stored")
	}
}

func TestRegistryLastStartWins(t *testing.T) {
	reg := NewRegistry()
	first, second, listener := NewClient(1), NewClient(1), NewClient(1)

	reg.CreateRoom("r1", RoomMeta{Name: "old"}, first)
	reg.AddListener("r1", listener)
	room := reg.CreateRoom("r1", RoomMeta{Name: "new"}, second)

	if room.Publisher != second || room.Name != "new" {
		t.Fatalf("room not replaced: %+v", room)
	}
	if room.HasListener(listener) {
		t.Fatal("replaced room must start with a fresh listener set")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 room, got %d", reg.Len())
	}
}

func TestRegistryDeleteIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.CreateRoom("r1", RoomMeta{}, NewClient(1))

	if !reg.DeleteRoom("r1") {
		t.Fatal("first delete should report existence")
	}
	if reg.DeleteRoom("r1") {
		t.Fatal("second delete should be a no-op")
	}
}

func TestRegistryListenerSetHasNoDuplicates(t *testing.T) {
	reg := NewRegistry()
	c := NewClient(1)
	reg.CreateRoom("r1", RoomMeta{}, NewClient(1))

	for range 3 {
		reg.AddListener("r1", c)
	}
	room, _ := reg.Room("r1")
	if room.ListenerCount() != 2 {
		t.Fatalf("expected publisher + one listener, got %d", room.ListenerCount())
	}

	reg.RemoveListener("r1", c)
	reg.RemoveListener("missing", c)
	reg.AddListener("missing", c)
	if room.HasListener(c) {
		t.Fatal("listener not removed")
	}
}

func TestRegistryRoomsContainingListenerToleratesMultiMembership(t *testing.T) {
	reg := NewRegistry()
	c := NewClient(1)
	reg.CreateRoom("b", RoomMeta{}, NewClient(1))
	reg.CreateRoom("a", RoomMeta{}, NewClient(1))
	reg.AddListener("a", c)
	reg.AddListener("b", c)

	got := reg.RoomsContainingListener(c)
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("unexpected rooms: %v", got)
	}
}

func TestRegistryListRoomsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.CreateRoom("z", RoomMeta{Name: "Zulu"}, NewClient(1))
	reg.CreateRoom("a", RoomMeta{}, NewClient(1))

	got := reg.ListRooms()
	want := []RoomInfo{{ID: "a", Name: "a"}, {ID: "z", Name: "Zulu"}}
	if !slices.Equal(got, want) {
		t.Fatalf("ListRooms = %+v, want %+v", got, want)
	}

	empty := NewRegistry().ListRooms()
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty registry should list an empty, non-nil slice: %#v", empty)
	}
}

func TestRegistryForEachRoomAllowsDeletion(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		reg.CreateRoom(id, RoomMeta{}, NewClient(1))
	}

	visited := 0
	reg.ForEachRoom(func(r *Room) {
		visited++
		reg.DeleteRoom(r.ID)
	})
	if visited != 3 || reg.Len() != 0 {
		t.Fatalf("visited=%d remaining=%d", visited, reg.Len())
	}
}

func TestRegistryUsers(t *testing.T) {
	reg := NewRegistry()
	c := NewClient(1)

	reg.RegisterUser(c, User{ID: "u1", Name: "alice"})
	if u, ok := reg.User(c); !ok || u.Name != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	reg.RemoveUser(c)
	if _, ok := reg.User(c); ok {
		t.Fatal("user not removed")
	}
}
