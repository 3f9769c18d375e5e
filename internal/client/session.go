package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/banndicoot-king/stream-pru/internal/proto"
)

// SessionConfig identifies the listener and what it wants to hear.
type SessionConfig struct {
	URL    string
	UserID string
	Name   string
	// Room to join. Empty joins the first stream announced.
	Room string
}

type registerUser struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Name  string `json:"name"`
}

type roomRequest struct {
	Event  string `json:"event"`
	RoomID string `json:"room_id"`
}

// Session keeps a listener connected: dial, register, join, read. Unexpected
// closes are retried through the Reconnector; Close ends it for good.
type Session struct {
	cfg       SessionConfig
	reconnect *Reconnector
	onFrame   func(proto.Frame)
	log       *zerolog.Logger

	closed atomic.Bool
	mu     sync.Mutex
	cancel context.CancelFunc
	conn   *websocket.Conn
	joined string
}

// NewSession builds a session. A nil Reconnector uses the default backoff.
func NewSession(cfg SessionConfig, rc *Reconnector, onFrame func(proto.Frame), logger *zerolog.Logger) *Session {
	if rc == nil {
		rc = NewReconnector(0, 0, nil)
	}
	if onFrame == nil {
		onFrame = func(proto.Frame) {}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Session{cfg: cfg, reconnect: rc, onFrame: onFrame, log: logger}
}

// Run blocks until the session ends. It returns nil after a deliberate Close, a
// normal close by the server or ctx cancellation, and ErrMaxAttempts when the
// server stays unreachable.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	for {
		if s.closed.Load() {
			return nil
		}
		err := s.runOnce(ctx)
		if s.closed.Load() || ctx.Err() != nil {
			return nil
		}
		if !shouldReconnect(err) {
			s.log.Info().Err(err).Msg("server closed the session")
			return nil
		}

		s.log.Warn().Err(err).Int("attempt", s.reconnect.Attempt()+1).Msg("connection lost, reconnecting")
		if err := s.reconnect.Wait(ctx); err != nil {
			if errors.Is(err, ErrMaxAttempts) {
				return err
			}
			return nil
		}
	}
}

// Close disconnects without reconnecting.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	conn, cancel := s.conn, s.cancel
	s.mu.Unlock()

	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "bye")
	}
	if cancel != nil {
		cancel()
	}
}

// Joined is the room the server last confirmed, or empty.
func (s *Session) Joined() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined
}

func (s *Session) runOnce(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	s.reconnect.Reset()

	s.mu.Lock()
	s.conn = conn
	s.joined = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()
	s.log.Info().Str("url", s.cfg.URL).Msg("connected")

	if err := wsjson.Write(ctx, conn, registerUser{Event: proto.EventRegisterUser, ID: s.cfg.UserID, Name: s.cfg.Name}); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if s.cfg.Room != "" {
		if err := s.join(ctx, conn, s.cfg.Room); err != nil {
			return err
		}
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		frame, err := proto.DecodeFrame(data)
		if err != nil {
			s.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}
		if err := s.track(ctx, conn, frame); err != nil {
			return err
		}
		s.onFrame(frame)
	}
}

// track follows join confirmations and joins the wanted room once it is announced.
func (s *Session) track(ctx context.Context, conn *websocket.Conn, f proto.Frame) error {
	switch f.Event {
	case proto.EventJoinedRoom:
		s.setJoined(f.RoomID)
		return nil
	case proto.EventLeftRoom:
		if s.Joined() == f.RoomID {
			s.setJoined("")
		}
		return nil
	case proto.EventRemoveStream:
		if f.RoomID != "" && s.Joined() == f.RoomID {
			s.setJoined("")
		}
		return nil
	case proto.EventAddStream:
	default:
		return nil
	}
	if s.Joined() != "" {
		return nil
	}
	target := s.cfg.Room
	if target == "" {
		if len(f.Stream) == 0 {
			return nil
		}
		target = f.Stream[0].ID
	} else if !slices.ContainsFunc(f.Stream, func(si proto.StreamInfo) bool { return si.ID == target }) {
		return nil
	}
	return s.join(ctx, conn, target)
}

func (s *Session) join(ctx context.Context, conn *websocket.Conn, room string) error {
	if err := wsjson.Write(ctx, conn, roomRequest{Event: proto.EventJoinRoom, RoomID: room}); err != nil {
		return fmt.Errorf("join %s: %w", room, err)
	}
	s.log.Debug().Str("room_id", room).Msg("join requested")
	return nil
}

func (s *Session) setJoined(room string) {
	s.mu.Lock()
	s.joined = room
	s.mu.Unlock()
}

// shouldReconnect is false only for a normal or going-away close.
func shouldReconnect(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return false
	default:
		return true
	}
}
