package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/banndicoot-king/stream-pru/internal/auth"
	"github.com/banndicoot-king/stream-pru/internal/core"
	"github.com/banndicoot-king/stream-pru/internal/metrics"
	"github.com/banndicoot-king/stream-pru/internal/proto"
)

const denyWriteTimeout = time.Second

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub     *core.Hub
	auth    auth.Authenticator
	metrics *metrics.Metrics
	log     *zerolog.Logger
	clock   clock.Clock

	sendBuffer    int
	readLimit     int64
	ratePerMinute int
	pingInterval  time.Duration
	pingTimeout   time.Duration
}

// WSOptions tunes per-connection limits.
type WSOptions struct {
	SendBuffer         int
	MaxMessageBytes    int64
	RateLimitPerMinute int
	// PingInterval enables keepalive pings; a peer that misses one is expired.
	PingInterval time.Duration
	PingTimeout  time.Duration
	Clock        clock.Clock
}

// NewWSHandler builds a new WebSocket handler. A nil authenticator admits everyone.
func NewWSHandler(hub *core.Hub, authn auth.Authenticator, m *metrics.Metrics, logger *zerolog.Logger, opts WSOptions) *WSHandler {
	if authn == nil {
		authn = auth.AllowAll{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &WSHandler{
		hub:           hub,
		auth:          authn,
		metrics:       m,
		log:           logger,
		clock:         opts.Clock,
		sendBuffer:    opts.SendBuffer,
		readLimit:     opts.MaxMessageBytes,
		ratePerMinute: opts.RateLimitPerMinute,
		pingInterval:  opts.PingInterval,
		pingTimeout:   opts.PingTimeout,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if err := h.auth.Authenticate(r); err != nil {
		h.deny(ctx, conn, err)
		return
	}
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	client := core.NewClient(h.sendBuffer)
	if err := h.hub.RegisterClient(client); err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	var once sync.Once
	teardown := func() { once.Do(func() { h.teardown(client) }) }
	defer teardown()
	h.log.Debug().Str("client_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// The socket is no longer usable: take the client out of the registry before
	// the close handshake so no further frames are routed to it.
	teardown()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// deny tells the peer why it was refused and closes with a policy violation.
func (h *WSHandler) deny(ctx context.Context, conn *websocket.Conn, err error) {
	h.metrics.AdmissionsDenied.Inc()
	h.log.Info().Err(err).Msg("ws admission denied")

	payload, _ := json.Marshal(proto.ErrorOut{Event: proto.EventError, Message: core.MsgUnauthorized})
	writeCtx, cancel := context.WithTimeout(ctx, denyWriteTimeout)
	defer cancel()
	if werr := conn.Write(writeCtx, websocket.MessageText, payload); werr != nil {
		h.log.Debug().Err(werr).Msg("write admission error")
	}
	conn.Close(websocket.StatusPolicyViolation, core.MsgUnauthorized)
}

// teardown closes the client and removes it from the hub. ServeHTTP runs it once.
func (h *WSHandler) teardown(client *core.Client) {
	client.MarkClosed()
	h.hub.UnregisterClient(client)
	h.log.Debug().Str("client_id", client.ID).Bool("expired", client.Expired()).Msg("ws disconnected")
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerMinute, h.clock)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if !limiter.allow() {
			h.metrics.FramesLimited.Inc()
			continue
		}

		if typ == websocket.MessageBinary {
			h.hub.Dispatch(client, binaryToCommand(data))
			continue
		}

		inbound, err := proto.Decode(data)
		if err != nil {
			h.metrics.FramesMalformed.Inc()
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("dropping malformed frame")
			continue
		}
		h.hub.Dispatch(client, inboundToCommand(inbound))
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	var ping <-chan time.Time
	if h.pingInterval > 0 {
		ticker := h.clock.Ticker(h.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-ping:
			if err := h.ping(ctx, conn); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				client.Expire()
				h.metrics.KeepalivesMissed.Inc()
				h.log.Warn().Err(err).Str("client_id", client.ID).Msg("keepalive missed, expiring connection")
				return fmt.Errorf("keepalive: %w", err)
			}
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			payload, err := encodeEvent(event)
			if err != nil {
				h.log.Warn().Err(err).Str("client_id", client.ID).Msg("encode ws event")
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ping waits for the peer's pong. The peer only answers while it is reading.
func (h *WSHandler) ping(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
	defer cancel()
	return conn.Ping(ctx)
}
