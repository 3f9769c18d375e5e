package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/banndicoot-king/stream-pru/internal/playback"
	"github.com/banndicoot-king/stream-pru/internal/proto"
)

const frameDuration = 20 * time.Millisecond

type startEvent struct {
	Event string          `json:"event"`
	Start proto.StartData `json:"start"`
}

type mediaEvent struct {
	Event          string             `json:"event"`
	RoomID         string             `json:"room_id"`
	SequenceNumber int                `json:"sequence_number"`
	Media          proto.MediaPayload `json:"media"`
}

type stopEvent struct {
	Event  string         `json:"event"`
	RoomID string         `json:"room_id"`
	Stop   proto.StopData `json:"stop"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_publish: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3031/ws", "WebSocket address")
	room := flag.String("room", "smoke", "room id to publish")
	callID := flag.String("call-id", "smoke-call", "call id attached to the stream")
	rate := flag.Int("rate", 8000, "sample rate")
	tone := flag.Float64("tone", 440, "sine tone frequency in Hz")
	duration := flag.Duration("duration", 5*time.Second, "how long to publish")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	format := []byte(fmt.Sprintf(`{"encoding":"audio/x-l16","sample_rate":%d,"channels":1,"bit_depth":16}`, *rate))
	if err := wsjson.Write(ctx, conn, startEvent{
		Event: proto.EventStart,
		Start: proto.StartData{RoomID: *room, CallID: *callID, MediaFormat: format},
	}); err != nil {
		return fmt.Errorf("send start: %w", err)
	}
	fmt.Printf("Publishing %s to %s for %s\n", *room, *addr, *duration)

	go readLoop(ctx, conn)

	samplesPerFrame := *rate * int(frameDuration) / int(time.Second)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()
	deadline := time.After(*duration)

	seq := 0
	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-deadline:
			done = true
		case <-ticker.C:
			seq++
			samples := sine(*tone, *rate, (seq-1)*samplesPerFrame, samplesPerFrame)
			if err := wsjson.Write(ctx, conn, mediaEvent{
				Event:          proto.EventMedia,
				RoomID:         *room,
				SequenceNumber: seq,
				Media:          proto.MediaPayload{Payload: playback.EncodePCM(samples)},
			}); err != nil {
				return fmt.Errorf("send media: %w", err)
			}
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := wsjson.Write(stopCtx, conn, stopEvent{
		Event:  proto.EventStop,
		RoomID: *room,
		Stop:   proto.StopData{Reason: "completed"},
	}); err != nil {
		return fmt.Errorf("send stop: %w", err)
	}
	fmt.Printf("Sent %d frames\n", seq)
	return nil
}

func sine(freq float64, rate, offset, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		t := float64(offset+i) / float64(rate)
		out[i] = int16(16383 * math.Sin(2*math.Pi*freq*t))
	}
	return out
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		frame, err := proto.DecodeFrame(data)
		if err != nil {
			fmt.Printf("Raw frame: %s\n", data)
			continue
		}
		switch frame.Event {
		case proto.EventMedia:
			// upstream audio from a listener
			fmt.Printf("Upstream media in room %s\n", frame.RoomID)
		case proto.EventError:
			fmt.Printf("Error: %s\n", frame.Message)
		default:
			fmt.Printf("Received %s\n", frame.Event)
		}
	}
}
