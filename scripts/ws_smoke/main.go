package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/facingapp/node-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run registers a host and a guest, opens a room, sends one line and waits
// for the guest to receive it.
func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	room := flag.String("room", "smoke", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	host, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial host: %w", err)
	}
	defer host.Close(websocket.StatusNormalClosure, "bye")

	guest, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial guest: %w", err)
	}
	defer guest.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(conn *websocket.Conn, kind, id string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", kind, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, ID: id, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", kind, err)
		}
		return nil
	}

	steps := []struct {
		conn *websocket.Conn
		kind string
		data any
	}{
		{host, proto.InboundTypeRegister, proto.RegisterData{Name: "smoke-host"}},
		{host, proto.InboundTypeCreateRoom, proto.CreateRoomData{Name: *room}},
		{guest, proto.InboundTypeRegister, proto.RegisterData{Name: "smoke-guest"}},
		{guest, proto.InboundTypeJoinRoom, proto.JoinRoomData{RoomID: *room, UserID: "guest", UserMode: "guest"}},
	}
	for i, step := range steps {
		if err := mustSend(step.conn, step.kind, fmt.Sprintf("s%d", i), step.data); err != nil {
			return err
		}
		if err := awaitAck(ctx, step.conn, fmt.Sprintf("s%d", i)); err != nil {
			return err
		}
	}

	if err := mustSend(host, proto.InboundTypeSend, "", proto.SendData{Text: *text}); err != nil {
		return err
	}

	for {
		var out struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, guest, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received outbound: type=%s event=%s\n", out.Type, out.Event)
		if out.Event != proto.EventReceiveData {
			continue
		}
		var evt proto.EventData
		if err := json.Unmarshal(out.Data, &evt); err != nil {
			return fmt.Errorf("unmarshal receiveData: %w", err)
		}
		fmt.Printf("receiveData: room=%s from=%s text=%q ts=%d\n", evt.Room, evt.From.Name, evt.Text, evt.TS)
		return nil
	}
}

func awaitAck(ctx context.Context, conn *websocket.Conn, id string) error {
	for {
		var out struct {
			Type  string          `json:"type"`
			ID    string          `json:"id"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("await ack %s: %w", id, err)
		}
		if out.ID != id {
			continue
		}
		if out.Error != nil {
			return fmt.Errorf("%s: %s", out.Error.Code, out.Error.Msg)
		}
		var res proto.Result
		if err := json.Unmarshal(out.Data, &res); err != nil {
			return fmt.Errorf("unmarshal ack %s: %w", id, err)
		}
		if !res.Success {
			return fmt.Errorf("step %s failed: %s", id, res.Message)
		}
		fmt.Printf("ack %s: %s\n", id, res.Message)
		return nil
	}
}
