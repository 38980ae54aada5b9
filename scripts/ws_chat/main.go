package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/facingapp/node-server/internal/proto"
)

// outbound mirrors proto.Outbound with Data left undecoded.
type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	room := flag.String("room", "", "room to join or create")
	create := flag.Bool("create", false, "create the room instead of joining it")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(kind, id string, data any) {
		var raw json.RawMessage
		if data != nil {
			b, err := json.Marshal(data)
			if err != nil {
				log.Printf("marshal %s: %v", kind, err)
				return
			}
			raw = b
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, ID: id, Data: raw}); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	send(proto.InboundTypeRegister, "register", proto.RegisterData{Name: *name})
	if *room != "" {
		if *create {
			send(proto.InboundTypeCreateRoom, "create", proto.CreateRoomData{Name: *room})
		} else {
			send(proto.InboundTypeJoinRoom, "join", proto.JoinRoomData{RoomID: *room, UserID: *name, UserMode: "guest"})
		}
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *name)
	fmt.Println("Type messages and press Enter. Commands: /who /rooms /leave /remove. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, *room, send)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch {
		case out.Type == proto.OutboundTypeError && out.Error != nil:
			fmt.Printf("! %s: %s\n", out.Error.Code, out.Error.Msg)
		case out.Type == proto.OutboundTypeAck:
			fmt.Printf("ack %s: %s\n", out.ID, out.Data)
		case out.Event == proto.EventUpdate:
			var text string
			if err := json.Unmarshal(out.Data, &text); err == nil {
				fmt.Printf("* %s\n", text)
			}
		case out.Event == proto.EventReceiveData:
			var evt proto.EventData
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				log.Printf("unmarshal receiveData: %v", err)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", evt.Room, evt.From.Name, evt.Text)
		case out.Event == proto.EventHistory:
			var lines []string
			if err := json.Unmarshal(out.Data, &lines); err == nil {
				for _, line := range lines {
					fmt.Printf("  %s\n", line)
				}
			}
		case out.Event == proto.EventExists:
			var evt proto.EventNameTaken
			if err := json.Unmarshal(out.Data, &evt); err == nil {
				fmt.Printf("* %s Try %q.\n", evt.Msg, evt.ProposedName)
			}
		case out.Event == proto.EventUpdatePeople:
			var evt proto.EventRoster
			if err := json.Unmarshal(out.Data, &evt); err == nil {
				fmt.Printf("* %d people online\n", evt.Count)
			}
		case out.Event == proto.EventRoomList:
			var evt proto.EventRooms
			if err := json.Unmarshal(out.Data, &evt); err == nil {
				fmt.Printf("* %d rooms open\n", evt.Count)
			}
		default:
			fmt.Printf("event=%s data=%s\n", out.Event, out.Data)
		}
	}
}

func writeLoop(ctx context.Context, room string, send func(kind, id string, data any)) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			switch text {
			case "":
			case "/who":
				send(proto.InboundTypeListPeople, "who", nil)
			case "/rooms":
				send(proto.InboundTypeListRooms, "rooms", nil)
			case "/leave":
				send(proto.InboundTypeLeaveRoom, "", proto.RoomData{RoomID: room})
			case "/remove":
				send(proto.InboundTypeRemoveRoom, "", proto.RoomData{RoomID: room})
			default:
				send(proto.InboundTypeSend, "", proto.SendData{Text: text})
			}
		}
	}
}
