package main

import (
	"bufio"
	"chat-relay/domain/event"
	"chat-relay/protocol"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RelayAddr     string `envconfig:"RELAY_ADDR" default:"localhost:8080"`
	Authorization string `envconfig:"AUTHORIZATION" required:"true"`
	Colours       bool   `envconfig:"TESTER_COLOURS" default:"true"`
}

const usage = `commands:
  sync
  send <chatId> <text>
  image <chatId> <imageUrl> [text]
  edit <messageId> <text>
  delete <messageId>
  seen <chatId>
  delivered <chatId>
  quit`

// tester is a line based websocket client for poking a running relay.
// AUTHORIZATION takes the "Bearer ..." value printed by the seed command.
func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	color.Enable = config.Colours

	endpoint := url.URL{Scheme: "ws", Host: config.RelayAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	if err != nil {
		color.Red.Printf("Dial %s: %v\n", endpoint.String(), err)
		os.Exit(1)
	}
	defer conn.Close()

	go printEnvelopes(conn)

	send(conn, event.NameConnect, protocol.ConnectRequest{Authorization: config.Authorization})
	fmt.Println(usage)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch {
		case fields[0] == "quit":
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case fields[0] == "sync":
			send(conn, event.NameSyncMessages, protocol.SyncRequest{})
		case fields[0] == "send" && len(fields) >= 3:
			send(conn, event.NameMessageCreated, protocol.CreateMessageRequest{
				Type: "TEXT", ChatID: fields[1], Message: strings.Join(fields[2:], " "),
			})
		case fields[0] == "image" && len(fields) >= 3:
			request := protocol.CreateMessageRequest{Type: "IMAGE", ChatID: fields[1], ImageURL: fields[2]}
			if len(fields) > 3 {
				request.Type = "IMAGE_TEXT"
				request.Message = strings.Join(fields[3:], " ")
			}
			send(conn, event.NameMessageCreated, request)
		case fields[0] == "edit" && len(fields) >= 3:
			send(conn, event.NameMessageUpdated, protocol.UpdateMessageRequest{
				MessageID: fields[1], Message: strings.Join(fields[2:], " "),
			})
		case fields[0] == "delete" && len(fields) == 2:
			send(conn, event.NameMessageDeleted, protocol.DeleteMessageRequest{MessageID: fields[1]})
		case fields[0] == "seen" && len(fields) == 2:
			send(conn, event.NameChatSeen, protocol.MarkSeenRequest{ChatID: fields[1]})
		case fields[0] == "delivered" && len(fields) == 2:
			send(conn, event.NameChatDelivered, protocol.MarkDeliveredRequest{ChatID: fields[1]})
		default:
			fmt.Println(usage)
		}
	}
}

func send(conn *websocket.Conn, name event.Name, data any) {
	frame, err := protocol.NewFrame(name, data)
	if err != nil {
		color.Red.Println(err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		color.Red.Printf("Write failed: %v\n", err)
		os.Exit(1)
	}
	color.Gray.Printf(">> %s\n", frame)
}

func printEnvelopes(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			color.Yellow.Printf("Connection closed: %v\n", err)
			os.Exit(0)
		}
		var envelope protocol.Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			color.Red.Printf("<< unreadable %s\n", data)
			continue
		}
		if envelope.Kind == protocol.KindError {
			color.Red.Printf("<< %s %v\n", envelope.Name, envelope.Errors)
			continue
		}
		color.Green.Printf("<< %s ", envelope.Name)
		fmt.Println(string(envelope.Details))
	}
}
