// Command-line test client for the quizroom server. Connects to a room,
// prints every server message and forwards simple commands from stdin:
//
//	start | reveal | next | end      host commands
//	a <0-3>                          submit an answer
//	j <5050|spy|risk>                use a joker
//	kick <token>                     kick a player
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

func send(c *websocket.Conn, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	code := flag.String("room", "NEW", "room code to join, NEW creates a room")
	name := flag.String("name", "Player", "display name")
	avatar := flag.String("avatar", "🦊", "avatar")
	token := flag.String("token", "", "player token for reconnecting")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/" + strings.ToUpper(*code)}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- RECV: %s", string(message))
		}
	}()

	hello := map[string]interface{}{
		"type":   "hello",
		"name":   *name,
		"avatar": *avatar,
	}
	if *code == "NEW" {
		hello["create"] = true
	}
	if *token != "" {
		hello["token"] = *token
	}
	if err := send(c, hello); err != nil {
		log.Fatalf("Hello failed: %v", err)
	}

	lines := make(chan string)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			text, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- strings.TrimSpace(text)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			payload := parseCommand(text)
			if payload == nil {
				continue
			}
			if err := send(c, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %v", payload)
		}
	}
}

func parseCommand(text string) map[string]interface{} {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "start":
		return map[string]interface{}{"type": "game:start"}
	case "reveal":
		return map[string]interface{}{"type": "host:reveal"}
	case "next":
		return map[string]interface{}{"type": "host:next"}
	case "end":
		return map[string]interface{}{"type": "host:end"}
	case "ping":
		return map[string]interface{}{"type": "ping"}
	case "a":
		if len(fields) < 2 {
			log.Println("usage: a <0-3>")
			return nil
		}
		choice, err := strconv.Atoi(fields[1])
		if err != nil {
			log.Println("usage: a <0-3>")
			return nil
		}
		return map[string]interface{}{"type": "answer:submit", "choice": choice}
	case "j":
		if len(fields) < 2 {
			log.Println("usage: j <5050|spy|risk>")
			return nil
		}
		return map[string]interface{}{"type": "joker:use", "kind": fields[1]}
	case "kick":
		if len(fields) < 2 {
			log.Println("usage: kick <token>")
			return nil
		}
		return map[string]interface{}{"type": "player:kick", "target": fields[1]}
	default:
		log.Printf("unknown command %q", fields[0])
		return nil
	}
}
