package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeHeartbeat = 1
	MsgTypeIdentify  = 101
	MsgTypeStateSync = 301
	MsgTypeGameEnd   = 305
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	host := flag.String("host", "localhost:8080", "server host:port")
	name := flag.String("name", "", "player name to identify as")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
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
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			switch msgID {
			case MsgTypeStateSync:
				log.Printf("<- SYNC: %s (re-fetch your status view)", string(data))
			case MsgTypeGameEnd:
				log.Printf("<- GAME OVER: %s", string(data))
			default:
				log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
			}
		}
	}()

	if *name != "" {
		log.Printf("Identifying as %s...", *name)
		identData, _ := json.Marshal(map[string]string{"name": *name})
		if err := send(c, MsgTypeIdentify, identData); err != nil {
			log.Println("Write error:", err)
			return
		}
	}

	// Keep the session out of the idle sweep.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(c, MsgTypeHeartbeat, []byte{}); err != nil {
					return
				}
			}
		}
	}()

	log.Println("Client started. Type 'name <player>' to identify, Ctrl-C to quit.")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
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
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)

			if player, ok := strings.CutPrefix(text, "name "); ok {
				identData, _ := json.Marshal(map[string]string{"name": player})
				if err := send(c, MsgTypeIdentify, identData); err != nil {
					log.Println("Write error:", err)
					return
				}
				log.Printf("-> SENT: identify as %s", player)
			}
		}
	}
}
