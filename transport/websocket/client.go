package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	idlePingInterval = 30 * time.Second
	writeWait        = 10 * time.Second
	sendBuffer       = 16
)

// client - one websocket connection. Only the writer goroutine touches conn for writes.
type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	gameID string
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

func (that *client) currentGame() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.gameID
}

func (that *client) setGame(id string) {
	that.mu.Lock()
	that.gameID = id
	that.mu.Unlock()
}

// resolveGame - the explicit id from the payload wins over the connection's last game.
func (that *client) resolveGame(id string) string {
	if id != "" {
		that.setGame(id)
		return id
	}

	return that.currentGame()
}

func (that *client) sendMessage(action string, payload ResponsePayload) {
	data, err := json.Marshal(Message{Action: action, Payload: mustMarshal(payload)})
	if err != nil {
		return
	}

	select {
	case that.send <- data:
	default:
		// slow reader, drop the frame
	}
}

func (that *client) sendError(action, message string) {
	that.sendMessage(action, ResponsePayload{Error: message})
}

// writeWithHeartbeat - drains send and pings the peer after idlePingInterval of silence.
func (that *client) writeWithHeartbeat(ctx context.Context) error {
	ticker := time.NewTicker(idlePingInterval)
	defer ticker.Stop()

	lastWrite := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < idlePingInterval {
				continue
			}
			if err := that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
