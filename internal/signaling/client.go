package signaling

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP blobs fit comfortably.
	maxMessageSize = 64 * 1024
)

// Client wraps one websocket connection. The hub fills in RoomID, PeerID and
// Role on a successful join and reads them back on disconnect; those fields
// are only ever touched from the hub goroutine.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	RoomID string
	PeerID string
	Role   string

	// send is drained by the write pump. The hub closes it to terminate the
	// connection; gone guards against closing twice.
	send chan *Message
	gone bool
}

// NewClient wires a freshly upgraded connection to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan *Message, 64),
	}
}

// Register announces the connection to the hub and starts both pumps.
func (c *Client) Register() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// enqueue hands a message to the write pump without blocking the hub. A
// client that cannot keep up loses messages rather than stalling the room.
func (c *Client) enqueue(msg *Message) {
	if c.gone {
		return
	}
	select {
	case c.send <- msg:
	default:
		slog.Warn("send buffer full, dropping message", "type", msg.Type, "peerId", c.PeerID)
	}
}

// readPump pumps messages from the websocket connection to the hub.
//
// There is at most one reader per connection; all reads happen here.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("read error", "err", err)
			}
			return
		}

		msg.sender = c
		c.hub.inbound <- &msg
	}
}

// writePump pumps messages from the hub to the websocket connection and
// keeps the connection alive with periodic pings.
//
// There is at most one writer per connection; all writes happen here.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub terminated this connection.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				slog.Debug("write error", "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
