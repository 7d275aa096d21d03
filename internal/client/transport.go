package client

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kaiwa-dev/kaiwa/internal/dns"
	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Transport manages the websocket connection to the signaling server. It
// speaks the same Message envelope the server does.
type Transport struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *signaling.Message
	outgoing  chan *signaling.Message
	done      chan struct{}
	closed    bool
}

// NewTransport creates a transport for the given ws:// or wss:// endpoint.
func NewTransport(serverURL string) *Transport {
	return &Transport{
		serverURL: serverURL,
		incoming:  make(chan *signaling.Message, 32),
		outgoing:  make(chan *signaling.Message, 32),
		done:      make(chan struct{}),
	}
}

// Connect dials the server and starts the read and write pumps.
func (t *Transport) Connect() error {
	u, err := url.Parse(t.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	// Resolve through our fallback-capable resolver before dialing.
	dialer := *websocket.DefaultDialer
	dialer.NetDial = func(network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		resolved, err := dns.Lookup(host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup failed: %w", err)
		}

		return net.Dial(network, net.JoinHostPort(resolved, port))
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	t.conn = conn
	t.conn.SetReadLimit(maxMessageSize)
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go t.readPump()
	go t.writePump()

	return nil
}

func (t *Transport) readPump() {
	defer func() {
		t.conn.Close()
		close(t.incoming)
	}()

	t.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg signaling.Message
		if err := t.conn.ReadJSON(&msg); err != nil {
			return
		}

		t.incoming <- &msg
	}
}

func (t *Transport) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	for {
		select {
		case msg := <-t.outgoing:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-t.done:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			t.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues a message for delivery. It never blocks the caller; a message
// that cannot be queued is dropped, matching the fire-and-forget contract.
func (t *Transport) Send(msg *signaling.Message) {
	select {
	case t.outgoing <- msg:
	default:
	}
}

// Incoming returns the channel of messages read from the server. It is
// closed when the connection drops.
func (t *Transport) Incoming() <-chan *signaling.Message {
	return t.incoming
}

// Close shuts the connection down. Safe to call once.
func (t *Transport) Close() {
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
}
