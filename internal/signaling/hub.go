package signaling

import (
	"log/slog"

	"github.com/kaiwa-dev/kaiwa/internal/metrics"
)

// Counter names the hub reports.
const (
	MetricRoomsCreated  = "rooms_created"
	MetricJoinsRejected = "joins_rejected_full"
	MetricRelayed       = "messages_relayed"
	MetricPeersLeft     = "peers_left"
)

// Hub is the authoritative room registry and message relay. All room state
// is owned by the single goroutine running Run, which serializes every
// check-and-join: two racing second-joiners are handled one after the other,
// so a room can never be over-admitted.
type Hub struct {
	rooms map[string]*Room

	register   chan *Client
	unregister chan *Client
	inbound    chan *Message

	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a hub with no rooms.
func NewHub(log *slog.Logger, m *metrics.Metrics) *Hub {
	if m == nil {
		m = metrics.New()
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Message),
		log:        log,
		metrics:    m,
	}
}

// Metrics returns the hub's counter registry.
func (h *Hub) Metrics() *metrics.Metrics {
	return h.metrics
}

// Run processes registration, disconnects and inbound events until the
// process exits. It is the only goroutine allowed to touch h.rooms.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.log.Debug("connection registered")
			_ = client

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case msg := <-h.inbound:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg *Message) {
	switch {
	case msg.Type == EventJoinRoom:
		h.handleJoin(msg.sender, msg)
	case IsRelay(msg.Type):
		h.handleRelay(msg.sender, msg)
	default:
		h.log.Warn("unknown event", "type", msg.Type)
	}
}

// handleJoin admits the connection into the requested room, or rejects it.
// A malformed join is dropped and the connection kept alive; a join on a
// full room gets a room-full notice and the connection is terminated.
func (h *Hub) handleJoin(c *Client, msg *Message) {
	if msg.RoomID == "" || msg.PeerID == "" {
		h.log.Warn("malformed join dropped", "roomId", msg.RoomID, "peerId", msg.PeerID)
		return
	}
	if c.RoomID != "" {
		// Already joined; a connection belongs to at most one room.
		h.log.Warn("join ignored, already in a room", "roomId", c.RoomID, "peerId", c.PeerID)
		return
	}

	room, ok := h.rooms[msg.RoomID]
	if !ok {
		room = &Room{ID: msg.RoomID}
	}

	if room.Size() >= 2 {
		h.metrics.Inc(MetricJoinsRejected)
		h.log.Info("join rejected, room full", "roomId", msg.RoomID, "peerId", msg.PeerID)
		c.enqueue(&Message{Type: EventRoomFull, RoomID: msg.RoomID})
		h.terminate(c)
		return
	}

	role := RoleGuest
	if room.Size() == 0 {
		role = RoleHost
		h.rooms[room.ID] = room
		h.metrics.Inc(MetricRoomsCreated)
	}

	// Fill whichever slot is free. After a partial departure the remaining
	// member may sit in either one, and it must not be displaced.
	if room.Host == nil {
		room.Host = c
	} else {
		room.Guest = c
	}

	c.RoomID = room.ID
	c.PeerID = msg.PeerID
	c.Role = role

	h.log.Info("peer joined", "roomId", room.ID, "peerId", c.PeerID, "role", role)

	c.enqueue(&Message{
		Type:   EventJoinedRoom,
		RoomID: room.ID,
		PeerID: c.PeerID,
		Role:   role,
	})

	// Only the guest's arrival notifies the occupant; that is what makes the
	// host the single offerer.
	if role == RoleGuest {
		if other := room.Other(c); other != nil {
			other.enqueue(&Message{Type: EventPeerJoined, PeerID: c.PeerID})
		}
	}
}

// handleRelay forwards a negotiation payload to the other member of the
// sender's room. The payload is opaque; only membership is checked. Relaying
// into a room with no other member is a silent no-op.
func (h *Hub) handleRelay(c *Client, msg *Message) {
	if c.RoomID == "" || c.RoomID != msg.RoomID {
		h.log.Warn("relay dropped, sender not in claimed room",
			"claimed", msg.RoomID, "actual", c.RoomID, "peerId", c.PeerID)
		return
	}

	room, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}

	other := room.Other(c)
	if other == nil {
		return
	}

	h.metrics.Inc(MetricRelayed)
	h.log.Debug("relaying", "type", msg.Type, "roomId", room.ID, "from", c.PeerID)
	other.enqueue(msg)
}

// handleDisconnect removes the connection from its room (if any), deletes
// the room when it empties, and notifies the remaining member.
func (h *Hub) handleDisconnect(c *Client) {
	defer h.terminate(c)

	if c.RoomID == "" {
		return
	}

	room, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}
	if !room.Remove(c) {
		return
	}

	h.metrics.Inc(MetricPeersLeft)
	h.log.Info("peer left", "roomId", room.ID, "peerId", c.PeerID)

	if room.Size() == 0 {
		delete(h.rooms, room.ID)
		h.log.Debug("room deleted", "roomId", room.ID)
		return
	}

	if other := room.Remaining(); other != nil {
		other.enqueue(&Message{Type: EventPeerLeft, PeerID: c.PeerID})
	}
}

// terminate closes the client's send channel, which makes its write pump
// send a close frame and drop the connection. Safe to call more than once;
// everything here runs on the hub goroutine.
func (h *Hub) terminate(c *Client) {
	if c.gone {
		return
	}
	c.gone = true
	close(c.send)
}
