package signaling

import "encoding/json"

// Wire event names shared by server and clients.
const (
	EventJoinRoom     = "join-room"
	EventJoinedRoom   = "joined-room"
	EventRoomFull     = "room-full"
	EventPeerJoined   = "peer-joined"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventIceCandidate = "ice-candidate"
	EventPeerLeft     = "peer-left"
)

// Roles assigned at join time. The first participant in an empty room is the
// host; the second is the guest. The host is the side that later creates the
// offer, since only a guest's arrival triggers a peer-joined notification.
const (
	RoleHost  = "host"
	RoleGuest = "guest"
)

// Message is the envelope for every websocket event in both directions.
// The sdp and candidate payloads are relayed verbatim and never parsed by
// the server.
type Message struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId,omitempty"`
	PeerID    string          `json:"peerId,omitempty"`
	Role      string          `json:"role,omitempty"`
	From      string          `json:"from,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	// sender is the connection the message arrived on. Set by the read pump,
	// used only inside the hub, never serialized.
	sender *Client `json:"-"`
}

// IsRelay reports whether the event is a negotiation payload that the hub
// forwards without inspection.
func IsRelay(eventType string) bool {
	switch eventType {
	case EventOffer, EventAnswer, EventIceCandidate:
		return true
	}
	return false
}
