package signaling

import (
	"encoding/json"
	"testing"
)

// The wire field names are shared with browser clients; renaming any of them
// is a protocol break.
func TestMessageWireFieldNames(t *testing.T) {
	msg := Message{
		Type:      EventOffer,
		RoomID:    "abc",
		PeerID:    "p",
		Role:      RoleHost,
		From:      "p",
		SDP:       json.RawMessage(`{"type":"offer","sdp":"v=0"}`),
		Candidate: json.RawMessage(`{"candidate":"c"}`),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}

	for _, field := range []string{"type", "roomId", "peerId", "role", "from", "sdp", "candidate"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing wire field %q in %s", field, b)
		}
	}
	if len(raw) != 7 {
		t.Errorf("unexpected extra wire fields in %s", b)
	}
}

func TestIsRelay(t *testing.T) {
	for _, typ := range []string{EventOffer, EventAnswer, EventIceCandidate} {
		if !IsRelay(typ) {
			t.Errorf("IsRelay(%q) = false", typ)
		}
	}
	for _, typ := range []string{EventJoinRoom, EventJoinedRoom, EventRoomFull, EventPeerJoined, EventPeerLeft, "bogus"} {
		if IsRelay(typ) {
			t.Errorf("IsRelay(%q) = true", typ)
		}
	}
}
