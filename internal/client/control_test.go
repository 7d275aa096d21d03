package client

import "testing"

func TestControlMessageRoundTrip(t *testing.T) {
	msg, err := NewControlMessage(ControlTypeMute, MutePayload{Kind: MuteKindVideo, Muted: true})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != ControlTypeMute {
		t.Fatalf("type = %q, want %q", msg.Type, ControlTypeMute)
	}

	var got MutePayload
	if err := msg.DecodePayload(&got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != MuteKindVideo || !got.Muted {
		t.Fatalf("payload = %+v", got)
	}
}

func TestControlMessageNilPayload(t *testing.T) {
	msg, err := NewControlMessage(ControlTypeHangup, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != ControlTypeHangup {
		t.Fatalf("type = %q, want %q", msg.Type, ControlTypeHangup)
	}
}
