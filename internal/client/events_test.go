package client

import (
	"testing"
	"time"

	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewDispatcher()
	incoming := make(chan *signaling.Message, 8)
	go d.Run(incoming)
	defer close(incoming)

	cases := []struct {
		event string
		ch    <-chan *signaling.Message
	}{
		{signaling.EventJoinedRoom, d.Joined},
		{signaling.EventRoomFull, d.RoomFull},
		{signaling.EventPeerJoined, d.PeerJoined},
		{signaling.EventOffer, d.Offer},
		{signaling.EventAnswer, d.Answer},
		{signaling.EventIceCandidate, d.Candidate},
		{signaling.EventPeerLeft, d.PeerLeft},
	}

	for _, tc := range cases {
		incoming <- &signaling.Message{Type: tc.event}
		select {
		case got := <-tc.ch:
			if got.Type != tc.event {
				t.Fatalf("channel for %q delivered %q", tc.event, got.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %q never routed", tc.event)
		}
	}
}

func TestDispatcherIgnoresUnknownEvents(t *testing.T) {
	d := NewDispatcher()
	incoming := make(chan *signaling.Message, 2)
	go d.Run(incoming)

	incoming <- &signaling.Message{Type: "renegotiate"}
	incoming <- &signaling.Message{Type: signaling.EventPeerLeft}
	close(incoming)

	select {
	case got := <-d.PeerLeft:
		if got == nil || got.Type != signaling.EventPeerLeft {
			t.Fatalf("peer-left not delivered, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("known event stuck behind unknown one")
	}
}

func TestDispatcherClosesAllChannelsOnDrop(t *testing.T) {
	d := NewDispatcher()
	incoming := make(chan *signaling.Message)
	done := make(chan struct{})
	go func() {
		d.Run(incoming)
		close(done)
	}()

	close(incoming)
	<-done

	for name, ch := range map[string]<-chan *signaling.Message{
		"joined":      d.Joined,
		"room-full":   d.RoomFull,
		"peer-joined": d.PeerJoined,
		"offer":       d.Offer,
		"answer":      d.Answer,
		"candidate":   d.Candidate,
		"peer-left":   d.PeerLeft,
	} {
		select {
		case _, ok := <-ch:
			if ok {
				t.Fatalf("%s channel delivered a message after drop", name)
			}
		default:
			t.Fatalf("%s channel not closed after drop", name)
		}
	}
}

func TestDispatcherDetachUnblocksDelivery(t *testing.T) {
	d := NewDispatcher()
	incoming := make(chan *signaling.Message)
	done := make(chan struct{})
	go func() {
		d.Run(incoming)
		close(done)
	}()

	// Nobody reads the typed channels: the first offer fills the buffer,
	// the second leaves Run blocked mid-delivery.
	incoming <- &signaling.Message{Type: signaling.EventOffer}
	incoming <- &signaling.Message{Type: signaling.EventOffer}

	d.Detach()
	close(incoming)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher stayed wedged after detach")
	}
}
