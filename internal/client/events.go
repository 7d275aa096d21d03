package client

import (
	"sync"

	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

// Dispatcher fans incoming wire events out onto typed channels consumed by
// the session loop. All channels are closed when the transport drops, which
// the session treats as a peer departure.
type Dispatcher struct {
	Joined     chan *signaling.Message
	RoomFull   chan *signaling.Message
	PeerJoined chan *signaling.Message
	Offer      chan *signaling.Message
	Answer     chan *signaling.Message
	Candidate  chan *signaling.Message
	PeerLeft   chan *signaling.Message

	done     chan struct{}
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher with buffered channels. Candidates get
// a deeper buffer since they arrive in bursts during gathering.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		Joined:     make(chan *signaling.Message, 1),
		RoomFull:   make(chan *signaling.Message, 1),
		PeerJoined: make(chan *signaling.Message, 1),
		Offer:      make(chan *signaling.Message, 1),
		Answer:     make(chan *signaling.Message, 1),
		Candidate:  make(chan *signaling.Message, 32),
		PeerLeft:   make(chan *signaling.Message, 1),
		done:       make(chan struct{}),
	}
}

// Detach stops delivery. Run keeps draining the transport so its goroutine
// still exits on connection drop, but nothing further reaches the typed
// channels. Called once the session loop has returned and stopped reading.
func (d *Dispatcher) Detach() {
	d.stopOnce.Do(func() { close(d.done) })
}

func (d *Dispatcher) deliver(ch chan *signaling.Message, msg *signaling.Message) {
	select {
	case ch <- msg:
	case <-d.done:
	}
}

// Run routes messages until incoming is closed, then closes every typed
// channel so the session loop observes the transport drop.
func (d *Dispatcher) Run(incoming <-chan *signaling.Message) {
	defer func() {
		close(d.Joined)
		close(d.RoomFull)
		close(d.PeerJoined)
		close(d.Offer)
		close(d.Answer)
		close(d.Candidate)
		close(d.PeerLeft)
	}()

	for msg := range incoming {
		switch msg.Type {
		case signaling.EventJoinedRoom:
			d.deliver(d.Joined, msg)
		case signaling.EventRoomFull:
			d.deliver(d.RoomFull, msg)
		case signaling.EventPeerJoined:
			d.deliver(d.PeerJoined, msg)
		case signaling.EventOffer:
			d.deliver(d.Offer, msg)
		case signaling.EventAnswer:
			d.deliver(d.Answer, msg)
		case signaling.EventIceCandidate:
			select {
			case d.Candidate <- msg:
			default:
				// A gathering burst can overrun the buffer; the
				// connection still establishes without the extras.
			}
		case signaling.EventPeerLeft:
			d.deliver(d.PeerLeft, msg)
		default:
			// Unknown events from newer servers are ignored.
		}
	}
}
