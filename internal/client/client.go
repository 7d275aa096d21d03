// Package client implements the negotiation side of a call: it joins a room
// through the signaling server and drives the WebRTC offer/answer/candidate
// exchange until a direct peer link forms.
package client

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	pion "github.com/pion/webrtc/v4"

	"github.com/kaiwa-dev/kaiwa/internal/config"
	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

// Dial connects to the signaling server, builds the peer connection with the
// given media collaborators, and returns a ready session. The caller must
// invoke Session.Run to start negotiating and Session.Close on every exit
// path.
func Dial(cfg *config.Config, roomID string, media MediaSource, sink RemoteSink, opts SessionOptions) (*Session, error) {
	peerID := uuid.NewString()

	pc, err := NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}

	if err := media.Attach(pc); err != nil {
		pc.Close()
		return nil, err
	}

	transport := NewTransport(cfg.ServerURL)
	if err := transport.Connect(); err != nil {
		pc.Close()
		return nil, newError("connect signaling", err)
	}

	events := NewDispatcher()
	go events.Run(transport.Incoming())

	sess := newSession(roomID, peerID, pc, media, sink, transport.Send, events, opts)
	sess.closers = []func(){
		transport.Close,
		func() { pc.Close() },
		func() {
			if err := media.Close(); err != nil {
				slog.Debug("media close failed", "err", err)
			}
		},
	}

	// The host opens the control channel before its offer so it rides the
	// same negotiation; the guest picks it up via OnDataChannel.
	sess.setupControl = func() {
		ordered := true
		dc, err := pc.CreateDataChannel(ControlChannelLabel, &pion.DataChannelInit{Ordered: &ordered})
		if err != nil {
			slog.Debug("control channel unavailable", "err", err)
			return
		}
		sess.attachControl(newControl(dc))
	}
	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() == ControlChannelLabel {
			sess.attachControl(newControl(dc))
		}
	})

	// Discovered candidates are relayed immediately, no batching.
	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		b, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		transport.Send(&signaling.Message{
			Type:      signaling.EventIceCandidate,
			RoomID:    roomID,
			From:      peerID,
			Candidate: b,
		})
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		select {
		case sess.connState <- state:
		default:
		}
	})

	pc.OnTrack(func(track *pion.TrackRemote, receiver *pion.RTPReceiver) {
		sink.OnTrack(track, receiver)
	})

	return sess, nil
}
