package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

// State is the session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateJoining
	StateWaiting
	StateOffering
	StateAnswering
	StateConnected
	StateDisconnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateJoining:
		return "joining"
	case StateWaiting:
		return "waiting"
	case StateOffering:
		return "offering"
	case StateAnswering:
		return "answering"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Session drives one participant's negotiation through the relay server.
// All negotiation steps run on the single goroutine inside Run; pion
// callbacks only feed channels.
type Session struct {
	send   func(*signaling.Message)
	events *Dispatcher
	pc     peerConn
	media  MediaSource
	sink   RemoteSink

	roomID string
	peerID string

	mu    sync.Mutex
	state State
	role  string

	// remoteSet gates candidate application; candidates arriving before the
	// remote description are buffered and flushed rather than dropped.
	remoteSet bool
	pending   []pion.ICECandidateInit

	// connState is fed by the peer connection state callback.
	connState chan pion.PeerConnectionState

	control      *Control
	setupControl func()

	onState   func(State)
	onControl func(ControlMessage)

	closeOnce sync.Once
	closers   []func()
}

// SessionOptions configures optional session behavior.
type SessionOptions struct {
	// OnState is invoked from the session goroutine on every transition.
	OnState func(State)
	// OnControl receives in-call control notices from the peer.
	OnControl func(ControlMessage)
}

func newSession(roomID, peerID string, pc peerConn, media MediaSource, sink RemoteSink, send func(*signaling.Message), events *Dispatcher, opts SessionOptions) *Session {
	return &Session{
		send:      send,
		events:    events,
		pc:        pc,
		media:     media,
		sink:      sink,
		roomID:    roomID,
		peerID:    peerID,
		state:     StateIdle,
		connState: make(chan pion.PeerConnectionState, 8),
		onState:   opts.OnState,
		onControl: opts.OnControl,
	}
}

// RoomID returns the room this session joined.
func (s *Session) RoomID() string { return s.roomID }

// PeerID returns the locally generated participant id.
func (s *Session) PeerID() string { return s.peerID }

// Role returns the server-assigned role, empty until joined.
func (s *Session) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed && s.onState != nil {
		s.onState(state)
	}
}

// Run sends the join request and processes events until the session ends.
// It returns nil on a clean shutdown via ctx, ErrRoomFull on rejection,
// ErrConnectionFailed when connectivity is lost for good, and
// ErrSignalingClosed when the transport drops.
func (s *Session) Run(ctx context.Context) error {
	// Once this loop stops reading, the dispatcher must not block on the
	// typed channels or it would never notice the transport closing.
	defer s.events.Detach()

	s.setState(StateJoining)
	s.send(&signaling.Message{
		Type:   signaling.EventJoinRoom,
		RoomID: s.roomID,
		PeerID: s.peerID,
	})

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-s.events.Joined:
			if !ok {
				return s.transportDropped()
			}
			s.mu.Lock()
			s.role = msg.Role
			s.mu.Unlock()
			if msg.Role == signaling.RoleHost && s.setupControl != nil {
				s.setupControl()
			}
			s.setState(StateWaiting)

		case _, ok := <-s.events.RoomFull:
			if !ok {
				return s.transportDropped()
			}
			s.setState(StateFailed)
			return ErrRoomFull

		case _, ok := <-s.events.PeerJoined:
			if !ok {
				return s.transportDropped()
			}
			s.maybeOffer()

		case msg, ok := <-s.events.Offer:
			if !ok {
				return s.transportDropped()
			}
			s.handleOffer(msg)

		case msg, ok := <-s.events.Answer:
			if !ok {
				return s.transportDropped()
			}
			s.handleAnswer(msg)

		case msg, ok := <-s.events.Candidate:
			if !ok {
				return s.transportDropped()
			}
			s.handleCandidate(msg)

		case _, ok := <-s.events.PeerLeft:
			if !ok {
				return s.transportDropped()
			}
			s.peerGone()

		case state := <-s.connState:
			switch state {
			case pion.PeerConnectionStateConnected:
				s.setState(StateConnected)
			case pion.PeerConnectionStateFailed:
				s.setState(StateFailed)
				return ErrConnectionFailed
			case pion.PeerConnectionStateDisconnected:
				s.peerGone()
			}
		}
	}
}

// maybeOffer creates and sends an offer, unless negotiation is already in
// progress. The stable-state guard is the glare protection: a duplicate
// peer-joined, or one arriving mid-negotiation, becomes a no-op instead of
// corrupting the exchange.
func (s *Session) maybeOffer() {
	if s.pc.SignalingState() != pion.SignalingStateStable {
		slog.Debug("skipping offer, negotiation in progress", "signalingState", s.pc.SignalingState())
		return
	}

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		slog.Warn("create offer failed", "err", err)
		return
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		slog.Warn("set local description failed", "err", err)
		return
	}

	s.sendDescription(signaling.EventOffer, s.pc.LocalDescription())
	s.setState(StateOffering)
}

// handleOffer applies the remote offer and responds with an answer.
func (s *Session) handleOffer(msg *signaling.Message) {
	desc, err := decodeDescription(msg.SDP)
	if err != nil {
		slog.Warn("undecodable offer", "err", err)
		return
	}

	if err := s.pc.SetRemoteDescription(desc); err != nil {
		slog.Warn("set remote offer failed", "err", err)
		return
	}
	s.remoteReady()

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		slog.Warn("create answer failed", "err", err)
		return
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		slog.Warn("set local answer failed", "err", err)
		return
	}

	s.sendDescription(signaling.EventAnswer, s.pc.LocalDescription())
	s.setState(StateAnswering)
}

// handleAnswer applies the remote answer; negotiation is then complete
// pending connectivity.
func (s *Session) handleAnswer(msg *signaling.Message) {
	desc, err := decodeDescription(msg.SDP)
	if err != nil {
		slog.Warn("undecodable answer", "err", err)
		return
	}

	if err := s.pc.SetRemoteDescription(desc); err != nil {
		slog.Warn("set remote answer failed", "err", err)
		return
	}
	s.remoteReady()
}

// handleCandidate applies a remote candidate, buffering it while the remote
// description is still outstanding. Add failures are non-fatal; a dropped
// candidate costs at most one connectivity path.
func (s *Session) handleCandidate(msg *signaling.Message) {
	init, err := decodeCandidate(msg.Candidate)
	if err != nil {
		slog.Debug("undecodable candidate", "err", err)
		return
	}

	if !s.remoteSet {
		s.pending = append(s.pending, init)
		return
	}

	if err := s.pc.AddICECandidate(init); err != nil {
		slog.Debug("add candidate failed", "err", err)
	}
}

// decodeDescription parses a relayed session description. Garbage from the
// peer is reported as ErrUnexpectedSignal and never tears the session down.
func decodeDescription(raw json.RawMessage) (pion.SessionDescription, error) {
	var desc pion.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return desc, fmt.Errorf("%w: %v", ErrUnexpectedSignal, err)
	}
	return desc, nil
}

// decodeCandidate parses a relayed candidate descriptor.
func decodeCandidate(raw json.RawMessage) (pion.ICECandidateInit, error) {
	var init pion.ICECandidateInit
	if err := json.Unmarshal(raw, &init); err != nil {
		return init, fmt.Errorf("%w: %v", ErrUnexpectedSignal, err)
	}
	return init, nil
}

// remoteReady flushes candidates buffered before the remote description.
func (s *Session) remoteReady() {
	s.remoteSet = true
	for _, init := range s.pending {
		if err := s.pc.AddICECandidate(init); err != nil {
			slog.Debug("add buffered candidate failed", "err", err)
		}
	}
	s.pending = nil
}

// peerGone returns the session to idle: remote display cleared, local media
// kept alive for the next peer.
func (s *Session) peerGone() {
	if s.sink != nil {
		s.sink.Clear()
	}
	s.remoteSet = false
	s.pending = nil
	s.setState(StateIdle)
}

func (s *Session) transportDropped() error {
	s.setState(StateDisconnected)
	return ErrSignalingClosed
}

func (s *Session) sendDescription(event string, desc *pion.SessionDescription) {
	if desc == nil {
		return
	}
	b, err := json.Marshal(desc)
	if err != nil {
		slog.Warn("marshal description failed", "err", err)
		return
	}
	s.send(&signaling.Message{
		Type:   event,
		RoomID: s.roomID,
		From:   s.peerID,
		SDP:    b,
	})
}

// SetAudioEnabled toggles the outgoing audio track and tells the peer.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.media.SetAudioEnabled(enabled)
	if ctrl := s.controlLink(); ctrl != nil {
		ctrl.NotifyMute(MuteKindAudio, !enabled)
	}
}

// SetVideoEnabled toggles the outgoing video track and tells the peer.
func (s *Session) SetVideoEnabled(enabled bool) {
	s.media.SetVideoEnabled(enabled)
	if ctrl := s.controlLink(); ctrl != nil {
		ctrl.NotifyMute(MuteKindVideo, !enabled)
	}
}

// attachControl binds the in-call control channel, whichever side opened it.
// Called from the session goroutine on the host and from a pion callback on
// the guest, hence the lock.
func (s *Session) attachControl(ctrl *Control) {
	s.mu.Lock()
	s.control = ctrl
	s.mu.Unlock()
	if s.onControl != nil {
		ctrl.onMessage(s.onControl)
	}
}

func (s *Session) controlLink() *Control {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

// Close releases the transport, the peer connection and the local media,
// in that order, exactly once. Safe on every exit path.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if ctrl := s.controlLink(); ctrl != nil {
			ctrl.Hangup()
		}
		for _, closer := range s.closers {
			closer()
		}
	})
}
