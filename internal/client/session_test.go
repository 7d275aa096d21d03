package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

// fakePeer implements peerConn with just enough signaling-state bookkeeping
// to exercise the session loop. Guarded because the loop runs on its own
// goroutine while tests poll.
type fakePeer struct {
	mu         sync.Mutex
	state      pion.SignalingState
	local      *pion.SessionDescription
	remote     *pion.SessionDescription
	added      []pion.ICECandidateInit
	addErr     error
	addCalls   int
	offerCalls int
}

func newFakePeer() *fakePeer {
	return &fakePeer{state: pion.SignalingStateStable}
}

func (f *fakePeer) CreateOffer(*pion.OfferOptions) (pion.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offerCalls++
	return pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "v=0 offer"}, nil
}

func (f *fakePeer) CreateAnswer(*pion.AnswerOptions) (pion.SessionDescription, error) {
	return pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "v=0 answer"}, nil
}

func (f *fakePeer) SetLocalDescription(desc pion.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.local = &desc
	if desc.Type == pion.SDPTypeOffer {
		f.state = pion.SignalingStateHaveLocalOffer
	} else {
		f.state = pion.SignalingStateStable
	}
	return nil
}

func (f *fakePeer) SetRemoteDescription(desc pion.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote = &desc
	if desc.Type == pion.SDPTypeOffer {
		f.state = pion.SignalingStateHaveRemoteOffer
	} else {
		f.state = pion.SignalingStateStable
	}
	return nil
}

func (f *fakePeer) AddICECandidate(init pion.ICECandidateInit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, init)
	return nil
}

func (f *fakePeer) LocalDescription() *pion.SessionDescription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.local
}

func (f *fakePeer) SignalingState() pion.SignalingState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakePeer) Close() error { return nil }

func (f *fakePeer) setAddErr(err error) {
	f.mu.Lock()
	f.addErr = err
	f.mu.Unlock()
}

func (f *fakePeer) addAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls
}

func (f *fakePeer) candidates() []pion.ICECandidateInit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pion.ICECandidateInit(nil), f.added...)
}

func (f *fakePeer) offers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offerCalls
}

func (f *fakePeer) remoteDesc() *pion.SessionDescription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remote
}

type fakeMedia struct {
	mu           sync.Mutex
	audio, video bool
	closed       bool
}

func (m *fakeMedia) Attach(*pion.PeerConnection) error { return nil }

func (m *fakeMedia) SetAudioEnabled(on bool) {
	m.mu.Lock()
	m.audio = on
	m.mu.Unlock()
}

func (m *fakeMedia) SetVideoEnabled(on bool) {
	m.mu.Lock()
	m.video = on
	m.mu.Unlock()
}

func (m *fakeMedia) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *fakeMedia) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type fakeSink struct {
	mu      sync.Mutex
	cleared int
}

func (s *fakeSink) OnTrack(*pion.TrackRemote, *pion.RTPReceiver) {}

func (s *fakeSink) Clear() {
	s.mu.Lock()
	s.cleared++
	s.mu.Unlock()
}

func (s *fakeSink) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

type harness struct {
	sess   *Session
	peer   *fakePeer
	media  *fakeMedia
	sink   *fakeSink
	events *Dispatcher
	sent   chan *signaling.Message
	states chan State
	errs   chan error
	cancel context.CancelFunc
}

func startSession(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		peer:   newFakePeer(),
		media:  &fakeMedia{audio: true, video: true},
		sink:   &fakeSink{},
		events: NewDispatcher(),
		sent:   make(chan *signaling.Message, 16),
		states: make(chan State, 16),
		errs:   make(chan error, 1),
	}

	send := func(msg *signaling.Message) { h.sent <- msg }
	opts := SessionOptions{OnState: func(s State) { h.states <- s }}

	h.sess = newSession("abc", "me", h.peer, h.media, h.sink, send, h.events, opts)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)

	go func() { h.errs <- h.sess.Run(ctx) }()
	return h
}

func (h *harness) recvSent(t *testing.T) *signaling.Message {
	t.Helper()
	select {
	case msg := <-h.sent:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
		return nil
	}
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case got := <-h.states:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v, at %v", want, h.sess.State())
		}
	}
}

func (h *harness) waitErr(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errs:
		return err
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Run to return")
		return nil
	}
}

func (h *harness) joinAs(t *testing.T, role string) {
	t.Helper()
	h.recvSent(t) // join-room
	h.events.Joined <- &signaling.Message{Type: signaling.EventJoinedRoom, RoomID: "abc", PeerID: "me", Role: role}
	h.waitState(t, StateWaiting)
}

func descJSON(t *testing.T, typ pion.SDPType, sdp string) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(pion.SessionDescription{Type: typ, SDP: sdp})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func candJSON(t *testing.T, c string) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(pion.ICECandidateInit{Candidate: c})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSessionOffersWhenPeerJoins(t *testing.T) {
	h := startSession(t)

	join := h.recvSent(t)
	if join.Type != signaling.EventJoinRoom || join.RoomID != "abc" || join.PeerID != "me" {
		t.Fatalf("expected join-room, got %+v", join)
	}
	h.waitState(t, StateJoining)

	h.events.Joined <- &signaling.Message{Type: signaling.EventJoinedRoom, Role: signaling.RoleHost}
	h.waitState(t, StateWaiting)
	if h.sess.Role() != signaling.RoleHost {
		t.Fatalf("role = %q, want host", h.sess.Role())
	}

	h.events.PeerJoined <- &signaling.Message{Type: signaling.EventPeerJoined, PeerID: "other"}

	offer := h.recvSent(t)
	if offer.Type != signaling.EventOffer || offer.RoomID != "abc" || offer.From != "me" {
		t.Fatalf("expected offer from me, got %+v", offer)
	}
	h.waitState(t, StateOffering)

	h.events.Answer <- &signaling.Message{Type: signaling.EventAnswer, SDP: descJSON(t, pion.SDPTypeAnswer, "v=0 remote")}
	waitFor(t, func() bool {
		desc := h.peer.remoteDesc()
		return desc != nil && desc.SDP == "v=0 remote"
	})
}

func TestGlareGuardSkipsOfferMidNegotiation(t *testing.T) {
	h := startSession(t)
	h.joinAs(t, signaling.RoleHost)

	h.events.PeerJoined <- &signaling.Message{Type: signaling.EventPeerJoined}
	h.recvSent(t) // the offer
	h.waitState(t, StateOffering)

	// A duplicate notification mid-negotiation must not produce another
	// offer: signaling state is have-local-offer, the guard skips it.
	h.events.PeerJoined <- &signaling.Message{Type: signaling.EventPeerJoined}
	waitFor(t, func() bool { return len(h.events.PeerJoined) == 0 })
	time.Sleep(20 * time.Millisecond)

	if got := h.peer.offers(); got != 1 {
		t.Fatalf("offer created %d times, want 1", got)
	}
	select {
	case msg := <-h.sent:
		t.Fatalf("no second offer expected, got %+v", msg)
	default:
	}
}

func TestSessionAnswersOffer(t *testing.T) {
	h := startSession(t)
	h.joinAs(t, signaling.RoleGuest)

	h.events.Offer <- &signaling.Message{Type: signaling.EventOffer, SDP: descJSON(t, pion.SDPTypeOffer, "v=0 their offer")}

	answer := h.recvSent(t)
	if answer.Type != signaling.EventAnswer || answer.From != "me" {
		t.Fatalf("expected answer, got %+v", answer)
	}
	h.waitState(t, StateAnswering)

	if desc := h.peer.remoteDesc(); desc == nil || desc.Type != pion.SDPTypeOffer {
		t.Fatalf("remote offer not applied: %+v", desc)
	}
}

func TestRoomFullIsTerminal(t *testing.T) {
	h := startSession(t)
	h.recvSent(t) // join-room

	h.events.RoomFull <- &signaling.Message{Type: signaling.EventRoomFull, RoomID: "abc"}

	if err := h.waitErr(t); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("Run = %v, want ErrRoomFull", err)
	}
	if h.sess.State() != StateFailed {
		t.Fatalf("state = %v, want failed", h.sess.State())
	}
}

func TestEarlyCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	h := startSession(t)
	h.joinAs(t, signaling.RoleGuest)

	// Candidates racing ahead of the offer are held back, not dropped.
	h.events.Candidate <- &signaling.Message{Type: signaling.EventIceCandidate, Candidate: candJSON(t, "early-1")}
	h.events.Candidate <- &signaling.Message{Type: signaling.EventIceCandidate, Candidate: candJSON(t, "early-2")}

	h.events.Offer <- &signaling.Message{Type: signaling.EventOffer, SDP: descJSON(t, pion.SDPTypeOffer, "v=0")}
	h.recvSent(t) // answer

	waitFor(t, func() bool { return len(h.peer.candidates()) == 2 })
	got := h.peer.candidates()
	if got[0].Candidate != "early-1" || got[1].Candidate != "early-2" {
		t.Fatalf("buffered candidates flushed out of order: %+v", got)
	}

	// Later candidates apply directly.
	h.events.Candidate <- &signaling.Message{Type: signaling.EventIceCandidate, Candidate: candJSON(t, "late")}
	waitFor(t, func() bool { return len(h.peer.candidates()) == 3 })
}

func TestCandidateAddFailureIsSwallowed(t *testing.T) {
	h := startSession(t)
	h.joinAs(t, signaling.RoleGuest)

	h.events.Offer <- &signaling.Message{Type: signaling.EventOffer, SDP: descJSON(t, pion.SDPTypeOffer, "v=0")}
	h.recvSent(t) // answer

	h.peer.setAddErr(errors.New("not ready"))
	h.events.Candidate <- &signaling.Message{Type: signaling.EventIceCandidate, Candidate: candJSON(t, "bad")}
	// Wait for the failing add itself, not just the channel draining:
	// clearing the injected error before the loop reaches AddICECandidate
	// would let "bad" through.
	waitFor(t, func() bool { return h.peer.addAttempts() == 1 })

	// The loop keeps going: a follow-up candidate still gets applied.
	h.peer.setAddErr(nil)
	h.events.Candidate <- &signaling.Message{Type: signaling.EventIceCandidate, Candidate: candJSON(t, "good")}
	waitFor(t, func() bool {
		got := h.peer.candidates()
		return len(got) == 1 && got[0].Candidate == "good"
	})
}

func TestPeerLeftReturnsToIdleKeepingMedia(t *testing.T) {
	h := startSession(t)
	h.joinAs(t, signaling.RoleHost)

	h.sess.connState <- pion.PeerConnectionStateConnected
	h.waitState(t, StateConnected)

	h.events.PeerLeft <- &signaling.Message{Type: signaling.EventPeerLeft, PeerID: "other"}
	h.waitState(t, StateIdle)

	waitFor(t, func() bool { return h.sink.clearCount() == 1 })
	if h.media.isClosed() {
		t.Fatal("local media must stay alive after the peer leaves")
	}
}

func TestConnectionFailureIsTerminal(t *testing.T) {
	h := startSession(t)
	h.recvSent(t) // join-room

	h.sess.connState <- pion.PeerConnectionStateFailed

	if err := h.waitErr(t); !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Run = %v, want ErrConnectionFailed", err)
	}
	if h.sess.State() != StateFailed {
		t.Fatalf("state = %v, want failed", h.sess.State())
	}
}

func TestTransportDropEndsSession(t *testing.T) {
	h := startSession(t)
	h.recvSent(t) // join-room

	incoming := make(chan *signaling.Message)
	done := make(chan struct{})
	go func() {
		h.events.Run(incoming)
		close(done)
	}()
	close(incoming)
	<-done

	if err := h.waitErr(t); !errors.Is(err, ErrSignalingClosed) {
		t.Fatalf("Run = %v, want ErrSignalingClosed", err)
	}
	if h.sess.State() != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", h.sess.State())
	}
}

func TestCloseReleasesEverythingOnce(t *testing.T) {
	h := startSession(t)
	h.recvSent(t) // join-room

	released := 0
	h.sess.closers = []func(){func() { released++ }}

	h.sess.Close()
	h.sess.Close()
	if released != 1 {
		t.Fatalf("closers ran %d times, want 1", released)
	}

	h.cancel()
	if err := h.waitErr(t); err != nil {
		t.Fatalf("clean shutdown should return nil, got %v", err)
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

func TestGarbageDescriptionIsIgnored(t *testing.T) {
	h := startSession(t)
	h.joinAs(t, signaling.RoleGuest)

	h.events.Offer <- &signaling.Message{Type: signaling.EventOffer, SDP: json.RawMessage(`{not json`)}
	waitFor(t, func() bool { return len(h.events.Offer) == 0 })

	select {
	case msg := <-h.sent:
		t.Fatalf("garbage offer must produce no answer, got %+v", msg)
	default:
	}

	// The session is still negotiating: a well-formed offer gets answered.
	h.events.Offer <- &signaling.Message{Type: signaling.EventOffer, SDP: descJSON(t, pion.SDPTypeOffer, "v=0")}
	if answer := h.recvSent(t); answer.Type != signaling.EventAnswer {
		t.Fatalf("expected answer, got %+v", answer)
	}
}

func TestDecodeErrorsCarrySentinel(t *testing.T) {
	if _, err := decodeDescription(json.RawMessage(`42`)); !errors.Is(err, ErrUnexpectedSignal) {
		t.Fatalf("decodeDescription error = %v, want ErrUnexpectedSignal", err)
	}
	if _, err := decodeCandidate(json.RawMessage(`"nope`)); !errors.Is(err, ErrUnexpectedSignal) {
		t.Fatalf("decodeCandidate error = %v, want ErrUnexpectedSignal", err)
	}
}
