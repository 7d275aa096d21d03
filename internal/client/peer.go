package client

import (
	pion "github.com/pion/webrtc/v4"

	"github.com/kaiwa-dev/kaiwa/internal/config"
)

// NewPeerConnection builds a pion peer connection from the configured ICE
// servers. Callers attach media and handlers before negotiation starts.
func NewPeerConnection(cfg *config.Config) (*pion.PeerConnection, error) {
	iceServers := []pion.ICEServer{{URLs: cfg.GetSTUNServers()}}

	if turnServers := cfg.GetTURNServers(); turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := pion.ICETransportPolicyAll
	if cfg.ForceRelay {
		policy = pion.ICETransportPolicyRelay
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, newError("create peer connection", err)
	}
	return pc, nil
}

// peerConn is the slice of *webrtc.PeerConnection the session loop drives.
// Narrowed so the state machine can be exercised without a network stack.
type peerConn interface {
	CreateOffer(*pion.OfferOptions) (pion.SessionDescription, error)
	CreateAnswer(*pion.AnswerOptions) (pion.SessionDescription, error)
	SetLocalDescription(pion.SessionDescription) error
	SetRemoteDescription(pion.SessionDescription) error
	AddICECandidate(pion.ICECandidateInit) error
	LocalDescription() *pion.SessionDescription
	SignalingState() pion.SignalingState
	Close() error
}
