package client

import (
	"log/slog"

	pion "github.com/pion/webrtc/v4"
)

// MediaSource supplies the local media half of a call. Capture itself lives
// outside this package; implementations only decide what gets negotiated.
type MediaSource interface {
	// Attach adds the local tracks or transceivers to the peer connection.
	// Called once, before any offer or answer is created.
	Attach(pc *pion.PeerConnection) error

	// SetAudioEnabled and SetVideoEnabled toggle the outgoing tracks
	// without renegotiation.
	SetAudioEnabled(enabled bool)
	SetVideoEnabled(enabled bool)

	// Close stops all local tracks.
	Close() error
}

// RemoteSink consumes the remote media half of a call.
type RemoteSink interface {
	// OnTrack is invoked for every incoming remote track.
	OnTrack(track *pion.TrackRemote, receiver *pion.RTPReceiver)

	// Clear drops the remote display. Called when the peer leaves while the
	// local side stays in the room.
	Clear()
}

// TransceiverSource negotiates bidirectional audio and video without binding
// to a capture device: it adds sendrecv transceivers and leaves feeding the
// senders to the embedder. It is the default source for the CLI.
type TransceiverSource struct {
	audio *pion.RTPTransceiver
	video *pion.RTPTransceiver

	audioEnabled bool
	videoEnabled bool
}

func NewTransceiverSource() *TransceiverSource {
	return &TransceiverSource{audioEnabled: true, videoEnabled: true}
}

func (s *TransceiverSource) Attach(pc *pion.PeerConnection) error {
	audio, err := pc.AddTransceiverFromKind(pion.RTPCodecTypeAudio, pion.RTPTransceiverInit{
		Direction: pion.RTPTransceiverDirectionSendrecv,
	})
	if err != nil {
		return newError("add audio transceiver", err)
	}
	s.audio = audio

	video, err := pc.AddTransceiverFromKind(pion.RTPCodecTypeVideo, pion.RTPTransceiverInit{
		Direction: pion.RTPTransceiverDirectionSendrecv,
	})
	if err != nil {
		return newError("add video transceiver", err)
	}
	s.video = video

	return nil
}

func (s *TransceiverSource) SetAudioEnabled(enabled bool) {
	s.audioEnabled = enabled
}

func (s *TransceiverSource) SetVideoEnabled(enabled bool) {
	s.videoEnabled = enabled
}

func (s *TransceiverSource) AudioEnabled() bool { return s.audioEnabled }
func (s *TransceiverSource) VideoEnabled() bool { return s.videoEnabled }

func (s *TransceiverSource) Close() error {
	for _, t := range []*pion.RTPTransceiver{s.audio, s.video} {
		if t != nil {
			if err := t.Stop(); err != nil {
				return err
			}
		}
	}
	return nil
}

// LogSink is a RemoteSink that only records track arrival. Useful for
// embedders that pump media elsewhere and for the terminal client, which has
// no rendering surface.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) OnTrack(track *pion.TrackRemote, receiver *pion.RTPReceiver) {
	slog.Info("remote track", "kind", track.Kind().String(), "id", track.ID())
}

func (s *LogSink) Clear() {
	slog.Info("remote media cleared")
}
