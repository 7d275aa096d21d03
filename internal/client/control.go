package client

import (
	"log/slog"

	pion "github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// ControlChannelLabel names the in-call data channel carrying control
// notices beside the media.
const ControlChannelLabel = "control"

// Control message types.
const (
	ControlTypeMute   = "mute"
	ControlTypeHangup = "hangup"
)

// Mute kinds.
const (
	MuteKindAudio = "audio"
	MuteKindVideo = "video"
)

// ControlMessage is the envelope for every in-call control notice.
type ControlMessage struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// MutePayload announces a local mute toggle to the peer.
type MutePayload struct {
	Kind  string `msgpack:"kind"`
	Muted bool   `msgpack:"muted"`
}

// DecodePayload decodes the message payload into the provided struct.
func (m ControlMessage) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// NewControlMessage creates a ControlMessage with an encoded payload.
func NewControlMessage(t string, payload any) (ControlMessage, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return ControlMessage{}, err
	}
	return ControlMessage{Type: t, Payload: b}, nil
}

// Control wraps the in-call data channel. Everything here is best effort:
// notices that cannot be delivered are dropped, never retried.
type Control struct {
	dc *pion.DataChannel
}

func newControl(dc *pion.DataChannel) *Control {
	return &Control{dc: dc}
}

// NotifyMute tells the peer a local track was muted or unmuted.
func (c *Control) NotifyMute(kind string, muted bool) {
	c.send(ControlTypeMute, MutePayload{Kind: kind, Muted: muted})
}

// Hangup announces an orderly goodbye before teardown.
func (c *Control) Hangup() {
	c.send(ControlTypeHangup, nil)
}

func (c *Control) send(t string, payload any) {
	if c.dc.ReadyState() != pion.DataChannelStateOpen {
		return
	}

	msg, err := NewControlMessage(t, payload)
	if err != nil {
		return
	}
	b, err := msgpack.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.dc.Send(b); err != nil {
		slog.Debug("control send failed", "type", t, "err", err)
	}
}

// onMessage decodes inbound control notices and hands them to cb.
func (c *Control) onMessage(cb func(ControlMessage)) {
	c.dc.OnMessage(func(msg pion.DataChannelMessage) {
		var cm ControlMessage
		if err := msgpack.Unmarshal(msg.Data, &cm); err != nil {
			slog.Debug("undecodable control message", "err", err)
			return
		}
		cb(cm)
	})
}
