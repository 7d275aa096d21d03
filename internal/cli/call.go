package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kaiwa-dev/kaiwa/internal/client"
	"github.com/kaiwa-dev/kaiwa/internal/config"
	"github.com/kaiwa-dev/kaiwa/internal/ui"
)

var (
	flagServer   string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagRelay    bool
)

func callFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagServer, "server", "", "Signaling server URL")
	cmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	cmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	cmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	cmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	cmd.Flags().BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode")
}

func loadCallConfig() (*config.Config, error) {
	return config.Load(config.Options{
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagRelay,
	})
}

// runCall joins the room, shows the session summary, then hands the terminal
// to the live call view until the user hangs up or the call ends. The role
// shown is the one the server assigns at join time, not the subcommand:
// joining an empty room makes you its host.
func runCall(roomID string, showBanner bool) error {
	cfg, err := loadCallConfig()
	if err != nil {
		return err
	}

	var sess *client.Session

	micOn, camOn := true, true
	actions := ui.CallActions{
		ToggleMic: func() bool {
			micOn = !micOn
			sess.SetAudioEnabled(micOn)
			return !micOn
		},
		ToggleCam: func() bool {
			camOn = !camOn
			sess.SetVideoEnabled(camOn)
			return !camOn
		},
		Hangup: func() { sess.Close() },
	}

	model := ui.NewCallModel(roomID, actions)
	updates := model.Updates()

	opts := client.SessionOptions{
		OnState: func(s client.State) {
			if s == client.StateWaiting {
				// First transition past joining; the ack carried the role.
				push(updates, ui.CallUpdate{Type: ui.UpdateRole, Message: sess.Role()})
			}
			pushState(updates, s)
		},
		OnControl: func(msg client.ControlMessage) { pushControl(updates, msg) },
	}

	fmt.Println()
	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	sess, err = client.Dial(cfg, roomID, client.NewTransceiverSource(), client.NewLogSink(), opts)
	if err != nil {
		stopSpinner()
		return err
	}
	defer sess.Close()
	stopSpinner()

	ui.RenderSessionInfo(ui.SessionInfo{
		RoomID:      roomID,
		PeerID:      sess.PeerID(),
		Server:      cfg.ServerURL,
		STUNServers: cfg.GetSTUNServers(),
		TURNServers: cfg.GetTURNServers(),
		ForceRelay:  cfg.ForceRelay,
	})

	if showBanner {
		fmt.Println()
		ui.NewRoomInfo(roomID).Render()
	}
	fmt.Println()

	runErr := make(chan error, 1)
	go func() {
		err := sess.Run(context.Background())
		runErr <- err
		switch {
		case err == nil:
			updates <- ui.CallUpdate{Type: ui.UpdateEnded}
		case errors.Is(err, client.ErrSignalingClosed):
			// The usual path after a local hangup tore the transport down.
			updates <- ui.CallUpdate{Type: ui.UpdateEnded}
		default:
			updates <- ui.CallUpdate{Type: ui.UpdateCallError, Err: err}
		}
	}()

	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return err
	}
	model.Close()
	sess.Close()

	select {
	case err := <-runErr:
		if err != nil && !errors.Is(err, client.ErrSignalingClosed) {
			return err
		}
	default:
	}
	return nil
}

func push(updates chan<- ui.CallUpdate, update ui.CallUpdate) {
	select {
	case updates <- update:
	default:
	}
}

func pushState(updates chan<- ui.CallUpdate, s client.State) {
	var update ui.CallUpdate
	switch s {
	case client.StateJoining:
		update = ui.CallUpdate{Type: ui.UpdateStage, Message: "Joining room..."}
	case client.StateWaiting:
		update = ui.CallUpdate{Type: ui.UpdateWaiting}
	case client.StateOffering:
		update = ui.CallUpdate{Type: ui.UpdateNegotiating, Message: "Calling peer..."}
	case client.StateAnswering:
		update = ui.CallUpdate{Type: ui.UpdateNegotiating, Message: "Answering call..."}
	case client.StateConnected:
		update = ui.CallUpdate{Type: ui.UpdateInCall}
	case client.StateIdle:
		update = ui.CallUpdate{Type: ui.UpdatePeerLeft, Message: "Peer left the call"}
	default:
		// Disconnected and Failed surface through Run's return value.
		return
	}
	push(updates, update)
}

func pushControl(updates chan<- ui.CallUpdate, msg client.ControlMessage) {
	var update ui.CallUpdate
	switch msg.Type {
	case client.ControlTypeMute:
		var mute client.MutePayload
		if err := msg.DecodePayload(&mute); err != nil {
			return
		}
		what := "mic"
		if mute.Kind == client.MuteKindVideo {
			what = "camera"
		}
		verb := "unmuted"
		if mute.Muted {
			verb = "muted"
		}
		update = ui.CallUpdate{Type: ui.UpdatePeerMuted, Message: fmt.Sprintf("Peer %s their %s", verb, what)}
	case client.ControlTypeHangup:
		update = ui.CallUpdate{Type: ui.UpdateEnded}
	default:
		return
	}
	push(updates, update)
}
