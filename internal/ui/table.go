package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// SessionInfo summarizes the call setup for display before the call view
// takes over the terminal.
type SessionInfo struct {
	RoomID      string
	PeerID      string
	Role        string
	Server      string
	STUNServers []string
	TURNServers []string
	ForceRelay  bool
}

// RenderSessionInfo prints the session summary table to stdout.
func RenderSessionInfo(info SessionInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRows([]table.Row{
		{"Room", info.RoomID},
		{"Peer ID", info.PeerID},
		{"Server", info.Server},
		{"STUN", strings.Join(info.STUNServers, ", ")},
	})
	if info.Role != "" {
		t.AppendRow(table.Row{"Role", info.Role})
	}
	if len(info.TURNServers) > 0 {
		t.AppendRow(table.Row{"TURN", strings.Join(info.TURNServers, ", ")})
	}
	if info.ForceRelay {
		t.AppendRow(table.Row{"ICE policy", "relay only"})
	}
	t.Render()
}

// RoomInfo is the shareable room banner the host sees.
type RoomInfo struct {
	RoomID  string
	JoinCmd string
}

func NewRoomInfo(roomID string) *RoomInfo {
	return &RoomInfo{
		RoomID:  roomID,
		JoinCmd: fmt.Sprintf("kaiwa join %s", roomID),
	}
}

func (r *RoomInfo) View() string {
	content := fmt.Sprintf("%s Room Ready!\n\n%s Room Name:  %s\n%s Join With:  %s",
		IconSuccess,
		IconRoom, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconCopy, MutedStyle.Render(r.JoinCmd),
	)
	return RoomBoxStyle.Render(content)
}

// Render outputs the banner directly to stdout.
func (r *RoomInfo) Render() {
	fmt.Println(r.View())
}
