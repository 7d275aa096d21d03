package cli

import (
	"github.com/spf13/cobra"
)

var hostCmd = &cobra.Command{
	Use:     "host",
	Aliases: []string{"h"},
	Short:   "Host a call in a new room",
	Long: `Host a call: creates a memorable room name, waits for the other party,
and negotiates a direct WebRTC connection when they join.

Examples:
  kaiwa host
  kaiwa host --server wss://kaiwa.example.com/ws
  kaiwa host --relay --turn turn:turn.example.com -u alice -p secret`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := NewRoomName()
		if err != nil {
			return err
		}
		return runCall(roomID, true)
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
	callFlags(hostCmd)
}
