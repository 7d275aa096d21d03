package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:     "join <room>",
	Aliases: []string{"j"},
	Short:   "Join an existing room",
	Long: `Join a call that someone else is hosting.

Examples:
  kaiwa join brisk-otter-42
  kaiwa join brisk-otter-42 --relay`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := strings.TrimSpace(args[0])
		if roomID == "" {
			return fmt.Errorf("room name cannot be empty")
		}
		return runCall(roomID, false)
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	callFlags(joinCmd)
}
