package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kaiwa-dev/kaiwa/internal/ui"
	"github.com/kaiwa-dev/kaiwa/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "kaiwa",
	Short:   "Two-party video calls from the terminal using WebRTC",
	Long:    `Kaiwa sets up direct two-party calls using WebRTC technology. One side hosts a named room, the other joins it, and the signaling server only relays the handshake: once connected, media flows peer to peer.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
