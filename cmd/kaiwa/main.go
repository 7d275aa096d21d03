package main

import (
	"log/slog"

	"github.com/kaiwa-dev/kaiwa/internal/cli"
	"github.com/kaiwa-dev/kaiwa/internal/logging"
)

func main() {
	// Keep the terminal clean for the call view unless LOG_LEVEL says otherwise
	logging.Init(slog.LevelError)
	cli.Execute()
}
