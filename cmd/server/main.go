package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/kaiwa-dev/kaiwa/internal/config"
	"github.com/kaiwa-dev/kaiwa/internal/logging"
	"github.com/kaiwa-dev/kaiwa/internal/metrics"
	"github.com/kaiwa-dev/kaiwa/internal/server"
	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

func main() {
	logging.Init(slog.LevelInfo)

	cfg := config.LoadServer()

	reg := metrics.New()
	hub := signaling.NewHub(slog.Default(), reg)
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.Health)
	mux.HandleFunc("/metrics", server.Counters(reg))
	mux.HandleFunc("/ws", server.ServeWs(hub))

	slog.Info("signaling server listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
