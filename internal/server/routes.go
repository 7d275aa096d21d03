package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gorilla/websocket"

	"github.com/kaiwa-dev/kaiwa/internal/metrics"
	"github.com/kaiwa-dev/kaiwa/internal/signaling"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,

	// Any origin may connect; the relay carries no credentials and holds
	// no durable state.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Health is the liveness endpoint; it reports a static OK.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Counters returns a handler that dumps the counter registry as one
// "name value" line per counter.
func Counters(reg *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := reg.Snapshot()
		names := make([]string, 0, len(snap))
		for name := range snap {
			names = append(names, name)
		}
		sort.Strings(names)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, name := range names {
			fmt.Fprintf(w, "%s %d\n", name, snap[name])
		}
	}
}

// ServeWs returns the handler that upgrades connections and hands them to
// the hub.
func ServeWs(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}

		signaling.NewClient(hub, conn).Register()
	}
}
