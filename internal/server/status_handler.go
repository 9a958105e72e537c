package server

import (
	"net/http"

	"havenpanel/paneld/internal/metrics"
	"havenpanel/paneld/pkg/httpx"
)

// handleStatus returns the dashboard snapshot: current stats, host uptime,
// and the installed-app running count.
func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, map[string]any{
		"stats":  h.provider.Sample(),
		"uptime": metrics.FormatUptime(h.provider.Uptime()),
		"apps":   map[string]any{"running": h.installed.RunningCount()},
	})
}
