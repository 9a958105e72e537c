package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"havenpanel/paneld/internal/apps"
	"havenpanel/paneld/pkg/httpx"
)

func (h *handlers) handleAppsCatalog(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, apps.Catalog())
}

func (h *handlers) handleAppsInstalled(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, h.installed.List())
}

// handleAppsInstall is a stub: it acknowledges the request with an operation
// id the UI can display, nothing is actually installed.
func (h *handlers) handleAppsInstall(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if _, ok := apps.Catalog()[body.ID]; body.ID != "" && !ok {
		httpx.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	httpx.WriteJSON(w, map[string]any{
		"operation": uuid.NewString(),
		"message":   "Install stub (no-op)",
	})
}
