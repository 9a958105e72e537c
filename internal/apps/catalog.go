package apps

import (
	"encoding/json"
	"os"
)

// App describes one catalog or installed entry. Icon and color are pass-through
// hints for the UI grid.
type App struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

var catalog = []App{
	{
		ID:          "jellyfin",
		Name:        "Media Server",
		Description: "Stream movies, shows, and music.",
		Icon:        "fas fa-film",
		Color:       "from-indigo-500 to-blue-500",
	},
	{
		ID:          "nextcloud",
		Name:        "Cloud Storage",
		Description: "Your personal file cloud.",
		Icon:        "fas fa-cloud",
		Color:       "from-sky-500 to-cyan-500",
	},
	{
		ID:          "homeassistant",
		Name:        "Smart Home",
		Description: "Automate and control your devices.",
		Icon:        "fas fa-house-signal",
		Color:       "from-emerald-500 to-teal-500",
	},
}

// Catalog returns the installable-app stubs keyed by id, the shape the UI
// grid consumes.
func Catalog() map[string]App {
	out := make(map[string]App, len(catalog))
	for _, a := range catalog {
		out[a.ID] = a
	}
	return out
}

// InstalledStore reads the installed-apps record maintained by the app
// manager collaborator. This panel only reads it; install is a no-op stub.
type InstalledStore struct {
	path string
}

func NewInstalledStore(path string) *InstalledStore {
	return &InstalledStore{path: path}
}

// List returns the installed apps, or a demo list when the record is absent
// so the grid renders on a fresh install.
func (s *InstalledStore) List() []App {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return demoInstalled()
	}
	var installed []App
	if err := json.Unmarshal(b, &installed); err != nil {
		return demoInstalled()
	}
	return installed
}

// RunningCount reports how many installed apps are currently running.
func (s *InstalledStore) RunningCount() int {
	n := 0
	for _, a := range s.List() {
		if a.Status == "running" {
			n++
		}
	}
	return n
}

func demoInstalled() []App {
	return []App{
		{
			ID:          "nextcloud",
			Name:        "Nextcloud",
			Description: "Private cloud drive",
			Status:      "running",
			Icon:        "fas fa-cloud",
			Color:       "from-sky-500 to-cyan-500",
		},
		{
			ID:          "jellyfin",
			Name:        "Jellyfin",
			Description: "Media streaming server",
			Status:      "stopped",
			Icon:        "fas fa-film",
			Color:       "from-indigo-500 to-blue-500",
		},
	}
}
