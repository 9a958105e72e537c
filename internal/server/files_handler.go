package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"

	"havenpanel/paneld/internal/fsbox"
	"havenpanel/paneld/pkg/httpx"
)

func (h *handlers) handleListFiles(w http.ResponseWriter, r *http.Request) {
	listing, err := h.files.List(r.URL.Query().Get("path"))
	if err != nil {
		h.writeFileError(w, r, err)
		return
	}
	httpx.WriteJSON(w, listing)
}

func (h *handlers) handleMkdir(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := h.files.CreateDirectory(body.Path, body.Name)
	if err != nil {
		h.writeFileError(w, r, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true, "path": created})
}

func (h *handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	kind, err := h.files.DeleteEntry(body.Path)
	if err != nil {
		h.writeFileError(w, r, err)
		return
	}
	// deletion is immediate and irreversible, keep an audit line with the actor
	h.logger.Info().Str("user", sessionFrom(r).Username).Str("kind", kind).Msg("entry deleted")
	httpx.WriteJSON(w, map[string]any{"ok": true, "deleted": kind})
}

func (h *handlers) handleUpload(w http.ResponseWriter, r *http.Request) {
	// cap the whole request before reading any part; a little slack covers
	// multipart framing around the payload itself
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		// non-multipart or truncated body is client input, not a server fault
		httpx.WriteError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	incoming := make([]fsbox.Incoming, 0, len(r.MultipartForm.File["files"]))
	for _, fh := range r.MultipartForm.File["files"] {
		incoming = append(incoming, fsbox.Incoming{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	if len(incoming) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "No files in request")
		return
	}

	names, err := h.files.Upload(r.FormValue("path"), incoming)
	if err != nil {
		h.writeFileError(w, r, err)
		return
	}
	httpx.WriteJSON(w, map[string]any{"ok": true, "uploaded": names})
}

func (h *handlers) handleDownload(w http.ResponseWriter, r *http.Request) {
	rel := r.URL.Query().Get("path")
	f, info, err := h.files.Download(rel)
	if err != nil {
		h.writeFileError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(rel)}))
	// ServeContent streams with Content-Length and range support
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// writeFileError maps file-manager failures onto the wire contract. Sandbox
// violations are a bare access-denied; resolved paths never reach the client.
func (h *handlers) writeFileError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, fsbox.ErrPathViolation):
		httpx.WriteError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, fsbox.ErrInvalidName):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid name: must not contain path separators")
	case errors.Is(err, fsbox.ErrNotAFile):
		httpx.WriteError(w, http.StatusBadRequest, "Not a file")
	case errors.Is(err, fsbox.ErrTooLarge), errors.As(err, &maxBytes):
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "Upload too large")
	case errors.Is(err, os.ErrNotExist):
		httpx.WriteError(w, http.StatusNotFound, "Not found")
	default:
		h.internalError(w, r, err)
	}
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
}
