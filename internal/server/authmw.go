package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"havenpanel/paneld/internal/auth"
	"havenpanel/paneld/internal/sessions"
	"havenpanel/paneld/pkg/httpx"
)

type ctxKey string

const ctxSession ctxKey = "session"

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return tok
	}
	return ""
}

// requireAuth resolves the bearer token and stores the session in the request
// context. Missing, unknown, and expired tokens all get the same 401.
func (h *handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.authn.Authenticate(bearerToken(r))
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxSession, sess)))
	})
}

func sessionFrom(r *http.Request) sessions.Session {
	s, _ := r.Context().Value(ctxSession).(sessions.Session)
	return s
}

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	sess, err := h.authn.Login(body.Username, body.Password)
	if err != nil {
		if err == auth.ErrInvalidCredentials {
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.internalError(w, r, err)
		return
	}
	// the frontend checks result.success before storing the token
	httpx.WriteJSON(w, map[string]any{"success": true, "token": sess.Token})
}

func (h *handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.authn.Logout(bearerToken(r))
	httpx.WriteJSON(w, map[string]any{"ok": true})
}
