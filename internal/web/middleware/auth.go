package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/csvgrid/csvgrid/internal/core"
)

// Identity authenticates requests by X-API-Key and attaches the resolved
// user id to the context. Keys are configured as "user:key" entries.
//
// With no keys configured the middleware runs open: every request acts as
// the "local" user. That mode is for development against the in-memory
// backend, not for production.
func Identity(keyEntries []string) func(http.Handler) http.Handler {
	type credential struct {
		userID string
		key    string
	}

	var creds []credential
	for _, entry := range keyEntries {
		user, key, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || user == "" || key == "" {
			slog.Warn("auth: skipping malformed API key entry, want user:key")
			continue
		}
		creds = append(creds, credential{userID: user, key: key})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(creds) == 0 {
				next.ServeHTTP(w, r.WithContext(core.ContextWithUserID(r.Context(), "local")))
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			// Compare against every key so timing does not reveal which
			// one matched.
			userID := ""
			for _, c := range creds {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(c.key)) == 1 {
					userID = c.userID
				}
			}
			if userID == "" {
				slog.Warn("auth: invalid API key",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(core.ContextWithUserID(r.Context(), userID)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
