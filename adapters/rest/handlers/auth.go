package handlers

import (
	"log/slog"
	"net/http"

	"task-tracker/adapters/auth"
	"task-tracker/adapters/rest"
)

// RequireAuth runs the authenticator before next and answers 401 itself on
// rejection; next is never invoked in that case.
func RequireAuth(log *slog.Logger, authn auth.Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := authn.Authenticate(r)
		if err != nil {
			log.Debug("authentication rejected", "path", r.URL.Path, "error", err)
			rest.WriteErr(w, log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// Identify attaches the caller identity when a valid token is present and
// falls back to defaultActor otherwise. It never rejects.
func Identify(authn auth.Authenticator, defaultActor string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := authn.Authenticate(r)
		if err != nil {
			id = auth.Identity{Subject: defaultActor}
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func actor(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.Subject
}
