package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"carenest/internal/auth/model"
	"carenest/pkg/flash"
	"carenest/pkg/logger"
)

type contextKey string

const (
	UserKey           contextKey = "user"
	SessionCookieName            = "carenest_session"
)

type TokenParser interface {
	Parse(token string) (model.User, error)
}

// AuthMiddleware resolves the session into a model.User on the request
// context. Browsers without a session are sent to the login page; API and
// WebSocket callers get a 401.
func AuthMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				deny(w, r, "Please log in to continue.")
				return
			}

			user, err := tokens.Parse(tokenString)
			if err != nil {
				logger.Sugar.Debugf("Rejected session: %v", err)
				ClearSession(w)
				deny(w, r, "Your session has expired. Please log in again.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole lets the request through only when the current user holds one
// of roles. It must be mounted after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !slices.Contains(roles, user.Role) {
				logger.Sugar.Warnf("Permission Denied: User %s (Role: %s) requested %s", user.Username, user.Role, r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func CurrentUser(r *http.Request) (model.User, bool) {
	user, ok := r.Context().Value(UserKey).(model.User)
	return user, ok
}

// SetSession stores token in the session cookie.
func SetSession(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// The browser WebSocket API cannot set headers.
	return r.URL.Query().Get("token")
}

func deny(w http.ResponseWriter, r *http.Request, message string) {
	if wantsRedirect(r) {
		flash.Add(w, r, flash.Warning, message)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

func wantsRedirect(r *http.Request) bool {
	if r.Header.Get("Authorization") != "" || strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	return !strings.Contains(r.Header.Get("Accept"), "application/json")
}
