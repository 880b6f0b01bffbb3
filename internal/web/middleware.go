package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/readstack/catalog/internal/catalog"
)

const (
	authCookieName = "auth_token"
	loginPath      = "/accounts/login/"
)

type contextKey string

const userContextKey contextKey = "user"

func contextWithUser(ctx context.Context, user *catalog.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// userFrom returns the signed-in user, or nil for anonymous requests.
func userFrom(ctx context.Context) *catalog.User {
	user, _ := ctx.Value(userContextKey).(*catalog.User)
	return user
}

// withUser resolves the session token, if any, into a user on the request
// context. Invalid or expired tokens fall through as anonymous.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := extractToken(r); token != "" {
			if user, err := h.accounts.UserFromToken(r.Context(), token); err == nil {
				r = r.WithContext(contextWithUser(r.Context(), &user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// requireUser sends anonymous visitors to the login page, preserving the
// requested URL in the next parameter.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r.Context()) == nil {
			redirectToLogin(w, r)
			return
		}
		next(w, r)
	}
}

// requirePermission guards staff pages: anonymous visitors are sent to
// login, signed-in users without the permission get a 403.
func (h *Handler) requirePermission(permission string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		if user == nil {
			redirectToLogin(w, r)
			return
		}
		if !user.HasPermission(permission) {
			http.Error(w, "403 Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, loginPath+"?next="+r.URL.RequestURI(), http.StatusFound)
}

// safeNext accepts only site-local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
