package web

import (
	"net"
	"net/http"

	"github.com/readstack/catalog/internal/metrics"
)

type loginPage struct {
	basePage
	Form *loginForm
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, http.StatusOK, "login", loginPage{
			basePage: h.page(r, "Login"),
			Form:     &loginForm{Next: safeNext(r.URL.Query().Get("next"))},
		})
		return
	}

	if h.loginLimiter != nil && !h.loginLimiter.Allow(clientIP(r)) {
		http.Error(w, "429 Too Many Requests", http.StatusTooManyRequests)
		return
	}

	form, password := readLoginForm(r)
	_, token, err := h.accounts.Login(r.Context(), form.Username, password)
	if err != nil {
		metrics.RecordLogin(false)
		form.Error = msgBadCredentials
		h.render(w, http.StatusOK, "login", loginPage{
			basePage: h.page(r, "Login"),
			Form:     form,
		})
		return
	}

	metrics.RecordLogin(true)
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	target := form.Next
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := extractToken(r); token != "" {
		if err := h.accounts.Logout(r.Context(), token); err != nil {
			h.log.WithError(err).Warn("logout failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
