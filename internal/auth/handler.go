package handler

import (
	"errors"
	"net"
	"net/http"

	"carenest/internal/auth/model"
	"carenest/internal/auth/service"
	"carenest/middleware"
	"carenest/pkg/flash"
	"carenest/pkg/logger"
	"carenest/pkg/view"
)

type AuthHandler struct {
	Service          *service.AuthService
	RecaptchaSiteKey string
}

func NewAuthHandler(service *service.AuthService, siteKey string) *AuthHandler {
	return &AuthHandler{Service: service, RecaptchaSiteKey: siteKey}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	view.Render(w, r, http.StatusOK, "", "", model.LoginPage{RecaptchaSiteKey: h.RecaptchaSiteKey})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	req := model.LoginRequest{
		Username:     r.PostFormValue("username"),
		Password:     r.PostFormValue("password"),
		CaptchaToken: r.PostFormValue("g-recaptcha-response"),
		RemoteIP:     remoteIP(r),
	}

	user, token, err := h.Service.Login(r.Context(), req)
	switch {
	case errors.Is(err, model.ErrCaptchaFailed):
		flash.Add(w, r, flash.Danger, "CAPTCHA verification failed. Please try again.")
		h.renderLogin(w, r, http.StatusBadRequest)
		return
	case errors.Is(err, model.ErrInvalidCredentials):
		flash.Add(w, r, flash.Danger, "Invalid username or password.")
		h.renderLogin(w, r, http.StatusUnauthorized)
		return
	case err != nil:
		logger.Sugar.Errorf("Handler: login failed: %v", err)
		http.Error(w, "Login is unavailable right now", http.StatusInternalServerError)
		return
	}

	middleware.SetSession(w, token, int(h.Service.Tokens.TTL().Seconds()))
	flash.Add(w, r, flash.Success, "Welcome, "+user.Username+"!")
	http.Redirect(w, r, model.HomePath(user.Role), http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSession(w)
	flash.Add(w, r, flash.Info, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Home sends a logged-in user to the landing page of their role.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, model.HomePath(user.Role), http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int) {
	view.Render(w, r, status, "", "", model.LoginPage{RecaptchaSiteKey: h.RecaptchaSiteKey})
}

// remoteIP expects chi's RealIP middleware to have normalised RemoteAddr.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
