package handlers

import (
	"net/http"
	"time"

	"github.com/threadline-io/threadline/internal/auth"
	"github.com/threadline-io/threadline/internal/web/render"
)

// AuthHandler handles HTTP requests for admin authentication routes.
type AuthHandler struct {
	auth          *auth.Service
	render        *render.Renderer
	secureCookies bool
}

func NewAuthHandler(authService *auth.Service, renderer *render.Renderer, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          authService,
		render:        renderer,
		secureCookies: secureCookies,
	}
}

// ShowLogin renders the login page.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	flash, flashType := consumeFlash(w, r, h.secureCookies)
	h.render.Render(w, r, "login.html", map[string]interface{}{
		"Flash":     flash,
		"FlashType": flashType,
	})
}

// HandleLogin processes the login form submission.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlashError(w, "Invalid form data.", h.secureCookies)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	session, err := h.auth.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		setFlashError(w, "Invalid email or password.", h.secureCookies)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowSignup renders the signup page.
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	flash, flashType := consumeFlash(w, r, h.secureCookies)
	h.render.Render(w, r, "signup.html", map[string]interface{}{
		"Flash":     flash,
		"FlashType": flashType,
	})
}

// HandleSignup processes the signup form submission.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		setFlashError(w, "Invalid form data.", h.secureCookies)
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if password != r.FormValue("password_confirm") {
		setFlashError(w, "Passwords do not match.", h.secureCookies)
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	if _, err := h.auth.Signup(r.Context(), email, password); err != nil {
		setFlashError(w, err.Error(), h.secureCookies)
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	// Auto-login after successful signup.
	session, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		setFlashSuccess(w, "Account created. Please log in.", h.secureCookies)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout deletes the current session and clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session_token"); err == nil && cookie.Value != "" {
		_ = h.auth.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
