package handlers

import (
	"net/http"
	"net/url"
)

// One-shot flash messages carried between redirects in a pair of cookies.

const (
	flashCookieName     = "flash"
	flashTypeCookieName = "flash_type"
	flashTypeError      = "error"
	flashTypeSuccess    = "success"
)

func setFlashError(w http.ResponseWriter, message string, secure bool) {
	setFlash(w, message, flashTypeError, secure)
}

func setFlashSuccess(w http.ResponseWriter, message string, secure bool) {
	setFlash(w, message, flashTypeSuccess, secure)
}

func setFlash(w http.ResponseWriter, message, flashType string, secure bool) {
	if message == "" {
		return
	}
	http.SetCookie(w, flashCookie(flashCookieName, url.QueryEscape(message), secure))
	http.SetCookie(w, flashCookie(flashTypeCookieName, flashType, secure))
}

// consumeFlash returns the pending flash message and its type, clearing the
// cookies so the message shows exactly once.
func consumeFlash(w http.ResponseWriter, r *http.Request, secure bool) (string, string) {
	msgCookie, err := r.Cookie(flashCookieName)
	if err != nil || msgCookie.Value == "" {
		return "", ""
	}

	message, err := url.QueryUnescape(msgCookie.Value)
	if err != nil {
		message = msgCookie.Value
	}

	flashType := flashTypeError
	if typeCookie, err := r.Cookie(flashTypeCookieName); err == nil && typeCookie.Value == flashTypeSuccess {
		flashType = flashTypeSuccess
	}

	expired := func(name string) *http.Cookie {
		c := flashCookie(name, "", secure)
		c.MaxAge = -1
		return c
	}
	http.SetCookie(w, expired(flashCookieName))
	http.SetCookie(w, expired(flashTypeCookieName))

	return message, flashType
}

func flashCookie(name, value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
