// Package flash carries one-shot user-visible messages across a redirect in
// a short-lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const CookieName = "carenest_flash"

type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Danger  Level = "danger"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Add queues a message for the next page the browser loads. Messages already
// pending on the request are kept.
func Add(w http.ResponseWriter, r *http.Request, level Level, text string) {
	msgs := append(read(r), Message{Level: level, Text: text})
	raw, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	// Later Adds in the same request must see this one.
	r.AddCookie(&http.Cookie{Name: CookieName, Value: encoded})
}

// Pop returns the pending messages and clears the cookie.
func Pop(w http.ResponseWriter, r *http.Request) []Message {
	msgs := read(r)
	if len(msgs) > 0 {
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	}
	return msgs
}

func read(r *http.Request) []Message {
	var msgs []Message
	cookies := r.CookiesNamed(CookieName)
	if len(cookies) == 0 {
		return msgs
	}
	// The most recent cookie holds the full list.
	raw, err := base64.RawURLEncoding.DecodeString(cookies[len(cookies)-1].Value)
	if err != nil {
		return msgs
	}
	_ = json.Unmarshal(raw, &msgs)
	return msgs
}
