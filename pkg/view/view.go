// Package view writes the JSON page model consumed by the rendering layer.
package view

import (
	"encoding/json"
	"net/http"

	"carenest/pkg/flash"
	"carenest/pkg/logger"
)

type Page struct {
	User    string          `json:"user,omitempty"`
	Role    string          `json:"role,omitempty"`
	Flashes []flash.Message `json:"flashes"`
	Data    any             `json:"data"`
}

// Render pops pending flash messages into the page and writes it as JSON.
func Render(w http.ResponseWriter, r *http.Request, status int, user, role string, data any) {
	page := Page{User: user, Role: role, Flashes: flash.Pop(w, r), Data: data}
	if page.Flashes == nil {
		page.Flashes = []flash.Message{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(page); err != nil {
		logger.Sugar.Errorf("Failed to encode page: %v", err)
	}
}
