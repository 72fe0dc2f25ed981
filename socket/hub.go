package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"carenest/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	SnapshotType       = "SNAPSHOT"        // Full dashboard sent on join
	RecordUpdateType   = "RECORD_UPDATE"   // Dashboard after a change to the record
	PresenceUpdateType = "PRESENCE_UPDATE" // A watcher joined or left
)

type Message struct {
	Type    string          `json:"type"`
	Patient string          `json:"patient"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type WatcherStatus struct {
	UserID string    `json:"user_id"`
	Role   string    `json:"role"`
	Since  time.Time `json:"since"`
}

// SnapshotFunc returns the current dashboard of a patient, encoded as JSON.
type SnapshotFunc func(patient string) (json.RawMessage, error)

// Hub fans dashboard updates out to everyone watching a patient. Rooms are
// keyed by the patient's username.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	snapshot   SnapshotFunc
	done       chan struct{}
	mu         sync.Mutex
	Presence   map[string]map[string]WatcherStatus // patient -> userID -> status
}

type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Patient string
	UserID  string
	Role    string
	Send    chan []byte
}

func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan Message, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		snapshot:   snapshot,
		done:       make(chan struct{}),
		Presence:   make(map[string]map[string]WatcherStatus),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.Patient] == nil {
				h.Rooms[client.Patient] = make(map[*Client]bool)
				h.Presence[client.Patient] = make(map[string]WatcherStatus)
			}
			h.Rooms[client.Patient][client] = true
			h.Presence[client.Patient][client.UserID] = WatcherStatus{UserID: client.UserID, Role: client.Role, Since: time.Now()}
			h.mu.Unlock()

			// The joining client gets the full dashboard before anything else.
			if h.snapshot != nil {
				content, err := h.snapshot(client.Patient)
				if err != nil {
					logger.Sugar.Errorf("Failed to build snapshot for %s: %v", client.Patient, err)
				} else {
					payload, _ := json.Marshal(Message{Type: SnapshotType, Patient: client.Patient, Payload: content})
					client.Send <- payload
				}
			}

			h.broadcastPresenceUpdate(client.Patient)

		case client := <-h.Unregister:
			patient := client.Patient
			if h.removeClient(client) {
				h.broadcastPresenceUpdate(patient)
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			// Copy recipients so the lock is not held during sends.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.Patient]))
			for client := range h.Rooms[msg.Patient] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					logger.Sugar.Warnf("Watcher %s's send buffer is full. Unregistering.", client.UserID)
					if h.removeClient(client) {
						h.broadcastPresenceUpdate(msg.Patient)
					}
				}
			}
		}
	}
}

// Publish queues msg for delivery to the patient's room. It is a no-op once
// the hub has stopped.
func (h *Hub) Publish(msg Message) {
	select {
	case h.Broadcast <- msg:
	case <-h.done:
	}
}

// WatcherCount reports how many connections are currently open.
func (h *Hub) WatcherCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, room := range h.Rooms {
		n += len(room)
	}
	return n
}

// Watchers lists who is watching patient.
func (h *Hub) Watchers(patient string) []WatcherStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]WatcherStatus, 0, len(h.Presence[patient]))
	for _, status := range h.Presence[patient] {
		out = append(out, status)
	}
	return out
}

// removeClient must only be called from Run.
func (h *Hub) removeClient(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.Rooms[client.Patient][client]; !ok {
		return false
	}
	delete(h.Rooms[client.Patient], client)
	close(client.Send)

	stillWatching := false
	for other := range h.Rooms[client.Patient] {
		if other.UserID == client.UserID {
			stillWatching = true
			break
		}
	}
	if !stillWatching {
		delete(h.Presence[client.Patient], client.UserID)
	}

	if len(h.Rooms[client.Patient]) == 0 {
		delete(h.Rooms, client.Patient)
		delete(h.Presence, client.Patient)
		logger.Sugar.Debugf("Closed empty room: %s", client.Patient)
	}
	return true
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for patient, clients := range h.Rooms {
		for client := range clients {
			close(client.Send)
			client.Conn.Close()
		}
		delete(h.Rooms, patient)
		delete(h.Presence, patient)
	}
}

func (h *Hub) broadcastPresenceUpdate(patient string) {
	var statuses []WatcherStatus
	var clientsToSend []*Client

	h.mu.Lock()
	if _, ok := h.Presence[patient]; ok {
		statuses = make([]WatcherStatus, 0, len(h.Presence[patient]))
		for _, status := range h.Presence[patient] {
			statuses = append(statuses, status)
		}

		clientsToSend = make([]*Client, 0, len(h.Rooms[patient]))
		for client := range h.Rooms[patient] {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(statuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(Message{Type: PresenceUpdateType, Patient: patient, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- broadcastPayload:
		default:
			// The pumps will deal with unresponsive clients.
			logger.Sugar.Warnf("Watcher %s's send buffer was full during presence update.", client.UserID)
		}
	}
}
