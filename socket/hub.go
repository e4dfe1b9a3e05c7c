package socket

import (
	"encoding/json"

	"notevault/pkg/logger"
)

const (
	EventNoteCreated  = "NOTE_CREATED"
	EventNoteUpdated  = "NOTE_UPDATED"
	EventNoteDeleted  = "NOTE_DELETED"
	EventNoteReverted = "NOTE_REVERTED"
)

// Event describes a committed note mutation. It is routed to every live
// connection of the owning user; other users never see it.
type Event struct {
	Type    string `json:"type"`
	OwnerID string `json:"-"`
	NoteID  string `json:"note_id"`
	Version int    `json:"version,omitempty"`
}

// Hub fans committed note events out to the owner's websocket connections.
// Delivery is best-effort: a slow client gets dropped, and a full broadcast
// queue discards the event rather than block the mutation path.
type Hub struct {
	owners     map[string]map[*Client]bool
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		owners:     make(map[string]map[*Client]bool),
		Broadcast:  make(chan Event, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Publish enqueues an event without ever blocking the caller.
func (h *Hub) Publish(evt Event) {
	select {
	case h.Broadcast <- evt:
	default:
		logger.Sugar.Warnf("Event queue full, dropping %s for note %s", evt.Type, evt.NoteID)
	}
}

// Run is the hub's event loop. It is the only goroutine touching the owner
// map, so no lock is needed.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.owners[client.OwnerID] == nil {
				h.owners[client.OwnerID] = make(map[*Client]bool)
			}
			h.owners[client.OwnerID][client] = true

		case client := <-h.Unregister:
			if clients, ok := h.owners[client.OwnerID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.owners, client.OwnerID)
					}
				}
			}

		case evt := <-h.Broadcast:
			payload, err := json.Marshal(evt)
			if err != nil {
				logger.Sugar.Errorf("Failed to encode event for note %s: %v", evt.NoteID, err)
				continue
			}
			for client := range h.owners[evt.OwnerID] {
				select {
				case client.Send <- payload:
				default:
					// Client can't keep up; drop it instead of stalling the loop.
					delete(h.owners[evt.OwnerID], client)
					close(client.Send)
				}
			}
		}
	}
}
