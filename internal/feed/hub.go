// Package feed streams table announcements to websocket spectators.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"blackjackbot/internal/game"
)

const sendBuffer = 64

type Event struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	At       time.Time      `json:"at"`
}

// Client is one connected spectator.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// Hub tracks spectators and fans announcements out to them. A spectator
// that falls behind loses messages rather than slowing the table.
type Hub struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
	log        logrus.FieldLogger
	done       chan struct{}
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		log:        log,
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for id, c := range h.clients {
				delete(h.clients, id)
				close(c.Send)
			}
			h.mutex.Unlock()
			return
		case c := <-h.Register:
			h.mutex.Lock()
			h.clients[c.ID] = c
			h.mutex.Unlock()
			h.log.WithField("client", c.ID).Info("spectator joined")
		case c := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c.ID]; ok {
				delete(h.clients, c.ID)
				close(c.Send)
			}
			h.mutex.Unlock()
			h.log.WithField("client", c.ID).Info("spectator left")
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Announce implements game.Announcer.
func (h *Hub) Announce(text string) {
	h.Broadcast(Event{Type: "announce", Text: text, At: time.Now()})
}

func (h *Hub) Broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("failed to encode event")
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			h.log.WithField("client", c.ID).Warn("spectator is behind, message dropped")
		}
	}
}
