package main

import (
	"encoding/json"
	"sync"

	"github.com/bytedance/sonic"
)

// Hub fans status updates out to the websocket clients watching a session.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]map[*Client]struct{}
	broadcast chan sessionStatus
}

type Client struct {
	hub       *Hub
	sessionID string
	send      chan []byte
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type sessionStatus struct {
	sessionID string
	status    StatusResponse
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]map[*Client]struct{}),
		broadcast: make(chan sessionStatus, 32),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case update := <-h.broadcast:
			h.mu.Lock()
			watchers := h.clients[update.sessionID]
			if len(watchers) == 0 {
				h.mu.Unlock()
				continue
			}
			msg := wsMessage{Type: "status", Payload: mustMarshal(update.status)}
			for client := range watchers {
				client.sendJSON(msg)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Publish(sessionID string, status StatusResponse) {
	select {
	case h.broadcast <- sessionStatus{sessionID: sessionID, status: status}:
	default:
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	watchers, ok := h.clients[c.sessionID]
	if !ok {
		watchers = make(map[*Client]struct{})
		h.clients[c.sessionID] = watchers
	}
	watchers[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if watchers, ok := h.clients[c.sessionID]; ok {
		if _, ok := watchers[c]; ok {
			delete(watchers, c)
			close(c.send)
		}
		if len(watchers) == 0 {
			delete(h.clients, c.sessionID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) HasClients(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID]) > 0
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
