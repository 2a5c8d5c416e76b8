// Package websocket fans newly ingested incidents out to connected
// dashboard clients.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"incident-dashboard/models"

	"github.com/apex/log"
	"github.com/gorilla/websocket"
)

// Hub manages WebSocket connections and broadcasting
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mutex            sync.RWMutex
	connectedClients int
	lastBroadcastSeq int64
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.Infof("WebSocket client connected from %s, total clients: %d", client.remoteAddr, len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.Infof("WebSocket client disconnected, total clients: %d", len(h.clients))

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
		}
	}
}

// RegisterClient wires a new connection into the hub and starts its
// read and write pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, 256),
		remoteAddr: conn.RemoteAddr().String(),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastIncidents sends a batch of incidents to all connected
// clients. Records must already be display-sanitized.
func (h *Hub) BroadcastIncidents(incidents []models.IncidentRecord) {
	if len(incidents) == 0 {
		return
	}

	batch := models.IncidentBatch{
		Incidents: incidents,
		Count:     len(incidents),
		FromSeq:   incidents[0].Seq,
		ToSeq:     incidents[len(incidents)-1].Seq,
	}
	message := models.BroadcastMessage{
		Type:      "new_incidents",
		Data:      batch,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to marshal broadcast message: %v", err)
		return
	}

	h.mutex.Lock()
	h.lastBroadcastSeq = batch.ToSeq
	h.mutex.Unlock()

	h.broadcast <- data
	log.Debugf("Broadcast %d incidents (seq %d-%d)", batch.Count, batch.FromSeq, batch.ToSeq)
}

// GetStats returns the connected client count and the last broadcast
// sequence.
func (h *Hub) GetStats() (int, int64) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.lastBroadcastSeq
}
