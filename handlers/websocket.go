package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards connect from arbitrary origins.
		return true
	},
}

// ListenIncidents upgrades the connection and attaches it to the hub.
// New incidents arrive as they clear the broadcast cursor.
func (h *Handlers) ListenIncidents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade websocket connection: %v", err)
		return
	}

	log.Infof("WebSocket client connected from %s", conn.RemoteAddr())
	h.hub.RegisterClient(conn)
}
