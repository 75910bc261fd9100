package services

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin filtering happens in the CORS middleware
	},
}

// WSMessage is the envelope pushed to spectators.
type WSMessage struct {
	Event    string      `json:"event"`
	SeasonID string      `json:"season_id,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// Client is one spectator connection, subscribed to a single season.
type Client struct {
	SeasonID string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *WebSocketHub
}

// WebSocketHub fans simulation events out to spectators. Clients subscribe
// to a season; week results, poll releases and bracket updates are pushed
// as they happen.
type WebSocketHub struct {
	clients       map[*Client]bool
	seasonClients map[string][]*Client
	broadcast     chan []byte
	register      chan *Client
	unregister    chan *Client
	logger        *logrus.Logger
	mutex         sync.RWMutex
}

func NewWebSocketHub(logger *logrus.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:       make(map[*Client]bool),
		seasonClients: make(map[string][]*Client),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		logger:        logger,
	}
}

// Run starts the hub and handles client registration/unregistration.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.seasonClients[client.SeasonID] = append(h.seasonClients[client.SeasonID], client)
			h.mutex.Unlock()

			h.logger.WithFields(logrus.Fields{
				"season_id":     client.SeasonID,
				"total_clients": len(h.clients),
			}).Info("WebSocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)

				watchers := h.seasonClients[client.SeasonID]
				for i, c := range watchers {
					if c == client {
						h.seasonClients[client.SeasonID] = append(watchers[:i], watchers[i+1:]...)
						break
					}
				}
				if len(h.seasonClients[client.SeasonID]) == 0 {
					delete(h.seasonClients, client.SeasonID)
				}
			}
			h.mutex.Unlock()

			h.logger.WithFields(logrus.Fields{
				"season_id":     client.SeasonID,
				"total_clients": len(h.clients),
			}).Info("WebSocket client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// HandleWebSocket upgrades a spectator connection for one season.
func (h *WebSocketHub) HandleWebSocket(c *gin.Context) {
	seasonID := c.Param("id")
	if seasonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Season ID required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		SeasonID: seasonID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      h,
	}

	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastToSeason pushes an event to every spectator of one season.
func (h *WebSocketHub) BroadcastToSeason(seasonID, event string, payload interface{}) {
	data, err := json.Marshal(WSMessage{Event: event, SeasonID: seasonID, Payload: payload})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal WebSocket message")
		return
	}

	// Send while holding the lock: unregister closes Send channels under the
	// write lock, so a snapshot released before sending could send on a
	// closed channel.
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for _, client := range h.seasonClients[seasonID] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// BroadcastToAll pushes an event to every connected spectator.
func (h *WebSocketHub) BroadcastToAll(event string, payload interface{}) {
	data, err := json.Marshal(WSMessage{Event: event, Payload: payload})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal WebSocket message")
		return
	}

	h.broadcast <- data
}

// ConnectionCount returns the total number of active connections.
func (h *WebSocketHub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// readPump drains inbound frames until the spectator disconnects.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.WithError(err).Error("WebSocket error")
			}
			break
		}
	}
}

// writePump pumps hub messages to the spectator connection.
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.Hub.logger.WithError(err).Error("Failed to write WebSocket message")
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
