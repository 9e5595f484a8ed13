package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"docforge/internal/auth"
)

// Message is the standard envelope exchanged over a quiz room socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins. Adjust this in production!
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub keeps one room per quiz share code and fans events out to everyone
// watching that quiz.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	shareCode string
	userID    uint
	done      chan struct{}
}

// Run owns the room membership maps; all joins and leaves flow through here.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.shareCode]; !ok {
				h.rooms[client.shareCode] = make(map[*Client]bool)
			}
			h.rooms[client.shareCode][client] = true
			count := len(h.rooms[client.shareCode])
			h.mu.Unlock()
			log.Printf("Client joined room %s (%d connected)", client.shareCode, count)
			go h.BroadcastMessage(client.shareCode, "viewer_count", map[string]int{"count": count})

		case client := <-h.unregister:
			h.mu.Lock()
			room, ok := h.rooms[client.shareCode]
			if ok {
				if _, present := room[client]; present {
					delete(room, client)
					// send is never closed: a broadcast may still hold a
					// reference to this client. writePump exits via done.
					close(client.done)
				}
				if len(room) == 0 {
					delete(h.rooms, client.shareCode)
				}
			}
			count := len(room)
			h.mu.Unlock()
			if ok {
				log.Printf("Client left room %s (%d connected)", client.shareCode, count)
				go h.BroadcastMessage(client.shareCode, "viewer_count", map[string]int{"count": count})
			}
		}
	}
}

// BroadcastMessage marshals an event and queues it to every client in the
// quiz room. Slow clients are dropped rather than blocking the room.
func (h *Hub) BroadcastMessage(shareCode, messageType string, data interface{}) {
	shareCode = strings.ToUpper(shareCode)

	msg := Message{Type: messageType, Data: data}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", messageType, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[shareCode]))
	for client := range h.rooms[shareCode] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			h.unregister <- client
		}
	}
}

// HandleWebSocket upgrades the connection into the quiz room named in the
// path. The request has already passed JWT auth (token query fallback).
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	shareCode := strings.ToUpper(mux.Vars(r)["shareCode"])
	if shareCode == "" {
		http.Error(w, "Missing share code", http.StatusBadRequest)
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		shareCode: shareCode,
		userID:    userID,
		done:      make(chan struct{}),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains inbound frames; the socket is server-push only, so inbound
// payloads are ignored beyond keeping the connection alive.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close on room %s: %v", c.shareCode, err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Error writing to room %s: %v", c.shareCode, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
