// Package websocket broadcasts group activity (new check-ins, votes,
// approvals, plant progress) to connected members so open sessions refresh
// without polling.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Manager struct {
	clients    map[*Client]bool
	broadcast  chan groupMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	groups  map[string]bool
	send    chan []byte
	manager *Manager
}

type groupMessage struct {
	groupID string
	data    []byte
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan groupMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client] = true
			m.mu.Unlock()
			log.Printf("WebSocket client registered (user %s). Total clients: %d", client.userID, m.GetConnectedUsers())

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			m.mu.Unlock()
			log.Printf("WebSocket client unregistered (user %s). Total clients: %d", client.userID, m.GetConnectedUsers())

		case message := <-m.broadcast:
			m.mu.Lock()
			for client := range m.clients {
				if !client.groups[message.groupID] {
					continue
				}
				select {
				case client.send <- message.data:
				default:
					close(client.send)
					delete(m.clients, client)
				}
			}
			m.mu.Unlock()
		}
	}
}

// BroadcastGroupEvent sends a typed event to every connected member of the
// group.
func (m *Manager) BroadcastGroupEvent(groupID, eventType string, payload map[string]interface{}) {
	data := map[string]interface{}{
		"type":    eventType,
		"groupId": groupID,
		"payload": payload,
	}

	msg, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling WebSocket event: %v", err)
		return
	}

	m.broadcast <- groupMessage{groupID: groupID, data: msg}
}

func (m *Manager) GetConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS upgrades an already-authenticated request. The caller resolves the
// user and their group memberships before handing the connection over.
func ServeWS(manager *Manager, w http.ResponseWriter, r *http.Request, userID string, groupIDs []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	groups := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		groups[id] = true
	}

	client := &Client{
		conn:    conn,
		userID:  userID,
		groups:  groups,
		send:    make(chan []byte, 256),
		manager: manager,
	}

	manager.register <- client

	welcomeMsg := map[string]interface{}{
		"type": "connected",
		"payload": map[string]interface{}{
			"userId": userID,
			"groups": groupIDs,
			"time":   time.Now().Unix(),
		},
	}
	msg, _ := json.Marshal(welcomeMsg)
	client.send <- msg

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			log.Printf("WebSocket message unmarshal error: %v", err)
			continue
		}

		// Clients only send pings; everything else flows server -> client.
		if data["type"] == "ping" {
			c.sendPong()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendPong() {
	msg, _ := json.Marshal(map[string]interface{}{
		"type": "pong",
		"payload": map[string]interface{}{
			"time": time.Now().Unix(),
		},
	})
	select {
	case c.send <- msg:
	default:
	}
}
