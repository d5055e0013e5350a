package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Hermela440/game/pkg/logger"
)

type CloseReason string

const (
	ReasonWriteError CloseReason = "write_error"
	ReasonPingError  CloseReason = "ping_error"
	ReasonReadError  CloseReason = "read_error"
	ReasonReplaced   CloseReason = "replaced_by_new_connection"
	ReasonShutdown   CloseReason = "server_shutdown"
	ReasonBufferFull CloseReason = "buffer_full"
	ReasonTimeout    CloseReason = "timeout"
)

const (
	pingPeriod   = 54 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 30 * time.Second
	sendBuffer   = 1024
	maxFrameSize = 4096
)

// Connection is one authenticated WebSocket client
type Connection struct {
	UserID    int64
	Conn      *websocket.Conn
	Send      chan []byte
	manager   *Manager
	closeOnce sync.Once
}

// Manager tracks connections and their channel subscriptions. Games and
// matches broadcast to a channel; only subscribers receive the events.
type Manager struct {
	mu         sync.RWMutex
	clients    map[int64]*Connection
	channels   map[string]map[int64]*Connection
	register   chan *Connection
	unregister chan *Connection
}

// NewManager creates an empty connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[int64]*Connection),
		channels:   make(map[string]map[int64]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
	}
}

// Register hands a fresh connection to the manager loop
func (m *Manager) Register(conn *websocket.Conn, userID int64) *Connection {
	c := &Connection{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		manager: m,
	}
	m.register <- c
	return c
}

// Run starts the manager loop. Call once, in its own goroutine.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			// One connection per user; a reconnect evicts the old one
			if old, ok := m.clients[client.UserID]; ok {
				old.CloseWithReason(ReasonReplaced, nil)
				m.dropLocked(old)
			}
			m.clients[client.UserID] = client
			m.mu.Unlock()

		case client := <-m.unregister:
			m.mu.Lock()
			if current, ok := m.clients[client.UserID]; ok && current == client {
				m.dropLocked(client)
				client.CloseWithReason(ReasonShutdown, nil)
			}
			m.mu.Unlock()
		}
	}
}

// dropLocked removes the client from the user table and every channel.
// Caller holds the write lock.
func (m *Manager) dropLocked(c *Connection) {
	delete(m.clients, c.UserID)
	for name, subs := range m.channels {
		delete(subs, c.UserID)
		if len(subs) == 0 {
			delete(m.channels, name)
		}
	}
}

// Subscribe adds the user's connection to a channel
func (m *Manager) Subscribe(channel string, userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[userID]
	if !ok {
		return false
	}
	subs, ok := m.channels[channel]
	if !ok {
		subs = make(map[int64]*Connection)
		m.channels[channel] = subs
	}
	subs[userID] = client
	return true
}

// Unsubscribe removes the user from a channel
func (m *Manager) Unsubscribe(channel string, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if subs, ok := m.channels[channel]; ok {
		delete(subs, userID)
		if len(subs) == 0 {
			delete(m.channels, channel)
		}
	}
}

// Broadcast sends a message to every subscriber of the channel
func (m *Manager) Broadcast(channel string, message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.channels[channel] {
		select {
		case client.Send <- message:
		default:
			// Slow consumer; dropping beats blocking the broadcaster.
			// Cleanup happens through the unregister path.
			client.CloseWithReason(ReasonBufferFull, nil)
		}
	}
}

// SendToUser sends a message to one user, waiting briefly on a full buffer
func (m *Manager) SendToUser(userID int64, message []byte) bool {
	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case client.Send <- message:
		return true
	default:
	}

	select {
	case client.Send <- message:
		return true
	case <-time.After(5 * time.Second):
		client.CloseWithReason(ReasonTimeout, nil)
		return false
	}
}

// Shutdown closes every connection
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.CloseWithReason(ReasonShutdown, nil)
	}
	m.clients = make(map[int64]*Connection)
	m.channels = make(map[string]map[int64]*Connection)
}

// CloseWithReason closes the underlying connection exactly once
func (c *Connection) CloseWithReason(r CloseReason, err error) {
	c.closeOnce.Do(func() {
		logger.Info(context.Background()).
			Int64("user_id", c.UserID).
			Str("reason", string(r)).
			Err(err).
			Msg("ws connection closed")
		c.Conn.Close()
	})
}

// WritePump drains the send buffer onto the wire and keeps the
// connection alive with pings. Run in its own goroutine per connection.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.CloseWithReason(ReasonPingError, err)
				return
			}
		}
	}
}

// ReadPump reads client frames and forwards them to handleMessage.
// Returns when the connection drops, unregistering the client.
func (c *Connection) ReadPump(handleMessage func(int64, []byte)) {
	var readErr error
	defer func() {
		c.manager.unregister <- c
		c.CloseWithReason(ReasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				readErr = err
			}
			break
		}
		handleMessage(c.UserID, message)
	}
}
