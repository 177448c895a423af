package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
)

// MessageType represents the type of stream message.
type MessageType string

const (
	MessageHello    MessageType = "hello"
	MessageDispatch MessageType = "dispatch"
)

// Message is sent to stream clients via WebSocket.
type Message struct {
	Type     MessageType         `json:"type"`
	Stores   []string            `json:"stores,omitempty"`
	Payload  *dispatcher.Payload `json:"payload,omitempty"`
	Status   string              `json:"status,omitempty"`
	Error    string              `json:"error,omitempty"`
	Duration string              `json:"duration,omitempty"`
}

const writeWait = 5 * time.Second

// Stream manages WebSocket connections that follow broadcasts.
type Stream struct {
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStream creates a stream with no clients.
func NewStream(logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and keeps the client subscribed
// until it disconnects. hello, if non-nil, is sent first.
func (s *Stream) HandleWebSocket(w http.ResponseWriter, req *http.Request, hello *Message) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Debug("devtools: upgrade failed", "error", err)
		return
	}

	writeMu := &sync.Mutex{}
	if hello != nil {
		if err := write(conn, writeMu, *hello); err != nil {
			conn.Close()
			return
		}
	}

	s.mu.Lock()
	s.clients[conn] = writeMu
	s.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.drop(conn)
}

// Publish sends msg to all connected clients. Clients that cannot be
// written to are disconnected.
func (s *Stream) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("devtools: cannot encode stream message", "error", err)
		return
	}

	s.mu.RLock()
	type client struct {
		conn *websocket.Conn
		mu   *sync.Mutex
	}
	clients := make([]client, 0, len(s.clients))
	for conn, mu := range s.clients {
		clients = append(clients, client{conn, mu})
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := writeRaw(c.conn, c.mu, data); err != nil {
			s.drop(c.conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close closes all client connections.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}

func (s *Stream) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		conn.Close()
	}
}

func write(conn *websocket.Conn, mu *sync.Mutex, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return writeRaw(conn, mu, data)
}

// writeRaw serializes writes per connection; gorilla connections allow
// one concurrent writer.
func writeRaw(conn *websocket.Conn, mu *sync.Mutex, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
