package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/exposuregraph/exposuregraph/internal/adapters/web/middleware"
	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/graph"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow same-origin (no Origin header)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost:8480",
			"http://127.0.0.1:8480",
			"http://[::1]:8480",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: Rejected origin: %s", origin)
		return false
	},
}

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type logEvent struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

type progressEvent struct {
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// WSManager pushes graph snapshots and scan events to connected
// dashboard clients. It implements ports.EventSink; publishing never
// blocks the scan pipeline, events are dropped when the queue is full.
type WSManager struct {
	builder *graph.Builder
	clients map[*websocket.Conn]*domain.User
	events  chan WSMessage
	mu      sync.Mutex
}

func NewWSManager(builder *graph.Builder) *WSManager {
	return &WSManager{
		builder: builder,
		clients: make(map[*websocket.Conn]*domain.User),
		events:  make(chan WSMessage, 256),
	}
}

func (m *WSManager) Start(ctx context.Context) {
	go m.broadcastLoop(ctx)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Extract user from context (set by AuthMiddleware)
	user, ok := r.Context().Value(middleware.UserContextKey).(*domain.User)
	if !ok || user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = user
	m.mu.Unlock()

	log.Printf("WebSocket connected: user=%s, role=%s", user.Username, user.Role)

	// Clean up on disconnect
	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			log.Printf("WebSocket disconnected: user=%s", user.Username)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// PublishLog implements ports.EventSink.
func (m *WSManager) PublishLog(message, level string) {
	select {
	case m.events <- WSMessage{Type: "log", Payload: logEvent{Message: message, Level: level}}:
	default:
	}
}

// PublishProgress implements ports.EventSink.
func (m *WSManager) PublishProgress(phase string, percent int, message string) {
	select {
	case m.events <- WSMessage{Type: "progress", Payload: progressEvent{Phase: phase, Percent: percent, Message: message}}:
	default:
	}
}

// broadcastLoop mixes queued scan events with a periodic graph sweep.
func (m *WSManager) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-m.events:
			m.broadcast(msg)
		case <-ticker.C:
			m.broadcastGraph(ctx)
		}
	}
}

func (m *WSManager) broadcastGraph(ctx context.Context) {
	if !m.hasClients() {
		return
	}
	data, err := m.builder.BuildGraph(ctx)
	if err != nil {
		log.Printf("WebSocket: failed to build graph snapshot: %v", err)
		return
	}
	m.broadcast(WSMessage{Type: "graph", Payload: data})
}

func (m *WSManager) hasClients() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients) > 0
}

func (m *WSManager) broadcast(msg WSMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("WebSocket write error, dropping client: %v", err)
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

var _ ports.EventSink = (*WSManager)(nil)
