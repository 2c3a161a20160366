package control

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/shaderplay/shaderplay/events"
)

// message is one inbound control operation.
type message struct {
	Op     string          `json:"op"`
	Shader string          `json:"shader,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
}

// notification is the outbound mirror of a bus event.
type notification struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// Server exposes the control surface over a WebSocket endpoint and
// broadcasts error events to every connected client.
type Server struct {
	surface  *Surface
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewServer returns a Server forwarding operations into surface and
// subscribing to bus for outbound events.
func NewServer(surface *Surface, bus *events.Bus) *Server {
	s := &Server{
		surface: surface,
		conns:   make(map[*websocket.Conn]struct{}),
	}
	bus.Subscribe(s.broadcast)
	return s
}

// ServeHTTP upgrades the connection and services control messages
// until the client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("control upgrade failed: %v", err)
		return
	}
	s.track(conn)
	defer s.drop(conn)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handle(payload)
	}
}

// ListenAndServe serves the control endpoint at /control on addr.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/control", s)
	log.Printf("control surface listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handle(payload []byte) {
	var msg message
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.surface.bus.ReportError("unknown control message format: %v", err)
		return
	}
	switch msg.Op {
	case "set_shader":
		s.surface.SetShader(msg.Shader)
	case "update_player_state":
		s.surface.UpdatePlayerState(msg.State)
	case "play":
		s.surface.Play()
	case "stop":
		s.surface.Stop()
	default:
		s.surface.bus.ReportError("unknown control op %q", msg.Op)
	}
}

func (s *Server) track(conn *websocket.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// broadcast relays a bus event to every connected client. Writes are
// serialized under the connection lock; a failed client is evicted.
func (s *Server) broadcast(ev events.Event) {
	payload, err := json.Marshal(notification{Event: ev.Name, Message: ev.Message})
	if err != nil {
		log.Printf("failed to encode event %q: %v", ev.Name, err)
		return
	}
	var failed []*websocket.Conn
	s.mu.Lock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(s.conns, conn)
			failed = append(failed, conn)
		}
	}
	s.mu.Unlock()
	for _, conn := range failed {
		conn.Close()
	}
}
