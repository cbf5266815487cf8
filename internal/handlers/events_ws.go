package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hubgate/internal/events"
)

// EventStream pushes bus events to WebSocket clients as JSON, one
// event per message. The stream is outbound only; anything a client
// sends besides control frames is discarded.
type EventStream struct {
	bus      *events.Bus
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]chan events.Event
}

func NewEventStream(bus *events.Bus) *EventStream {
	s := &EventStream{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan events.Event),
	}

	bus.Subscribe(s.fanout)
	return s
}

func (s *EventStream) fanout(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, ch := range s.conns {
		select {
		case ch <- e:
		default:
			// Slow consumer, drop the event rather than block the bus.
			log.Printf("[WS] Event queue full for %s, dropping %s", conn.RemoteAddr(), e.Type)
		}
	}
}

// HandleConnection is the HTTP handler for GET /api/events/ws.
func (s *EventStream) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	ch := make(chan events.Event, 64)
	s.mu.Lock()
	s.conns[conn] = ch
	s.mu.Unlock()

	log.Printf("[WS] Event client connected: %s", conn.RemoteAddr())

	done := make(chan struct{})
	go s.readLoop(conn, done)
	s.writeLoop(conn, ch, done)

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()

	log.Printf("[WS] Event client disconnected: %s", conn.RemoteAddr())
}

// readLoop discards client messages and detects closed connections.
func (s *EventStream) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(4 * 1024)
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}

func (s *EventStream) writeLoop(conn *websocket.Conn, ch chan events.Event, done chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case e := <-ch:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(
				websocket.PingMessage, nil,
				time.Now().Add(10*time.Second),
			); err != nil {
				return
			}
		}
	}
}

// ActiveConnections returns the number of connected event clients.
func (s *EventStream) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// CloseAll terminates all event stream connections.
func (s *EventStream) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(5*time.Second),
		)
		conn.Close()
		delete(s.conns, conn)
	}
}
