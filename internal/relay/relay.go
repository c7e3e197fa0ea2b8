// Package relay is a small room server for LAN sessions and development.
// It relays chat frames between the members of a room and keeps each
// room's log in memory to serve history. Nothing is persisted.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"SketchBoard/internal/auth"
	"SketchBoard/internal/state"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

type member struct {
	id   string
	user string
	conn *websocket.Conn
	send chan []byte
	room string
}

type room struct {
	members map[*member]bool
	log     []string
}

// Server holds the rooms. The zero value is not usable; call New.
type Server struct {
	rooms map[string]*room
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	// Now is the clock used for token expiry.
	Now func() time.Time
}

func New() *Server {
	return &Server{
		rooms: make(map[string]*room),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		Now: time.Now,
	}
}

// Router exposes GET /ws, GET /chats/{roomId} and GET /healthz.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/chats/{roomId}", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Printf("[RELAY] Listening on %s", ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Log returns a copy of a room's payloads in arrival order.
func (s *Server) Log(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rooms[roomID]; ok {
		return append([]string(nil), r.log...)
	}
	return []string{}
}

// Members counts the connections joined to a room.
func (s *Server) Members(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rooms[roomID]; ok {
		return len(r.members)
	}
	return 0
}

// Users lists who is in a room, by token subject, sorted. Guests and tokens
// without a subject show as "guest".
func (s *Server) Users(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	return r.users()
}

func (r *room) users() []string {
	users := make([]string, 0, len(r.members))
	for m := range r.members {
		users = append(users, m.user)
	}
	sort.Strings(users)
	return users
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if tok := bearer(r); tok != "" && !auth.Valid(tok, s.Now()) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	hist := state.History{Messages: []state.HistoryEntry{}}
	for _, p := range s.Log(roomID) {
		hist.Messages = append(hist.Messages, state.HistoryEntry{Message: p})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(hist); err != nil {
		log.Printf("[RELAY] Writing history for %s: %v", roomID, err)
	}
}

func bearer(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	guest := r.URL.Query().Get("guest") == "true"

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[RELAY] Upgrade failed: %v", err)
		return
	}

	if !guest {
		if err := auth.Check(tok, s.Now()); err != nil {
			log.Printf("[RELAY] Rejecting %s: %v", r.RemoteAddr, err)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"), time.Now().Add(writeWait))
			conn.Close()
			return
		}
	}

	user := "guest"
	if !guest {
		if sub := auth.Subject(tok); sub != "" {
			user = sub
		}
	}
	m := &member{id: uuid.NewString(), user: user, conn: conn, send: make(chan []byte, sendBuffer)}
	log.Printf("[RELAY] Connection %s (%s) from %s", m.id, m.user, r.RemoteAddr)
	go s.writePump(m)
	s.readPump(m)
}

func (s *Server) join(m *member, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.room != "" {
		s.leaveLocked(m)
	}
	rm, ok := s.rooms[roomID]
	if !ok {
		rm = &room{members: make(map[*member]bool)}
		s.rooms[roomID] = rm
	}
	rm.members[m] = true
	m.room = roomID
	log.Printf("[RELAY] %s joined %s as %s (members: %s)", m.id, roomID, m.user, strings.Join(rm.users(), ", "))
}

func (s *Server) leave(m *member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveLocked(m)
	close(m.send)
}

func (s *Server) leaveLocked(m *member) {
	rm, ok := s.rooms[m.room]
	if !ok {
		return
	}
	delete(rm.members, m)
	log.Printf("[RELAY] %s left %s (%d members)", m.id, m.room, len(rm.members))
	m.room = ""
}

// relay appends payload to the sender's room log and forwards the frame to
// every other member.
func (s *Server) relay(from *member, payload string) {
	frame, err := json.Marshal(state.ChatEnvelope(from.room, payload))
	if err != nil {
		log.Printf("[RELAY] Encoding frame: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[from.room]
	if !ok {
		return
	}
	rm.log = append(rm.log, payload)
	for m := range rm.members {
		if m == from {
			continue
		}
		select {
		case m.send <- frame:
		default:
			log.Printf("[RELAY] %s is not keeping up, dropping a frame", m.id)
		}
	}
}

func (s *Server) closeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rm := range s.rooms {
		for m := range rm.members {
			m.conn.Close()
		}
	}
}

func (s *Server) readPump(m *member) {
	defer func() {
		s.leave(m)
		m.conn.Close()
	}()

	m.conn.SetReadDeadline(time.Now().Add(pongWait))
	m.conn.SetPongHandler(func(string) error {
		m.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[RELAY] %s: %v", m.id, err)
			}
			return
		}

		var env state.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[RELAY] %s sent a malformed frame: %v", m.id, err)
			continue
		}

		switch env.Type {
		case state.TypeJoinRoom:
			if env.RoomID == "" {
				continue
			}
			s.join(m, env.RoomID)
		case state.TypeChat:
			if m.room == "" || env.RoomID != m.room {
				log.Printf("[RELAY] %s sent chat for %q outside its room", m.id, env.RoomID)
				continue
			}
			if _, err := state.DecodePayload(env.Message); err != nil {
				log.Printf("[RELAY] %s: dropping payload: %v", m.id, err)
				continue
			}
			s.relay(m, env.Message)
		default:
			log.Printf("[RELAY] %s: unknown frame type %q", m.id, env.Type)
		}
	}
}

func (s *Server) writePump(m *member) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		m.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-m.send:
			m.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = m.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := m.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			m.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := m.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Addr formats a listen address for port.
func Addr(port int) string {
	return fmt.Sprintf(":%d", port)
}
