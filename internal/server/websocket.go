package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"odai-party/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteTimeout = 5 * time.Second

// wsConn serializes writes; gorilla allows one concurrent writer per connection.
type wsConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	roomID string
	userID string
	done   chan struct{}
	once   sync.Once
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsConn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsConn]struct{}),
	}
}

func (h *wsHub) Add(conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[conn.roomID]
	if group == nil {
		group = make(map[*wsConn]struct{})
		h.groups[conn.roomID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(conn *wsConn) {
	h.mu.Lock()
	group := h.groups[conn.roomID]
	if group != nil {
		delete(group, conn)
		if len(group) == 0 {
			delete(h.groups, conn.roomID)
		}
	}
	h.mu.Unlock()
	conn.close()
}

func (h *wsHub) Broadcast(roomID string, payload any) {
	h.mu.Lock()
	group := h.groups[roomID]
	conns := make([]*wsConn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.write(websocket.TextMessage, data); err != nil {
			h.Remove(conn)
		}
	}
}

func (h *wsHub) Count(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[roomID])
}

func (h *wsHub) CloseAll() {
	h.mu.Lock()
	conns := make([]*wsConn, 0)
	for _, group := range h.groups {
		for conn := range group {
			conns = append(conns, conn)
		}
	}
	h.groups = make(map[string]map[*wsConn]struct{})
	h.mu.Unlock()
	for _, conn := range conns {
		conn.close()
	}
}

// notify tells room subscribers that table changed. Clients re-fetch on receipt.
func (s *Server) notify(roomID, table, event string) {
	s.ws.Broadcast(roomID, api.Notification{
		Type:   api.MessageChange,
		RoomID: roomID,
		Table:  table,
		Event:  event,
	})
}

func (s *Server) handleWebsocket(c *gin.Context) {
	ctx := c.Request.Context()
	room, err := s.loadRoom(ctx, roomIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn := &wsConn{
		conn:   raw,
		roomID: room.ID,
		userID: userIDFromQuery(c),
		done:   make(chan struct{}),
	}
	log.Info().Str("room_id", room.ID).Str("user_id", conn.userID).Str("remote", c.Request.RemoteAddr).Msg("ws connected")
	if !s.subscribe(conn) {
		return
	}
	go s.pingWS(conn)
	go s.readWS(conn)
}

// subscribe writes the ack before joining the room group, so a concurrent notify
// can never reach the client ahead of it.
func (s *Server) subscribe(conn *wsConn) bool {
	ack, err := json.Marshal(api.Notification{Type: api.MessageSubscribed, RoomID: conn.roomID})
	if err != nil {
		conn.close()
		return false
	}
	if err := conn.write(websocket.TextMessage, ack); err != nil {
		conn.close()
		return false
	}
	s.ws.Add(conn)
	return true
}

func (s *Server) readWS(conn *wsConn) {
	defer s.ws.Remove(conn)
	interval := s.pingInterval()
	_ = conn.conn.SetReadDeadline(time.Now().Add(2 * interval))
	conn.conn.SetPongHandler(func(string) error {
		_ = conn.conn.SetReadDeadline(time.Now().Add(2 * interval))
		if conn.userID != "" {
			_ = s.repo.TouchPlayer(context.Background(), conn.roomID, conn.userID, s.now())
		}
		return nil
	})
	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			log.Info().Str("room_id", conn.roomID).Err(err).Msg("ws disconnected")
			return
		}
	}
}

func (s *Server) pingWS(conn *wsConn) {
	ticker := time.NewTicker(s.pingInterval())
	defer ticker.Stop()
	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			if err := conn.write(websocket.PingMessage, nil); err != nil {
				s.ws.Remove(conn)
				return
			}
		}
	}
}

func (s *Server) pingInterval() time.Duration {
	if s.cfg.WSPingSeconds <= 0 {
		return 25 * time.Second
	}
	return time.Duration(s.cfg.WSPingSeconds) * time.Second
}
