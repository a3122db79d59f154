package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"odai-party/internal/api"
	"odai-party/internal/livesync"

	"github.com/gorilla/websocket"
)

const ackTimeout = 10 * time.Second

// Stream is an acknowledged websocket subscription to one room.
type Stream struct {
	conn    *websocket.Conn
	changes chan api.Notification
	done    chan struct{}
	once    sync.Once
	wait    time.Duration
}

var _ livesync.Subscription = (*Stream)(nil)

// Subscribe dials the room's push channel and waits for the server's
// acknowledgement before returning.
func (c *Client) Subscribe(ctx context.Context, roomID, userID string) (*Stream, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws/rooms/" + url.PathEscape(roomID) + userQuery(userID)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: "subscribe refused"}
		}
		return nil, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(ackTimeout))
	var first api.Notification
	if err := conn.ReadJSON(&first); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read subscription ack: %w", err)
	}
	if first.Type != api.MessageSubscribed {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first message %q", first.Type)
	}

	wait := c.PingWait
	if wait <= 0 {
		wait = DefaultPingWait
	}
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	s := &Stream{conn: conn, changes: make(chan api.Notification, 16), done: make(chan struct{}), wait: wait}
	go s.read()
	return s, nil
}

// SubscribeFunc adapts Subscribe for a livesync reconciler.
func (c *Client) SubscribeFunc(roomID, userID string) livesync.SubscribeFunc {
	return func(ctx context.Context) (livesync.Subscription, error) {
		return c.Subscribe(ctx, roomID, userID)
	}
}

func (s *Stream) Changes() <-chan api.Notification {
	return s.changes
}

func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

func (s *Stream) read() {
	defer close(s.changes)
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.wait))
		var msg api.Notification
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		select {
		case s.changes <- msg:
		case <-s.done:
			return
		}
	}
}
