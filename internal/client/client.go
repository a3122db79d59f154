// Package client talks to the party server over HTTP and websockets.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"odai-party/internal/api"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// DefaultPingWait is twice the server's default ping interval.
const DefaultPingWait = 50 * time.Second

type Client struct {
	baseURL string
	http    *http.Client

	// PingWait bounds how long a subscription may go without any frame from the
	// server before it is treated as dropped.
	PingWait time.Duration
}

// New returns a client for the server at baseURL. A nil httpClient uses a client
// with a ten second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, PingWait: DefaultPingWait}
}

func (c *Client) CreateRoom(ctx context.Context, name, password string) (api.CreateRoomResponse, error) {
	var out api.CreateRoomResponse
	err := c.do(ctx, http.MethodPost, "/api/rooms", api.CreateRoomRequest{Name: name, Password: password}, &out)
	return out, err
}

func (c *Client) Join(ctx context.Context, password, name, role string) (api.JoinResponse, error) {
	var out api.JoinResponse
	err := c.do(ctx, http.MethodPost, "/api/rooms/join", api.JoinRequest{Password: password, Name: name, Role: role}, &out)
	return out, err
}

func (c *Client) Room(ctx context.Context, roomID string) (api.RoomResponse, error) {
	var out api.RoomResponse
	err := c.do(ctx, http.MethodGet, roomPath(roomID, ""), nil, &out)
	return out, err
}

func (c *Client) Players(ctx context.Context, roomID string) ([]api.Player, error) {
	var out []api.Player
	err := c.do(ctx, http.MethodGet, roomPath(roomID, "/players"), nil, &out)
	return out, err
}

func (c *Client) SwitchRole(ctx context.Context, roomID, userID, role string) (api.Player, error) {
	var out api.Player
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "/role"), api.RoleRequest{UserID: userID, Role: role}, &out)
	return out, err
}

func (c *Client) Leave(ctx context.Context, roomID, userID string) error {
	return c.do(ctx, http.MethodPost, roomPath(roomID, "/leave"), api.UserRequest{UserID: userID}, nil)
}

// State fetches the game state. A non-empty userID also refreshes that seat's
// last-seen time.
func (c *Client) State(ctx context.Context, roomID, userID string) (api.GameState, error) {
	var out api.GameState
	err := c.do(ctx, http.MethodGet, roomPath(roomID, "/state")+userQuery(userID), nil, &out)
	return out, err
}

func (c *Client) Action(ctx context.Context, roomID, userID, action string) (api.GameState, error) {
	var out api.GameState
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "/actions/"+url.PathEscape(action)), api.UserRequest{UserID: userID}, &out)
	return out, err
}

func (c *Client) Answers(ctx context.Context, roomID, userID string) ([]api.Answer, error) {
	var out []api.Answer
	err := c.do(ctx, http.MethodGet, roomPath(roomID, "/answers")+userQuery(userID), nil, &out)
	return out, err
}

func (c *Client) SubmitAnswer(ctx context.Context, roomID, userID, text string) (api.Answer, error) {
	var out api.Answer
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "/answers"), api.AnswerRequest{UserID: userID, Text: text}, &out)
	return out, err
}

func (c *Client) Reveal(ctx context.Context, roomID, userID, answerID string) (api.Answer, error) {
	var out api.Answer
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "/answers/"+url.PathEscape(answerID)+"/reveal"), api.UserRequest{UserID: userID}, &out)
	return out, err
}

func (c *Client) Vote(ctx context.Context, roomID, userID, answerID string) (api.Answer, error) {
	var out api.Answer
	err := c.do(ctx, http.MethodPost, roomPath(roomID, "/votes"), api.VoteRequest{UserID: userID, AnswerID: answerID}, &out)
	return out, err
}

func (c *Client) Results(ctx context.Context, roomID string) ([]api.Answer, error) {
	var out []api.Answer
	err := c.do(ctx, http.MethodGet, roomPath(roomID, "/results"), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func roomPath(roomID, suffix string) string {
	return "/api/rooms/" + url.PathEscape(roomID) + suffix
}

func userQuery(userID string) string {
	if userID == "" {
		return ""
	}
	return "?user_id=" + url.QueryEscape(userID)
}
