package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func createRoom(t *testing.T, ts *httptest.Server, name, password string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", map[string]string{
		"name":     name,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["room"].(map[string]any)["id"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, password, name, role string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/join", map[string]string{
		"password": password,
		"name":     name,
		"role":     role,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join %s: expected status %d, got %d", name, http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func doAction(t *testing.T, ts *httptest.Server, roomID, userID, action string) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/actions/"+action, map[string]string{
		"user_id": userID,
	})
}

func mustAction(t *testing.T, ts *httptest.Server, roomID, userID, action string) map[string]any {
	t.Helper()
	resp := doAction(t, ts, roomID, userID, action)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s: expected status %d, got %d (%v)", action, http.StatusOK, resp.StatusCode, decodeBody(t, resp))
	}
	return decodeBody(t, resp)
}

func fetchState(t *testing.T, ts *httptest.Server, roomID string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID+"/state", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func submitAnswer(t *testing.T, ts *httptest.Server, roomID, userID, text string) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/answers", map[string]string{
		"user_id": userID,
		"text":    text,
	})
}

func fetchAnswers(t *testing.T, ts *httptest.Server, roomID, userID string) []map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID+"/answers?user_id="+userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeList(t, resp)
}

func castVote(t *testing.T, ts *httptest.Server, roomID, userID, answerID string) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/votes", map[string]string{
		"user_id":   userID,
		"answer_id": answerID,
	})
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	return doRequestWithHeaders(t, ts, method, path, payload, nil)
}

func doRequestWithHeaders(t *testing.T, ts *httptest.Server, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var body []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}
