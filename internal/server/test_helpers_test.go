package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"odai-party/internal/config"
	"odai-party/internal/content"
	"odai-party/internal/store"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RateLimitPerMinute = 0
	cfg.AdminToken = "secret"
	return cfg
}

func testLibrary() *content.Library {
	return content.NewStaticLibrary(&content.DataSet{
		Initial: []content.Initial{{Key: "あ"}, {Key: "か", Rare: 1}},
		Words: []content.Word{
			{Normal: "好きな食べ物", Not: "嫌いな食べ物"},
			{Normal: "行きたい場所", Not: "行きたくない場所", Rare: 2},
		},
	})
}

// startServer runs a server over a fresh memory store. mutate may adjust the config.
func startServer(t *testing.T, mutate func(cfg *config.Config)) (*Server, *store.Memory, *httptest.Server) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	repo := store.NewMemory()
	srv := New(repo, testLibrary(), cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, repo, ts
}
