package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/fleetsync/internal/pkg/auth"
	"github.com/anicoll/fleetsync/internal/pkg/config"
	"github.com/anicoll/fleetsync/internal/pkg/model"
)

const engineSnapshot = `{
  "devices": [{"id": 1, "name": "proj-1", "tags": [{"id": 10, "name": "projectors"}], "location": {"id": 100, "name": "hall"}}],
  "tags": [{"id": 10, "name": "projectors"}],
  "locations": [{"id": 100, "name": "hall"}]
}`

// fleetServer fakes the REST API and the push channel. Every fetch command is
// answered with an is_online event for the requested entity.
type fleetServer struct {
	*httptest.Server
	snapshots atomic.Int32

	mu        sync.Mutex
	lastToken string
	push      chan string
	kill      chan struct{}
}

func newFleetServer(t *testing.T) *fleetServer {
	t.Helper()
	fs := &fleetServer{push: make(chan string, 16), kill: make(chan struct{}, 1)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/jwt/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"access_token":"T1","token_type":"bearer"}`)
	})
	mux.HandleFunc("GET /api/{$}", func(w http.ResponseWriter, r *http.Request) {
		fs.snapshots.Add(1)
		_, _ = io.WriteString(w, engineSnapshot)
	})
	mux.HandleFunc("GET /api/knx/get_events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("GET /api/calendar/get_events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/api/ws", fs.serveWS)
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fleetServer) token() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.lastToken
}

func (fs *fleetServer) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()
	fs.mu.Lock()
	fs.lastToken = r.URL.Query().Get("token")
	fs.mu.Unlock()

	in := make(chan []byte, 64)
	go func() {
		defer close(in)
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			in <- msg
		}
	}()

	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return
			}
			var cmd struct {
				Target  model.Kind      `json:"target"`
				Command string          `json:"command"`
				Data    model.IDPayload `json:"data"`
			}
			if json.Unmarshal(msg, &cmd) != nil || cmd.Command != model.CommandFetch {
				continue
			}
			reply, _ := json.Marshal(map[string]any{
				"target": cmd.Target,
				"data": map[string]any{"event": map[string]any{
					"target": cmd.Data.ID, "type": "is_online", "value": 2,
				}},
			})
			if ws.WriteMessage(websocket.TextMessage, reply) != nil {
				return
			}
		case msg := <-fs.push:
			if ws.WriteMessage(websocket.TextMessage, []byte(msg)) != nil {
				return
			}
		case <-fs.kill:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func TestEngine_Run(t *testing.T) {
	fs := newFleetServer(t)
	cfg := &config.Config{ServerCfg: config.ServerConfig{
		Host:           strings.TrimPrefix(fs.URL, "http://"),
		Username:       "operator",
		Password:       "secret",
		TokenRefresh:   time.Hour,
		HydrateTimeout: 5 * time.Second,
		RequestTimeout: 5 * time.Second,
	}}
	e := NewEngine(cfg, &auth.MemoryStore{}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	attached := func(ref model.Ref) func() bool {
		return func() bool {
			ok, _ := e.Graph.IsAttached(ref)
			return ok
		}
	}
	require.Eventually(t, attached(model.DeviceRef(1)), 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, attached(model.LocationRef(100)), 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, e.Router.Connected, 5*time.Second, 10*time.Millisecond)
	assert.True(t, e.Router.LoggedIn())
	assert.True(t, e.Router.Loaded())
	assert.Equal(t, "T1", fs.token())

	d, ok := e.Graph.Device(1)
	require.True(t, ok)
	assert.Equal(t, model.StatusOnline, d.Status.IsOnline)
	v, ok := e.Views.Get(model.TagRef(10))
	require.True(t, ok)
	assert.Equal(t, "projectors", v.Name)

	// A knx frame lands on the location and in the log.
	fs.push <- `{"target":"knx","data":{"event":{"target":100,"type":"knx_state","value":1,"state":true,"time":1700000000,"group_address":"1/2/3"}}}`
	require.Eventually(t, func() bool {
		l, _ := e.Graph.Location(100)
		return l.Status.KNXState == model.KNXOn && len(e.Graph.KNXEvents()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// A reconnect reloads the snapshot.
	before := fs.snapshots.Load()
	fs.kill <- struct{}{}
	require.Eventually(t, func() bool { return fs.snapshots.Load() > before }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, attached(model.DeviceRef(1)), 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestEngine_RefreshError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	cfg := &config.Config{ServerCfg: config.ServerConfig{
		Host:           strings.TrimPrefix(srv.URL, "http://"),
		RequestTimeout: time.Second,
	}}
	e := NewEngine(cfg, &auth.MemoryStore{}, zaptest.NewLogger(t))

	err := e.Refresh(context.Background())
	assert.Error(t, err)
	assert.False(t, e.Loading())
	assert.False(t, e.Router.Loaded())
	assert.Equal(t, uint64(0), e.Graph.Epoch())
}

func TestEngine_RefreshAcrossDisconnect(t *testing.T) {
	var (
		e     *Engine
		drops atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first snapshot request races a dropped connection.
		if drops.Add(1) == 1 {
			e.Router.OnClose(r.Context())
		}
		_, _ = io.WriteString(w, engineSnapshot)
	}))
	defer srv.Close()
	cfg := &config.Config{ServerCfg: config.ServerConfig{
		Host:           strings.TrimPrefix(srv.URL, "http://"),
		RequestTimeout: time.Second,
	}}
	e = NewEngine(cfg, &auth.MemoryStore{}, zaptest.NewLogger(t))

	require.NoError(t, e.Refresh(context.Background()))
	assert.False(t, e.Router.Loaded())
	_, ok := e.Graph.Device(1)
	assert.True(t, ok)

	require.NoError(t, e.Refresh(context.Background()))
	assert.True(t, e.Router.Loaded())
}
