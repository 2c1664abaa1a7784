package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/arcanaland/cardwall/internal/deck"
	"github.com/arcanaland/cardwall/internal/layout"
	"github.com/arcanaland/cardwall/internal/render"
	"github.com/arcanaland/cardwall/internal/scene"
	"github.com/arcanaland/cardwall/internal/sheet"
)

type fixture struct {
	api    *Server
	srv    *httptest.Server
	hub    *Hub
	cancel context.CancelFunc
	done   chan error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	d := deck.FromRows("test", []sheet.Row{
		{"name": "Ada", "net_worth": "$10"},
		{"name": "Bob", "net_worth": "$150,000"},
		{"name": "Cy", "net_worth": "$250,000"},
	})
	hub := NewHub(logger)
	s := scene.New(d, hub, scene.WithLogger(logger))
	loop := render.NewLoop(s, 120)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	api := New(d, s.Arrangements(), loop, hub, 30*time.Millisecond, logger)
	return &fixture{api: api, srv: httptest.NewServer(api.Handler()), hub: hub, cancel: cancel, done: done}
}

func (f *fixture) close() {
	f.srv.Close()
	f.cancel()
	<-f.done
}

func (f *fixture) get(t *testing.T, path string, v any) int {
	t.Helper()
	resp, err := f.srv.Client().Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHTTPRoutes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	f := newFixture(t)
	defer f.close()

	t.Run("cards", func(t *testing.T) {
		var body struct {
			Counts map[string]int `json:"counts"`
			Cards  []struct {
				Name   string `json:"name"`
				Bucket string `json:"bucket"`
			} `json:"cards"`
		}
		require.Equal(t, http.StatusOK, f.get(t, "/api/cards", &body))
		require.Len(t, body.Cards, 3)
		assert.Equal(t, "Bob", body.Cards[1].Name)
		assert.Equal(t, "yellow", body.Cards[1].Bucket)
		assert.Equal(t, map[string]int{"red": 1, "yellow": 1, "green": 1}, body.Counts)
	})

	t.Run("arrangement names", func(t *testing.T) {
		var names []string
		require.Equal(t, http.StatusOK, f.get(t, "/api/arrangements", &names))
		assert.Equal(t, []string{"table", "sphere", "helix", "grid"}, names)
	})

	t.Run("arrangement poses", func(t *testing.T) {
		var poses []layout.Pose
		require.Equal(t, http.StatusOK, f.get(t, "/api/arrangements/table", &poses))
		assert.Equal(t, layout.Table(3), poses)

		assert.Equal(t, http.StatusNotFound, f.get(t, "/api/arrangements/cube", nil))
	})

	t.Run("transform", func(t *testing.T) {
		resp, err := f.srv.Client().Post(f.srv.URL+"/api/transform/helix", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var body transformResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, layout.HelixArrangement, body.Arrangement)
		assert.Equal(t, int64(30), body.DurationMS)

		resp2, err := f.srv.Client().Post(f.srv.URL+"/api/transform/cube", "application/json", nil)
		require.NoError(t, err)
		resp2.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
	})
}

func TestWebsocketStream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	f := newFixture(t)
	defer f.close()

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEnvelope := func() envelope {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg envelope
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := readEnvelope()
	require.Equal(t, "frame", first.Type)
	require.Len(t, first.Frame.Cards, 3)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "transform", Arrangement: "grid"}))

	want := layout.Grid(3)
	settled := false
	for i := 0; i < 200 && !settled; i++ {
		msg := readEnvelope()
		require.Equal(t, "frame", msg.Type)
		settled = true
		for j, c := range msg.Frame.Cards {
			if c.Pose != want[j] {
				settled = false
			}
		}
	}
	assert.True(t, settled, "cards should reach the grid")

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "spin"}))
	for i := 0; i < 50; i++ {
		msg := readEnvelope()
		if msg.Type == "error" {
			assert.Contains(t, msg.Error, "unknown message type")
			break
		}
	}

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "resize", Width: 800, Height: 400}))
	assert.Eventually(t, func() bool {
		w, h := f.hub.Size()
		return w == 800 && h == 400
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, f.hub.Len())
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return f.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestServeClosesWebsocketsOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	f := newFixture(t)
	defer f.close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- f.api.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Eventually(t, func() bool { return f.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)

	// the server side is gone, so reads fail instead of timing out
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var netErr net.Error
		assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "read timed out: %v", err)
		break
	}
}

func TestHubDropsForSlowClients(t *testing.T) {
	hub := NewHub(nil)
	c := newClient(nil)
	hub.add(c)

	for i := 0; i < sendBuffer+3; i++ {
		require.NoError(t, hub.Render(scene.Frame{Seq: uint64(i)}))
	}
	assert.Equal(t, uint64(3), hub.Dropped())

	hub.remove(c)
	hub.remove(c)
	assert.False(t, hub.sendTo(c, envelope{Type: "error"}))
	assert.Equal(t, 0, hub.Len())
}
