// Package server exposes a card wall over HTTP. Cards and arrangements are
// plain JSON; live frames stream over a websocket at /ws, and clients send
// transform, orbit and resize requests back on the same socket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/deck"
	"github.com/arcanaland/cardwall/internal/layout"
	"github.com/arcanaland/cardwall/internal/render"
	"github.com/arcanaland/cardwall/internal/scene"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// clientMessage is every message a websocket client may send
type clientMessage struct {
	Type        string  `json:"type"`
	Arrangement string  `json:"arrangement,omitempty"`
	Azimuth     float64 `json:"azimuth,omitempty"`
	Polar       float64 `json:"polar,omitempty"`
	Zoom        float64 `json:"zoom,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
}

type cardsResponse struct {
	Deck   string              `json:"deck"`
	Source string              `json:"source"`
	Counts map[card.Bucket]int `json:"counts"`
	Cards  []*card.Card        `json:"cards"`
}

type transformResponse struct {
	Arrangement layout.Arrangement `json:"arrangement"`
	DurationMS  int64              `json:"duration_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves one wall. The arrangements are read concurrently by
// handlers, which is safe because they never change after the session is
// built.
type Server struct {
	deck         *deck.Deck
	arrangements layout.Set
	loop         *render.Loop
	hub          *Hub
	duration     time.Duration
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

// New builds a server around a running loop. arrangements must be the
// session's cached set.
func New(d *deck.Deck, arrangements layout.Set, loop *render.Loop, hub *Hub, duration time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		deck:         d,
		arrangements: arrangements,
		loop:         loop,
		hub:          hub,
		duration:     duration,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cards", s.handleCards)
	mux.HandleFunc("GET /api/arrangements", s.handleArrangementNames)
	mux.HandleFunc("GET /api/arrangements/{name}", s.handleArrangement)
	mux.HandleFunc("POST /api/transform/{name}", s.handleTransform)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. On shutdown it also
// closes open websockets, which http.Server.Shutdown does not track.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.hub.CloseAll()
		<-errc
		return err
	}
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cardsResponse{
		Deck:   s.deck.ID,
		Source: s.deck.Source,
		Counts: s.deck.Counts(),
		Cards:  s.deck.Cards,
	})
}

func (s *Server) handleArrangementNames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, layout.Names())
}

func (s *Server) handleArrangement(w http.ResponseWriter, r *http.Request) {
	name, err := layout.ParseArrangement(r.PathValue("name"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	poses, err := s.arrangements.Targets(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, poses)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	name, err := layout.ParseArrangement(r.PathValue("name"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	if err := s.transform(r.Context(), name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrStopped) || errors.Is(err, scene.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, transformResponse{Arrangement: name, DurationMS: s.duration.Milliseconds()})
}

func (s *Server) transform(ctx context.Context, name layout.Arrangement) error {
	return s.loop.Do(ctx, func(sess *scene.Session) error {
		_, err := sess.Transform(name, s.duration)
		return err
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn)
	s.hub.add(c)
	go s.writePump(conn, c)

	// first frame so the client can draw before anything moves
	_ = s.loop.Do(r.Context(), func(sess *scene.Session) error {
		s.hub.sendTo(c, envelope{Type: "frame", Frame: ptr(sess.Frame())})
		return nil
	})

	s.readPump(r.Context(), conn, c)
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, c *client) {
	defer s.hub.remove(c)
	conn.SetReadLimit(maxMessageSize)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if err := s.dispatch(ctx, msg); err != nil {
			s.hub.sendTo(c, envelope{Type: "error", Error: err.Error()})
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg clientMessage) error {
	switch msg.Type {
	case "transform":
		name, err := layout.ParseArrangement(msg.Arrangement)
		if err != nil {
			return err
		}
		return s.transform(ctx, name)
	case "orbit":
		return s.loop.Submit(ctx, func(sess *scene.Session) {
			sess.Steer(msg.Azimuth, msg.Polar, msg.Zoom)
		})
	case "resize":
		return s.loop.Submit(ctx, func(sess *scene.Session) {
			sess.Resize(msg.Width, msg.Height)
		})
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
}

func (s *Server) writePump(conn *websocket.Conn, c *client) {
	defer conn.Close()
	for data := range c.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("websocket write failed", zap.String("client", c.id), zap.Error(err))
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ptr[T any](v T) *T { return &v }
