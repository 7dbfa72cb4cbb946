package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"blackjackbot/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only feed
	},
}

// SnapshotFunc returns the current table. *game.Session's Snapshot fits.
type SnapshotFunc func() game.Snapshot

type Server struct {
	hub      *Hub
	snapshot SnapshotFunc
	log      logrus.FieldLogger
}

func NewServer(hub *Hub, snapshot SnapshotFunc, log logrus.FieldLogger) *Server {
	return &Server{hub: hub, snapshot: snapshot, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/state", s.handleState)
	return mux
}

// ListenAndServe runs the hub and the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("addr", addr).Info("spectator feed listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		s.log.WithError(err).Error("failed to write table state")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}

	// the first message is the table as it stands
	snap := s.snapshot()
	hello, err := json.Marshal(Event{Type: "snapshot", Snapshot: &snap, At: time.Now()})
	if err == nil {
		client.Send <- hello
	}

	select {
	case s.hub.Register <- client:
	case <-s.hub.Done():
		conn.Close()
		return
	}

	go s.writePump(client)
	go s.readPump(client)
}

// readPump discards anything a spectator sends and notices when they leave.
func (s *Server) readPump(c *Client) {
	defer func() {
		select {
		case s.hub.Unregister <- c:
		case <-s.hub.Done():
		}
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.WithField("client", c.ID).WithError(err).Debug("spectator read failed")
			}
			return
		}
	}
}

func (s *Server) writePump(c *Client) {
	defer c.Conn.Close()

	for msg := range c.Send {
		c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.log.WithField("client", c.ID).WithError(err).Debug("spectator write failed")
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
