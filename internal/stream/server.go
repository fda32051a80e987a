// Package stream serves simulation snapshots over websocket and exposes the
// metrics endpoint. It is a consumer of the snapshot channel: it polls
// TryGetLatest on its own cadence and the simulation loop never waits for it.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/barmaleii77-hub/pneumostab/internal/observability"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/sim"
)

// DefaultPoll is the snapshot polling cadence. Faster than a display needs,
// much slower than the simulation tick.
const DefaultPoll = 50 * time.Millisecond

// frame is what goes over the wire to clients.
type frame struct {
	Type     string             `json:"type"`
	State    string             `json:"state,omitempty"`
	Snapshot *sim.StateSnapshot `json:"snapshot,omitempty"`
	Stats    *sim.Stats         `json:"stats,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// command is a client control request.
type command struct {
	Type    string  `json:"type"`
	Line    string  `json:"line,omitempty"`
	Opening float64 `json:"opening,omitempty"`
}

// Server streams snapshots to websocket clients and accepts control
// commands for the simulation lifecycle.
type Server struct {
	mgr  *sim.Manager
	hub  *hub
	log  zerolog.Logger
	poll time.Duration
	http *http.Server
}

// NewServer wires the handler mux. Metrics may be nil when the collector is
// not enabled.
func NewServer(addr string, mgr *sim.Manager, metrics *observability.Collector, log zerolog.Logger) *Server {
	s := &Server{
		mgr:  mgr,
		hub:  newHub(log),
		log:  log,
		poll: DefaultPoll,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("/api/state", s.serveState)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Run serves until the context is cancelled, polling the snapshot channel
// and broadcasting each new frame.
func (s *Server) Run(ctx context.Context) error {
	go s.pollLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("stream server listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.hub.close()
		return s.http.Shutdown(shutCtx)
	case err := <-errCh:
		s.hub.close()
		return err
	}
}

// pollLoop pushes a frame whenever the snapshot step advances.
func (s *Server) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var lastStep uint64
	var seen bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, ok := s.mgr.Snapshots().TryGetLatest()
			if !ok || (seen && snap.Step == lastStep) {
				continue
			}
			lastStep, seen = snap.Step, true
			s.send(frame{Type: "snapshot", State: s.mgr.State().String(), Snapshot: snap})
		}
	}
}

func (s *Server) send(f frame) {
	data, err := json.Marshal(f)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal frame")
		return
	}
	select {
	case s.hub.broadcast <- data:
	default:
		// A full broadcast queue means no client is keeping up; skip the
		// frame rather than stall the poll loop.
	}
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go c.writeLoop()
	s.hub.register <- c

	// Greet the client with the current state so it does not wait a full
	// poll interval for its first frame.
	if snap, ok := s.mgr.Snapshots().TryGetLatest(); ok {
		s.reply(c, frame{Type: "snapshot", State: s.mgr.State().String(), Snapshot: snap})
	}

	go s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() { s.hub.remove <- c }()
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}
		var cmd command
		if err := json.Unmarshal(message, &cmd); err != nil {
			s.reply(c, frame{Type: "error", Error: "malformed command"})
			continue
		}
		s.handleCommand(c, cmd)
	}
}

func (s *Server) handleCommand(c *client, cmd command) {
	var err error
	switch cmd.Type {
	case "start":
		err = s.mgr.Start()
	case "stop":
		err = s.mgr.Stop()
	case "pause":
		s.mgr.Pause(true)
	case "resume":
		s.mgr.Pause(false)
	case "reset":
		err = s.mgr.Reset()
	case "valve":
		err = s.mgr.SetValve(pneumo.LineID(cmd.Line), cmd.Opening)
	default:
		s.reply(c, frame{Type: "error", Error: "unknown command " + cmd.Type})
		return
	}
	if err != nil {
		s.reply(c, frame{Type: "error", Error: err.Error()})
		return
	}
	s.reply(c, frame{Type: "ack", State: s.mgr.State().String()})
}

// reply hands a frame to the client's writer goroutine. Unlike broadcast
// frames, command replies are never dropped while the client lives: the send
// blocks until the writer takes it, and the writer keeps consuming after a
// write error until the hub signals done, so this cannot deadlock.
func (s *Server) reply(c *client, f frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// serveState answers a plain HTTP poll with the latest snapshot and counters.
func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.mgr.Snapshots().TryGetLatest()
	stats := s.mgr.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(frame{
		Type:     "state",
		State:    s.mgr.State().String(),
		Snapshot: snap,
		Stats:    &stats,
	})
}
