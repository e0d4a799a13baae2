// Package visualization streams a running simulation to browsers over a
// websocket and serves the page that draws it.
package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nvandessel/orbitsim/internal/physics"
	"github.com/nvandessel/orbitsim/internal/simulation"
)

// Config configures the frame server.
type Config struct {
	// Addr is the listen address. Empty picks a free localhost port.
	Addr string

	// FrameInterval is the time between broadcast frames.
	FrameInterval time.Duration

	// StepsPerFrame is the number of simulation steps per frame.
	StepsPerFrame int

	// TrailPoints caps the trail sent to a newly connected client.
	// 0 sends whole trails.
	TrailPoints int
}

// Frame is the message sent to clients.
type Frame struct {
	Type    string      `json:"type"`
	Step    int         `json:"step"`
	Elapsed float64     `json:"elapsed"`
	Paused  bool        `json:"paused"`
	Error   string      `json:"error,omitempty"`
	Bodies  []FrameBody `json:"bodies"`
}

// FrameBody is one body in a frame. Trail is only set in the first frame a
// client receives.
type FrameBody struct {
	Name                string       `json:"name"`
	X                   float64      `json:"x"`
	Y                   float64      `json:"y"`
	VX                  float64      `json:"vx"`
	VY                  float64      `json:"vy"`
	Mass                float64      `json:"mass"`
	Reference           bool         `json:"reference"`
	DistanceToReference float64      `json:"distance_to_reference"`
	Color               string       `json:"color,omitempty"`
	Trail               [][2]float64 `json:"trail,omitempty"`
}

// Control is the message clients send to steer the simulation.
type Control struct {
	Paused        *bool `json:"paused,omitempty"`
	StepsPerFrame *int  `json:"steps_per_frame,omitempty"`
}

// Server owns a simulation, advances it on a ticker and broadcasts frames.
type Server struct {
	mu            sync.Mutex // guards sim, paused, stepsPerFrame, stepErr
	sim           *simulation.Simulation
	paused        bool
	stepsPerFrame int
	stepErr       error

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	cfg        Config
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	httpServer *http.Server
	addrMu     sync.Mutex
	addr       string
}

// NewServer creates a frame server for sim.
func NewServer(sim *simulation.Simulation, cfg Config, logger *slog.Logger) *Server {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 50 * time.Millisecond
	}
	if cfg.StepsPerFrame <= 0 {
		cfg.StepsPerFrame = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		sim:           sim,
		stepsPerFrame: cfg.StepsPerFrame,
		clients:       make(map[*websocket.Conn]*sync.Mutex),
		cfg:           cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

// Handler returns the HTTP routes: the page at "/", the websocket at "/ws"
// and the current bodies at "/api/bodies".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/bodies", s.handleBodies)
	return mux
}

// ListenAndServe starts the HTTP server and the frame loop and blocks until
// the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = "localhost:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.addrMu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler()}
	s.addrMu.Unlock()

	s.logger.Info("frame server listening", "addr", s.Addr())

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go s.loop(loopCtx)

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances the simulation one frame, unless paused or stopped by an
// earlier error, and broadcasts the resulting frame.
func (s *Server) Tick() {
	s.mu.Lock()
	if !s.paused && s.stepErr == nil {
		if err := s.sim.StepN(s.stepsPerFrame); err != nil {
			s.logger.Warn("simulation stopped", "error", err)
			s.stepErr = err
		}
	}
	frame := s.frameLocked(-1)
	s.mu.Unlock()

	s.broadcast(frame)
}

// Frame returns the current frame. trail selects trail points as in
// simulation.Snapshot.
func (s *Server) Frame(trail int) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked(trail)
}

func (s *Server) frameLocked(trail int) Frame {
	snap := s.sim.Snapshot(trail)
	f := Frame{
		Type:    "frame",
		Step:    s.sim.Steps(),
		Elapsed: s.sim.Elapsed(),
		Paused:  s.paused,
		Bodies:  make([]FrameBody, len(snap)),
	}
	if s.stepErr != nil {
		f.Error = s.stepErr.Error()
	}
	for i, b := range snap {
		f.Bodies[i] = FrameBody{
			Name:                b.Name,
			X:                   b.Position.X,
			Y:                   b.Position.Y,
			VX:                  b.Velocity.X,
			VY:                  b.Velocity.Y,
			Mass:                b.Mass,
			Reference:           b.Reference,
			DistanceToReference: b.DistanceToReference,
			Color:               b.Color,
			Trail:               trailPairs(b.Trail),
		}
	}
	return f
}

func trailPairs(trail []physics.Vec2) [][2]float64 {
	if len(trail) == 0 {
		return nil
	}
	out := make([][2]float64, len(trail))
	for i, p := range trail {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

// Apply applies a client control message.
func (s *Server) Apply(c Control) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Paused != nil {
		s.paused = *c.Paused
	}
	if c.StepsPerFrame != nil && *c.StepsPerFrame > 0 {
		s.stepsPerFrame = *c.StepsPerFrame
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleBodies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	bodies := s.sim.Snapshot(-1)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bodies)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	s.logger.Debug("client connected", "remote", r.RemoteAddr)

	// The first frame carries the trails.
	trail := s.cfg.TrailPoints
	if err := s.send(conn, connMu, s.Frame(trail)); err != nil {
		return
	}

	for {
		var msg Control
		if err := conn.ReadJSON(&msg); err != nil {
			s.logger.Debug("client disconnected", "remote", r.RemoteAddr, "error", err)
			return
		}
		s.Apply(msg)
		if err := s.send(conn, connMu, s.Frame(-1)); err != nil {
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, mu *sync.Mutex, f Frame) error {
	mu.Lock()
	defer mu.Unlock()
	return conn.WriteJSON(f)
}

func (s *Server) broadcast(f Frame) {
	s.clientsMu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range s.clients {
		if err := s.send(conn, mu, f); err != nil {
			failed = append(failed, conn)
		}
	}
	s.clientsMu.RUnlock()

	// Remove failed clients
	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, conn := range failed {
			delete(s.clients, conn)
			conn.Close()
		}
		s.clientsMu.Unlock()
	}
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}
