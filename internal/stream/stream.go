// Package stream serves the sky to remote viewports over websockets. Each
// connection is a viewport: attached on connect, detached on close, and
// sent a frame on every clock tick.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-skydome/internal/geo"
	"github.com/litescript/ls-skydome/internal/logging"
	"github.com/litescript/ls-skydome/internal/sky"
	"github.com/litescript/ls-skydome/internal/state"
	"github.com/litescript/ls-skydome/internal/viewer"
)

// ErrStopped is returned for requests made after Run has returned.
var ErrStopped = errors.New("stream server stopped")

const (
	sendBuffer   = 8
	writeTimeout = 5 * time.Second
	// Remote viewports use their id as light number; 0 is the default light.
	firstViewID = 1
)

// Recorder receives stream metrics. observability.SkyCollector implements it.
type Recorder interface {
	StreamClientsChanged(n int)
	StreamFrame(sent bool)
}

type noopRecorder struct{}

func (noopRecorder) StreamClientsChanged(int) {}
func (noopRecorder) StreamFrame(bool)         {}

// Config configures a Server.
type Config struct {
	// MaxFPS limits frames per second sent to each client.
	MaxFPS float64
	Burst  int
}

// Server owns the sky on behalf of its clients. Every sky call runs on the
// goroutine executing Run.
type Server struct {
	sky       *sky.Sky
	clock     *state.Manager
	ellipsoid *geo.Ellipsoid
	log       *logging.Logger
	metrics   Recorder

	limit rate.Limit
	burst int

	upgrader websocket.Upgrader

	ops  chan func()
	done chan struct{}

	// Owned by the Run goroutine.
	clients map[sky.ViewID]*client
	nextID  sky.ViewID
}

type client struct {
	id      sky.ViewID
	conn    *websocket.Conn
	vp      *viewer.Viewport
	limiter *rate.Limiter
	send    chan []byte
}

// NewServer creates a server for s driven by clock. metrics may be nil.
func NewServer(s *sky.Sky, clock *state.Manager, cfg Config, log *logging.Logger, metrics Recorder) *Server {
	if log == nil {
		log = logging.Discard()
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	limit := rate.Limit(cfg.MaxFPS)
	if cfg.MaxFPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Server{
		sky:       s,
		clock:     clock,
		ellipsoid: s.Layout().Ellipsoid,
		log:       log.With("stream"),
		metrics:   metrics,
		limit:     limit,
		burst:     burst,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ops:     make(chan func()),
		done:    make(chan struct{}),
		clients: make(map[sky.ViewID]*client),
		nextID:  firstViewID,
	}
}

// Run drives the clock and serves sky operations until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.clock.TickInterval())
	defer ticker.Stop()

	s.log.Info("stream loop started (tick %v)", s.clock.TickInterval())
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("stream loop shutting down")
			return
		case op := <-s.ops:
			op()
		case <-ticker.C:
			s.tick()
		}
	}
}

// do runs fn on the Run goroutine and waits for it.
func (s *Server) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	op := func() {
		fn()
		close(finished)
	}
	select {
	case s.ops <- op:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrStopped
	}
}

// ViewCount returns the number of viewports attached to the sky.
func (s *Server) ViewCount(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func() { n = s.sky.Registry().Len() })
	return n, err
}

func (s *Server) tick() {
	t := s.clock.Now()
	s.sky.SetDateTime(t)
	s.clock.RecordApplied(t)

	for _, c := range s.clients {
		s.sendFrame(c, t)
	}
}

// sendFrame captures and queues a frame for c. Callers run on the Run
// goroutine.
func (s *Server) sendFrame(c *client, t time.Time) {
	if !c.limiter.Allow() {
		s.metrics.StreamFrame(false)
		return
	}
	msg := Message{Type: MessageFrame, View: c.id, Time: t, Frame: viewer.Capture(s.sky, c.vp)}
	if s.queue(c, msg) {
		s.metrics.StreamFrame(true)
	} else {
		s.metrics.StreamFrame(false)
	}
}

// queue encodes msg onto c's send buffer without blocking.
func (s *Server) queue(c *client, msg Message) bool {
	b, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("encode %s message: %v", msg.Type, err)
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Handler returns the HTTP routes: /ws for viewports and /healthz.
// metrics, when non-nil, is mounted at /metrics.
func (s *Server) Handler(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := observerFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	c := &client{
		conn:    conn,
		limiter: rate.NewLimiter(s.limit, s.burst),
		send:    make(chan []byte, sendBuffer),
	}

	ctx := r.Context()
	if err := s.do(ctx, func() { s.attach(c, lat, lon) }); err != nil {
		s.log.Warn("attach remote viewport: %v", err)
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(c)
	}()

	s.readLoop(ctx, c)

	if err := s.do(context.Background(), func() { s.detach(c) }); err != nil {
		s.log.Debug("detach view %d: %v", c.id, err)
	}
	close(c.send)
	<-writerDone
}

// attach registers c with the sky. Runs on the Run goroutine.
func (s *Server) attach(c *client, lat, lon float64) {
	c.id = s.nextID
	s.nextID++
	c.vp = viewer.NewViewport(c.id, viewportName(c.id), s.ellipsoid, 0, 0, 0)
	c.vp.SetObserver(lat, lon)

	s.sky.Attach(c.vp, int(c.id))
	s.clients[c.id] = c
	s.metrics.StreamClientsChanged(len(s.clients))
	s.log.Info("viewport %d connected from observer %.2f,%.2f", c.id, lat, lon)

	s.queue(c, Message{Type: MessageHello, View: c.id, Time: s.sky.DateTime()})
	s.sendFrame(c, s.sky.DateTime())
}

// detach removes c. Runs on the Run goroutine.
func (s *Server) detach(c *client) {
	delete(s.clients, c.id)
	s.sky.Detach(c.id)
	s.metrics.StreamClientsChanged(len(s.clients))
	s.log.Info("viewport %d disconnected", c.id)
}

func (s *Server) writePump(c *client) {
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug("write to view %d: %v", c.id, err)
			// Unblocks the read loop.
			c.conn.Close()
			return
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("read from view %d: %v", c.id, err)
			}
			return
		}

		err := s.do(ctx, func() {
			if err := s.apply(c, cmd); err != nil {
				s.queue(c, Message{Type: MessageError, View: c.id, Error: err.Error()})
			}
		})
		if err != nil {
			return
		}
	}
}

func observerFromQuery(r *http.Request) (lat, lon float64, err error) {
	q := r.URL.Query()
	if v := q.Get("lat"); v != "" {
		if lat, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, 0, errors.New("invalid lat")
		}
	}
	if v := q.Get("lon"); v != "" {
		if lon, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, 0, errors.New("invalid lon")
		}
	}
	return lat, lon, nil
}

func viewportName(id sky.ViewID) string {
	return "remote-" + strconv.FormatUint(uint64(id), 10)
}
