package stream

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/litescript/ls-skydome/internal/ephem"
	"github.com/litescript/ls-skydome/internal/observability"
	"github.com/litescript/ls-skydome/internal/sky"
	"github.com/litescript/ls-skydome/internal/state"
)

type harness struct {
	srv     *Server
	http    *httptest.Server
	metrics *observability.SkyCollector
	cancel  context.CancelFunc
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	tex := filepath.Join(t.TempDir(), "moon.png")
	f, err := os.Create(tex)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 2, 1))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	metrics, err := observability.NewSkyCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewSkyCollector: %v", err)
	}

	start := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	opts := sky.DefaultOptions()
	opts.Ephemeris = ephem.NewAlmanac()
	opts.DateTime = start
	opts.MoonTexture = tex
	opts.Metrics = metrics
	s, err := sky.New(opts)
	if err != nil {
		t.Fatalf("sky.New: %v", err)
	}

	clockCfg := state.DefaultConfig()
	clockCfg.Start = start
	clockCfg.Rate = 3600
	clockCfg.TickInterval = 10 * time.Millisecond
	clock := state.NewManager(clockCfg)

	srv := NewServer(s, clock, cfg, nil, metrics)
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)

	h := &harness{
		srv:     srv,
		http:    httptest.NewServer(srv.Handler(metrics.Handler())),
		metrics: metrics,
		cancel:  cancel,
	}
	t.Cleanup(func() {
		h.http.Close()
		cancel()
	})
	return h
}

func (h *harness) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m Message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

// readUntil reads messages until pred matches or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, pred func(Message) bool) Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if m := readMessage(t, conn); pred(m) {
			return m
		}
	}
	t.Fatal("condition not met before deadline")
	return Message{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestServer_ConnectStreamsFrames(t *testing.T) {
	h := newHarness(t, Config{})
	conn := h.dial(t, "?lat=51.48&lon=0")
	defer conn.Close()

	hello := readMessage(t, conn)
	if hello.Type != MessageHello || hello.View == 0 {
		t.Fatalf("first message = %+v, want hello with a view id", hello)
	}

	first := readMessage(t, conn)
	if first.Type != MessageFrame || first.Frame == nil {
		t.Fatalf("second message = %+v, want frame", first)
	}
	if first.Frame.Sun == nil || !first.Frame.Atmosphere {
		t.Errorf("frame missing sun or atmosphere: %+v", first.Frame)
	}

	later := readUntil(t, conn, func(m Message) bool {
		return m.Type == MessageFrame && m.Time.After(first.Time)
	})
	if later.View != hello.View {
		t.Errorf("frame view = %d, want %d", later.View, hello.View)
	}

	n, err := h.srv.ViewCount(context.Background())
	if err != nil || n != 1 {
		t.Errorf("ViewCount = %d, %v, want 1", n, err)
	}
	if got := testutil.ToFloat64(h.metrics.StreamClients); got != 1 {
		t.Errorf("stream clients = %v, want 1", got)
	}
}

func TestServer_Commands(t *testing.T) {
	h := newHarness(t, Config{})
	conn := h.dial(t, "")
	defer conn.Close()
	readMessage(t, conn) // hello

	if err := conn.WriteJSON(map[string]any{"visible": map[string]any{"body": "stars", "on": false}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(m Message) bool {
		return m.Type == MessageFrame && len(m.Frame.Stars) == 0 && m.Frame.Sun != nil
	})

	if err := conn.WriteJSON(map[string]any{"ambient": 0.4}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(m Message) bool {
		return m.Type == MessageFrame && m.Frame.Ambient > 0.399 && m.Frame.Ambient < 0.401
	})

	if err := conn.WriteJSON(map[string]any{"observer": map[string]any{"lat": -33.9, "lon": 151.2}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"autoAmbience": true}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := conn.WriteJSON(map[string]any{"visible": map[string]any{"body": "comet", "on": true}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readUntil(t, conn, func(m Message) bool { return m.Type == MessageError })
	if !strings.Contains(msg.Error, "comet") {
		t.Errorf("error = %q, want unknown body", msg.Error)
	}
}

func TestServer_DetachOnClose(t *testing.T) {
	h := newHarness(t, Config{})
	a := h.dial(t, "")
	b := h.dial(t, "")
	readMessage(t, a)
	readMessage(t, b)

	waitFor(t, func() bool {
		n, _ := h.srv.ViewCount(context.Background())
		return n == 2
	})

	a.Close()
	waitFor(t, func() bool {
		n, _ := h.srv.ViewCount(context.Background())
		return n == 1
	})
	b.Close()
	waitFor(t, func() bool {
		n, _ := h.srv.ViewCount(context.Background())
		return n == 0
	})
	if got := testutil.ToFloat64(h.metrics.StreamClients); got != 0 {
		t.Errorf("stream clients = %v, want 0", got)
	}
}

func TestServer_RateLimitDropsFrames(t *testing.T) {
	h := newHarness(t, Config{MaxFPS: 0.001, Burst: 1})
	conn := h.dial(t, "")
	defer conn.Close()
	readMessage(t, conn) // hello
	readMessage(t, conn) // initial frame uses the burst

	waitFor(t, func() bool {
		return testutil.ToFloat64(h.metrics.StreamFramesDropped) >= 3
	})
	if got := testutil.ToFloat64(h.metrics.StreamFrames); got != 1 {
		t.Errorf("frames sent = %v, want 1", got)
	}
}

func TestServer_BadObserverQuery(t *testing.T) {
	h := newHarness(t, Config{})
	resp, err := http.Get(h.http.URL + "/ws?lat=north")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h := newHarness(t, Config{})
	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(h.http.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestServer_StoppedRejects(t *testing.T) {
	h := newHarness(t, Config{})
	h.cancel()
	<-h.srv.done

	if _, err := h.srv.ViewCount(context.Background()); err != ErrStopped {
		t.Errorf("ViewCount after stop = %v, want ErrStopped", err)
	}
}

func TestMessage_JSON(t *testing.T) {
	b, err := json.Marshal(Message{Type: MessageError, View: 3, Error: "boom"})
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"type":"error"`) || strings.Contains(s, `"frame"`) {
		t.Errorf("json = %s", s)
	}
}
