// Package ws streams session snapshots and events to websocket clients and
// collects steering input from the single pilot connection.
package ws

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobblez1/blob2/internal/net/proto"
	"github.com/bobblez1/blob2/internal/sim"
	"github.com/bobblez1/blob2/internal/telemetry"
	"github.com/bobblez1/blob2/internal/world"
)

// ErrPilotTaken is returned when a second pilot tries to connect.
var ErrPilotTaken = errors.New("pilot already connected")

const (
	clientBuffer = 32
	writeWait    = 5 * time.Second
)

type HubConfig struct {
	// BroadcastEvery is the number of ticks between snapshot frames.
	BroadcastEvery int
	Logger         telemetry.Logger
	Metrics        telemetry.Metrics
}

// Hub fans frames out to connected clients. Observe is called from the tick
// loop; connection handlers run on their own goroutines.
type Hub struct {
	every   int
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu        sync.Mutex
	clients   map[*client]struct{}
	pilot     *client
	session   string
	steer     world.Vec
	modifiers sim.Modifiers
	last      *proto.Snapshot
}

type client struct {
	conn  *websocket.Conn
	codec proto.Codec
	role  string
	send  chan []byte
	done  chan struct{}
	once  sync.Once
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.BroadcastEvery < 1 {
		cfg.BroadcastEvery = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	return &Hub{
		every:   cfg.BroadcastEvery,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		clients: make(map[*client]struct{}),
	}
}

// Reset points the hub at a new session. Steering is cleared and modifiers
// replaced; connected clients stay subscribed.
func (h *Hub) Reset(session string, modifiers sim.Modifiers) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = session
	h.steer = world.Vec{}
	h.modifiers = modifiers
	h.last = nil
}

// Input returns the latest pilot input. It is the loop's input hook.
func (h *Hub) Input() sim.Input {
	h.mu.Lock()
	defer h.mu.Unlock()
	return sim.Input{Direction: h.steer, Modifiers: h.modifiers}
}

// Steer stores a pilot direction. Non-finite components are ignored.
func (h *Hub) Steer(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}
	h.mu.Lock()
	h.steer = world.Vec{X: dx, Y: dy}
	h.mu.Unlock()
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HasPilot reports whether a pilot is connected.
func (h *Hub) HasPilot() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pilot != nil
}

// Observe forwards one loop step: every event, and a snapshot on broadcast
// ticks or when the session ended.
func (h *Hub) Observe(step sim.LoopStepResult) {
	if step.Err != nil {
		return
	}
	h.mu.Lock()
	session := h.session
	h.mu.Unlock()

	for _, ev := range step.Result.Events {
		h.broadcast(proto.NewEventFrame(session, ev))
	}
	if step.Result.Tick%uint64(h.every) != 0 && !step.Result.Ended {
		return
	}
	snap := proto.NewSnapshot(session, step.Snapshot)
	h.mu.Lock()
	h.last = &snap
	h.mu.Unlock()
	h.broadcast(snap)
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	encoded := make(map[string][]byte, 2)
	for _, c := range targets {
		data, ok := encoded[c.codec.Name()]
		if !ok {
			var err error
			data, err = c.codec.Marshal(msg)
			if err != nil {
				h.logger.Printf("[ws] failed to encode frame with %s: %v", c.codec.Name(), err)
				continue
			}
			encoded[c.codec.Name()] = data
		}
		h.deliver(c, data)
	}
}

// deliver never blocks; a client that cannot keep up loses frames.
func (h *Hub) deliver(c *client, data []byte) {
	select {
	case c.send <- data:
		h.metrics.Add("ws.frames_sent", 1)
	default:
		h.metrics.Add("ws.frames_dropped", 1)
	}
}

// register queues the hello frame and the latest snapshot before the client
// becomes visible to broadcast, so greetings always come first and never
// wait on a full buffer.
func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.role == proto.RolePilot {
		if h.pilot != nil {
			return ErrPilotTaken
		}
		h.pilot = c
	}
	h.enqueue(c, proto.NewHello(h.session, c.role, c.codec.Name()))
	if h.last != nil {
		h.enqueue(c, h.last)
	}
	h.clients[c] = struct{}{}
	return nil
}

func (h *Hub) enqueue(c *client, msg any) {
	data, err := c.codec.Marshal(msg)
	if err != nil {
		h.logger.Printf("[ws] failed to encode frame with %s: %v", c.codec.Name(), err)
		return
	}
	h.deliver(c, data)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	if h.pilot == c {
		h.pilot = nil
		h.steer = world.Vec{}
	}
	h.mu.Unlock()
	c.close()
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *client) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// writeLoop owns all writes on the connection.
func (c *client) writeLoop(logger telemetry.Logger) {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(c.messageType(), data); err != nil {
				logger.Printf("[ws] write failed for %s: %v", c.role, err)
				return
			}
		}
	}
}
