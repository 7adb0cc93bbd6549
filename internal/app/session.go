package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobblez1/blob2/internal/config"
	servernet "github.com/bobblez1/blob2/internal/net"
	"github.com/bobblez1/blob2/internal/net/ws"
	"github.com/bobblez1/blob2/internal/sim"
	"github.com/bobblez1/blob2/internal/telemetry"
	"github.com/bobblez1/blob2/logging"
)

type pendingSession struct {
	id  string
	cfg config.Config
}

// Manager owns the running session and swaps it on restart. Run is the only
// goroutine that creates or steps engines.
type Manager struct {
	base      config.Config
	publisher logging.Publisher
	router    *logging.Router
	hub       *ws.Hub
	logger    telemetry.Logger
	metrics   *telemetry.Counters
	clock     logging.Clock

	restarts chan pendingSession

	mu     sync.Mutex
	info   servernet.SessionInfo
	cancel context.CancelFunc
}

type ManagerConfig struct {
	Base      config.Config
	Publisher logging.Publisher
	Router    *logging.Router
	Hub       *ws.Hub
	Logger    telemetry.Logger
	Metrics   *telemetry.Counters
	Clock     logging.Clock
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Publisher == nil {
		if cfg.Router != nil {
			cfg.Publisher = cfg.Router
		} else {
			cfg.Publisher = logging.NopPublisher()
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewCounters()
	}
	if cfg.Hub == nil {
		cfg.Hub = ws.NewHub(ws.HubConfig{BroadcastEvery: cfg.Base.Server.BroadcastEvery, Logger: cfg.Logger, Metrics: cfg.Metrics})
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.ClockFunc(time.Now)
	}
	return &Manager{
		base:      cfg.Base,
		publisher: cfg.Publisher,
		router:    cfg.Router,
		hub:       cfg.Hub,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		clock:     cfg.Clock,
		restarts:  make(chan pendingSession, 1),
	}
}

// Hub returns the websocket hub fed by the manager.
func (m *Manager) Hub() *ws.Hub {
	return m.hub
}

// Run plays sessions until ctx is cancelled. A finished session stays
// visible until a restart request arrives.
func (m *Manager) Run(ctx context.Context) error {
	next := pendingSession{id: uuid.NewString(), cfg: m.base}
	for {
		loop, err := m.start(next)
		if err != nil {
			return err
		}
		sessionCtx, cancel := context.WithCancel(ctx)
		m.mu.Lock()
		m.cancel = cancel
		m.mu.Unlock()
		if len(m.restarts) > 0 {
			cancel()
		}

		err = loop.Run(sessionCtx)
		cancel()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		select {
		case next = <-m.restarts:
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Manager) start(next pendingSession) (*sim.Loop, error) {
	cfg := next.cfg.Normalized()
	publisher := logging.WithFields(m.publisher, map[string]any{
		"session": next.id,
		"mode":    cfg.Mode,
	})
	engine, err := sim.NewEngine(cfg, sim.Deps{
		Publisher: publisher,
		Logger:    m.logger,
		Metrics:   m.metrics,
		Reporter: sim.ReporterFunc(func(ev sim.Event) {
			m.metrics.Add("events."+string(ev.Kind), 1)
		}),
		Clock: m.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("start session %s: %w", next.id, err)
	}
	cfg = engine.Config()
	m.hub.Reset(next.id, sim.Modifiers{
		SpeedBoost:      cfg.Modifiers.SpeedBoost,
		PointMultiplier: cfg.Modifiers.PointMultiplier,
		InstantKill:     cfg.Modifiers.InstantKill,
		AutoRevive:      cfg.Modifiers.AutoRevive,
	})

	snap := engine.Snapshot()
	m.mu.Lock()
	m.info = servernet.SessionInfo{
		ID:      next.id,
		Mode:    string(snap.Mode),
		Team:    snap.Player.Team.String(),
		Seed:    cfg.Seed,
		Bots:    len(snap.Bots),
		Foods:   len(snap.Foods),
		Started: m.clock.Now().UnixMilli(),
	}
	m.mu.Unlock()
	m.metrics.Add("sessions.started", 1)
	m.logger.Printf("[session] %s started mode=%s seed=%s", next.id, snap.Mode, cfg.Seed)

	return sim.NewLoop(engine, sim.LoopConfig{
		TickRate:        cfg.Tick.Rate,
		CatchupMaxTicks: cfg.Tick.CatchupMaxTicks,
	}, sim.LoopHooks{
		Input:     m.hub.Input,
		AfterStep: m.observe,
		OnSessionEnd: func(res sim.Result) {
			m.logger.Printf("[session] %s ended cause=%s score=%d tick=%d", next.id, res.Cause, res.Score, res.Tick)
		},
	}), nil
}

func (m *Manager) observe(step sim.LoopStepResult) {
	if step.ClampedDelta {
		m.metrics.Add("sim.clamped_ticks", 1)
	}
	if step.Duration > step.Budget {
		m.metrics.Add("sim.overruns", 1)
	}
	if step.Err == nil {
		m.mu.Lock()
		m.info.Tick = step.Result.Tick
		m.info.Score = step.Result.Score
		m.info.Bots = len(step.Snapshot.Bots)
		m.info.Foods = len(step.Snapshot.Foods)
		m.info.Ended = step.Result.Ended
		m.info.Cause = string(step.Result.Cause)
		m.mu.Unlock()
	}
	m.hub.Observe(step)
}

// Restart validates req against the base configuration, queues the new
// session and stops the current one.
func (m *Manager) Restart(_ context.Context, req servernet.RestartRequest) (servernet.SessionInfo, error) {
	cfg := m.base
	if req.Mode != "" {
		cfg.Mode = req.Mode
	}
	if req.Team != "" {
		cfg.Team = req.Team
	}
	if strings.TrimSpace(req.Seed) != "" {
		cfg.Seed = req.Seed
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return servernet.SessionInfo{}, err
	}

	next := pendingSession{id: uuid.NewString(), cfg: cfg}
	m.mu.Lock()
	select {
	case <-m.restarts:
	default:
	}
	m.restarts <- next
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
	m.logger.Printf("[session] restart requested mode=%s id=%s", cfg.Mode, next.id)
	return servernet.SessionInfo{ID: next.id, Mode: cfg.Mode, Team: cfg.Team, Seed: cfg.Seed}, nil
}

// Session returns the current session summary.
func (m *Manager) Session() servernet.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

func (m *Manager) Diagnostics() servernet.Diagnostics {
	diag := servernet.Diagnostics{
		Session:   m.Session(),
		TickRate:  m.base.Tick.Rate,
		Clients:   m.hub.Clients(),
		Telemetry: m.metrics.Snapshot(),
	}
	if m.router != nil {
		diag.Logging = m.router.Stats()
	}
	return diag
}
